package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type TransactionCreate struct {
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Date        string      `json:"transaction_date"`
	Time        string      `json:"transaction_time"`
	Currency    string      `json:"currency"`
}

type TransactionUpdate struct {
	Type        *string      `json:"type"`
	Amount      *json.Number `json:"amount"`
	Description *string      `json:"description"`
	Category    *string      `json:"category"`
	Date        *string      `json:"transaction_date"`
	Time        *string      `json:"transaction_time"`
	Currency    *string      `json:"currency"`
}

type TransactionResponse struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	TransactionDate string          `json:"transaction_date"`
	TransactionTime *string         `json:"transaction_time,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
	IsDeleted       bool            `json:"is_deleted"`
}
