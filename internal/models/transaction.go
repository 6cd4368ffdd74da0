package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// ParseTransactionType normalizes a user- or model-supplied kind string.
// Matching is case-insensitive; anything other than income/expense is an
// error naming the offending value.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(TransactionIncome):
		return TransactionIncome, nil
	case string(TransactionExpense):
		return TransactionExpense, nil
	default:
		return "", fmt.Errorf("invalid transaction type: %q", s)
	}
}

type Transaction struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	Type            TransactionType `db:"type"`
	Amount          decimal.Decimal `db:"amount"`
	Currency        string          `db:"currency"`
	Description     string          `db:"description"`
	Category        string          `db:"category"`
	TransactionDate time.Time       `db:"transaction_date"`
	TransactionTime *time.Time      `db:"transaction_time"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	IsDeleted       bool            `db:"is_deleted"`
}
