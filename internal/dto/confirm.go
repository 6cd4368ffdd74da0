package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TransactionConfirmation is the single-confirmation wire shape. message_id
// -1 marks a standalone confirmation with no chat provenance. All draft
// fields may be overridden by the user before confirming.
type TransactionConfirmation struct {
	MessageID   int64       `json:"message_id"`
	Confirm     bool        `json:"confirm"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
}

type ConfirmedTransaction struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Time        *string         `json:"time,omitempty"`
}

type ConfirmResult struct {
	Confirmed   bool                  `json:"confirmed"`
	Transaction *ConfirmedTransaction `json:"transaction,omitempty"`
}

type BatchConfirmRequest struct {
	Confirmed bool `json:"confirmed"`
	// Transactions is raw, unvalidated external input; each record is
	// normalized and validated independently.
	Transactions []map[string]any `json:"transactions"`
}

type BatchRecordResult struct {
	Index         int    `json:"index"`
	Status        string `json:"status"`
	TransactionID *int64 `json:"transaction_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

type BatchConfirmResult struct {
	Message       string              `json:"message"`
	ImportedCount int                 `json:"imported_count"`
	SkippedCount  int                 `json:"skipped_count"`
	Results       []BatchRecordResult `json:"results"`
	Errors        []string            `json:"errors,omitempty"`
}
