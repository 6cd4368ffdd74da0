package models

import "encoding/json"

// TransactionDraft is the unvalidated candidate a model extraction produces.
// Fields mirror the extractor's JSON protocol and are kept as loose strings
// and numbers on purpose: nothing here is trusted until the confirmation
// gate validates it. A draft is never mutated after creation; confirming it
// produces a new Transaction.
type TransactionDraft struct {
	Type          string      `json:"type"`
	Amount        json.Number `json:"amount,omitempty"`
	Date          string      `json:"date,omitempty"`
	Time          string      `json:"time,omitempty"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Confidence    float64     `json:"confidence,omitempty"`
	MissingFields []string    `json:"missing_fields,omitempty"`

	// Source points back to the chat message the draft was extracted from,
	// when there is one. Not part of the wire payload.
	Source MessageRef `json:"-"`
}
