package service

import (
	"context"
	"encoding/json"
	"errors"

	"xiaonuan/internal/models"
)

// CompletionGateway is the synchronous boundary to the completion service.
// Implemented by llm.Client; tests substitute a fake.
type CompletionGateway interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
	CompleteVision(ctx context.Context, system, prompt, image string, temperature float64) (string, error)
}

// ErrExtractionFailed marks a gateway or parse failure on an extraction
// path where the user is actively waiting on a result.
var ErrExtractionFailed = errors.New("extraction failed")

const (
	// Extraction wants determinism; conversation wants some variety.
	extractTemperature = 0.1
	replyTemperature   = 0.7
)

// draftFromMap builds a draft from a decoded model object. Every field is
// coerced loosely: a model returning the wrong JSON type for a field must
// degrade to an empty value, never to a fault.
func draftFromMap(m map[string]any, source models.MessageRef) *models.TransactionDraft {
	return &models.TransactionDraft{
		Type:          stringField(m, "type"),
		Amount:        numberField(m, "amount"),
		Date:          stringField(m, "date"),
		Time:          stringField(m, "time"),
		Description:   stringField(m, "description"),
		Category:      stringField(m, "category"),
		Confidence:    floatField(m, "confidence"),
		MissingFields: stringSliceField(m, "missing_fields"),
		Source:        source,
	}
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func numberField(m map[string]any, key string) json.Number {
	switch v := m[key].(type) {
	case json.Number:
		return v
	case string:
		return json.Number(v)
	case float64:
		b, _ := json.Marshal(v)
		return json.Number(b)
	default:
		return ""
	}
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case json.Number:
		f, _ := v.Float64()
		return f
	case float64:
		return v
	default:
		return 0
	}
}

func stringSliceField(m map[string]any, key string) []string {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
