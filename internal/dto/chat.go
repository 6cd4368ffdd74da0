package dto

import "xiaonuan/internal/models"

type MessageCreate struct {
	Content       string `json:"content"`
	PersonalityID *int64 `json:"personality_id"`
}

type MessageResponse struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Content       string `json:"content"`
	IsUser        bool   `json:"is_user"`
	PersonalityID *int64 `json:"personality_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type ChatResponse struct {
	Message           MessageResponse          `json:"message"`
	ExtractedInfo     *models.TransactionDraft `json:"extracted_info,omitempty"`
	NeedsConfirmation bool                     `json:"needs_confirmation"`
}

type PersonalityInfo struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	NameEn          string `json:"name_en"`
	PersonalityType string `json:"personality_type"`
	Description     string `json:"description"`
	IsDefault       bool   `json:"is_default"`
}

// RecognitionResponse is the shared upload-boundary shape. ExtractedInfo is
// a single draft for image recognition and a draft list for file
// recognition.
type RecognitionResponse struct {
	Message           string `json:"message"`
	ExtractedInfo     any    `json:"extracted_info"`
	NeedsConfirmation bool   `json:"needs_confirmation"`
}
