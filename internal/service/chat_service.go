package service

import (
	"context"
	"time"

	"xiaonuan/internal/dto"
	"xiaonuan/internal/models"

	"go.uber.org/zap"
)

// fallbackReply is returned when the completion service cannot produce a
// conversational answer; the chat never surfaces raw gateway errors.
const fallbackReply = "抱歉，我现在无法正常回应，请稍后再试。"

// MessageStore is the slice of the persistent store the chat flow needs.
type MessageStore interface {
	Create(ctx context.Context, msg *models.ChatMessage) (int64, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.ChatMessage, error)
}

// ChatService handles one chat turn: persist the user message, extract any
// recording intent, generate the assistant reply.
type ChatService struct {
	messages  MessageStore
	extractor *ExtractService
	gateway   CompletionGateway
	logger    *zap.Logger
	now       func() time.Time
}

func NewChatService(messages MessageStore, extractor *ExtractService, gateway CompletionGateway, logger *zap.Logger) *ChatService {
	return &ChatService{
		messages:  messages,
		extractor: extractor,
		gateway:   gateway,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ChatService) HandleMessage(ctx context.Context, userID int64, req *dto.MessageCreate) (*dto.ChatResponse, error) {
	userMsg := &models.ChatMessage{
		UserID:        userID,
		Content:       sanitizeUTF8(req.Content),
		IsUser:        true,
		PersonalityID: req.PersonalityID,
		CreatedAt:     s.now(),
	}
	id, err := s.messages.Create(ctx, userMsg)
	if err != nil {
		return nil, err
	}
	userMsg.ID = id

	draft := s.extractor.ExtractFinancialData(ctx, req.Content, s.now(), models.RefFromMessage(userMsg.ID))

	reply := s.generateReply(ctx, req.Content, req.PersonalityID)
	aiMsg := &models.ChatMessage{
		UserID:        userID,
		Content:       sanitizeUTF8(reply),
		IsUser:        false,
		PersonalityID: req.PersonalityID,
		CreatedAt:     s.now(),
	}
	if aiMsg.ID, err = s.messages.Create(ctx, aiMsg); err != nil {
		return nil, err
	}

	return &dto.ChatResponse{
		Message:           messageResponse(aiMsg),
		ExtractedInfo:     draft,
		NeedsConfirmation: draft != nil,
	}, nil
}

// SaveAssistantMessage records a system-generated assistant message (e.g.
// the receipt recognition summary) in the chat history.
func (s *ChatService) SaveAssistantMessage(ctx context.Context, userID int64, content string) {
	msg := &models.ChatMessage{
		UserID:    userID,
		Content:   sanitizeUTF8(content),
		IsUser:    false,
		CreatedAt: s.now(),
	}
	if _, err := s.messages.Create(ctx, msg); err != nil {
		s.logger.Warn("failed to save assistant message", zap.Error(err))
	}
}

func (s *ChatService) History(ctx context.Context, userID int64, limit, offset int) ([]dto.MessageResponse, error) {
	messages, err := s.messages.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, messageResponse(msg))
	}
	return out, nil
}

func (s *ChatService) generateReply(ctx context.Context, content string, personalityID *int64) string {
	assistant := AssistantByID(personalityID)
	reply, err := s.gateway.Complete(ctx, assistant.SystemPrompt, content, replyTemperature)
	if err != nil {
		s.logger.Warn("reply generation failed", zap.String("assistant", assistant.Name), zap.Error(err))
		return fallbackReply
	}
	return reply
}

func messageResponse(msg *models.ChatMessage) dto.MessageResponse {
	return dto.MessageResponse{
		ID:            msg.ID,
		UserID:        msg.UserID,
		Content:       msg.Content,
		IsUser:        msg.IsUser,
		PersonalityID: msg.PersonalityID,
		CreatedAt:     msg.CreatedAt.Format(time.RFC3339),
	}
}
