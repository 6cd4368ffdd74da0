package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"xiaonuan/internal/dto"
	"xiaonuan/internal/models"
	"xiaonuan/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService    *service.ChatService
	confirmService *service.ConfirmService
	receiptService *service.ReceiptService
	fileService    *service.FileService
	logger         *zap.Logger
}

func NewChatHandler(
	chatService *service.ChatService,
	confirmService *service.ConfirmService,
	receiptService *service.ReceiptService,
	fileService *service.FileService,
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		confirmService: confirmService,
		receiptService: receiptService,
		fileService:    fileService,
		logger:         logger,
	}
}

func (h *ChatHandler) CreateMessage(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.MessageCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Content is required",
		})
	}

	resp, err := h.chatService.HandleMessage(c.Context(), userID, &req)
	if err != nil {
		h.logger.Error("Failed to handle chat message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to handle chat message",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *ChatHandler) History(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	messages, err := h.chatService.History(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to load chat history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load chat history",
		})
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) Personalities(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"personalities": service.AssistantMetadata()})
}

// ConfirmTransaction runs one extracted draft through the confirmation
// gate. message_id -1 marks a confirmation without chat provenance.
func (h *ChatHandler) ConfirmTransaction(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.TransactionConfirmation
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.confirmService.Confirm(c.Context(), userID, req.Confirm, &service.ConfirmationInput{
		Ref:         models.RefFromWireID(req.MessageID),
		Type:        req.Type,
		Amount:      req.Amount.String(),
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Time:        req.Time,
	})
	if err != nil {
		return h.confirmError(c, err)
	}

	return c.JSON(result)
}

func (h *ChatHandler) BatchConfirm(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.BatchConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.confirmService.BatchConfirm(c.Context(), userID, req.Confirmed, req.Transactions)
	if err != nil {
		h.logger.Error("Batch confirmation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "批量导入失败，所有记录均未保存，请稍后重试。",
		})
	}

	return c.JSON(result)
}

func (h *ChatHandler) RecognizeImage(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	data, filename, err := readUpload(c, "image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image file is required",
		})
	}

	draft, summary, err := h.receiptService.RecognizeImage(c.Context(), data, filename)
	if err != nil {
		h.logger.Error("Image recognition failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "图片识别失败，请稍后重试或手动记账。",
		})
	}

	h.chatService.SaveAssistantMessage(c.Context(), userID, summary)

	return c.JSON(dto.RecognitionResponse{
		Message:           summary,
		ExtractedInfo:     draft,
		NeedsConfirmation: true,
	})
}

func (h *ChatHandler) RecognizeFile(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	data, filename, err := readUpload(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	drafts, summary, err := h.fileService.RecognizeFile(c.Context(), data, filename)
	if err != nil {
		h.logger.Error("File recognition failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "文件识别失败，请检查文件格式后重试。",
		})
	}

	h.chatService.SaveAssistantMessage(c.Context(), userID, summary)

	return c.JSON(dto.RecognitionResponse{
		Message:           summary,
		ExtractedInfo:     drafts,
		NeedsConfirmation: len(drafts) > 0,
	})
}

func (h *ChatHandler) confirmError(c *fiber.Ctx, err error) error {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": vErr.Error(),
		})
	case errors.Is(err, service.ErrMessageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Message not found",
		})
	case errors.Is(err, service.ErrNotAuthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not authorized to confirm this transaction",
		})
	default:
		h.logger.Error("Confirmation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Confirmation failed",
		})
	}
}

func readUpload(c *fiber.Ctx, field string) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	data, err := readMultipartFile(file)
	if err != nil {
		return nil, "", err
	}
	return data, file.Filename, nil
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
