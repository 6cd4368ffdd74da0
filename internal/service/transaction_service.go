package service

import (
	"context"
	"errors"
	"time"

	"xiaonuan/internal/dto"
	"xiaonuan/internal/models"
	"xiaonuan/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionService covers the direct ledger CRUD surface. Creation runs
// through the same confirmation gate as chat drafts, so a directly posted
// transaction is validated identically to a confirmed one.
type TransactionService struct {
	repo    *repository.TransactionRepository
	confirm *ConfirmService
	logger  *zap.Logger
}

func NewTransactionService(repo *repository.TransactionRepository, confirm *ConfirmService, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		repo:    repo,
		confirm: confirm,
		logger:  logger,
	}
}

func (s *TransactionService) Create(ctx context.Context, userID int64, req *dto.TransactionCreate) (*dto.TransactionResponse, error) {
	result, err := s.confirm.Confirm(ctx, userID, true, &ConfirmationInput{
		Ref:         models.StandaloneRef(),
		Type:        req.Type,
		Amount:      req.Amount.String(),
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Time:        req.Time,
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.GetByID(ctx, userID, result.Transaction.ID)
	if err != nil {
		return nil, err
	}
	return transactionResponse(tx), nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (*dto.TransactionResponse, error) {
	tx, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return transactionResponse(tx), nil
}

func (s *TransactionService) List(ctx context.Context, userID int64, f repository.TransactionFilter) ([]*dto.TransactionResponse, int, error) {
	txs, total, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*dto.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse(tx))
	}
	return out, total, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id int64, req *dto.TransactionUpdate) (*dto.TransactionResponse, error) {
	tx, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if req.Type != nil {
		txType, err := models.ParseTransactionType(*req.Type)
		if err != nil {
			return nil, &ValidationError{Field: "type", Reason: err.Error()}
		}
		tx.Type = txType
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(req.Amount.String())
		if err != nil || !amount.IsPositive() {
			return nil, &ValidationError{Field: "amount", Reason: "amount must be a positive number"}
		}
		tx.Amount = amount
	}
	if req.Description != nil {
		tx.Description = sanitizeUTF8(*req.Description)
	}
	if req.Category != nil {
		tx.Category = *req.Category
	}
	if req.Currency != nil {
		tx.Currency = *req.Currency
	}
	if req.Date != nil {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, &ValidationError{Field: "date", Reason: err.Error()}
		}
		tx.TransactionDate = parsed
	}
	if req.Time != nil {
		if *req.Time == "" {
			tx.TransactionTime = nil
		} else {
			parsed, err := time.Parse("15:04", *req.Time)
			if err != nil {
				return nil, &ValidationError{Field: "time", Reason: err.Error()}
			}
			d := tx.TransactionDate
			combined := time.Date(d.Year(), d.Month(), d.Day(), parsed.Hour(), parsed.Minute(), 0, 0, d.Location())
			tx.TransactionTime = &combined
		}
	}
	tx.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, tx); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return transactionResponse(tx), nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	err := s.repo.SoftDelete(ctx, userID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTransactionNotFound
	}
	return err
}

func transactionResponse(tx *models.Transaction) *dto.TransactionResponse {
	resp := &dto.TransactionResponse{
		ID:              tx.ID,
		UserID:          tx.UserID,
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		Description:     tx.Description,
		Category:        tx.Category,
		TransactionDate: tx.TransactionDate.Format("2006-01-02"),
		CreatedAt:       tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       tx.UpdatedAt.Format(time.RFC3339),
		IsDeleted:       tx.IsDeleted,
	}
	if tx.TransactionTime != nil {
		t := tx.TransactionTime.Format(time.RFC3339)
		resp.TransactionTime = &t
	}
	return resp
}
