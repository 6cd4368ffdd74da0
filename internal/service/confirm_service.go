package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"xiaonuan/internal/dto"
	"xiaonuan/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrMessageNotFound = errors.New("chat message not found")
	ErrNotAuthorized   = errors.New("not authorized to confirm this transaction")
)

// ValidationError reports which field of a confirmation failed and why.
// It is fatal to that one record only.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// TransactionStore is the slice of the persistent store the confirmation
// gate depends on.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) (int64, error)
	CreateBatch(ctx context.Context, txs []*models.Transaction) ([]int64, error)
}

// MessageGetter resolves chat message provenance for the ownership check.
type MessageGetter interface {
	GetByID(ctx context.Context, id int64) (*models.ChatMessage, error)
}

// ConfirmationInput carries one draft's fields into the gate. All values
// are source-representation strings; the gate owns every parse.
type ConfirmationInput struct {
	Ref         models.MessageRef
	Type        string
	Amount      string
	Description string
	Category    string
	Date        string
	Time        string
}

// ConfirmService validates drafts and persists them under an explicit
// confirmation gate, one at a time or as a batch.
type ConfirmService struct {
	txStore  TransactionStore
	messages MessageGetter
	logger   *zap.Logger
	now      func() time.Time
}

func NewConfirmService(txStore TransactionStore, messages MessageGetter, logger *zap.Logger) *ConfirmService {
	return &ConfirmService{
		txStore:  txStore,
		messages: messages,
		logger:   logger,
		now:      time.Now,
	}
}

// Confirm persists exactly one draft, or discards it. confirm == false
// short-circuits with no validation and no side effects.
func (s *ConfirmService) Confirm(ctx context.Context, userID int64, confirm bool, input *ConfirmationInput) (*dto.ConfirmResult, error) {
	if !confirm {
		return &dto.ConfirmResult{Confirmed: false}, nil
	}

	// A standalone reference (direct or batch-originated entry) bypasses the
	// provenance check entirely.
	if msgID, ok := input.Ref.MessageID(); ok {
		msg, err := s.messages.GetByID(ctx, msgID)
		if err != nil {
			return nil, ErrMessageNotFound
		}
		if msg.UserID != userID {
			return nil, ErrNotAuthorized
		}
	}

	tx, err := s.buildTransaction(userID, input)
	if err != nil {
		return nil, err
	}

	id, err := s.txStore.Create(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("persist transaction: %w", err)
	}
	tx.ID = id

	s.logger.Info("transaction confirmed",
		zap.Int64("transaction_id", id),
		zap.Int64("user_id", userID),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()),
	)
	return &dto.ConfirmResult{Confirmed: true, Transaction: confirmedPayload(tx)}, nil
}

// buildTransaction validates the input in a fixed order (type, amount,
// date, time) and assembles the persistable record. Each failure names the
// offending field; nothing is silently coerced.
func (s *ConfirmService) buildTransaction(userID int64, input *ConfirmationInput) (*models.Transaction, error) {
	txType, err := models.ParseTransactionType(input.Type)
	if err != nil {
		return nil, &ValidationError{Field: "type", Reason: err.Error()}
	}

	amountStr := strings.TrimSpace(input.Amount)
	if amountStr == "" {
		return nil, &ValidationError{Field: "amount", Reason: "amount is required"}
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Reason: fmt.Sprintf("cannot parse %q as a number", amountStr)}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "amount must be positive"}
	}

	now := s.now()

	var txDate time.Time
	if input.Date != "" {
		parsed, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, &ValidationError{Field: "date", Reason: err.Error()}
		}
		txDate = parsed
	} else {
		txDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	var txTime *time.Time
	if input.Time != "" {
		parsed, err := time.Parse("15:04", input.Time)
		if err != nil {
			return nil, &ValidationError{Field: "time", Reason: err.Error()}
		}
		// Date and time are stored as one consistent instant, never a bare
		// time-of-day. Time without a date combines with the current date.
		combined := time.Date(txDate.Year(), txDate.Month(), txDate.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, txDate.Location())
		txTime = &combined
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = models.CategoryUncategorized
	}

	return &models.Transaction{
		UserID:          userID,
		Type:            txType,
		Amount:          amount,
		Currency:        "CNY",
		Description:     sanitizeUTF8(input.Description),
		Category:        category,
		TransactionDate: txDate,
		TransactionTime: txTime,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// maxBatchErrors caps the quick-diagnosis error list in a batch summary;
// the full per-record list is always returned alongside it.
const maxBatchErrors = 10

// BatchConfirm applies the confirmation gate across a list of raw records
// with per-record failure isolation. Validation happens record by record
// before the commit boundary; the accumulated successes are then persisted
// as one unit, and only a failure of that commit step rolls everything
// back.
func (s *ConfirmService) BatchConfirm(ctx context.Context, userID int64, confirmed bool, records []map[string]any) (*dto.BatchConfirmResult, error) {
	if !confirmed || len(records) == 0 {
		return &dto.BatchConfirmResult{
			Message: "未确认或没有需要导入的交易记录。",
			Results: []dto.BatchRecordResult{},
		}, nil
	}

	results := make([]dto.BatchRecordResult, 0, len(records))
	var (
		pending    []*models.Transaction
		pendingIdx []int
		errs       []string
	)

	for i, record := range records {
		tx, err := s.buildTransaction(userID, normalizeRecord(record))
		if err != nil {
			results = append(results, dto.BatchRecordResult{Index: i, Status: "skipped", Error: err.Error()})
			if len(errs) < maxBatchErrors {
				errs = append(errs, fmt.Sprintf("第 %d 条: %v", i+1, err))
			}
			continue
		}
		results = append(results, dto.BatchRecordResult{Index: i, Status: "imported"})
		pending = append(pending, tx)
		pendingIdx = append(pendingIdx, len(results)-1)
	}

	ids, err := s.txStore.CreateBatch(ctx, pending)
	if err != nil {
		s.logger.Error("batch commit failed", zap.Int("accepted", len(pending)), zap.Error(err))
		return nil, fmt.Errorf("batch commit failed: %w", err)
	}
	for j := range ids {
		id := ids[j]
		results[pendingIdx[j]].TransactionID = &id
	}

	imported := len(pending)
	skipped := len(records) - imported
	s.logger.Info("batch confirmation finished",
		zap.Int64("user_id", userID),
		zap.Int("imported", imported),
		zap.Int("skipped", skipped),
	)

	return &dto.BatchConfirmResult{
		Message:       fmt.Sprintf("成功导入 %d 条交易记录，跳过 %d 条。", imported, skipped),
		ImportedCount: imported,
		SkippedCount:  skipped,
		Results:       results,
		Errors:        errs,
	}, nil
}

// normalizeRecord defensively massages one raw batch record before
// validation: kind lower-cased, amount coerced to its text form, missing
// category and time defaulted, timestamp suffixes stripped off dates.
// Whatever cannot be coerced is left for validation to reject.
func normalizeRecord(record map[string]any) *ConfirmationInput {
	input := &ConfirmationInput{
		Ref:         models.StandaloneRef(),
		Type:        strings.ToLower(strings.TrimSpace(rawString(record, "type"))),
		Description: rawString(record, "description"),
		Category:    strings.TrimSpace(rawString(record, "category")),
	}

	switch v := record["amount"].(type) {
	case float64:
		input.Amount = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		input.Amount = strings.TrimSpace(v)
	default:
		if n, ok := v.(fmt.Stringer); ok {
			input.Amount = n.String()
		}
	}

	date := strings.TrimSpace(rawString(record, "date"))
	if idx := strings.IndexAny(date, "T "); idx > 0 {
		date = date[:idx]
	}
	input.Date = date

	input.Time = strings.TrimSpace(rawString(record, "time"))
	if input.Time == "" {
		input.Time = "00:00"
	}

	return input
}

func rawString(record map[string]any, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

func confirmedPayload(tx *models.Transaction) *dto.ConfirmedTransaction {
	payload := &dto.ConfirmedTransaction{
		ID:          tx.ID,
		Amount:      tx.Amount,
		Type:        string(tx.Type),
		Description: tx.Description,
		Category:    tx.Category,
		Date:        tx.TransactionDate.Format("2006-01-02"),
	}
	if tx.TransactionTime != nil {
		t := tx.TransactionTime.Format(time.RFC3339)
		payload.Time = &t
	}
	return payload
}
