package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"xiaonuan/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfirmService(store *fakeTxStore, messages *fakeMessages) *ConfirmService {
	if messages == nil {
		messages = &fakeMessages{byID: map[int64]*models.ChatMessage{}}
	}
	svc := NewConfirmService(store, messages, testLogger())
	svc.now = func() time.Time {
		return time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)
	}
	return svc
}

func validInput() *ConfirmationInput {
	return &ConfirmationInput{
		Ref:         models.StandaloneRef(),
		Type:        "expense",
		Amount:      "35.50",
		Description: "午饭",
		Category:    "餐饮美食",
		Date:        "2026-08-30",
		Time:        "12:15",
	}
}

func TestConfirmDeclinedPersistsNothing(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	result, err := svc.Confirm(context.Background(), 1, false, validInput())
	require.NoError(t, err)
	assert.False(t, result.Confirmed)
	assert.Nil(t, result.Transaction)
	assert.Empty(t, store.created)
}

func TestConfirmValid(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	result, err := svc.Confirm(context.Background(), 1, true, validInput())
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, int64(1), result.Transaction.ID)
	assert.Equal(t, "expense", result.Transaction.Type)
	assert.True(t, decimal.RequireFromString("35.50").Equal(result.Transaction.Amount))
	assert.Equal(t, "2026-08-30", result.Transaction.Date)
	require.NotNil(t, result.Transaction.Time)

	require.Len(t, store.created, 1)
	tx := store.created[0]
	assert.Equal(t, int64(1), tx.UserID)
	assert.Equal(t, "CNY", tx.Currency)
	assert.Equal(t, "餐饮美食", tx.Category)
	require.NotNil(t, tx.TransactionTime)
	assert.Equal(t, 12, tx.TransactionTime.Hour())
	assert.Equal(t, 15, tx.TransactionTime.Minute())
	// Time is anchored to the transaction date, not the current date.
	assert.Equal(t, tx.TransactionDate.Day(), tx.TransactionTime.Day())
}

func TestConfirmBadAmountFailsBeforeStore(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	input := validInput()
	input.Amount = "abc"
	_, err := svc.Confirm(context.Background(), 1, true, input)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)
	assert.Empty(t, store.created)
}

func TestConfirmValidationOrder(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	// Both type and amount are bad; type is reported first.
	input := validInput()
	input.Type = "transfer"
	input.Amount = "abc"
	_, err := svc.Confirm(context.Background(), 1, true, input)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type", vErr.Field)
}

func TestConfirmRejectsNonPositiveAmount(t *testing.T) {
	svc := newConfirmService(&fakeTxStore{}, nil)

	for _, amount := range []string{"0", "-5"} {
		input := validInput()
		input.Amount = amount
		_, err := svc.Confirm(context.Background(), 1, true, input)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "amount %q", amount)
		assert.Equal(t, "amount", vErr.Field)
	}
}

func TestConfirmBadDate(t *testing.T) {
	svc := newConfirmService(&fakeTxStore{}, nil)

	input := validInput()
	input.Date = "30/08/2026"
	_, err := svc.Confirm(context.Background(), 1, true, input)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "date", vErr.Field)
}

func TestConfirmTimeWithoutDateUsesCurrentDate(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	input := validInput()
	input.Date = ""
	input.Time = "08:45"
	_, err := svc.Confirm(context.Background(), 1, true, input)
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	tx := store.created[0]
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), tx.TransactionDate)
	require.NotNil(t, tx.TransactionTime)
	assert.Equal(t, time.Date(2026, 9, 1, 8, 45, 0, 0, time.UTC), *tx.TransactionTime)
}

func TestConfirmDefaultsCategory(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	input := validInput()
	input.Category = "  "
	_, err := svc.Confirm(context.Background(), 1, true, input)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryUncategorized, store.created[0].Category)
}

func TestConfirmMessageOwnership(t *testing.T) {
	messages := &fakeMessages{byID: map[int64]*models.ChatMessage{
		5: {ID: 5, UserID: 2, Content: "昨天打车花了40"},
	}}
	store := &fakeTxStore{}
	svc := newConfirmService(store, messages)

	input := validInput()
	input.Ref = models.RefFromMessage(5)

	// Another user's message.
	_, err := svc.Confirm(context.Background(), 1, true, input)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Empty(t, store.created)

	// Missing message.
	input.Ref = models.RefFromMessage(99)
	_, err = svc.Confirm(context.Background(), 1, true, input)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	// The owner can confirm.
	input.Ref = models.RefFromMessage(5)
	result, err := svc.Confirm(context.Background(), 2, true, input)
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
}

func TestConfirmStoreFailure(t *testing.T) {
	store := &fakeTxStore{createErr: errors.New("connection reset")}
	svc := newConfirmService(store, nil)

	_, err := svc.Confirm(context.Background(), 1, true, validInput())
	require.Error(t, err)

	var vErr *ValidationError
	assert.False(t, errors.As(err, &vErr))
}

func batchRecord(amount any) map[string]any {
	return map[string]any{
		"type":        "expense",
		"amount":      amount,
		"date":        "2026-08-20",
		"description": "测试",
		"category":    "日用百货",
	}
}

func TestBatchConfirmNotConfirmed(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	result, err := svc.BatchConfirm(context.Background(), 1, false, []map[string]any{batchRecord(10.0)})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ImportedCount)
	assert.Equal(t, "未确认或没有需要导入的交易记录。", result.Message)
	assert.Empty(t, store.batches)
}

func TestBatchConfirmPartialFailure(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	records := []map[string]any{
		batchRecord(10.0),
		batchRecord("not-a-number"),
		batchRecord("25.50"),
	}
	result, err := svc.BatchConfirm(context.Background(), 1, true, records)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, 1, result.SkippedCount)
	require.Len(t, result.Results, 3)

	assert.Equal(t, "imported", result.Results[0].Status)
	require.NotNil(t, result.Results[0].TransactionID)
	assert.Equal(t, "skipped", result.Results[1].Status)
	assert.Nil(t, result.Results[1].TransactionID)
	assert.NotEmpty(t, result.Results[1].Error)
	assert.Equal(t, "imported", result.Results[2].Status)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "第 2 条")

	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 2)
}

func TestBatchConfirmAllInvalid(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	records := []map[string]any{
		batchRecord("x"),
		batchRecord(nil),
	}
	result, err := svc.BatchConfirm(context.Background(), 1, true, records)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ImportedCount)
	assert.Equal(t, 2, result.SkippedCount)
	assert.Empty(t, store.batches)
}

func TestBatchConfirmCommitFailureRollsBackAll(t *testing.T) {
	store := &fakeTxStore{batchErr: errors.New("deadlock detected")}
	svc := newConfirmService(store, nil)

	_, err := svc.BatchConfirm(context.Background(), 1, true, []map[string]any{batchRecord(10.0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch commit failed")
}

func TestBatchConfirmErrorListCapped(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	records := make([]map[string]any, 0, 15)
	for i := 0; i < 15; i++ {
		records = append(records, batchRecord(fmt.Sprintf("bad-%d", i)))
	}
	result, err := svc.BatchConfirm(context.Background(), 1, true, records)
	require.NoError(t, err)
	assert.Equal(t, 15, result.SkippedCount)
	assert.Len(t, result.Errors, maxBatchErrors)
	assert.Len(t, result.Results, 15)
}

func TestBatchConfirmNormalization(t *testing.T) {
	store := &fakeTxStore{}
	svc := newConfirmService(store, nil)

	records := []map[string]any{{
		"type":        "EXPENSE",
		"amount":      42.0,
		"date":        "2026-08-20T13:45:00",
		"description": "导入记录",
	}}
	result, err := svc.BatchConfirm(context.Background(), 1, true, records)
	require.NoError(t, err)
	require.Equal(t, 1, result.ImportedCount)

	tx := store.batches[0][0]
	assert.Equal(t, models.TransactionExpense, tx.Type)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), tx.TransactionDate)
	assert.Equal(t, models.CategoryUncategorized, tx.Category)
	// Missing time defaults to midnight of the transaction date.
	require.NotNil(t, tx.TransactionTime)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), *tx.TransactionTime)
}
