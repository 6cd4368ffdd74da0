package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeImage(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{{content: `{
		"type": "expense",
		"amount": 123.45,
		"date": "2026-08-30",
		"time": "14:30",
		"description": "在超市购买日用品",
		"category": "日用百货"
	}`}}}
	tempDir := t.TempDir()
	svc := NewReceiptService(gw, tempDir, testLogger())

	draft, summary, err := svc.RecognizeImage(context.Background(), []byte("fake-image-bytes"), "receipt.jpg")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "expense", draft.Type)
	assert.Equal(t, "日用百货", draft.Category)
	assert.True(t, draft.Source.IsStandalone())

	assert.Contains(t, summary, "我已从图片中识别出以下交易信息")
	assert.Contains(t, summary, "¥123.45")
	assert.Contains(t, summary, "支出")

	require.Len(t, gw.calls, 1)
	assert.Contains(t, gw.calls[0].image, "data:image/jpeg;base64,")
	assert.InDelta(t, extractTemperature, gw.calls[0].temperature, 1e-9)

	assertDirEmpty(t, tempDir)
}

func TestRecognizeImageGatewayFailure(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{{err: errors.New("upstream timeout")}}}
	tempDir := t.TempDir()
	svc := NewReceiptService(gw, tempDir, testLogger())

	_, _, err := svc.RecognizeImage(context.Background(), []byte("fake-image-bytes"), "receipt.png")
	assert.ErrorIs(t, err, ErrExtractionFailed)

	// The temp file is removed on the failure path too.
	assertDirEmpty(t, tempDir)
}

func TestRecognizeImageUnparseableResponse(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{{content: "这张图片看不清楚。"}}}
	tempDir := t.TempDir()
	svc := NewReceiptService(gw, tempDir, testLogger())

	_, _, err := svc.RecognizeImage(context.Background(), []byte("fake-image-bytes"), "receipt.jpg")
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assertDirEmpty(t, tempDir)
}

func TestBuildReceiptSummaryIncome(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{{content: `{
		"type": "income", "amount": 500, "date": "2026-08-30", "description": "转账", "category": "其他收入"
	}`}}}
	svc := NewReceiptService(gw, t.TempDir(), testLogger())

	_, summary, err := svc.RecognizeImage(context.Background(), []byte("img"), "transfer.jpg")
	require.NoError(t, err)
	assert.Contains(t, summary, "收入")
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
