package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSplitChunksShortText(t *testing.T) {
	chunks := splitChunks("短文本", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "短文本", chunks[0])
}

func TestSplitChunksOverlap(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := splitChunks(text, 100, 20)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	// Third chunk starts at 160, runs to the end.
	assert.Len(t, chunks[2], 90)

	// Reassembling with the overlap removed yields the original text.
	joined := chunks[0]
	for _, c := range chunks[1:] {
		joined += c[20:]
	}
	assert.Equal(t, text, joined)
}

func TestSplitChunksCountsRunes(t *testing.T) {
	// CJK text must never split mid-character.
	text := strings.Repeat("账", 150)
	chunks := splitChunks(text, 100, 10)
	require.Len(t, chunks, 2)
	assert.Len(t, []rune(chunks[0]), 100)
	assert.Len(t, []rune(chunks[1]), 60)
}

func TestRecognizeFilePlainText(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{{content: `[
		{"type": "expense", "amount": 35, "date": "2026-08-01", "description": "午饭", "category": "餐饮美食"},
		{"type": "income", "amount": 8500, "date": "2026-08-05", "description": "工资", "category": "工资薪酬"}
	]`}}}
	svc := NewFileService(gw, testLogger())

	data := []byte("日期,类型,金额,描述\n2026-08-01,支出,35,午饭\n2026-08-05,收入,8500,工资\n")
	drafts, summary, err := svc.RecognizeFile(context.Background(), data, "bills.csv")
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "expense", drafts[0].Type)
	assert.Equal(t, "income", drafts[1].Type)
	assert.True(t, drafts[0].Source.IsStandalone())
	assert.Contains(t, summary, "2 条")

	require.Len(t, gw.calls, 1)
	assert.Contains(t, gw.calls[0].user, "午饭")
}

func TestRecognizeFileBadChunkIsSkipped(t *testing.T) {
	// Three chunks: the middle one fails, the others contribute.
	gw := &fakeGateway{responses: []gatewayResponse{
		{content: `[{"type": "expense", "amount": 1, "description": "a"}]`},
		{err: errors.New("upstream timeout")},
		{content: `[{"type": "expense", "amount": 3, "description": "c"}]`},
	}}
	svc := NewFileService(gw, testLogger())

	text := strings.Repeat("x", chunkSize*2+500)
	drafts, _, err := svc.RecognizeFile(context.Background(), []byte(text), "data.txt")
	require.NoError(t, err)
	require.Len(t, gw.calls, 3)
	assert.Len(t, drafts, 2)
}

func TestRecognizeFileNothingFound(t *testing.T) {
	gw := &fakeGateway{responses: []gatewayResponse{{content: `[]`}}}
	svc := NewFileService(gw, testLogger())

	drafts, summary, err := svc.RecognizeFile(context.Background(), []byte("无关内容"), "notes.txt")
	require.NoError(t, err)
	assert.Empty(t, drafts)
	assert.Contains(t, summary, "未能从文件中识别出任何交易记录")
}

func TestFlattenWorkbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"日期", "金额", "描述"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"2026-08-01", 35, "午饭"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := flattenDocument(buf.Bytes(), "bills.xlsx")
	require.NoError(t, err)
	assert.Contains(t, text, "### Sheet1")
	assert.Contains(t, text, "日期,金额,描述")
	assert.Contains(t, text, "2026-08-01,35,午饭")
}

func TestFlattenDocumentRejectsCorruptWorkbook(t *testing.T) {
	_, err := flattenDocument([]byte("this is not a zip archive"), "bills.xlsx")
	assert.Error(t, err)
}
