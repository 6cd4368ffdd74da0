package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"xiaonuan/internal/llm"
	"xiaonuan/internal/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const fileSystemPrompt = "你是一个专业的账单数据提取助手，擅长从表格和文本数据中批量提取交易记录。"

const (
	// Windows stay well below the completion service's practical output
	// ceiling; oversized requests come back as truncated, invalid JSON.
	chunkSize = 3000
	// Each window after the first starts this many runes before its nominal
	// boundary so a row split exactly at the boundary is not lost.
	chunkOverlap = 100
)

// FileService turns a spreadsheet/CSV/text document into zero or more
// transaction drafts via chunked extraction.
type FileService struct {
	gateway CompletionGateway
	logger  *zap.Logger
}

func NewFileService(gateway CompletionGateway, logger *zap.Logger) *FileService {
	return &FileService{
		gateway: gateway,
		logger:  logger,
	}
}

// RecognizeFile flattens the document to plain text, extracts each chunk
// independently and merges the results in chunk order. A single bad chunk
// is logged and skipped; partial results always beat none.
func (s *FileService) RecognizeFile(ctx context.Context, data []byte, filename string) ([]*models.TransactionDraft, string, error) {
	text, err := flattenDocument(data, filename)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	chunks := splitChunks(text, chunkSize, chunkOverlap)
	s.logger.Info("file recognition started",
		zap.String("filename", filename),
		zap.Int("text_len", len(text)),
		zap.Int("chunks", len(chunks)),
	)

	var drafts []*models.TransactionDraft
	for i, chunk := range chunks {
		chunkDrafts, ok := s.extractChunk(ctx, chunk)
		if !ok {
			s.logger.Warn("skipping unparseable chunk", zap.Int("chunk", i), zap.Int("total", len(chunks)))
			continue
		}
		drafts = append(drafts, chunkDrafts...)
	}

	if len(drafts) == 0 {
		return nil, "未能从文件中识别出任何交易记录，请检查文件内容是否包含收支信息。", nil
	}
	return drafts, fmt.Sprintf("已从文件中识别出 %d 条交易记录，请核对后确认导入。", len(drafts)), nil
}

func (s *FileService) extractChunk(ctx context.Context, chunk string) ([]*models.TransactionDraft, bool) {
	raw, err := s.gateway.Complete(ctx, fileSystemPrompt, buildChunkPrompt(chunk), extractTemperature)
	if err != nil {
		s.logger.Warn("chunk extraction call failed", zap.Error(err))
		return nil, false
	}

	arr, ok := llm.DecodeArray(raw)
	if !ok {
		return nil, false
	}

	drafts := make([]*models.TransactionDraft, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		drafts = append(drafts, draftFromMap(obj, models.StandaloneRef()))
	}
	return drafts, true
}

func buildChunkPrompt(chunk string) string {
	return fmt.Sprintf(`请从以下数据中提取所有交易记录。

## 任务要求
1. 如果数据与收支账目无关，返回空数组 []
2. 否则提取每一条交易，每条包含以下字段:
   - "type": "income" 或 "expense"
   - "amount": 数值
   - "date": "YYYY-MM-DD"
   - "time": "HH:MM"（如有）
   - "description": 字符串
   - "category": 字符串

## 交易分类选项
- %s
分类必须是以上选项之一，无法确定时可设为null

## 输出格式
只返回一个JSON数组，不要使用代码块包裹，不要输出任何其他内容。
输出必须以"["开头，以"]"结尾。

## 数据内容
%s`,
		strings.Join(models.Categories, "\n- "), chunk)
}

// flattenDocument normalizes the upload into one flat text form.
// Spreadsheets are flattened sheet by sheet into CSV-like lines; anything
// else is treated as plain text.
func flattenDocument(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		return flattenWorkbook(data)
	default:
		return string(data), nil
	}
}

func flattenWorkbook(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		fmt.Fprintf(&b, "### %s\n", sheet)
		for _, row := range rows {
			b.WriteString(strings.Join(row, ","))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// splitChunks cuts text into fixed-size rune windows. Runes, not bytes, so
// CJK text never splits mid-character.
func splitChunks(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = end - overlap
	}
	return chunks
}
