package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xiaonuan/internal/llm"
	"xiaonuan/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const receiptSystemPrompt = "你是一个专业的交易凭证识别助手，擅长从图片中提取财务信息。"

const receiptPrompt = `请分析这张交易凭证/收据图片，提取以下关键财务信息:
1. 交易类型: "income"(收入) 或 "expense"(支出)
2. 交易金额: 以数字形式表示
3. 交易日期和时间: 格式化为YYYY-MM-DD和HH:MM
4. 交易描述: 交易的目的、项目或购买的商品/服务
5. 交易分类: 例如"餐饮美食"、"交通出行"、"服饰美容"、"日用百货"等

请按以下JSON格式返回结果：
{
  "type": "expense",
  "amount": 123.45,
  "date": "2023-05-20",
  "time": "14:30",
  "description": "在XX超市购买日用品",
  "category": "日用百货"
}

如果无法识别某些字段，请提供你能提取的信息，缺失字段可设为null或合理默认值。
如果无法确定是收入还是支出，请根据图像中的上下文(如购物小票通常是支出)进行最佳猜测。`

// ReceiptService turns an uploaded receipt image into a transaction draft
// plus a human-readable confirmation message.
type ReceiptService struct {
	gateway CompletionGateway
	tempDir string
	logger  *zap.Logger
}

func NewReceiptService(gateway CompletionGateway, tempDir string, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{
		gateway: gateway,
		tempDir: tempDir,
		logger:  logger,
	}
}

// RecognizeImage stores the upload in a scoped temp file, sends it to the
// vision completion call and parses the extracted draft. The temp file is
// removed on every exit path.
func (s *ReceiptService) RecognizeImage(ctx context.Context, data []byte, filename string) (*models.TransactionDraft, string, error) {
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create temp dir: %w", err)
	}

	tempPath := filepath.Join(s.tempDir, uuid.New().String()+filepath.Ext(filename))
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return nil, "", fmt.Errorf("save temp image: %w", err)
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			s.logger.Warn("failed to remove temp image", zap.String("path", tempPath), zap.Error(err))
		}
	}()

	encoded, err := encodeImageFile(tempPath)
	if err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}

	raw, err := s.gateway.CompleteVision(ctx, receiptSystemPrompt, receiptPrompt,
		"data:image/jpeg;base64,"+encoded, extractTemperature)
	if err != nil {
		s.logger.Error("image recognition call failed", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	obj, ok := llm.DecodeObject(raw)
	if !ok {
		s.logger.Error("no JSON object in image recognition response", zap.Int("raw_len", len(raw)))
		return nil, "", fmt.Errorf("%w: unparseable model response", ErrExtractionFailed)
	}

	draft := draftFromMap(obj, models.StandaloneRef())
	return draft, buildReceiptSummary(draft), nil
}

func encodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func buildReceiptSummary(draft *models.TransactionDraft) string {
	kind := "支出"
	if draft.Type == string(models.TransactionIncome) {
		kind = "收入"
	}

	var b strings.Builder
	b.WriteString("我已从图片中识别出以下交易信息：\n")
	fmt.Fprintf(&b, "类型：%s\n", kind)
	fmt.Fprintf(&b, "金额：¥%s\n", draft.Amount.String())
	fmt.Fprintf(&b, "日期：%s\n", draft.Date)
	fmt.Fprintf(&b, "描述：%s\n", draft.Description)
	fmt.Fprintf(&b, "分类：%s\n\n", draft.Category)
	b.WriteString("请核对以上信息，确认无误后可点击确认按钮进行记账。")
	return b.String()
}
