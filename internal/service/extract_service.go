package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xiaonuan/internal/llm"
	"xiaonuan/internal/models"

	"go.uber.org/zap"
)

const extractSystemPrompt = "你是一个专业的财务信息提取助手，精通中文财务语言处理，擅长从自然语言中识别记账意图并提取关键财务实体。"

// ExtractService turns one chat message into zero or one transaction draft.
type ExtractService struct {
	gateway CompletionGateway
	logger  *zap.Logger
}

func NewExtractService(gateway CompletionGateway, logger *zap.Logger) *ExtractService {
	return &ExtractService{
		gateway: gateway,
		logger:  logger,
	}
}

// ExtractFinancialData asks the model whether the message carries recording
// intent and, if so, returns the extracted draft. The current date is
// injected by the caller so relative dates resolve deterministically. Any
// gateway or parse failure is treated as "no intent detected"; this method
// never fails outward.
func (s *ExtractService) ExtractFinancialData(ctx context.Context, content string, today time.Time, source models.MessageRef) *models.TransactionDraft {
	raw, err := s.gateway.Complete(ctx, extractSystemPrompt, buildExtractionPrompt(content, today), extractTemperature)
	if err != nil {
		s.logger.Warn("financial extraction call failed", zap.Error(err))
		return nil
	}

	obj, ok := llm.DecodeObject(raw)
	if !ok {
		s.logger.Warn("no JSON object in extraction response", zap.Int("raw_len", len(raw)))
		return nil
	}

	if hasIntent, _ := obj["has_intent"].(bool); !hasIntent {
		return nil
	}
	delete(obj, "has_intent")

	draft := draftFromMap(obj, source)
	s.logger.Info("financial data extracted",
		zap.String("type", draft.Type),
		zap.String("amount", draft.Amount.String()),
		zap.String("category", draft.Category),
		zap.Float64("confidence", draft.Confidence),
	)
	return draft
}

func buildExtractionPrompt(content string, today time.Time) string {
	currentDate := today.Format("2006-01-02")
	return fmt.Sprintf(`请分析以下用户消息，判断是否包含记账意图，并提取财务信息。

## 任务要求
1. 首先判断是否存在记账意图（明确或隐含表达的收入/支出记录需求）
2. 如果存在记账意图，提取以下财务实体:
   - 交易类型: "income"(收入) 或 "expense"(支出)
   - 金额: 数值，处理各种表述形式（中文数字、单位、非标准表述如"2k"）
   - 交易日期: 格式为YYYY-MM-DD，处理相对日期表述
   - 交易时间: 格式为HH:MM，如有提及
   - 交易描述: 描述交易的具体事由或物品
   - 交易分类: 根据描述推断最匹配的分类

## 交易分类选项
- %s
必须是以上的选项，不能有其他选项

## 处理规则
- 日期处理: 相对日期（如"昨天"、"上周五"）转换为绝对日期，今天是%s
- 未提及日期时使用当前日期%s
- 金额标准化: 将各种金额表述转换为标准数值（如"五十块五"→50.5）
- 隐含意图: 若消息未明确提及"记录"但暗示有收支行为，也应识别意图

## 输出格式
以JSON格式返回，包含以下字段：
- "has_intent": true/false（是否存在记账意图）
- "type": "income"/"expense"（若有意图）
- "amount": 数值（若有意图）
- "date": "YYYY-MM-DD"（若有意图）
- "time": "HH:MM"（若有意图且提及时间）
- "description": 字符串（若有意图）
- "category": 字符串（若有意图）
- "confidence": 0-1之间的数值（提取信息的确信度）
- "missing_fields": []（缺失的必要字段列表，如缺少金额等）

## 分析对象
用户消息: "%s"`,
		strings.Join(models.Categories, "\n- "), currentDate, currentDate, content)
}
