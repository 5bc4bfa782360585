package mood

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	model "github.com/mindhaven/backend/internal/model/mood"
	"github.com/mindhaven/backend/internal/service/ai"
)

// CompletionClient 抽象模型网关，便于测试时替换。
type CompletionClient interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// Analyzer 是情绪分析核心：构造提示词、在限定时长内调用一次模型、
// 归类上游失败，并把模型输出修复成固定的 Assessment 结构。
// 每次调用彼此独立，无共享状态。
type Analyzer struct {
	client   CompletionClient
	template prompt.ChatTemplate
	timeout  time.Duration
}

// NewAnalyzer 创建分析器。timeout 小于等于零时使用 30 秒。
func NewAnalyzer(client CompletionClient, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(moodSystemPrompt),
		schema.UserMessage(moodUserPrompt),
	)

	return &Analyzer{
		client:   client,
		template: template,
		timeout:  timeout,
	}
}

// Analyze 把一段自由文本变成结构化评估。上游不可控，因此除了完全没有可用
// 内容的情况，任何格式问题都通过字段级默认值吸收而不是报错。
func (a *Analyzer) Analyze(ctx context.Context, moodText string) (*model.Assessment, error) {
	trimmed := strings.TrimSpace(moodText)
	if trimmed == "" {
		return nil, newError(KindValidation, "Mood text is required", nil)
	}

	messages, err := a.template.Format(ctx, map[string]any{"mood_text": trimmed})
	if err != nil {
		return nil, newError(KindUpstream, "Failed to analyze mood. Please try again.", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	content, err := a.client.Complete(callCtx, messages)
	if err != nil {
		return nil, classify(err)
	}

	assessment := repair(content)
	if assessment.Insight == "" {
		// 内容从一开始就是空的，凭空捏造洞察是不诚实的。
		return nil, newError(KindIncomplete, "AI returned incomplete response. Please try again.", nil)
	}

	return assessment, nil
}

// classify 把传输层错误翻译成对外的错误类别，原始错误一律不外泄。
func classify(err error) *AnalysisError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, "Request timed out. Please try again.", err)
	}

	var statusErr *ai.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 429:
			return newError(KindRateLimited, "Rate limit exceeded. Please try again in a moment.", err)
		case 402:
			return newError(KindQuotaExceeded, "Service temporarily unavailable. Please try again later.", err)
		default:
			log.Printf("[mood] model gateway error: status=%d", statusErr.StatusCode)
			return newError(KindUpstream, "Failed to analyze mood. Please try again.", err)
		}
	}

	if errors.Is(err, ai.ErrNoContent) {
		return newError(KindEmptyResponse, "No response from AI. Please try again.", err)
	}

	log.Printf("[mood] model gateway call failed: %v", err)
	return newError(KindUpstream, "Failed to analyze mood. Please try again.", err)
}
