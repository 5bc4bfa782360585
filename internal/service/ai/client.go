package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/mindhaven/backend/internal/config"
)

// StatusError 表示网关返回的非 2xx 响应。调用方根据状态码决定对用户暴露哪类错误。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model gateway returned status %d", e.StatusCode)
}

// ErrNoContent 表示网关成功返回但响应里没有任何消息内容。
var ErrNoContent = fmt.Errorf("model gateway response contains no message content")

// Client calls an OpenAI-compatible chat-completions gateway. The transport
// is deliberately plain HTTP: the mood analyzer must see raw upstream status
// codes (429, 402) and honor context deadlines on the single outbound call.
type Client struct {
	cfg        config.AIConfig
	httpClient *http.Client
}

// NewClient 创建网关客户端。超时由调用方通过 context 控制。
func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message schema.Message `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat-completion request and returns the assistant
// message content verbatim. Non-2xx statuses come back as *StatusError;
// a 2xx with no choices comes back as ErrNoContent.
func (c *Client) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrNoContent
	}

	return parsed.Choices[0].Message.Content, nil
}
