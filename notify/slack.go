// Package notify 实现通知侧动作：Slack 投递、政策订阅、
// 合规提醒与清单、外部工作流触发，以及动作审计流水。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/policynav/policynav/internal/tlsutil"
)

// Notifier 是流水线依赖的通知收口。投递成败只用布尔表达：
// 失败记日志，绝不向上抛错误。
type Notifier interface {
	Post(ctx context.Context, message, channel string, attachments []Attachment) bool
}

// Attachment 是 Slack incoming webhook 的消息附件。
type Attachment struct {
	Color  string  `json:"color,omitempty"`
	Fields []Field `json:"fields,omitempty"`
	Footer string  `json:"footer,omitempty"`
	Ts     int64   `json:"ts,omitempty"`
}

// Field 是附件里的短字段。
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// SlackConfig 持有 Slack 集成配置。
type SlackConfig struct {
	WebhookURL      string        // incoming webhook；为空时通知静默降级
	Channel         string        // 默认频道（webhook 自带默认频道时可留空）
	WorkflowWebhook string        // TriggerWorkflow 的外部工作流入口（Zapier/Make 等）
	Timeout         time.Duration
}

// SlackNotifier 通过 incoming webhook 投递消息。
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
	logger     *zap.Logger
}

var _ Notifier = (*SlackNotifier)(nil)

// NewSlackNotifier 创建 Slack 通知器。webhook 未配置也返回可用实例，
// 此时 Post 告警并返回 false。
func NewSlackNotifier(cfg SlackConfig, logger *zap.Logger) *SlackNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SlackNotifier{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		client:     tlsutil.SecureHTTPClient(timeout),
		logger:     logger,
	}
}

// Configured 报告是否配置了 webhook。
func (n *SlackNotifier) Configured() bool { return n.webhookURL != "" }

type webhookPayload struct {
	Text        string       `json:"text"`
	Channel     string       `json:"channel,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Post 投递一条消息。channel 为空时用默认频道；
// 传输错误或非 2xx 一律返回 false。
func (n *SlackNotifier) Post(ctx context.Context, message, channel string, attachments []Attachment) bool {
	if n.webhookURL == "" {
		n.logger.Warn("slack webhook not configured, dropping notification")
		return false
	}
	if channel == "" {
		channel = n.channel
	}

	body, err := json.Marshal(webhookPayload{
		Text:        message,
		Channel:     channel,
		Attachments: attachments,
	})
	if err != nil {
		n.logger.Error("marshal slack payload", zap.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("create slack request", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("send slack notification", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("slack webhook returned non-2xx",
			zap.Int("status", resp.StatusCode))
		return false
	}

	n.logger.Debug("slack notification sent", zap.String("channel", channel))
	return true
}
