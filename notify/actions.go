package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/policynav/policynav/internal/pool"
	"github.com/policynav/policynav/internal/tlsutil"
)

// 审计流水的动作类型
const (
	ActionSubscription = "create_subscription"
	ActionPolicyUpdate = "send_policy_update"
	ActionReminder     = "create_calendar_reminder"
	ActionChecklist    = "send_compliance_checklist"
	ActionWorkflow     = "trigger_workflow"
)

// 时间默认值
const (
	defaultDeadlineDays = 90 // 语料里没有可解析的生效日期时的默认截止
	defaultDaysBefore   = 30 // 截止日前多少天提醒
)

// PolicyUpdate 是推送给订阅者的政策变更摘要。
type PolicyUpdate struct {
	Status         string `json:"status"`
	Date           string `json:"date"`
	Summary        string `json:"summary"`
	DocumentNumber string `json:"document_number"`
	DocumentType   string `json:"type"`
}

// ActionAgent 执行通知侧动作：订阅确认、政策更新推送、合规提醒、
// 清单下发与外部工作流触发。每个动作都返回布尔结果并写一条审计流水；
// 通知失败从不向调用方抛错误。
type ActionAgent struct {
	notifier        Notifier
	store           *Store
	workers         *pool.GoroutinePool
	client          *http.Client
	workflowWebhook string
	logger          *zap.Logger
}

// NewActionAgent 创建动作代理。store 为 nil 时自动降级为 log-only 存储。
func NewActionAgent(notifier Notifier, store *Store, cfg SlackConfig, logger *zap.Logger) *ActionAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewStore(nil, logger)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ActionAgent{
		notifier:        notifier,
		store:           store,
		workers:         pool.NewGoroutinePool(pool.DefaultGoroutinePoolConfig()),
		client:          tlsutil.SecureHTTPClient(timeout),
		workflowWebhook: cfg.WorkflowWebhook,
		logger:          logger,
	}
}

// Close 释放内部工作池。
func (a *ActionAgent) Close() {
	a.workers.Close()
}

// Store 暴露底层存储，供 HTTP 处理器复用同一降级语义。
func (a *ActionAgent) Store() *Store { return a.store }

// CreateSubscription 建立一条政策订阅并向频道发确认消息。
// frequency 为空时默认 weekly；返回的布尔表示落库是否成功。
func (a *ActionAgent) CreateSubscription(ctx context.Context, policyID, email, channel, frequency string) (Subscription, bool) {
	if frequency == "" {
		frequency = "weekly"
	}
	a.logger.Info("creating subscription",
		zap.String("policy_id", policyID),
		zap.String("frequency", frequency))

	sub := Subscription{
		PolicyID:  policyID,
		Email:     email,
		Channel:   channel,
		Frequency: frequency,
		Active:    true,
	}

	ok := true
	if err := a.store.CreateSubscription(ctx, &sub); err != nil {
		a.logger.Error("persist subscription", zap.Error(err))
		ok = false
	}

	// 原样保留确认消息：只有指定了频道才发
	if ok && channel != "" {
		message := "📋 *New Policy Subscription Created*\n" +
			"Policy: " + policyID + "\n" +
			"Frequency: " + frequency + "\n" +
			"Channel: " + channel
		a.notifier.Post(ctx, message, channel, nil)
	}

	a.audit(ctx, ActionSubscription, policyID, sub, ok)
	return sub, ok
}

// SendPolicyUpdate 向一个或多个频道推送政策变更。
// channels 为空时走默认频道；多频道并行投递，全部成功才返回 true。
func (a *ActionAgent) SendPolicyUpdate(ctx context.Context, policyName string, update PolicyUpdate, channels ...string) bool {
	a.logger.Info("sending policy update", zap.String("policy", policyName))

	message := "🔔 *Policy Update Alert*\n" +
		"Policy: " + policyName + "\n" +
		"Status: " + valueOr(update.Status, "N/A") + "\n" +
		"Date: " + valueOr(update.Date, "N/A") + "\n" +
		"Summary: " + valueOr(update.Summary, "No details available")

	attachments := []Attachment{{
		Color: "#36a64f",
		Fields: []Field{
			{Title: "Document Number", Value: valueOr(update.DocumentNumber, "N/A"), Short: true},
			{Title: "Type", Value: valueOr(update.DocumentType, "N/A"), Short: true},
		},
		Footer: "Policy Navigator Agent",
		Ts:     time.Now().Unix(),
	}}

	ok := a.broadcast(ctx, message, channels, attachments)
	a.audit(ctx, ActionPolicyUpdate, policyName, update, ok)
	return ok
}

// broadcast 把同一条消息投到多个频道。单频道直接投；
// 多频道经工作池并行投，入池失败就地投递，保证每个频道都被尝试。
func (a *ActionAgent) broadcast(ctx context.Context, message string, channels []string, attachments []Attachment) bool {
	if len(channels) == 0 {
		return a.notifier.Post(ctx, message, "", attachments)
	}
	if len(channels) == 1 {
		return a.notifier.Post(ctx, message, channels[0], attachments)
	}

	var wg sync.WaitGroup
	var failed atomic.Bool
	for _, ch := range channels {
		ch := ch
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			if !a.notifier.Post(ctx, message, ch, attachments) {
				failed.Store(true)
			}
			return nil
		}
		if err := a.workers.Submit(ctx, task); err != nil {
			task(ctx)
		}
	}
	wg.Wait()
	return !failed.Load()
}

// CreateCalendarReminder 安排一条合规截止提醒。
// deadline 零值时默认 90 天后；提醒时间 = 截止日 − daysBefore（默认 30）。
func (a *ActionAgent) CreateCalendarReminder(ctx context.Context, policyName string, deadline time.Time, daysBefore int) (Reminder, bool) {
	if daysBefore <= 0 {
		daysBefore = defaultDaysBefore
	}
	if deadline.IsZero() {
		deadline = time.Now().UTC().AddDate(0, 0, defaultDeadlineDays)
	}
	remindAt := deadline.AddDate(0, 0, -daysBefore)

	a.logger.Info("creating calendar reminder",
		zap.String("policy", policyName),
		zap.Time("deadline", deadline),
		zap.Time("remind_at", remindAt))

	rem := Reminder{
		PolicyName: policyName,
		Deadline:   deadline,
		RemindAt:   remindAt,
	}

	ok := true
	if err := a.store.CreateReminder(ctx, &rem); err != nil {
		a.logger.Error("persist reminder", zap.Error(err))
		ok = false
	}

	if ok {
		message := "📅 *Compliance Reminder Scheduled*\n" +
			"Policy: " + policyName + "\n" +
			"Deadline: " + deadline.Format("2006-01-02") + "\n" +
			"Reminder: " + remindAt.Format("2006-01-02") + "\n" +
			"Days Before: " + strconv.Itoa(daysBefore)
		a.notifier.Post(ctx, message, "", nil)
	}

	a.audit(ctx, ActionReminder, policyName, rem, ok)
	return rem, ok
}

// DefaultChecklist 返回某项法规的通用五步合规清单。
func DefaultChecklist(regulation string) []string {
	return []string{
		"Review the full text of " + regulation + " and identify applicable sections",
		"Map current practices against each requirement",
		"Document gaps and assign remediation owners",
		"Schedule staff training on updated obligations",
		"Establish periodic audits and evidence collection",
	}
}

// SendComplianceChecklist 下发合规清单。items 为空时用默认清单。
func (a *ActionAgent) SendComplianceChecklist(ctx context.Context, regulation string, items []string) bool {
	if len(items) == 0 {
		items = DefaultChecklist(regulation)
	}
	a.logger.Info("sending compliance checklist",
		zap.String("regulation", regulation),
		zap.Int("items", len(items)))

	lines := pool.GlobalStringSlice.Get()
	defer func() { pool.GlobalStringSlice.Put(lines) }()
	for _, item := range items {
		lines = append(lines, "☐ "+item)
	}

	buf := pool.ByteBufferPool.Get()
	defer pool.ByteBufferPool.Put(buf)
	buf.WriteString("📋 *Compliance Checklist*\n")
	buf.WriteString("Policy: ")
	buf.WriteString(regulation)
	buf.WriteString("\n\nRequirements:\n")
	buf.WriteString(strings.Join(lines, "\n"))
	buf.WriteString("\n\nGenerated: ")
	buf.WriteString(time.Now().Format("2006-01-02 15:04"))

	ok := a.notifier.Post(ctx, buf.String(), "", nil)
	a.audit(ctx, ActionChecklist, regulation, map[string]any{"items": len(items)}, ok)
	return ok
}

// TriggerWorkflow 触发外部工作流（Zapier、Make 等）。
// webhook 未配置返回 false；投递结果进审计流水。
func (a *ActionAgent) TriggerWorkflow(ctx context.Context, name string, payload map[string]any) bool {
	if a.workflowWebhook == "" {
		a.logger.Warn("workflow webhook not configured", zap.String("workflow", name))
		a.audit(ctx, ActionWorkflow, name, payload, false)
		return false
	}

	body, err := json.Marshal(map[string]any{
		"workflow":  name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data":      payload,
	})
	if err != nil {
		a.logger.Error("marshal workflow payload", zap.Error(err))
		a.audit(ctx, ActionWorkflow, name, payload, false)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.workflowWebhook, bytes.NewReader(body))
	if err != nil {
		a.logger.Error("create workflow request", zap.Error(err))
		a.audit(ctx, ActionWorkflow, name, payload, false)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("trigger workflow",
			zap.String("workflow", name),
			zap.Error(err))
		a.audit(ctx, ActionWorkflow, name, payload, false)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok {
		a.logger.Info("workflow triggered", zap.String("workflow", name))
	} else {
		a.logger.Warn("workflow webhook returned non-2xx",
			zap.String("workflow", name),
			zap.Int("status", resp.StatusCode))
	}
	a.audit(ctx, ActionWorkflow, name, payload, ok)
	return ok
}

// audit 落一条动作流水。payload 序列化失败不阻断动作本身。
func (a *ActionAgent) audit(ctx context.Context, action, target string, payload any, success bool) {
	var snapshot string
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			snapshot = string(b)
		}
	}
	rec := ActionRecord{
		Action:  action,
		Target:  target,
		Payload: snapshot,
		Success: success,
	}
	if err := a.store.RecordAction(ctx, &rec); err != nil {
		a.logger.Warn("record action",
			zap.String("action", action),
			zap.Error(err))
	}
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
