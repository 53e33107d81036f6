package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/policynav/policynav/internal/ctxkeys"
	"github.com/policynav/policynav/internal/metrics"
	"github.com/policynav/policynav/rag"
	"github.com/policynav/policynav/types"
)

// PolicyAPI 政策状态协作方（由 Federal Register 客户端实现）。
// CheckStatus 从不返回 Go error：失败折叠进 Status=ERROR 的载荷。
type PolicyAPI interface {
	CheckStatus(ctx context.Context, identifier string) types.PolicyStatus
}

// CaseLawAPI 判例检索协作方（由 CourtListener 客户端实现）。
// 返回的 *types.Error 是信息性降级标记：降级时 cases 携带内置回退集而非空。
type CaseLawAPI interface {
	SearchCases(ctx context.Context, query string, limit int) ([]types.CaseItem, *types.Error)
}

// ChecklistSender 合规清单下发协作方（由 notify.ActionAgent 实现）。
type ChecklistSender interface {
	SendComplianceChecklist(ctx context.Context, regulation string, items []string) bool
}

// Config 管线配置。零值字段取默认。
type Config struct {
	TopK         int // 向量检索条数，默认 5
	CaseLawLimit int // 判例检索条数，默认 5
	MaxHistory   int // 会话历史上限，<=0 不限
}

// Deps 可选协作方。零值字段表示对应能力未接入：
// API 结果降级为带错误标记的载荷，清单通知静默跳过。
type Deps struct {
	PolicyAPI   PolicyAPI
	CaseLawAPI  CaseLawAPI
	Checklist   ChecklistSender
	Synthesizer Synthesizer
	Metrics     *metrics.Collector
}

// Navigator 多代理问答管线的编排器。严格顺序执行
// 分类 → 检索 → （条件）API 调用 → 合成 → 记史；
// 检索失败与 API 失败都可吸收，管线永不中断。
// 调用方显式构造并持有实例，包内不提供单例。
type Navigator struct {
	cfg       Config
	index     *rag.Index
	policyAPI PolicyAPI
	caseAPI   CaseLawAPI
	checklist ChecklistSender
	synth     Synthesizer
	history   *ConversationHistory
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// New 创建 Navigator。index 是必需协作方，缺失即构造失败——
// 这是系统里唯一向调用方传播的初始化错误。
func New(cfg Config, index *rag.Index, deps Deps, logger *zap.Logger) (*Navigator, error) {
	if index == nil {
		return nil, types.NewError(types.ErrConfig, "vector index is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.CaseLawLimit <= 0 {
		cfg.CaseLawLimit = DefaultCaseLawLimit
	}
	synth := deps.Synthesizer
	if synth == nil {
		synth = NewTemplateSynthesizer(logger)
	}

	return &Navigator{
		cfg:       cfg,
		index:     index,
		policyAPI: deps.PolicyAPI,
		caseAPI:   deps.CaseLawAPI,
		checklist: deps.Checklist,
		synth:     synth,
		history:   NewConversationHistory(cfg.MaxHistory),
		metrics:   deps.Metrics,
		logger:    logger.With(zap.String("component", "navigator")),
	}, nil
}

// Query 处理一条查询，走完整管线并返回合成回答。
// 对任何输入（包括空串）都返回 Response，从不返回 error；
// 管线内的意外 panic 兜底成结构化错误响应（唯一的致命路径）。
func (n *Navigator) Query(ctx context.Context, text string) (resp Response) {
	start := time.Now()
	queryID := uuid.NewString()
	ctx = ctxkeys.WithQueryID(ctx, queryID)
	logger := n.logger.With(zap.String("query_id", queryID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("query pipeline failed", zap.Any("panic", r))
			if n.metrics != nil {
				n.metrics.RecordQuery("unknown", "error", time.Since(start), 0)
			}
			resp = failureResponse(text, fmt.Sprintf("%v", r))
		}
	}()

	run := newPipelineRun(n.metrics, logger)
	logger.Info("processing query", zap.String("query", text))
	n.history.Append(RoleUser, text)

	intent := Classify(text)
	ctx = ctxkeys.WithIntent(ctx, string(intent))
	run.advance(StageClassified)

	plan := Route(text, intent)
	if plan.Intent == IntentCaseLaw {
		plan.Params.ResultLimit = n.cfg.CaseLawLimit
	}

	docs := n.retrieve(ctx, plan.Params.SearchText)
	run.advance(StageRetrieved)

	var api *types.APIResult
	if plan.CallsAPI() {
		api = n.callAPI(ctx, plan)
		run.advance(StageAPICalled)
	}

	resp = n.synth.Synthesize(text, docs, api)
	resp.Metadata.Intent = intent
	run.advance(StageSynthesized)

	// 合规意图在合成之后下发清单；结果只记日志，绝不影响回答
	if plan.Params.ChecklistMode {
		n.sendChecklist(ctx, text)
	}

	n.history.Append(RoleAgent, resp.Answer)
	run.advance(StageDone)

	if n.metrics != nil {
		n.metrics.RecordQuery(string(intent), "ok", time.Since(start), resp.Confidence)
	}
	logger.Info("query processed",
		zap.String("intent", string(intent)),
		zap.Int("documents", len(docs)),
		zap.Bool("api_called", api != nil),
		zap.Float64("confidence", resp.Confidence),
		zap.Duration("duration", time.Since(start)))
	return resp
}

// retrieve 执行向量检索。失败是可吸收错误：告警后按零文档继续。
func (n *Navigator) retrieve(ctx context.Context, queryText string) []rag.SearchResult {
	searchStart := time.Now()
	docs, err := n.index.Search(ctx, queryText, n.cfg.TopK)
	if n.metrics != nil {
		n.metrics.RecordVectorSearch(time.Since(searchStart))
	}
	if err != nil {
		n.logger.Warn("retrieval failed, continuing with zero documents", zap.Error(err))
		return nil
	}
	return docs
}

// callAPI 按路由计划调用对应的政府 API，失败折叠成降级 APIResult。
func (n *Navigator) callAPI(ctx context.Context, plan RoutingPlan) *types.APIResult {
	switch plan.Intent {
	case IntentPolicyStatus:
		return n.policyStatusResult(ctx, plan.Params.SearchText)
	case IntentCaseLaw:
		return n.caseLawResult(ctx, plan.Params.SearchText, plan.Params.ResultLimit)
	}
	return nil
}

func (n *Navigator) policyStatusResult(ctx context.Context, identifier string) *types.APIResult {
	res := &types.APIResult{Kind: types.APIResultPolicy, FetchedAt: time.Now().UTC()}
	if n.policyAPI == nil {
		res.Err = types.NewError(types.ErrConfig, "policy-status API not configured")
		res.Policy = &types.PolicyStatus{
			Status:  types.PolicyStatusError,
			Message: "policy-status API not configured",
		}
		return res
	}

	status := n.policyAPI.CheckStatus(ctx, identifier)
	res.Policy = &status
	if status.Status == types.PolicyStatusError {
		// 客户端已把传输/HTTP 失败折叠成 ERROR 状态，这里补上统一的降级标记
		res.Err = types.NewError(types.ErrAPIError, status.Message)
	}
	return res
}

func (n *Navigator) caseLawResult(ctx context.Context, query string, limit int) *types.APIResult {
	res := &types.APIResult{Kind: types.APIResultCases, FetchedAt: time.Now().UTC()}
	if n.caseAPI == nil {
		res.Err = types.NewError(types.ErrConfig, "case-law API not configured")
		return res
	}

	cases, apiErr := n.caseAPI.SearchCases(ctx, query, limit)
	res.Cases = cases
	res.Err = apiErr // 降级时 cases 通常已是内置回退集
	return res
}

// sendChecklist 合成后下发合规清单。布尔结果只进日志与指标。
func (n *Navigator) sendChecklist(ctx context.Context, query string) {
	if n.checklist == nil {
		n.logger.Debug("checklist sender not configured, skipping notification")
		return
	}
	sent := n.checklist.SendComplianceChecklist(ctx, query, nil)
	if n.metrics != nil {
		outcome := "ok"
		if !sent {
			outcome = "failed"
		}
		n.metrics.RecordNotification("compliance_checklist", outcome)
	}
	n.logger.Info("compliance checklist dispatched", zap.Bool("sent", sent))
}

// AddDocument 向向量库写入单篇文档。
func (n *Navigator) AddDocument(ctx context.Context, id, content string, metadata map[string]any) error {
	if err := n.index.Add(ctx, id, content, metadata); err != nil {
		return err
	}
	if n.metrics != nil {
		n.metrics.RecordDocumentsIndexed(1)
	}
	return nil
}

// AddDocuments 批量写入文档，返回成功入库条数。
func (n *Navigator) AddDocuments(ctx context.Context, docs []rag.Document) (int, error) {
	count, err := n.index.AddBatch(ctx, docs)
	if count > 0 && n.metrics != nil {
		n.metrics.RecordDocumentsIndexed(count)
	}
	return count, err
}

// DeleteDocument 删除文档。
func (n *Navigator) DeleteDocument(ctx context.Context, id string) error {
	return n.index.Delete(ctx, id)
}

// Stats 返回向量库统计。
func (n *Navigator) Stats(ctx context.Context) (rag.IndexStats, error) {
	return n.index.Stats(ctx)
}

// History 返回会话历史快照。
func (n *Navigator) History() []HistoryRecord {
	return n.history.Records()
}

// ClearHistory 清空会话历史。
func (n *Navigator) ClearHistory() {
	n.history.Clear()
}

// CheckPolicyStatus 绕过合成管线直接查询政策状态。
func (n *Navigator) CheckPolicyStatus(ctx context.Context, identifier string) types.PolicyStatus {
	if n.policyAPI == nil {
		return types.PolicyStatus{
			Status:      types.PolicyStatusError,
			Message:     "policy-status API not configured",
			LastChecked: time.Now().UTC().Format(time.RFC3339),
		}
	}
	return n.policyAPI.CheckStatus(ctx, identifier)
}

// SearchCases 绕过合成管线直接检索判例。
func (n *Navigator) SearchCases(ctx context.Context, query string, limit int) ([]types.CaseItem, *types.Error) {
	if n.caseAPI == nil {
		return nil, types.NewError(types.ErrConfig, "case-law API not configured")
	}
	if limit <= 0 {
		limit = n.cfg.CaseLawLimit
	}
	return n.caseAPI.SearchCases(ctx, query, limit)
}

// failureResponse 唯一致命路径的结构化错误响应：
// 调用方依然拿到带 answer 与 confidence 字段的对象，绝不抛出。
func failureResponse(query, errMsg string) Response {
	return Response{
		Query:      query,
		Answer:     "Error processing query: " + errMsg,
		Sources:    []Source{},
		Confidence: 0.0,
		Error:      errMsg,
		Metadata: ResponseMetadata{
			Timestamp: time.Now().UTC(),
		},
	}
}

// pipelineRun 跟踪单次查询的管线阶段。非法转换不该出现；
// 真出现时告警并继续，管线本身不因阶段账目中断。
type pipelineRun struct {
	stage   Stage
	lastAt  time.Time
	metrics *metrics.Collector
	logger  *zap.Logger
}

func newPipelineRun(collector *metrics.Collector, logger *zap.Logger) *pipelineRun {
	return &pipelineRun{
		stage:   StageReceived,
		lastAt:  time.Now(),
		metrics: collector,
		logger:  logger,
	}
}

func (r *pipelineRun) advance(to Stage) {
	if !CanAdvance(r.stage, to) {
		r.logger.Warn("unexpected stage transition",
			zap.Error(ErrInvalidStage{From: r.stage, To: to}))
	}
	now := time.Now()
	if r.metrics != nil {
		r.metrics.RecordPipelineStage(string(to), now.Sub(r.lastAt))
	}
	r.logger.Debug("pipeline stage",
		zap.String("from", string(r.stage)),
		zap.String("to", string(to)))
	r.stage = to
	r.lastAt = now
}
