package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	queryIDKey contextKey = "query_id"
	intentKey  contextKey = "intent"
)

// WithTraceID 设置 TraceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID 获取 TraceID
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(traceIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithQueryID 设置本次问答流水的 QueryID
func WithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, queryIDKey, queryID)
}

// QueryID 获取 QueryID
func QueryID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(queryIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithIntent 设置分类得到的意图（用于日志与指标标注）
func WithIntent(ctx context.Context, intent string) context.Context {
	return context.WithValue(ctx, intentKey, intent)
}

// Intent 获取意图
func Intent(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(intentKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
