package navigator

import "fmt"

// Stage 定义问答管线阶段
type Stage string

const (
	StageReceived    Stage = "received"    // 已接收查询
	StageClassified  Stage = "classified"  // 已完成意图分类
	StageRetrieved   Stage = "retrieved"   // 已完成向量检索
	StageAPICalled   Stage = "api_called"  // 已调用政府 API（条件阶段）
	StageSynthesized Stage = "synthesized" // 已合成回答
	StageDone        Stage = "done"        // 完成
	StageFailed      Stage = "failed"      // 致命失败（仅限不可吸收错误）
)

// validStageTransitions 定义合法的阶段转换。
// api_called 是条件阶段：非 API 意图从 retrieved 直达 synthesized。
var validStageTransitions = map[Stage][]Stage{
	StageReceived:    {StageClassified, StageFailed},
	StageClassified:  {StageRetrieved, StageFailed},
	StageRetrieved:   {StageAPICalled, StageSynthesized, StageFailed},
	StageAPICalled:   {StageSynthesized, StageFailed},
	StageSynthesized: {StageDone, StageFailed},
}

// CanAdvance 检查阶段转换是否合法
func CanAdvance(from, to Stage) bool {
	allowed, ok := validStageTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ErrInvalidStage 非法阶段转换错误
type ErrInvalidStage struct {
	From Stage
	To   Stage
}

func (e ErrInvalidStage) Error() string {
	return fmt.Sprintf("invalid pipeline stage transition: %s -> %s", e.From, e.To)
}
