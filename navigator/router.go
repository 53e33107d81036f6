package navigator

// CollaboratorName 路由计划中的协作方标识。
type CollaboratorName string

const (
	CollabRetrieval  CollaboratorName = "retrieval"
	CollabPolicyAPI  CollaboratorName = "policy_status_api"
	CollabCaseLawAPI CollaboratorName = "case_law_api"
	CollabNotifier   CollaboratorName = "notifier"
)

// 检索默认值
const (
	DefaultTopK         = 5 // 向量检索条数
	DefaultCaseLawLimit = 5 // 判例检索条数
)

// Params 路由参数包。
type Params struct {
	SearchText    string `json:"search_text"`
	ResultLimit   int    `json:"result_limit,omitempty"`
	ChecklistMode bool   `json:"checklist_mode,omitempty"`
}

// RoutingPlan 一次查询的协作方调用计划。纯值对象：
// 由 Route 构建，编排器立即消费，不持久化。
type RoutingPlan struct {
	Intent        Intent             `json:"intent"`
	Collaborators []CollaboratorName `json:"collaborators"`
	Params        Params             `json:"params"`
}

// CallsAPI 报告计划是否含政府 API 调用（api_called 条件阶段的开关）。
func (p RoutingPlan) CallsAPI() bool {
	return p.Intent == IntentPolicyStatus || p.Intent == IntentCaseLaw
}

// Includes 报告计划是否包含指定协作方。
func (p RoutingPlan) Includes(name CollaboratorName) bool {
	for _, c := range p.Collaborators {
		if c == name {
			return true
		}
	}
	return false
}

// Route 把意图映射为路由计划。纯函数、无副作用；
// 意图域由 Classify 封闭，映射对四个意图都是全的。
func Route(query string, intent Intent) RoutingPlan {
	plan := RoutingPlan{
		Intent: intent,
		Params: Params{SearchText: query},
	}

	switch intent {
	case IntentPolicyStatus:
		plan.Collaborators = []CollaboratorName{CollabRetrieval, CollabPolicyAPI}
	case IntentCaseLaw:
		plan.Collaborators = []CollaboratorName{CollabRetrieval, CollabCaseLawAPI}
		plan.Params.ResultLimit = DefaultCaseLawLimit
	case IntentCompliance:
		plan.Collaborators = []CollaboratorName{CollabRetrieval, CollabNotifier}
		plan.Params.ChecklistMode = true
	default:
		plan.Collaborators = []CollaboratorName{CollabRetrieval}
	}
	return plan
}
