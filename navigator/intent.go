package navigator

// Intent 查询意图。每条查询恰好产生一个意图，由 Classify 确定性推导。
type Intent string

const (
	IntentGeneral      Intent = "general"       // 通用检索
	IntentPolicyStatus Intent = "policy_status" // 政策状态查询
	IntentCaseLaw      Intent = "case_law"      // 判例检索
	IntentCompliance   Intent = "compliance"    // 合规核查
)

// Valid 报告意图是否在已知枚举内。
func (i Intent) Valid() bool {
	switch i {
	case IntentGeneral, IntentPolicyStatus, IntentCaseLaw, IntentCompliance:
		return true
	}
	return false
}
