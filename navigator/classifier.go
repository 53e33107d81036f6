package navigator

import "strings"

// classifierRule 一行分类规则：任一关键词命中即判为该意图。
type classifierRule struct {
	intent   Intent
	keywords []string
}

// classifierRules 优先级有序的规则表，顺序是正确性的一部分：
// 合规词先于判例指示词，判例指示词先于政策状态词，
// 所以 "compliance lawsuit" 判为 compliance 而非 case_law。
// 判例指示词刻意不含裸 "law"/"legal"，"privacy laws" 之类的泛指
// 不能触发 case_law。
var classifierRules = []classifierRule{
	{
		intent: IntentCompliance,
		keywords: []string{
			"comply", "compliance", "requirement", "obligation", "mandatory",
			"must", "should", "checklist", "audit", "assessment",
		},
	},
	{
		intent: IntentCaseLaw,
		keywords: []string{
			"case", "court", "lawsuit", "ruling", "judgment", "decision",
			"litigation", "precedent",
		},
	},
	{
		intent: IntentPolicyStatus,
		keywords: []string{
			"status", "active", "effective", "deadline", "when", "date",
			"executive order", "policy", "rule", "regulation",
		},
	},
}

// Classify 把自由文本映射到意图。全函数：任何输入（含空串与纯空白）
// 都有结果，同一输入永远得到同一意图。匹配为小写全文的子串包含。
func Classify(text string) Intent {
	lowered := strings.ToLower(text)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.intent
			}
		}
	}
	return IntentGeneral
}
