package navigator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// 验证分类器对任意可打印 ASCII 输入都是全函数、确定性且大小写无关的。
func TestProperty_Classify_TotalDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[ -~]{0,120}`).Draw(rt, "text")

		first := Classify(text)
		assert.True(t, first.Valid(), "intent must be one of the four known values: %q", text)
		assert.Equal(t, first, Classify(text), "same input must classify identically")
		assert.Equal(t, first, Classify(strings.ToUpper(text)), "classification must ignore case: %q", text)
	})
}

// 验证优先级表：合规词压过判例指示词，判例指示词压过政策状态词，
// 与注入位置和周围文本无关。
func TestProperty_Classify_PriorityOrder(t *testing.T) {
	complianceKWs := []string{"comply", "compliance", "requirement", "obligation", "mandatory", "must", "should", "checklist", "audit", "assessment"}
	caseKWs := []string{"case", "court", "lawsuit", "ruling", "judgment", "decision", "litigation", "precedent"}
	policyKWs := []string{"status", "active", "effective", "deadline", "when", "date", "executive order", "policy", "rule", "regulation"}

	// 填充字符取自拼不出任何关键词的字母表
	filler := `[0-9 !?.,;:]{0,24}`

	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.StringMatching(filler).Draw(rt, "prefix")
		suffix := rapid.StringMatching(filler).Draw(rt, "suffix")

		kwCompliance := rapid.SampledFrom(complianceKWs).Draw(rt, "kwCompliance")
		kwCase := rapid.SampledFrom(caseKWs).Draw(rt, "kwCase")
		kwPolicy := rapid.SampledFrom(policyKWs).Draw(rt, "kwPolicy")

		assert.Equal(t, IntentCompliance, Classify(prefix+kwCompliance+suffix))
		assert.Equal(t, IntentCaseLaw, Classify(prefix+kwCase+suffix))
		assert.Equal(t, IntentPolicyStatus, Classify(prefix+kwPolicy+suffix))

		// 多个意图的关键词同时出现时取最高优先级
		assert.Equal(t, IntentCompliance, Classify(prefix+kwCase+" "+kwCompliance+suffix))
		assert.Equal(t, IntentCompliance, Classify(prefix+kwCompliance+" "+kwPolicy+suffix))
		assert.Equal(t, IntentCaseLaw, Classify(prefix+kwPolicy+" "+kwCase+suffix))
	})
}

// 验证纯空白输入一律判为 general。
func TestProperty_Classify_WhitespaceIsGeneral(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		blank := rapid.StringMatching(`[ \t\r\n]{0,40}`).Draw(rt, "blank")
		assert.Equal(t, IntentGeneral, Classify(blank))
	})
}
