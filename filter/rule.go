package filter

import (
	"context"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器：表达式命中（true）的物品被过滤。
//
// 典型规则：
//   - `label.cb_fallback == "true"`                    过滤口碑兜底结果
//   - `item.score < 0.05`                              过滤低分候选
//   - `label.recall_source == "content" && item.score < 0.1`
type RuleFilter struct {
	eval *dsl.Eval
	expr string
}

// NewRuleFilter 编译规则表达式；表达式非法时返回错误（配置期失败，而不是请求期）。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	eval, err := dsl.NewEval(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{eval: eval, expr: expr}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.eval.Evaluate(item, rctx)
}
