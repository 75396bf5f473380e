// Package dsl 提供基于 CEL (Common Expression Language) 的规则表达式求值，
// 用于过滤/策略节点的可配置规则（例如按 label、分数、物品元信息做条件过滤）。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/moviekit/moviekit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env init failed")
	}
	return celEnv, err
}

// Eval 是规则表达式求值器。表达式在构造时编译一次，之后可在每个 item 上重复执行。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "cf" / label.cold_start != "true"
//   - 数值：item.score > 0.7 / item.meta.release_year >= 2010
//   - 逻辑：label.recall_source == "content" && item.score > 0.3
//   - 存在性：has(label.recall_source)
//   - 包含：label.recall_source.contains("cf")
//
// 注意：label 是 map，访问不存在的 key 会报错；存在性判断必须用 has()。
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译表达式并返回求值器。表达式非法时返回错误。
// 空表达式是合法的：对任意 item 恒为 true。
func NewEval(expr string) (*Eval, error) {
	e := &Eval{expr: expr}
	if expr == "" {
		return e, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	e.prg = prg
	return e, nil
}

// Evaluate 在单个 item 上执行表达式，返回布尔结果。
func (e *Eval) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if e.expr == "" || e.prg == nil {
		return true, nil
	}

	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 时 CEL 会报错；规则应使用 has(label.key) 判断存在性
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(it.Labels))
	labelAccessor := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = map[string]any{
			"value":  v.Value,
			"source": v.Source,
		}
		// label.recall_source 顶层直接取 value，规则写起来最短
		labelAccessor[k] = v.Value
	}

	item := map[string]any{
		"id":     it.ID,
		"score":  it.Score,
		"meta":   it.Meta,
		"labels": labels,
	}

	rc := map[string]any{}
	if rctx != nil {
		rc = map[string]any{
			"user_id": rctx.UserID,
			"scene":   rctx.Scene,
			"limit":   rctx.Limit,
			"params":  rctx.Params,
		}
	}

	return map[string]any{
		"item":  item,
		"label": labelAccessor,
		"rctx":  rc,
	}
}
