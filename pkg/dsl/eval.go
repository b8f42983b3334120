// Package dsl 是候选规则解释器，使用 CEL (Common Expression Language) 实现。
// 用于把"目录质量线"这类业务规则做成配置而非硬编码，例如：
//   - `item.vote_average >= 6.0`
//   - `label.recall_source != null && item.popularity > 1.0`
//   - `user.confidence == "low" ? item.vote_average >= 7.0 : true`
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/flickmate/tastekit/core"
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
		cel.Variable("user", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// Rule 是一条编译后的候选规则，可跨请求复用（cel.Program 线程安全）。
type Rule struct {
	Expr string
	prg  cel.Program
}

// Compile 编译一条规则表达式。编译失败在装配期暴露，而不是请求期。
func Compile(expr string) (*Rule, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Rule{Expr: expr, prg: prg}, nil
}

// CompileAll 批量编译规则，任一失败即返回错误。
func CompileAll(exprs []string) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(exprs))
	for _, e := range exprs {
		if e == "" {
			continue
		}
		r, err := Compile(e)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Eval 对单个候选执行规则，返回布尔结果。
// 表达式必须返回 bool；访问不存在的 key 会报错，用 `label.key != null` 检查存在性。
func (r *Rule) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := r.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", r.Expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", r.Expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	item := map[string]interface{}{
		"id":    it.ID,
		"score": it.Score,
	}
	if it.Meta != nil {
		item["vote_average"] = it.Meta.VoteAverage
		item["popularity"] = it.Meta.Popularity
		item["release_year"] = it.Meta.ReleaseYear
		item["genre_ids"] = it.Meta.GenreIDs
	}

	// label.recall_source 直接取 Value，存在性用 != null 判断
	labelAccessor := make(map[string]interface{}, len(it.Labels))
	for k, v := range it.Labels {
		labelAccessor[k] = v.Value
	}

	user := map[string]interface{}{}
	if rctx != nil {
		user["id"] = rctx.UserID
		user["confidence"] = string(rctx.Confidence)
		if rctx.Profile != nil {
			user["total_swipes"] = rctx.Profile.Behavior.TotalSwipes
			user["like_rate"] = rctx.Profile.Behavior.LikeRate()
		}
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelAccessor,
		"user":  user,
	}
}
