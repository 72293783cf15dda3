package dsl

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/leadrank/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("request", cel.DynType),
			cel.Variable("seller", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的候选过滤表达式，使用 CEL (Common Expression Language)。
// 编译一次，可并发多次执行。
//
// 可用变量：
//   - request：id / species / quantity / target_price / has_target_price / buyer_id / province /
//     age_hours / hours_to_expiry / has_expiry
//   - seller：id / specialties / province / service_provinces
//   - rctx：params（调用方透传的请求参数）
//
// 示例：
//   - `request.quantity > 0`
//   - `request.species in seller.specialties`
//   - `!request.has_expiry || request.hours_to_expiry > 0`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Evaluate 对单个候选需求求值。
func (p *Program) Evaluate(req *core.BuyRequest, rctx *core.RankContext) (bool, error) {
	out, _, err := p.prg.Eval(BuildInput(req, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// BuildInput 构建 CEL 表达式的输入数据。
func BuildInput(req *core.BuyRequest, rctx *core.RankContext) map[string]interface{} {
	now := time.Now()
	var seller *core.SellerProfile
	params := map[string]interface{}{}
	if rctx != nil {
		if !rctx.Now.IsZero() {
			now = rctx.Now
		}
		seller = rctx.Seller
		for k, v := range rctx.Params {
			params[k] = v
		}
	}

	request := map[string]interface{}{}
	if req != nil {
		targetPrice := 0.0
		if req.TargetPrice != nil {
			targetPrice = *req.TargetPrice
		}
		ageHours, hoursToExpiry := 0.0, 0.0
		if !req.CreatedAt.IsZero() {
			ageHours = now.Sub(req.CreatedAt).Hours()
		}
		if !req.ExpiresAt.IsZero() {
			hoursToExpiry = req.ExpiresAt.Sub(now).Hours()
		}
		request = map[string]interface{}{
			"id":               req.ID,
			"species":          req.Species,
			"quantity":         int64(req.Quantity),
			"target_price":     targetPrice,
			"has_target_price": req.TargetPrice != nil,
			"buyer_id":         req.BuyerID,
			"province":         req.Location.Province,
			"age_hours":        ageHours,
			"hours_to_expiry":  hoursToExpiry,
			"has_expiry":       !req.ExpiresAt.IsZero(),
		}
	}

	sellerMap := map[string]interface{}{
		"id":                "",
		"specialties":       []string{},
		"province":          "",
		"service_provinces": []string{},
	}
	if seller != nil {
		sellerMap["id"] = seller.ID
		if seller.Specialties != nil {
			sellerMap["specialties"] = seller.Specialties
		}
		sellerMap["province"] = seller.Location.Province
		if seller.ServiceProvinces != nil {
			sellerMap["service_provinces"] = seller.ServiceProvinces
		}
	}

	return map[string]interface{}{
		"request": request,
		"seller":  sellerMap,
		"rctx":    map[string]interface{}{"params": params},
	}
}
