package liveness

import (
	"context"

	"go.uber.org/fx"
)

// ============================================================================
//                              Fx 模块定义
// ============================================================================

// Module 存活探测 Fx 模块
var Module = fx.Module("protocol_liveness",
	fx.Provide(NewFromParams),
	fx.Invoke(registerLifecycle),
)

// Params 探测器依赖参数
type Params struct {
	fx.In

	Transport Transport
}

// Result 探测器导出结果
type Result struct {
	fx.Out

	Prober *Prober
}

// NewFromParams 从 Fx 参数创建探测器
func NewFromParams(p Params) (Result, error) {
	prober, err := NewProber(p.Transport)
	if err != nil {
		return Result{}, err
	}
	return Result{Prober: prober}, nil
}

// registerLifecycle 注册启动/停止钩子
func registerLifecycle(lc fx.Lifecycle, p *Prober) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return p.Start()
		},
		OnStop: func(ctx context.Context) error {
			return p.Stop()
		},
	})
}
