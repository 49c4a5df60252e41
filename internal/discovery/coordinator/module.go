package coordinator

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-peerdiscovery/internal/discovery/kademlia"
	"github.com/dep2p/go-peerdiscovery/internal/discovery/verifier"
	"github.com/dep2p/go-peerdiscovery/internal/protocol/liveness"
)

// ============================================================================
//                              Fx 模块定义
// ============================================================================

// Module 准入协调器 Fx 模块
var Module = fx.Module("discovery_coordinator",
	fx.Provide(NewFromParams),
	fx.Invoke(registerLifecycle),
)

// Params 协调器依赖参数
type Params struct {
	fx.In

	Table    *kademlia.Table
	Verifier *verifier.Verifier
	Prober   *liveness.Prober

	// Config 配置（缺省使用 DefaultConfig）
	Config *Config `optional:"true"`
}

// Result 协调器导出结果
type Result struct {
	fx.Out

	Coordinator *Coordinator
}

// NewFromParams 从 Fx 参数创建协调器
func NewFromParams(p Params) (Result, error) {
	c, err := New(p.Table, p.Verifier, p.Prober, p.Config)
	if err != nil {
		return Result{}, err
	}
	return Result{Coordinator: c}, nil
}

// registerLifecycle 注册启动/停止钩子
func registerLifecycle(lc fx.Lifecycle, c *Coordinator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return c.Stop(ctx)
		},
	})
}
