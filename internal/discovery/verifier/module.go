package verifier

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// ============================================================================
//                              Fx 模块定义
// ============================================================================

// Module 验证权威 Fx 模块
var Module = fx.Module("discovery_verifier",
	fx.Provide(NewFromParams),
	fx.Invoke(registerLifecycle),
)

// Params 验证权威依赖参数
type Params struct {
	fx.In

	// AuthorityID 权威自身的节点身份
	AuthorityID types.NodeID `name:"authority_node_id"`

	// Checker 身份校验函数
	Checker IdentityChecker

	// Config 配置（缺省使用 DefaultConfig）
	Config *Config `optional:"true"`
}

// Result 验证权威导出结果
type Result struct {
	fx.Out

	Verifier *Verifier
}

// NewFromParams 从 Fx 参数创建验证权威
func NewFromParams(p Params) (Result, error) {
	v, err := New(p.AuthorityID, p.Checker, p.Config)
	if err != nil {
		return Result{}, err
	}
	return Result{Verifier: v}, nil
}

// registerLifecycle 注册启动/停止钩子
func registerLifecycle(lc fx.Lifecycle, v *Verifier) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return v.Start(context.Background())
		},
		OnStop: func(ctx context.Context) error {
			return v.Stop()
		},
	})
}
