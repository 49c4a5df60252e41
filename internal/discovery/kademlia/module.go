package kademlia

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// ============================================================================
//                              Fx 模块定义
// ============================================================================

// Module 路由表 Fx 模块
var Module = fx.Module("discovery_kademlia",
	fx.Provide(NewFromParams),
)

// Params 路由表依赖参数
type Params struct {
	fx.In

	// LocalID 本地节点 ID
	LocalID types.NodeID `name:"local_node_id"`

	// Config 路由表配置（缺省使用 DefaultConfig）
	Config *Config `optional:"true"`
}

// Result 路由表导出结果
type Result struct {
	fx.Out

	Table *Table
}

// NewFromParams 从 Fx 参数创建路由表
func NewFromParams(p Params) (Result, error) {
	table, err := NewTable(p.LocalID, p.Config)
	if err != nil {
		return Result{}, err
	}
	return Result{Table: table}, nil
}
