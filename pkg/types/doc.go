// Package types 定义节点发现子系统的基础类型
//
// 这是整个模块的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各组件间传递数据。
package types
