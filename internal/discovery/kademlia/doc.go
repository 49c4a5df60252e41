// Package kademlia 实现带分级准入控制的 Kademlia 路由表
//
// # 模块概述
//
// kademlia 是节点发现子系统的领域层：维护 256 个按 XOR 距离索引的
// K-Bucket，并通过暂存区（Staging Area）把未验证节点挡在路由表之外。
//
// # 核心功能
//
// 1. 路由表管理
//   - 256 个 K-Bucket（按共同前缀长度直接索引，O(1) 查桶）
//   - XOR 距离度量
//   - 最近活跃节点在桶前端
//
// 2. 分级准入
//   - StagePeer: 发现的候选节点先进入有界暂存区（满则尾部丢弃）
//   - OnVerificationResult: 身份验证通过后才晋升入桶
//   - 桶满时开启驱逐挑战，向最旧节点发起存活探测
//
// 3. 抗攻击
//   - 子网多样性限制（同一子网的节点数上限，抗 Sybil）
//   - 限时封禁（封禁期内不入暂存区、不入桶）
//   - 暂存区尾部丢弃（不驱逐已暂存节点，抗洪泛）
//
// # 并发模型
//
// Table 本身不做内部同步：它是纯内存结构，设计为由单一逻辑归属者
// （coordinator）串行访问。每个公开方法是原子性单元；多生产者场景
// 必须在外层加互斥（见 internal/discovery/coordinator）。
//
// # 使用示例
//
//	table, err := kademlia.NewTable(localID, kademlia.DefaultConfig())
//	outcome, err := table.StagePeer(peer, time.Now())
//	challenged, err := table.OnVerificationResult(peer.ID, true, time.Now())
//	if challenged != nil {
//	    // 由调用方在表临界区之外向 challenged 发起 PING
//	}
package kademlia
