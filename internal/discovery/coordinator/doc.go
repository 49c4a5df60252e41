// Package coordinator 实现准入协调器
//
// 路由表本身不做内部同步，协调器是它唯一的归属者：所有读写都
// 经由协调器的一把读写锁串行化。协调器同时串联三个协作方——
//
//   - 暂存入口：对外的 Discover 带速率限制，通过后进暂存区并
//     提交身份验证
//   - 验证权威：消费 verifier 的结论通道，驱动晋升或开启驱逐挑战
//   - 存活探测：挑战在表临界区之外发给 prober，结论回流后结算
//
// 另有两个定时器兜底：过期挑战清扫（沉默即死亡）与暂存/封禁
// 条目回收。
package coordinator
