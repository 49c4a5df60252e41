// Package liveness 实现驱逐挑战的存活探测
//
// 路由表开启驱逐挑战后，由本包向被挑战节点发出 PING，并把
// PONG/超时结果转换为挑战结论，经 coordinator 喂给
// OnChallengeResponse。线路收发由注入的 Transport 承担，
// 本包只负责挑战的配对与计时。
package liveness

// ProtocolID 存活探测协议标识
const ProtocolID = "/peerdisc/challenge/1.0.0"
