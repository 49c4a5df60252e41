package main

import (
	"context"
	"net/netip"
	"sync"

	"github.com/dep2p/go-peerdiscovery/internal/protocol/liveness"
	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// loopbackTransport 进程内回环传输
//
// 演示用：探测报文走一次编解码后原路回 Pong，模拟所有被挑战
// 节点都按时应答。bind 在探测器装配完成后注入其引用。
type loopbackTransport struct {
	mu     sync.Mutex
	prober *liveness.Prober
}

func newLoopbackTransport() *loopbackTransport {
	return &loopbackTransport{}
}

// bind 注入探测器引用
func (t *loopbackTransport) bind(p *liveness.Prober) {
	t.mu.Lock()
	t.prober = p
	t.mu.Unlock()
}

// SendPing 实现 liveness.Transport
func (t *loopbackTransport) SendPing(_ context.Context, peer types.PeerInfo, ping *liveness.PingRequest) error {
	data, err := liveness.EncodePing(ping)
	if err != nil {
		return err
	}

	go func() {
		decoded, err := liveness.DecodePing(data)
		if err != nil {
			return
		}

		t.mu.Lock()
		prober := t.prober
		t.mu.Unlock()
		if prober == nil {
			return
		}

		_ = prober.HandlePong(peer.ID, liveness.NewPongResponse(decoded.ID))
	}()
	return nil
}

// mustParseAddrPort 解析地址，失败即 panic（仅用于演示数据）
func mustParseAddrPort(s string) netip.AddrPort {
	return netip.MustParseAddrPort(s)
}
