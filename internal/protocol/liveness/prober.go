package liveness

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-peerdiscovery/pkg/lib/log"
	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

var logger = log.Logger("liveness")

// ============================================================================
//                              传输抽象
// ============================================================================

// Transport 探测报文发送接口
//
// 由上层注入，负责把 Ping 送达目标节点。回包不经由本接口，
// 收到的 Pong 由持有者调用 HandlePong 投递。
type Transport interface {
	// SendPing 向目标节点发送Ping请求
	SendPing(ctx context.Context, peer types.PeerInfo, ping *PingRequest) error
}

// ============================================================================
//                              挑战结果
// ============================================================================

// ChallengeResult 单次存活挑战的结论
type ChallengeResult struct {
	// NodeID 被挑战节点ID
	NodeID types.NodeID

	// Alive 截止前是否应答
	Alive bool

	// RTT 应答往返耗时（未应答时为零）
	RTT time.Duration

	// At 结论产生时间
	At time.Time
}

// outstanding 进行中的挑战
type outstanding struct {
	pingID string
	sentAt time.Time
	timer  *clock.Timer
}

// ============================================================================
//                              存活探测器
// ============================================================================

// Prober 存活探测器
//
// 每个被挑战节点最多持有一个进行中的挑战；超时前收到匹配的
// Pong 判定存活，否则判定死亡。沉默即死亡。
type Prober struct {
	transport Transport
	clock     clock.Clock

	mu      sync.Mutex
	pending map[types.NodeID]*outstanding

	results chan ChallengeResult
	started atomic.Bool
}

// ProberOption 探测器选项
type ProberOption func(*Prober)

// WithClock 注入时钟（测试用）
func WithClock(c clock.Clock) ProberOption {
	return func(p *Prober) {
		p.clock = c
	}
}

// WithResultBuffer 设置结果通道缓冲大小
func WithResultBuffer(n int) ProberOption {
	return func(p *Prober) {
		if n > 0 {
			p.results = make(chan ChallengeResult, n)
		}
	}
}

// NewProber 创建存活探测器
func NewProber(transport Transport, opts ...ProberOption) (*Prober, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	p := &Prober{
		transport: transport,
		clock:     clock.New(),
		pending:   make(map[types.NodeID]*outstanding),
		results:   make(chan ChallengeResult, 64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start 启动探测器
func (p *Prober) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	logger.Info("存活探测器已启动")
	return nil
}

// Stop 停止探测器并废弃所有进行中的挑战
//
// 停止不会向结果通道补发结论，未决挑战由上层的过期清扫兜底。
func (p *Prober) Stop() error {
	if !p.started.CompareAndSwap(true, false) {
		return ErrNotStarted
	}

	p.mu.Lock()
	for _, out := range p.pending {
		out.timer.Stop()
	}
	p.pending = make(map[types.NodeID]*outstanding)
	p.mu.Unlock()

	logger.Info("存活探测器已停止")
	return nil
}

// Results 返回挑战结论通道
func (p *Prober) Results() <-chan ChallengeResult {
	return p.results
}

// PendingCount 返回进行中的挑战数量
func (p *Prober) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Challenge 向节点发起存活挑战
//
// 发送失败立即判定死亡并产出结论；发送成功后在 timeout 内
// 等待匹配的 Pong。同一节点的重复挑战被拒绝。
func (p *Prober) Challenge(ctx context.Context, peer types.PeerInfo, timeout time.Duration) error {
	if !p.started.Load() {
		return ErrNotStarted
	}

	ping := NewPingRequest()

	p.mu.Lock()
	if _, exists := p.pending[peer.ID]; exists {
		p.mu.Unlock()
		return ErrChallengeExists
	}

	out := &outstanding{
		pingID: ping.ID,
		sentAt: p.clock.Now(),
	}
	out.timer = p.clock.AfterFunc(timeout, func() {
		p.expire(peer.ID, ping.ID)
	})
	p.pending[peer.ID] = out
	p.mu.Unlock()

	if err := p.transport.SendPing(ctx, peer, ping); err != nil {
		logger.Warn("发送存活探测失败",
			"peer", peer.ID.ShortString(),
			"error", err)
		// 送不出去与不应答同罪
		p.resolve(peer.ID, ping.ID, false, 0)
		return nil
	}

	logger.Debug("存活挑战已发出",
		"peer", peer.ID.ShortString(),
		"ping_id", ping.ID,
		"timeout", timeout)
	return nil
}

// HandlePong 投递收到的Pong应答
//
// 应答必须同时匹配进行中挑战的节点与 Ping ID，过期或伪造的
// 应答返回 ErrUnknownChallenge。
func (p *Prober) HandlePong(from types.NodeID, pong *PongResponse) error {
	if !p.started.Load() {
		return ErrNotStarted
	}

	p.mu.Lock()
	out, ok := p.pending[from]
	if !ok || out.pingID != pong.ID {
		p.mu.Unlock()
		return ErrUnknownChallenge
	}
	rtt := p.clock.Now().Sub(out.sentAt)
	p.mu.Unlock()

	p.resolve(from, pong.ID, true, rtt)
	return nil
}

// expire 挑战超时回调
func (p *Prober) expire(id types.NodeID, pingID string) {
	logger.Debug("存活挑战超时", "peer", id.ShortString())
	p.resolve(id, pingID, false, 0)
}

// resolve 结算挑战并产出结论
//
// 结算是幂等的：超时回调与 Pong 投递竞争时只有先到者生效。
// 结果通道满时丢弃结论而非阻塞调用方。
func (p *Prober) resolve(id types.NodeID, pingID string, alive bool, rtt time.Duration) {
	p.mu.Lock()
	out, ok := p.pending[id]
	if !ok || out.pingID != pingID {
		p.mu.Unlock()
		return
	}
	out.timer.Stop()
	delete(p.pending, id)
	p.mu.Unlock()

	result := ChallengeResult{
		NodeID: id,
		Alive:  alive,
		RTT:    rtt,
		At:     p.clock.Now(),
	}

	select {
	case p.results <- result:
	default:
		logger.Warn("挑战结论通道已满，丢弃结论",
			"peer", id.ShortString(),
			"alive", alive)
	}
}
