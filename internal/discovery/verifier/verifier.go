// Package verifier 实现身份验证权威
//
// 验证权威是路由表准入的外部协作方：暂存的候选节点由它异步验证，
// 验证结论经 coordinator 喂给路由表的 OnVerificationResult。
// 实际的签名校验是可插拔的 IdentityChecker，密码学本身不在本模块
// 范围内。
package verifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dep2p/go-peerdiscovery/pkg/lib/log"
	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

var logger = log.Logger("discovery/verifier")

// IdentityChecker 身份校验函数
//
// 返回候选节点的身份是否有效。错误视为验证失败（不有效）。
type IdentityChecker func(ctx context.Context, peer types.PeerInfo) (bool, error)

// Verdict 验证结论
type Verdict struct {
	// RequestID 本次验证的请求 ID
	RequestID string

	// NodeID 被验证的节点
	NodeID types.NodeID

	// IdentityValid 身份是否有效
	IdentityValid bool

	// VerifiedAt 验证完成时间
	VerifiedAt time.Time

	// Cached 结论是否来自近期结论缓存
	Cached bool
}

// ============================================================================
//                              验证权威
// ============================================================================

// Verifier 异步身份验证权威
//
// 单 worker 消费请求队列，结论投递到 Results 通道。近期结论缓存
// 使重复发现的同一节点在 TTL 内直接命中，不重复执行校验。
type Verifier struct {
	cfg         *Config
	authorityID types.NodeID
	check       IdentityChecker

	// 近期结论缓存（NodeID → 身份是否有效）
	cache *expirable.LRU[types.NodeID, bool]

	requests chan types.PeerInfo
	results  chan Verdict

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New 创建验证权威
//
// authorityID 是权威自身的节点身份：只有它有权投递验证结论
// （见 AuthorizeSender）。cfg 为 nil 时使用 DefaultConfig。
func New(authorityID types.NodeID, check IdentityChecker, cfg *Config, opts ...ConfigOption) (*Verifier, error) {
	if check == nil {
		return nil, ErrNilChecker
	}

	if cfg == nil {
		cfg = DefaultConfig()
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Verifier{
		cfg:         cfg,
		authorityID: authorityID,
		check:       check,
		cache:       expirable.NewLRU[types.NodeID, bool](cfg.CacheSize, nil, cfg.CacheTTL),
		requests:    make(chan types.PeerInfo, cfg.QueueSize),
		results:     make(chan Verdict, cfg.QueueSize),
	}, nil
}

// AuthorityID 返回权威自身的节点身份
func (v *Verifier) AuthorityID() types.NodeID {
	return v.authorityID
}

// AuthorizeSender 校验结论投递者的身份
//
// 只有验证权威自己可以调用 OnVerificationResult；调用方在喂结论
// 之前必须先通过本检查。
func (v *Verifier) AuthorizeSender(sender types.NodeID) error {
	if sender != v.authorityID {
		return ErrUnauthorizedSender
	}
	return nil
}

// Start 启动验证 worker
func (v *Verifier) Start(ctx context.Context) error {
	if !v.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, v.cancel = context.WithCancel(ctx)
	v.wg.Add(1)
	go v.worker(ctx)

	logger.Info("验证权威已启动", "authority", v.authorityID.ShortString())
	return nil
}

// Stop 停止验证 worker
func (v *Verifier) Stop() error {
	if !v.started.CompareAndSwap(true, false) {
		return ErrNotStarted
	}

	v.cancel()
	v.wg.Wait()
	logger.Info("验证权威已停止")
	return nil
}

// Submit 提交候选节点等待验证
//
// 非阻塞：队列满时返回 ErrQueueFull，由调用方决定丢弃或重试。
func (v *Verifier) Submit(peer types.PeerInfo) error {
	if !v.started.Load() {
		return ErrNotStarted
	}

	select {
	case v.requests <- peer:
		return nil
	default:
		return ErrQueueFull
	}
}

// Results 返回验证结论通道
func (v *Verifier) Results() <-chan Verdict {
	return v.results
}

// worker 消费请求队列并产出结论
func (v *Verifier) worker(ctx context.Context) {
	defer v.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case peer := <-v.requests:
			v.emit(ctx, v.verify(ctx, peer))
		}
	}
}

// verify 执行一次验证（优先命中近期结论缓存）
func (v *Verifier) verify(ctx context.Context, peer types.PeerInfo) Verdict {
	verdict := Verdict{
		RequestID: uuid.New().String(),
		NodeID:    peer.ID,
	}

	if valid, ok := v.cache.Get(peer.ID); ok {
		verdict.IdentityValid = valid
		verdict.VerifiedAt = time.Now()
		verdict.Cached = true
		return verdict
	}

	checkCtx, cancel := context.WithTimeout(ctx, v.cfg.CheckTimeout)
	valid, err := v.check(checkCtx, peer)
	cancel()
	if err != nil {
		logger.Warn("身份校验出错，按无效处理",
			"peer", peer.ID.ShortString(),
			"error", err)
		valid = false
	}

	v.cache.Add(peer.ID, valid)
	verdict.IdentityValid = valid
	verdict.VerifiedAt = time.Now()
	return verdict
}

// emit 投递结论（停止时丢弃）
func (v *Verifier) emit(ctx context.Context, verdict Verdict) {
	select {
	case v.results <- verdict:
	case <-ctx.Done():
	}
}
