package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-peerdiscovery/internal/discovery/kademlia"
	"github.com/dep2p/go-peerdiscovery/internal/discovery/verifier"
	"github.com/dep2p/go-peerdiscovery/internal/protocol/liveness"
	"github.com/dep2p/go-peerdiscovery/pkg/lib/log"
	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

var logger = log.Logger("discovery/coordinator")

// ============================================================================
//                              Coordinator 结构体
// ============================================================================

// Coordinator 准入协调器
//
// 路由表的唯一归属者。tableMu 串行化全部表访问，表的每个方法
// 调用构成一个原子性单元；存活探测在临界区之外发出。
type Coordinator struct {
	config *Config
	clock  clock.Clock

	// 发现请求限流
	limiter *rate.Limiter

	// 路由表（独占归属）
	tableMu sync.RWMutex
	table   *kademlia.Table

	// 协作方：生命周期各自管理，协调器只消费其结论
	verifier *verifier.Verifier
	prober   *liveness.Prober

	// 状态管理
	started atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ============================================================================
//                              构造函数
// ============================================================================

// New 创建协调器
func New(table *kademlia.Table, v *verifier.Verifier, p *liveness.Prober, config *Config, opts ...ConfigOption) (*Coordinator, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	if v == nil {
		return nil, ErrNilVerifier
	}
	if p == nil {
		return nil, ErrNilProber
	}

	if config == nil {
		config = DefaultConfig()
	}
	for _, opt := range opts {
		opt(config)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Coordinator{
		config:   config,
		clock:    clock.New(),
		limiter:  rate.NewLimiter(config.StageRate, config.StageBurst),
		table:    table,
		verifier: v,
		prober:   p,
	}, nil
}

// WithClock 注入时钟（测试用），须在 Start 之前调用
func (c *Coordinator) WithClock(clk clock.Clock) *Coordinator {
	c.clock = clk
	return c
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动协调器
//
// 只启动事件循环；verifier 与 prober 的生命周期由各自的
// Fx Lifecycle 管理，协调器不负责其启动/停止。
func (c *Coordinator) Start(_ context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	logger.Info("正在启动准入协调器")

	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.wg.Add(1)
	go c.loop()

	logger.Info("准入协调器启动成功")
	return nil
}

// Stop 停止协调器
func (c *Coordinator) Stop(_ context.Context) error {
	if !c.started.CompareAndSwap(true, false) {
		return ErrNotStarted
	}

	logger.Info("正在停止准入协调器")

	c.cancel()
	c.wg.Wait()

	logger.Info("准入协调器已停止")
	return nil
}

// ============================================================================
//                              准入入口
// ============================================================================

// Discover 投递一个新发现的节点
//
// 入口带令牌桶限流，通过后进入暂存区并提交身份验证。验证结论
// 由事件循环异步消费，本方法不等待验证完成。
func (c *Coordinator) Discover(peer types.PeerInfo) (kademlia.StageOutcome, error) {
	if !c.started.Load() {
		return kademlia.StageOutcomeRejected, ErrNotStarted
	}

	if !c.limiter.Allow() {
		logger.Debug("发现请求被限流", "peer", peer.ID.ShortString())
		return kademlia.StageOutcomeRejected, ErrRateLimitExceeded
	}

	now := c.clock.Now()

	c.tableMu.Lock()
	outcome, err := c.table.StagePeer(peer, now)
	c.tableMu.Unlock()

	if err != nil {
		return outcome, NewDiscoveryError("discover", err, "")
	}

	if outcome == kademlia.StageOutcomeStaged {
		if err := c.verifier.Submit(peer); err != nil {
			// 暂存记录保留，超时后由回收定时器清理
			logger.Warn("提交身份验证失败",
				"peer", peer.ID.ShortString(),
				"error", err)
		}
	}

	return outcome, nil
}

// DeliverVerification 投递外部验证结论
//
// 只接受验证权威本人投递的结论，其余发送者一律拒绝。
func (c *Coordinator) DeliverVerification(sender types.NodeID, id types.NodeID, identityValid bool) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	if err := c.verifier.AuthorizeSender(sender); err != nil {
		logger.Warn("拒绝未授权的验证结论",
			"sender", sender.ShortString(),
			"peer", id.ShortString())
		return NewDiscoveryError("deliver_verification", err, "发送者不是验证权威")
	}
	if err := c.applyVerdict(id, identityValid); err != nil {
		return NewDiscoveryError("deliver_verification", err, "")
	}
	return nil
}

// Ban 封禁节点
func (c *Coordinator) Ban(id types.NodeID, duration time.Duration, reason string) {
	now := c.clock.Now()
	c.tableMu.Lock()
	c.table.BanPeer(id, duration, reason, now)
	c.tableMu.Unlock()
}

// Remove 将节点移出路由表
func (c *Coordinator) Remove(id types.NodeID) bool {
	c.tableMu.Lock()
	defer c.tableMu.Unlock()
	return c.table.RemovePeer(id)
}

// Touch 刷新节点活跃时间
func (c *Coordinator) Touch(id types.NodeID) bool {
	now := c.clock.Now()
	c.tableMu.Lock()
	defer c.tableMu.Unlock()
	return c.table.TouchPeer(id, now)
}

// ============================================================================
//                              查询接口
// ============================================================================

// FindClosestPeers 查找距目标最近的节点
func (c *Coordinator) FindClosestPeers(target types.NodeID, count int) []types.PeerInfo {
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	return c.table.FindClosestPeers(target, count)
}

// GetRandomPeers 随机返回若干节点
func (c *Coordinator) GetRandomPeers(count int) []types.PeerInfo {
	// 随机采样会推进表内的随机数发生器，需要写锁
	c.tableMu.Lock()
	defer c.tableMu.Unlock()
	return c.table.GetRandomPeers(count)
}

// Contains 判断节点是否已在路由表中
func (c *Coordinator) Contains(id types.NodeID) bool {
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	return c.table.Contains(id)
}

// Size 返回路由表中的节点总数
func (c *Coordinator) Size() int {
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	return c.table.Size()
}

// Stats 返回路由表状态快照
func (c *Coordinator) Stats() kademlia.Stats {
	now := c.clock.Now()
	c.tableMu.RLock()
	defer c.tableMu.RUnlock()
	return c.table.Stats(now)
}

// ============================================================================
//                              事件循环
// ============================================================================

// loop 事件循环
//
// 消费验证结论与存活探测结论，并驱动两个定时器：过期挑战清扫
// 与暂存/封禁条目回收。
func (c *Coordinator) loop() {
	defer c.wg.Done()

	sweep := c.clock.Ticker(c.config.SweepInterval)
	defer sweep.Stop()
	gc := c.clock.Ticker(c.config.GCInterval)
	defer gc.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return

		case verdict, ok := <-c.verifier.Results():
			if !ok {
				return
			}
			if err := c.applyVerdict(verdict.NodeID, verdict.IdentityValid); err != nil {
				logger.Debug("验证结论未被采纳",
					"peer", verdict.NodeID.ShortString(),
					"error", err)
			}

		case result, ok := <-c.prober.Results():
			if !ok {
				return
			}
			c.applyChallengeResult(result)

		case <-sweep.C:
			c.sweepExpiredChallenges()

		case <-gc.C:
			now := c.clock.Now()
			c.tableMu.Lock()
			c.table.GCExpired(now)
			c.tableMu.Unlock()
		}
	}
}

// applyVerdict 把验证结论写入路由表
//
// 表决定开启驱逐挑战时，存活探测在表临界区之外发出。
func (c *Coordinator) applyVerdict(id types.NodeID, identityValid bool) error {
	now := c.clock.Now()

	c.tableMu.Lock()
	challenged, err := c.table.OnVerificationResult(id, identityValid, now)
	c.tableMu.Unlock()

	if err != nil {
		return err
	}
	if challenged == nil {
		return nil
	}

	timeout := c.table.Config().EvictionChallengeTimeout
	if err := c.prober.Challenge(c.ctx, *challenged, timeout); err != nil {
		// 挑战发不出去不回滚表内状态，到期后按沉默驱逐
		logger.Warn("发起存活挑战失败",
			"challenged", challenged.ID.ShortString(),
			"error", err)
	}
	return nil
}

// applyChallengeResult 把存活探测结论写入路由表
func (c *Coordinator) applyChallengeResult(result liveness.ChallengeResult) {
	now := c.clock.Now()

	c.tableMu.Lock()
	err := c.table.OnChallengeResponse(result.NodeID, result.Alive, now)
	c.tableMu.Unlock()

	if err != nil {
		// 挑战可能已被清扫定时器按过期结算
		logger.Debug("探测结论未被采纳",
			"peer", result.NodeID.ShortString(),
			"alive", result.Alive,
			"error", err)
	}
}

// sweepExpiredChallenges 结算所有到期未应答的驱逐挑战
func (c *Coordinator) sweepExpiredChallenges() {
	now := c.clock.Now()

	c.tableMu.Lock()
	events := c.table.CheckExpiredChallenges(now)
	c.tableMu.Unlock()

	for _, ev := range events {
		logger.Info("挑战超时，强制驱逐",
			"bucket", ev.BucketIndex,
			"evicted", ev.Evicted.ID.ShortString(),
			"candidate", ev.Candidate.ID.ShortString())
	}
}
