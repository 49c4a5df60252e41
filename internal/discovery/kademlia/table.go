package kademlia

import (
	"math/rand"
	"net/netip"
	"time"

	"github.com/dep2p/go-peerdiscovery/pkg/lib/log"
	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

var logger = log.Logger("kademlia")

// ============================================================================
//                              准入结果
// ============================================================================

// StageOutcome 暂存操作的三态结果
//
// 区分"新暂存"与"无操作成功"，拒绝通过 error 返回。
type StageOutcome int

const (
	// StageOutcomeRejected 请求被拒绝（伴随具体错误）
	StageOutcomeRejected StageOutcome = iota

	// StageOutcomeStaged 节点已进入暂存区等待验证
	StageOutcomeStaged

	// StageOutcomeAlreadyStaged 节点已在暂存区（幂等，无操作）
	StageOutcomeAlreadyStaged

	// StageOutcomeAlreadyRouted 节点已在目标桶中（无操作）
	StageOutcomeAlreadyRouted
)

// String 返回结果的可读表示
func (o StageOutcome) String() string {
	switch o {
	case StageOutcomeStaged:
		return "staged"
	case StageOutcomeAlreadyStaged:
		return "already_staged"
	case StageOutcomeAlreadyRouted:
		return "already_routed"
	default:
		return "rejected"
	}
}

// EvictionEvent 过期挑战触发的强制驱逐事件
type EvictionEvent struct {
	// BucketIndex 发生驱逐的桶索引
	BucketIndex int

	// Candidate 入桶的候选节点
	Candidate types.PeerInfo

	// Evicted 被驱逐的节点
	Evicted types.PeerInfo
}

// Stats 路由表状态快照
type Stats struct {
	// TotalPeers 桶中节点总数
	TotalPeers int

	// BucketsInUse 非空桶数量
	BucketsInUse int

	// PendingVerification 暂存区中等待验证的节点数
	PendingVerification int

	// PendingChallenges 进行中的驱逐挑战数
	PendingChallenges int

	// BannedPeers 封禁表条目数
	BannedPeers int

	// OldestPeerAge 全表最旧节点的年龄（空表为 0）
	OldestPeerAge time.Duration

	// Counters 累计计数器快照
	Counters MetricsSnapshot
}

// ============================================================================
//                              路由表
// ============================================================================

// Table Kademlia 路由表
//
// 独占持有全部桶、暂存区与封禁表；所有变更只经由 Table 的方法。
// 不做内部同步：设计为由单一逻辑归属者串行访问，每个公开方法是
// 原子性单元（见包文档的并发模型）。
type Table struct {
	cfg     *Config
	localID types.NodeID

	// 按距离值直接索引的扁平桶数组（O(1) 查桶）
	buckets [NumBuckets]*Bucket

	staging *StagingArea
	bans    *BanList
	metrics *Metrics

	rng *rand.Rand
}

// NewTable 创建路由表
func NewTable(localID types.NodeID, cfg *Config, opts ...ConfigOption) (*Table, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Table{
		cfg:     cfg,
		localID: localID,
		staging: NewStagingArea(cfg.MaxPendingPeers),
		bans:    NewBanList(),
		metrics: NewMetrics(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i := range t.buckets {
		t.buckets[i] = NewBucket(cfg.K)
	}
	return t, nil
}

// LocalID 返回本地节点 ID
func (t *Table) LocalID() types.NodeID {
	return t.localID
}

// Config 返回表配置
func (t *Table) Config() *Config {
	return t.cfg
}

// Metrics 返回累计指标
func (t *Table) Metrics() *Metrics {
	return t.metrics
}

// bucketFor 返回 id 对应的桶及其索引
func (t *Table) bucketFor(id types.NodeID) (*Bucket, int, error) {
	idx := BucketIndex(t.localID, id)
	if idx < 0 || idx >= NumBuckets {
		// 固定宽度密钥空间下不可达
		return nil, 0, ErrInvalidNodeID
	}
	return t.buckets[idx], idx, nil
}

// subnetPrefixFor 返回地址族对应的子网前缀位数
func (t *Table) subnetPrefixFor(addr netip.Addr) int {
	if addr.Unmap().Is4() {
		return t.cfg.SubnetPrefixLen
	}
	return t.cfg.SubnetPrefixLenIPv6
}

// ============================================================================
//                              准入状态机
// ============================================================================

// StagePeer 将发现的候选节点放入暂存区
//
// 检查顺序（第一个失败即返回）：
//  1. 暂存区已满 → ErrStagingAreaFull（尾部丢弃，不驱逐已暂存节点）
//  2. 候选是本地节点 → ErrSelfConnection
//  3. 候选处于封禁期 → ErrPeerBanned
//  4. 已暂存 → AlreadyStaged（幂等，非错误）
//  5. 已在目标桶 → AlreadyRouted（非错误）
//  6. 插入暂存区 → Staged
func (t *Table) StagePeer(peer types.PeerInfo, now time.Time) (StageOutcome, error) {
	if t.staging.IsFull() {
		t.metrics.stagingRejected.Add(1)
		return StageOutcomeRejected, ErrStagingAreaFull
	}

	if peer.ID == t.localID {
		t.metrics.stagingRejected.Add(1)
		return StageOutcomeRejected, ErrSelfConnection
	}

	if t.bans.IsBanned(peer.ID, now) {
		t.metrics.stagingRejected.Add(1)
		return StageOutcomeRejected, ErrPeerBanned
	}

	if t.staging.Contains(peer.ID) {
		return StageOutcomeAlreadyStaged, nil
	}

	bucket, _, err := t.bucketFor(peer.ID)
	if err != nil {
		t.metrics.stagingRejected.Add(1)
		return StageOutcomeRejected, err
	}
	if bucket.Contains(peer.ID) {
		return StageOutcomeAlreadyRouted, nil
	}

	t.staging.Add(peer, now, t.cfg.VerificationTimeout)
	t.metrics.staged.Add(1)
	logger.Debug("节点进入暂存区",
		"peer", peer.ID.ShortString(),
		"addr", peer.Addr.String(),
		"pending", t.staging.Len())
	return StageOutcomeStaged, nil
}

// OnVerificationResult 处理身份验证结果
//
// 验证消耗暂存记录：无论结果如何，条目都先从暂存区移除。
// 返回值语义：
//   - (nil, nil)：节点被静默丢弃（验证失败）或已晋升入桶
//   - (&challenged, nil)：目标桶已满，已对最旧节点开启驱逐挑战，
//     由调用方在表临界区之外向其发起存活探测
//   - (nil, err)：拒绝（未暂存 / 子网超限 / 挑战冲突等）
func (t *Table) OnVerificationResult(id types.NodeID, identityValid bool, now time.Time) (*types.PeerInfo, error) {
	entry, found := t.staging.Remove(id)

	if !identityValid {
		if found {
			t.metrics.verificationFailed.Add(1)
			logger.Debug("身份验证失败，丢弃候选节点", "peer", id.ShortString())
		}
		return nil, nil
	}

	if !found {
		return nil, ErrPeerNotFound
	}

	bucket, idx, err := t.bucketFor(id)
	if err != nil {
		return nil, err
	}

	// 子网多样性检查（抗 Sybil）
	ip := entry.Peer.IP()
	if bucket.SubnetCount(ip, t.subnetPrefixFor(ip)) >= t.cfg.MaxPeersPerSubnet {
		return nil, ErrSubnetLimitReached
	}

	if !bucket.IsFull(t.cfg.K) {
		peer := entry.Peer
		peer.Touch(now)
		bucket.AddFront(peer, t.cfg.K)
		t.metrics.promoted.Add(1)
		logger.Debug("节点晋升入桶",
			"peer", id.ShortString(),
			"bucket", idx,
			"size", bucket.Len())
		return nil, nil
	}

	if bucket.HasPendingChallenge() {
		return nil, ErrChallengeInProgress
	}

	oldest, ok := bucket.OldestPeer()
	if !ok {
		// 桶既满又空：不变量失配的守卫，正常运行不可达
		return nil, ErrBucketFull
	}

	bucket.SetPending(&PendingInsertion{
		Candidate:       entry.Peer,
		ChallengedPeer:  oldest.ID,
		ChallengeSentAt: now,
		Deadline:        now.Add(t.cfg.EvictionChallengeTimeout),
	})
	t.metrics.challengesOpened.Add(1)
	logger.Debug("开启驱逐挑战",
		"bucket", idx,
		"candidate", id.ShortString(),
		"challenged", oldest.ID.ShortString())

	challenged := oldest
	return &challenged, nil
}

// OnChallengeResponse 处理驱逐挑战的存活探测结果
//
// 被挑战节点存活：刷新其活跃度（移到桶前端），丢弃候选。
// 被挑战节点死亡：将其移出桶，候选入桶。两个分支都会清除挑战。
// 挑战不存在或 NodeID 不匹配时返回 ErrPeerNotFound，且不影响
// 现有挑战状态。
func (t *Table) OnChallengeResponse(challenged types.NodeID, isAlive bool, now time.Time) error {
	bucket, idx, err := t.bucketFor(challenged)
	if err != nil {
		return err
	}

	pending := bucket.Pending()
	if pending == nil || pending.ChallengedPeer != challenged {
		return ErrPeerNotFound
	}

	if isAlive {
		// 存活：刷新活跃度并加信誉分，候选被丢弃
		bucket.Touch(challenged, now)
		bucket.BumpReputation(challenged)
		t.metrics.challengesSurvived.Add(1)
		logger.Debug("被挑战节点存活，丢弃候选",
			"bucket", idx,
			"challenged", challenged.ShortString(),
			"candidate", pending.Candidate.ID.ShortString())
	} else {
		bucket.Remove(challenged)
		t.metrics.evictions.Add(1)
		logger.Info("驱逐死亡节点",
			"bucket", idx,
			"evicted", challenged.ShortString(),
			"candidate", pending.Candidate.ID.ShortString())
		t.installCandidate(bucket, idx, pending.Candidate, now)
	}

	bucket.ClearPending()
	return nil
}

// installCandidate 挑战结算时将候选安装入桶
//
// 挑战期间桶的构成可能已经变化（移除、封禁、其他候选晋升入空出的
// 席位），开启挑战时的校验不再可信。安装前重新校验重复与子网上限，
// 任一不满足则丢弃候选，保持桶的子网多样性与唯一性不变量。
// 返回候选是否实际入桶。
func (t *Table) installCandidate(bucket *Bucket, idx int, candidate types.PeerInfo, now time.Time) bool {
	if bucket.Contains(candidate.ID) {
		logger.Debug("候选已在桶中，结算时跳过安装",
			"bucket", idx,
			"candidate", candidate.ID.ShortString())
		return false
	}

	ip := candidate.IP()
	if bucket.SubnetCount(ip, t.subnetPrefixFor(ip)) >= t.cfg.MaxPeersPerSubnet {
		logger.Debug("候选子网已达上限，结算时丢弃",
			"bucket", idx,
			"candidate", candidate.ID.ShortString())
		return false
	}

	candidate.Touch(now)
	if !bucket.AddFront(candidate, t.cfg.K) {
		return false
	}
	t.metrics.promoted.Add(1)
	return true
}

// CheckExpiredChallenges 处理所有已过期的驱逐挑战
//
// 静默即死亡：到期未应答的被挑战节点按挑战失败处理——强制驱逐，
// 候选入桶。返回驱逐事件列表供调用方记录或上报。
func (t *Table) CheckExpiredChallenges(now time.Time) []EvictionEvent {
	var events []EvictionEvent

	for idx, bucket := range t.buckets {
		pending := bucket.Pending()
		if pending == nil || !pending.Expired(now) {
			continue
		}

		evicted, _ := bucket.Get(pending.ChallengedPeer)
		bucket.Remove(pending.ChallengedPeer)
		bucket.ClearPending()

		t.metrics.expiredChallenges.Add(1)
		t.metrics.evictions.Add(1)
		t.installCandidate(bucket, idx, pending.Candidate, now)

		events = append(events, EvictionEvent{
			BucketIndex: idx,
			Candidate:   pending.Candidate,
			Evicted:     evicted,
		})
	}

	return events
}

// ============================================================================
//                              封禁与维护
// ============================================================================

// BanPeer 封禁节点
//
// 先将节点从其所在的暂存区/桶中移除，再写入封禁表。幂等，总是成功。
// 若被封禁节点正处于驱逐挑战中：作为被挑战者按挑战失败处理（候选
// 入桶）；作为候选者则挑战整体作废。
func (t *Table) BanPeer(id types.NodeID, duration time.Duration, reason string, now time.Time) {
	t.staging.Remove(id)

	if bucket, idx, err := t.bucketFor(id); err == nil {
		bucket.Remove(id)

		if pending := bucket.Pending(); pending != nil {
			switch {
			case pending.Candidate.ID == id:
				// 候选被封禁：挑战作废，被挑战者留在桶中
				bucket.ClearPending()
			case pending.ChallengedPeer == id:
				// 被挑战者被封禁：等同挑战失败，候选按结算规则入桶
				bucket.ClearPending()
				t.installCandidate(bucket, idx, pending.Candidate, now)
			}
		}
	}

	t.bans.Ban(id, now.Add(duration), reason)
	t.metrics.bansIssued.Add(1)
	logger.Info("封禁节点",
		"peer", id.ShortString(),
		"duration", duration,
		"reason", reason)
}

// TouchPeer 刷新桶中节点的活跃时间
func (t *Table) TouchPeer(id types.NodeID, now time.Time) bool {
	bucket, _, err := t.bucketFor(id)
	if err != nil {
		return false
	}
	return bucket.Touch(id, now)
}

// RemovePeer 将节点从其所在的桶和暂存区中移除
//
// 若被移除节点是进行中挑战的被挑战者，该挑战作废（候选被丢弃，
// 不自动入桶——手动移除不是存活证据）。
func (t *Table) RemovePeer(id types.NodeID) bool {
	_, staged := t.staging.Remove(id)

	bucket, _, err := t.bucketFor(id)
	if err != nil {
		return staged
	}

	removed := bucket.Remove(id)
	if pending := bucket.Pending(); pending != nil && pending.ChallengedPeer == id {
		bucket.ClearPending()
	}
	return removed || staged
}

// GCExpired 回收过期的暂存条目与封禁条目，返回回收总数
//
// 与主准入路径无关的安全阀，由外部调度器定期驱动。
func (t *Table) GCExpired(now time.Time) int {
	expired := t.staging.ExpireBefore(now)
	expired += t.bans.ExpireBefore(now)
	if expired > 0 {
		logger.Debug("回收过期条目", "count", expired)
	}
	return expired
}

// ============================================================================
//                              只读查询
// ============================================================================

// Contains 检查节点是否在某个桶中
func (t *Table) Contains(id types.NodeID) bool {
	bucket, _, err := t.bucketFor(id)
	if err != nil {
		return false
	}
	return bucket.Contains(id)
}

// Size 返回桶中节点总数
func (t *Table) Size() int {
	total := 0
	for _, bucket := range t.buckets {
		total += bucket.Len()
	}
	return total
}

// AllPeers 返回所有桶中节点的副本
func (t *Table) AllPeers() []types.PeerInfo {
	var all []types.PeerInfo
	for _, bucket := range t.buckets {
		all = append(all, bucket.Peers()...)
	}
	return all
}

// FindClosestPeers 返回距 target 最近的至多 count 个节点
func (t *Table) FindClosestPeers(target types.NodeID, count int) []types.PeerInfo {
	return FindKClosest(t.AllPeers(), target, count)
}

// GetRandomPeers 均匀随机返回至多 count 个节点
func (t *Table) GetRandomPeers(count int) []types.PeerInfo {
	all := t.AllPeers()
	if count <= 0 {
		return nil
	}

	t.rng.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})

	if len(all) > count {
		all = all[:count]
	}
	return all
}

// Stats 返回路由表状态快照
func (t *Table) Stats(now time.Time) Stats {
	stats := Stats{
		PendingVerification: t.staging.Len(),
		BannedPeers:         t.bans.Len(),
		Counters:            t.metrics.Snapshot(),
	}

	var oldest time.Time
	for _, bucket := range t.buckets {
		if bucket.HasPendingChallenge() {
			stats.PendingChallenges++
		}

		n := bucket.Len()
		if n == 0 {
			continue
		}
		stats.TotalPeers += n
		stats.BucketsInUse++
		if peer, ok := bucket.OldestPeer(); ok {
			if oldest.IsZero() || peer.LastSeen.Before(oldest) {
				oldest = peer.LastSeen
			}
		}
	}

	if !oldest.IsZero() {
		stats.OldestPeerAge = now.Sub(oldest)
	}
	return stats
}
