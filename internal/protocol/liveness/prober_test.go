package liveness

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// recordingTransport 记录发出的Ping，可注入发送错误
type recordingTransport struct {
	mu    sync.Mutex
	pings []*PingRequest
	err   error
}

func (t *recordingTransport) SendPing(ctx context.Context, peer types.PeerInfo, ping *PingRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.pings = append(t.pings, ping)
	return nil
}

func (t *recordingTransport) lastPing() *PingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pings) == 0 {
		return nil
	}
	return t.pings[len(t.pings)-1]
}

func testPeer() types.PeerInfo {
	return types.PeerInfo{
		ID:   types.GenerateNodeID(),
		Addr: netip.MustParseAddrPort("10.0.0.1:4001"),
	}
}

func waitResult(t *testing.T, p *Prober) ChallengeResult {
	t.Helper()
	select {
	case r := <-p.Results():
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("等待挑战结论超时")
		return ChallengeResult{}
	}
}

func newTestProber(t *testing.T, transport Transport, mock *clock.Mock) *Prober {
	t.Helper()
	p, err := NewProber(transport, WithClock(mock))
	require.NoError(t, err)
	require.NoError(t, p.Start())
	t.Cleanup(func() { p.Stop() })
	return p
}

// TestProber_PongMeansAlive 测试按时应答判定存活
func TestProber_PongMeansAlive(t *testing.T) {
	mock := clock.NewMock()
	transport := &recordingTransport{}
	p := newTestProber(t, transport, mock)

	peer := testPeer()
	require.NoError(t, p.Challenge(context.Background(), peer, 10*time.Second))
	require.Equal(t, 1, p.PendingCount())

	mock.Add(2 * time.Second)
	require.NoError(t, p.HandlePong(peer.ID, NewPongResponse(transport.lastPing().ID)))

	result := waitResult(t, p)
	assert.Equal(t, peer.ID, result.NodeID)
	assert.True(t, result.Alive)
	assert.Equal(t, 2*time.Second, result.RTT)
	assert.Equal(t, 0, p.PendingCount())

	t.Log("✅ 按时应答判定存活并记录往返耗时")
}

// TestProber_TimeoutMeansDead 测试沉默即死亡
func TestProber_TimeoutMeansDead(t *testing.T) {
	mock := clock.NewMock()
	transport := &recordingTransport{}
	p := newTestProber(t, transport, mock)

	peer := testPeer()
	require.NoError(t, p.Challenge(context.Background(), peer, 10*time.Second))

	mock.Add(10 * time.Second)

	result := waitResult(t, p)
	assert.Equal(t, peer.ID, result.NodeID)
	assert.False(t, result.Alive)
	assert.Zero(t, result.RTT)
	assert.Equal(t, 0, p.PendingCount())

	// 迟到的应答不再匹配
	assert.ErrorIs(t,
		p.HandlePong(peer.ID, NewPongResponse(transport.lastPing().ID)),
		ErrUnknownChallenge)

	t.Log("✅ 超时未应答判定死亡，迟到应答被拒绝")
}

// TestProber_DuplicateChallenge 测试同一节点重复挑战被拒
func TestProber_DuplicateChallenge(t *testing.T) {
	mock := clock.NewMock()
	p := newTestProber(t, &recordingTransport{}, mock)

	peer := testPeer()
	require.NoError(t, p.Challenge(context.Background(), peer, 10*time.Second))
	assert.ErrorIs(t, p.Challenge(context.Background(), peer, 10*time.Second), ErrChallengeExists)
	assert.Equal(t, 1, p.PendingCount())

	t.Log("✅ 同一节点同时只有一个进行中的挑战")
}

// TestProber_MismatchedPong 测试应答匹配校验
func TestProber_MismatchedPong(t *testing.T) {
	mock := clock.NewMock()
	transport := &recordingTransport{}
	p := newTestProber(t, transport, mock)

	peer := testPeer()
	require.NoError(t, p.Challenge(context.Background(), peer, 10*time.Second))

	// 未被挑战的节点
	assert.ErrorIs(t,
		p.HandlePong(types.GenerateNodeID(), NewPongResponse(transport.lastPing().ID)),
		ErrUnknownChallenge)

	// Ping ID 不匹配（伪造应答）
	assert.ErrorIs(t,
		p.HandlePong(peer.ID, NewPongResponse("forged-ping-id")),
		ErrUnknownChallenge)

	// 挑战仍在进行中
	assert.Equal(t, 1, p.PendingCount())

	t.Log("✅ 节点与 Ping ID 任一不匹配的应答被拒绝")
}

// TestProber_SendFailure 测试发送失败立即判定死亡
func TestProber_SendFailure(t *testing.T) {
	mock := clock.NewMock()
	transport := &recordingTransport{err: errors.New("connection refused")}
	p := newTestProber(t, transport, mock)

	peer := testPeer()
	require.NoError(t, p.Challenge(context.Background(), peer, 10*time.Second))

	result := waitResult(t, p)
	assert.Equal(t, peer.ID, result.NodeID)
	assert.False(t, result.Alive)
	assert.Equal(t, 0, p.PendingCount())

	t.Log("✅ 探测送达失败与不应答同样判定死亡")
}

// TestProber_Lifecycle 测试启动/停止状态机
func TestProber_Lifecycle(t *testing.T) {
	_, err := NewProber(nil)
	assert.ErrorIs(t, err, ErrNilTransport)

	p, err := NewProber(&recordingTransport{}, WithClock(clock.NewMock()))
	require.NoError(t, err)

	assert.ErrorIs(t, p.Challenge(context.Background(), testPeer(), time.Second), ErrNotStarted)
	assert.ErrorIs(t, p.HandlePong(testPeer().ID, NewPongResponse("x")), ErrNotStarted)
	assert.ErrorIs(t, p.Stop(), ErrNotStarted)

	require.NoError(t, p.Start())
	assert.ErrorIs(t, p.Start(), ErrAlreadyStarted)

	require.NoError(t, p.Challenge(context.Background(), testPeer(), time.Minute))
	require.NoError(t, p.Stop())
	assert.Equal(t, 0, p.PendingCount(), "停止时废弃进行中的挑战")

	t.Log("✅ 生命周期状态机正确")
}

// TestMessage_Codec 测试探测报文编解码
func TestMessage_Codec(t *testing.T) {
	ping := NewPingRequest()
	require.NotEmpty(t, ping.ID)

	data, err := EncodePing(ping)
	require.NoError(t, err)
	decoded, err := DecodePing(data)
	require.NoError(t, err)
	assert.Equal(t, ping.ID, decoded.ID)

	pong := NewPongResponse(ping.ID)
	assert.Equal(t, ping.ID, pong.ID, "Pong 回显 Ping 的请求ID")

	pdata, err := EncodePong(pong)
	require.NoError(t, err)
	dpong, err := DecodePong(pdata)
	require.NoError(t, err)
	assert.Equal(t, ping.ID, dpong.ID)

	assert.Error(t, func() error { _, err := DecodePing([]byte("{bad")); return err }())

	t.Log("✅ 探测报文编解码正确")
}
