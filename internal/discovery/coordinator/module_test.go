package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-peerdiscovery/internal/discovery/kademlia"
	"github.com/dep2p/go-peerdiscovery/internal/discovery/verifier"
	"github.com/dep2p/go-peerdiscovery/internal/protocol/liveness"
	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

// nullTransport 丢弃所有探测报文
type nullTransport struct{}

func (nullTransport) SendPing(context.Context, types.PeerInfo, *liveness.PingRequest) error {
	return nil
}

// TestModule_Assembly 测试 Fx 模块装配与生命周期
func TestModule_Assembly(t *testing.T) {
	localID := types.GenerateNodeID()

	var coord *Coordinator
	app := fxtest.New(t,
		fx.NopLogger,

		fx.Supply(
			fx.Annotate(localID, fx.ResultTags(`name:"local_node_id"`)),
			fx.Annotate(localID, fx.ResultTags(`name:"authority_node_id"`)),
		),
		fx.Provide(
			func() verifier.IdentityChecker {
				return func(context.Context, types.PeerInfo) (bool, error) { return true, nil }
			},
			func() liveness.Transport { return nullTransport{} },
		),

		kademlia.Module,
		verifier.Module,
		liveness.Module,
		Module,

		fx.Populate(&coord),
	)

	app.RequireStart()
	require.NotNil(t, coord)

	outcome, err := coord.Discover(peerInBucket0(1, 1))
	require.NoError(t, err)
	assert.Equal(t, kademlia.StageOutcomeStaged, outcome)

	app.RequireStop()

	t.Log("✅ Fx 模块装配与生命周期正常")
}
