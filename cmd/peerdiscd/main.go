// Package main 提供 peerdiscd 命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-peerdiscovery/internal/discovery/coordinator"
	"github.com/dep2p/go-peerdiscovery/internal/discovery/kademlia"
	"github.com/dep2p/go-peerdiscovery/internal/discovery/verifier"
	"github.com/dep2p/go-peerdiscovery/internal/protocol/liveness"
	"github.com/dep2p/go-peerdiscovery/pkg/lib/log"
	"github.com/dep2p/go-peerdiscovery/pkg/types"
)

var logger = log.Logger("peerdiscd/cmd")

// 版本信息（构建时通过 -ldflags 注入）
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	// 路由表参数
	bucketSize  = flag.Int("k", 0, "每个桶的容量（0 = 默认值）")
	maxPending  = flag.Int("max-pending", 0, "暂存区容量（0 = 默认值）")
	subnetLimit = flag.Int("subnet-limit", 0, "同桶同子网节点上限（0 = 默认值）")

	// 演示参数
	demoPeers     = flag.Int("demo-peers", 0, "启动后注入的模拟节点数（0 = 不注入）")
	statsInterval = flag.Duration("stats-interval", 30*time.Second, "状态快照输出间隔")

	// 日志参数
	logFile  = flag.String("log", "", "日志文件路径（空 = 输出到 stderr）")
	logDebug = flag.Bool("debug", false, "输出 Debug 级别日志")

	// 信息显示
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		printVersion()
		return nil
	}

	closer, err := setupLogging()
	if err != nil {
		return fmt.Errorf("日志初始化失败: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	// 本节点身份；本进程同时充当自己的验证权威
	localID := types.GenerateNodeID()
	logger.Info("启动 peerdiscd 节点",
		"version", Version,
		"node", localID.ShortString())

	transport := newLoopbackTransport()

	var coord *coordinator.Coordinator
	app := fx.New(
		fx.NopLogger,

		fx.Supply(
			fx.Annotate(localID, fx.ResultTags(`name:"local_node_id"`)),
			fx.Annotate(localID, fx.ResultTags(`name:"authority_node_id"`)),
		),
		fx.Provide(
			buildTableConfig,
			func() verifier.IdentityChecker { return acceptAllChecker },
			func() liveness.Transport { return transport },
		),

		kademlia.Module,
		verifier.Module,
		liveness.Module,
		coordinator.Module,

		// 回环传输需要探测器才能回 Pong
		fx.Invoke(transport.bind),
		fx.Populate(&coord),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("依赖装配失败: %w", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	fmt.Printf("peerdiscd %s 已启动 (node: %s)，按 Ctrl+C 退出\n", Version, localID.ShortString())

	stop := make(chan struct{})
	if *demoPeers > 0 {
		go feedDemoPeers(coord, *demoPeers, stop)
	}
	go reportStats(coord, *statsInterval, stop)

	waitForSignal()
	close(stop)

	fmt.Println("\n正在关闭节点...")
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	return app.Stop(stopCtx)
}

// buildTableConfig 由命令行参数构建路由表配置
func buildTableConfig() *kademlia.Config {
	cfg := kademlia.DefaultConfig()
	if *bucketSize > 0 {
		cfg.K = *bucketSize
	}
	if *maxPending > 0 {
		cfg.MaxPendingPeers = *maxPending
	}
	if *subnetLimit > 0 {
		cfg.MaxPeersPerSubnet = *subnetLimit
	}
	return cfg
}

// acceptAllChecker 演示用身份校验：全部放行
//
// 生产部署时替换为真实的签名校验实现。
func acceptAllChecker(_ context.Context, _ types.PeerInfo) (bool, error) {
	return true, nil
}

// feedDemoPeers 注入模拟发现的节点
func feedDemoPeers(coord *coordinator.Coordinator, count int, stop <-chan struct{}) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	injected := 0
	for injected < count {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		peer := randomPeer(rng)
		outcome, err := coord.Discover(peer)
		if err != nil {
			logger.Debug("模拟节点被拒绝",
				"peer", peer.ID.ShortString(),
				"error", err)
			continue
		}
		logger.Debug("注入模拟节点",
			"peer", peer.ID.ShortString(),
			"outcome", outcome.String())
		injected++
	}
	logger.Info("模拟节点注入完成", "count", count)
}

// randomPeer 生成随机身份与随机地址的模拟节点
func randomPeer(rng *rand.Rand) types.PeerInfo {
	addr := fmt.Sprintf("10.%d.%d.%d:4001",
		rng.Intn(256), rng.Intn(256), 1+rng.Intn(254))
	return types.PeerInfo{
		ID:   types.GenerateNodeID(),
		Addr: mustParseAddrPort(addr),
	}
}

// reportStats 周期性输出路由表状态快照
func reportStats(coord *coordinator.Coordinator, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		stats := coord.Stats()
		logger.Info("路由表状态",
			"peers", stats.TotalPeers,
			"buckets", stats.BucketsInUse,
			"staging", stats.PendingVerification,
			"challenges", stats.PendingChallenges,
			"banned", stats.BannedPeers,
			"promoted", stats.Counters.Promoted,
			"evictions", stats.Counters.Evictions)
	}
}

// setupLogging 设置日志输出
func setupLogging() (*os.File, error) {
	level := slog.LevelInfo
	if *logDebug {
		level = slog.LevelDebug
	}

	if *logFile == "" {
		log.SetDefault(log.New(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(*logFile), 0750); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	log.SetDefault(log.New(file, &slog.HandlerOptions{Level: level}))
	return file, nil
}

// waitForSignal 等待退出信号
func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("peerdiscd %s\n", Version)
	if GitCommit != "" {
		fmt.Printf("  commit: %s\n", GitCommit)
	}
	if BuildDate != "" {
		fmt.Printf("  built:  %s\n", BuildDate)
	}
}
