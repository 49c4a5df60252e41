package kademlia

import (
	"errors"
	"time"
)

// Config 路由表配置
type Config struct {
	// K K-桶容量
	K int

	// MaxPendingPeers 暂存区容量上限
	MaxPendingPeers int

	// VerificationTimeout 暂存节点的身份验证超时
	VerificationTimeout time.Duration

	// EvictionChallengeTimeout 驱逐挑战超时（无应答视为死亡）
	EvictionChallengeTimeout time.Duration

	// MaxPeersPerSubnet 单桶内同子网节点数上限（抗 Sybil）
	MaxPeersPerSubnet int

	// SubnetPrefixLen IPv4 子网前缀位数
	SubnetPrefixLen int

	// SubnetPrefixLenIPv6 IPv6 子网前缀位数
	SubnetPrefixLenIPv6 int
}

// DefaultConfig 返回默认配置
//
// 子网限制沿用以太坊 discover 表的经验值：每桶至多 2 个 /24 节点。
func DefaultConfig() *Config {
	return &Config{
		K:                        20,
		MaxPendingPeers:          64,
		VerificationTimeout:      30 * time.Second,
		EvictionChallengeTimeout: 10 * time.Second,
		MaxPeersPerSubnet:        2,
		SubnetPrefixLen:          24,
		SubnetPrefixLenIPv6:      64,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.K <= 0 {
		return errors.New("bucket capacity must be positive")
	}

	if c.MaxPendingPeers <= 0 {
		return errors.New("max pending peers must be positive")
	}

	if c.VerificationTimeout <= 0 {
		return errors.New("verification timeout must be positive")
	}

	if c.EvictionChallengeTimeout <= 0 {
		return errors.New("eviction challenge timeout must be positive")
	}

	if c.MaxPeersPerSubnet <= 0 {
		return errors.New("max peers per subnet must be positive")
	}

	if c.SubnetPrefixLen < 0 || c.SubnetPrefixLen > 32 {
		return errors.New("IPv4 subnet prefix length must be in [0, 32]")
	}

	if c.SubnetPrefixLenIPv6 < 0 || c.SubnetPrefixLenIPv6 > 128 {
		return errors.New("IPv6 subnet prefix length must be in [0, 128]")
	}

	return nil
}

// ConfigOption 配置选项函数
type ConfigOption func(*Config)

// WithK 设置 K-桶容量
func WithK(k int) ConfigOption {
	return func(c *Config) {
		c.K = k
	}
}

// WithMaxPendingPeers 设置暂存区容量上限
func WithMaxPendingPeers(max int) ConfigOption {
	return func(c *Config) {
		c.MaxPendingPeers = max
	}
}

// WithVerificationTimeout 设置身份验证超时
func WithVerificationTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.VerificationTimeout = timeout
	}
}

// WithEvictionChallengeTimeout 设置驱逐挑战超时
func WithEvictionChallengeTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.EvictionChallengeTimeout = timeout
	}
}

// WithMaxPeersPerSubnet 设置单桶内同子网节点数上限
func WithMaxPeersPerSubnet(max int) ConfigOption {
	return func(c *Config) {
		c.MaxPeersPerSubnet = max
	}
}

// WithSubnetPrefixLen 设置子网前缀位数（IPv4 与 IPv6）
func WithSubnetPrefixLen(v4, v6 int) ConfigOption {
	return func(c *Config) {
		c.SubnetPrefixLen = v4
		c.SubnetPrefixLenIPv6 = v6
	}
}
