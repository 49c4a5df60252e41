package kademlia

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig_Default 测试默认配置有效
func TestConfig_Default(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 20, cfg.K)
	assert.Equal(t, 2, cfg.MaxPeersPerSubnet)
	assert.Equal(t, 24, cfg.SubnetPrefixLen)
	assert.Equal(t, 64, cfg.SubnetPrefixLenIPv6)

	t.Log("✅ 默认配置有效")
}

// TestConfig_Validate 测试各字段校验
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"K 为零", func(c *Config) { c.K = 0 }},
		{"暂存容量为负", func(c *Config) { c.MaxPendingPeers = -1 }},
		{"验证超时为零", func(c *Config) { c.VerificationTimeout = 0 }},
		{"挑战超时为零", func(c *Config) { c.EvictionChallengeTimeout = 0 }},
		{"子网上限为零", func(c *Config) { c.MaxPeersPerSubnet = 0 }},
		{"IPv4 前缀越界", func(c *Config) { c.SubnetPrefixLen = 33 }},
		{"IPv6 前缀越界", func(c *Config) { c.SubnetPrefixLenIPv6 = 129 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Log("✅ 配置校验正确")
}

// TestConfig_Options 测试配置选项函数
func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()

	for _, opt := range []ConfigOption{
		WithK(16),
		WithMaxPendingPeers(128),
		WithMaxPeersPerSubnet(4),
		WithSubnetPrefixLen(20, 48),
	} {
		opt(cfg)
	}

	assert.Equal(t, 16, cfg.K)
	assert.Equal(t, 128, cfg.MaxPendingPeers)
	assert.Equal(t, 4, cfg.MaxPeersPerSubnet)
	assert.Equal(t, 20, cfg.SubnetPrefixLen)
	assert.Equal(t, 48, cfg.SubnetPrefixLenIPv6)

	t.Log("✅ 配置选项生效")
}
