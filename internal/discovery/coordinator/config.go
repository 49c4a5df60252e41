package coordinator

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ============================================================================
//                              配置
// ============================================================================

// Config 协调器配置
type Config struct {
	// StageRate 发现请求的速率上限（次/秒）
	StageRate rate.Limit

	// StageBurst 发现请求的突发容量
	StageBurst int

	// SweepInterval 过期挑战清扫间隔
	SweepInterval time.Duration

	// GCInterval 暂存区与封禁表的回收间隔
	GCInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		StageRate:     64,
		StageBurst:    128,
		SweepInterval: 1 * time.Second,
		GCInterval:    30 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.StageRate <= 0 {
		return fmt.Errorf("StageRate 必须大于 0，当前值: %v", c.StageRate)
	}
	if c.StageBurst <= 0 {
		return fmt.Errorf("StageBurst 必须大于 0，当前值: %d", c.StageBurst)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SweepInterval 必须大于 0，当前值: %v", c.SweepInterval)
	}
	if c.GCInterval <= 0 {
		return fmt.Errorf("GCInterval 必须大于 0，当前值: %v", c.GCInterval)
	}
	return nil
}

// ============================================================================
//                              配置选项
// ============================================================================

// ConfigOption 配置选项函数
type ConfigOption func(*Config)

// WithStageRate 设置发现请求速率上限与突发容量
func WithStageRate(r rate.Limit, burst int) ConfigOption {
	return func(c *Config) {
		c.StageRate = r
		c.StageBurst = burst
	}
}

// WithSweepInterval 设置过期挑战清扫间隔
func WithSweepInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.SweepInterval = d
	}
}

// WithGCInterval 设置回收间隔
func WithGCInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.GCInterval = d
	}
}
