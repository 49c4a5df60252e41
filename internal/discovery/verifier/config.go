package verifier

import (
	"errors"
	"time"
)

// Config 验证权威配置
type Config struct {
	// QueueSize 请求/结论队列容量
	QueueSize int

	// CacheSize 近期结论缓存容量
	CacheSize int

	// CacheTTL 近期结论缓存存活时间
	CacheTTL time.Duration

	// CheckTimeout 单次身份校验超时
	CheckTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		QueueSize:    64,
		CacheSize:    1024,
		CacheTTL:     10 * time.Minute,
		CheckTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return errors.New("queue size must be positive")
	}

	if c.CacheSize <= 0 {
		return errors.New("cache size must be positive")
	}

	if c.CacheTTL <= 0 {
		return errors.New("cache TTL must be positive")
	}

	if c.CheckTimeout <= 0 {
		return errors.New("check timeout must be positive")
	}

	return nil
}

// ConfigOption 配置选项函数
type ConfigOption func(*Config)

// WithQueueSize 设置队列容量
func WithQueueSize(size int) ConfigOption {
	return func(c *Config) {
		c.QueueSize = size
	}
}

// WithCacheSize 设置结论缓存容量
func WithCacheSize(size int) ConfigOption {
	return func(c *Config) {
		c.CacheSize = size
	}
}

// WithCacheTTL 设置结论缓存存活时间
func WithCacheTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// WithCheckTimeout 设置单次校验超时
func WithCheckTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.CheckTimeout = timeout
	}
}
