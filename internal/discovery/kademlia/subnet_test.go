package kademlia

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSameSubnet 测试子网匹配
func TestSameSubnet(t *testing.T) {
	tests := []struct {
		name      string
		a         string
		b         string
		prefixLen int
		want      bool
	}{
		{"同一 /24", "192.168.1.100", "192.168.1.200", 24, true},
		{"不同 /24", "192.168.1.100", "192.168.2.100", 24, false},
		{"同一 /16 不同 /24", "192.168.1.100", "192.168.2.100", 16, true},
		{"前缀不对齐字节边界且不匹配", "192.168.1.100", "192.168.1.200", 25, false},
		{"前缀不对齐字节边界且匹配", "192.168.1.100", "192.168.1.101", 25, true},
		{"零前缀恒匹配", "10.0.0.1", "172.16.0.1", 0, true},
		{"IPv6 同一 /64", "2001:db8::1", "2001:db8::2", 64, true},
		{"IPv6 不同 /64", "2001:db8:0:1::1", "2001:db8:0:2::1", 64, false},
		{"IPv4 与 IPv6 永不匹配", "192.168.1.1", "2001:db8::1", 0, false},
		{"前缀超过地址位宽按全长比较", "192.168.1.100", "192.168.1.100", 64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := netip.MustParseAddr(tt.a)
			b := netip.MustParseAddr(tt.b)
			assert.Equal(t, tt.want, SameSubnet(a, b, tt.prefixLen))
			assert.Equal(t, tt.want, SameSubnet(b, a, tt.prefixLen), "子网判断应对称")
		})
	}

	t.Log("✅ 子网匹配正确")
}

// TestSameSubnet_MappedIPv4 测试 4-in-6 映射地址按 IPv4 处理
func TestSameSubnet_MappedIPv4(t *testing.T) {
	mapped := netip.MustParseAddr("::ffff:192.168.1.100")
	plain := netip.MustParseAddr("192.168.1.200")

	assert.True(t, SameSubnet(mapped, plain, 24))

	t.Log("✅ 映射 IPv4 地址去映射后参与比较")
}
