package kademlia

import (
	"net/netip"
)

// ============================================================================
//                              子网多样性检查
// ============================================================================

// SameSubnet 判断两个地址是否在同一子网内
//
// 比较两个地址的前 prefixLen 位：先按整字节比较，前缀不对齐到
// 字节边界时再对最后一个不完整字节做掩码比较。
// IPv4 与 IPv6 地址无论掩码如何都不视为同一子网。
func SameSubnet(a, b netip.Addr, prefixLen int) bool {
	a = a.Unmap()
	b = b.Unmap()

	if a.Is4() != b.Is4() {
		return false
	}
	if prefixLen <= 0 {
		return true
	}
	if prefixLen > a.BitLen() {
		prefixLen = a.BitLen()
	}

	ab := a.AsSlice()
	bb := b.AsSlice()

	fullBytes := prefixLen / 8
	for i := 0; i < fullBytes; i++ {
		if ab[i] != bb[i] {
			return false
		}
	}

	if rem := prefixLen % 8; rem != 0 {
		mask := byte(0xff << (8 - rem))
		if ab[fullBytes]&mask != bb[fullBytes]&mask {
			return false
		}
	}

	return true
}
