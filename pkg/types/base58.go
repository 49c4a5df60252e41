package types

import (
	"errors"
	"math/big"
)

// Base58 字母表（Bitcoin 风格，避免易混淆字符 0OIl）
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ErrInvalidBase58Char 无效的 Base58 字符
var ErrInvalidBase58Char = errors.New("invalid base58 character")

// base58Decode 字符到值的映射表（255 = 非法字符）
var base58DecodeMap = func() [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = 255
	}
	for i := 0; i < len(base58Alphabet); i++ {
		m[base58Alphabet[i]] = byte(i)
	}
	return m
}()

var (
	bigRadix = big.NewInt(58)
	bigZero  = big.NewInt(0)
)

// Base58Encode 将字节切片编码为 Base58 字符串
func Base58Encode(input []byte) string {
	if len(input) == 0 {
		return ""
	}

	// 前导零字节编码为前导 '1'
	leadingZeros := 0
	for _, b := range input {
		if b != 0 {
			break
		}
		leadingZeros++
	}

	x := new(big.Int).SetBytes(input)
	result := make([]byte, 0, len(input)*136/100+1)
	mod := new(big.Int)

	for x.Cmp(bigZero) > 0 {
		x.DivMod(x, bigRadix, mod)
		result = append(result, base58Alphabet[mod.Int64()])
	}

	for i := 0; i < leadingZeros; i++ {
		result = append(result, '1')
	}

	// 反转
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// Base58Decode 将 Base58 字符串解码为字节切片
func Base58Decode(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}

	x := new(big.Int)
	for i := 0; i < len(input); i++ {
		v := base58DecodeMap[input[i]]
		if v == 255 {
			return nil, ErrInvalidBase58Char
		}
		x.Mul(x, bigRadix)
		x.Add(x, big.NewInt(int64(v)))
	}

	decoded := x.Bytes()

	// 还原前导 '1' 对应的零字节
	leadingOnes := 0
	for i := 0; i < len(input) && input[i] == '1'; i++ {
		leadingOnes++
	}

	result := make([]byte, leadingOnes+len(decoded))
	copy(result[leadingOnes:], decoded)
	return result, nil
}
