package liveness

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PingRequest Ping请求
type PingRequest struct {
	// ID 请求ID
	ID string `json:"id"`

	// Timestamp 时间戳
	Timestamp int64 `json:"timestamp"`
}

// PongResponse Pong响应
type PongResponse struct {
	// ID 请求ID（与对应 Ping 一致）
	ID string `json:"id"`

	// Timestamp 响应时间戳
	Timestamp int64 `json:"timestamp"`
}

// NewPingRequest 创建Ping请求
func NewPingRequest() *PingRequest {
	return &PingRequest{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
	}
}

// NewPongResponse 创建Pong响应
func NewPongResponse(pingID string) *PongResponse {
	return &PongResponse{
		ID:        pingID,
		Timestamp: time.Now().UnixNano(),
	}
}

// EncodePing 编码Ping请求
func EncodePing(ping *PingRequest) ([]byte, error) {
	return json.Marshal(ping)
}

// DecodePing 解码Ping请求
func DecodePing(data []byte) (*PingRequest, error) {
	var ping PingRequest
	if err := json.Unmarshal(data, &ping); err != nil {
		return nil, err
	}
	return &ping, nil
}

// EncodePong 编码Pong响应
func EncodePong(pong *PongResponse) ([]byte, error) {
	return json.Marshal(pong)
}

// DecodePong 解码Pong响应
func DecodePong(data []byte) (*PongResponse, error) {
	var pong PongResponse
	if err := json.Unmarshal(data, &pong); err != nil {
		return nil, err
	}
	return &pong, nil
}
