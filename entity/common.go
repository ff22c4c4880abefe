package entity

import "time"

// 多个形态共用的嵌套结构

// AIUsageCost AI 调用消耗
type AIUsageCost struct {
	InputTokens  int64   `json:"inputTokens" validate:"gte=0"`
	OutputTokens int64   `json:"outputTokens" validate:"gte=0"`
	CostUSD      float64 `json:"costUsd" validate:"gte=0"`
}

// TokenUsage 带更新时间的消耗统计
type TokenUsage struct {
	InputTokens   int64      `json:"inputTokens" validate:"gte=0"`
	OutputTokens  int64      `json:"outputTokens" validate:"gte=0"`
	CostUSD       float64    `json:"costUsd" validate:"gte=0"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt,omitempty"`
}
