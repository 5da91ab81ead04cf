package domain

import "time"

// ToolStatus labels the outcome of a tool call.
type ToolStatus string

const (
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusError   ToolStatus = "error"
)

// CacheEvent labels resource cache activity.
type CacheEvent string

const (
	CacheEventHit    CacheEvent = "hit"
	CacheEventMiss   CacheEvent = "miss"
	CacheEventExpire CacheEvent = "expire"
	CacheEventEvict  CacheEvent = "evict"
)

// ToolMetric captures one dispatched tool call.
type ToolMetric struct {
	Tool     string
	Status   ToolStatus
	Kind     ErrorKind
	Duration time.Duration
}

// Metrics records operational metrics for dispatch, cache, and session.
type Metrics interface {
	ObserveTool(metric ToolMetric)
	ObserveCache(event CacheEvent, count int)
	SetCacheEntries(count int)
	ObserveSessionBuild(duration time.Duration, err error)
	ObserveLogin(success bool)
	ObserveTickerFetch(duration time.Duration, err error)
}
