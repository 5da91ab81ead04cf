package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldTool       = "tool"
	FieldSymbol     = "symbol"
	FieldErrorKind  = "error_kind"
	FieldDurationMs = "duration_ms"
	FieldLogSource  = "log_source"
	FieldRequestID  = "request_id"
)

const (
	EventToolCall            = "tool_call"
	EventToolError           = "tool_error"
	EventToolPanic           = "tool_panic"
	EventSessionBuild        = "session_build"
	EventSessionBuildFailure = "session_build_failure"
	EventLoginSuccess        = "login_success"
	EventLoginFailure        = "login_failure"
	EventCacheSweep          = "cache_sweep"
	EventCacheClear          = "cache_clear"
	EventConfigReload        = "config_reload"
	EventObservabilityUp     = "observability_up"
	EventObservabilityDown   = "observability_down"
)

const (
	LogSourceCore    = "core"
	LogSourceBackend = "backend"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ToolField(tool string) zap.Field {
	return zap.String(FieldTool, tool)
}

func SymbolField(symbol string) zap.Field {
	return zap.String(FieldSymbol, symbol)
}

func ErrorKindField(kind string) zap.Field {
	return zap.String(FieldErrorKind, kind)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RequestIDField(value string) zap.Field {
	return zap.String(FieldRequestID, value)
}
