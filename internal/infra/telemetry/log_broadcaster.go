package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"

	"sfinmcp/internal/domain"
)

// DefaultLogBufferSize bounds each subscriber channel; slow subscribers drop entries.
const DefaultLogBufferSize = 256

// LogBroadcaster fans zap entries out to subscribers such as MCP client sessions.
type LogBroadcaster struct {
	level zapcore.LevelEnabler
	mu    sync.RWMutex
	subs  map[chan domain.LogEntry]struct{}
}

// NewLogBroadcaster accepts a fixed level or a zap.AtomicLevel so reloads apply.
func NewLogBroadcaster(level zapcore.LevelEnabler) *LogBroadcaster {
	if level == nil {
		level = zapcore.InfoLevel
	}
	return &LogBroadcaster{
		level: level,
		subs:  make(map[chan domain.LogEntry]struct{}),
	}
}

func (b *LogBroadcaster) Core() zapcore.Core {
	return &broadcastCore{broadcaster: b}
}

// Subscribe returns a channel that is closed once ctx is done.
func (b *LogBroadcaster) Subscribe(ctx context.Context) <-chan domain.LogEntry {
	ch := make(chan domain.LogEntry, DefaultLogBufferSize)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *LogBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *LogBroadcaster) publish(entry domain.LogEntry) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

type broadcastCore struct {
	broadcaster *LogBroadcaster
	fields      []zapcore.Field
}

func (c *broadcastCore) Enabled(level zapcore.Level) bool {
	return c.broadcaster.level.Enabled(level)
}

func (c *broadcastCore) With(fields []zapcore.Field) zapcore.Core {
	if len(fields) == 0 {
		return c
	}
	combined := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	combined = append(combined, c.fields...)
	combined = append(combined, fields...)
	return &broadcastCore{broadcaster: c.broadcaster, fields: combined}
}

func (c *broadcastCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *broadcastCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	encoder := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(encoder)
	}
	for _, field := range fields {
		field.AddTo(encoder)
	}

	data := map[string]any{
		"message":   entry.Message,
		"timestamp": entry.Time.UTC().Format(time.RFC3339Nano),
	}
	if len(encoder.Fields) > 0 {
		data["fields"] = encoder.Fields
	}
	raw, err := json.Marshal(data)
	if err != nil {
		// Unencodable fields never fail the primary log write.
		return nil
	}

	name := entry.LoggerName
	if name == "" {
		name = "sfinmcp"
	}
	c.broadcaster.publish(domain.LogEntry{
		Logger:    name,
		Level:     MapZapLevel(entry.Level),
		Timestamp: entry.Time,
		DataJSON:  raw,
	})
	return nil
}

func (c *broadcastCore) Sync() error {
	return nil
}

// MapZapLevel converts a zap level to the MCP logging level vocabulary.
func MapZapLevel(level zapcore.Level) domain.LogLevel {
	switch level {
	case zapcore.DebugLevel:
		return domain.LogLevelDebug
	case zapcore.InfoLevel:
		return domain.LogLevelInfo
	case zapcore.WarnLevel:
		return domain.LogLevelWarning
	case zapcore.ErrorLevel:
		return domain.LogLevelError
	case zapcore.DPanicLevel:
		return domain.LogLevelCritical
	case zapcore.PanicLevel:
		return domain.LogLevelAlert
	case zapcore.FatalLevel:
		return domain.LogLevelEmergency
	default:
		return domain.LogLevelInfo
	}
}

var _ zapcore.Core = (*broadcastCore)(nil)
