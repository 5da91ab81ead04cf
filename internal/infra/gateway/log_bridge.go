package gateway

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/telemetry"
)

// logBridge forwards process logs to connected MCP sessions as
// notifications/message. Sessions receive nothing until they set a level.
type logBridge struct {
	server *mcp.Server
	logs   *telemetry.LogBroadcaster
	logger *zap.Logger
}

func newLogBridge(server *mcp.Server, logs *telemetry.LogBroadcaster, logger *zap.Logger) *logBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logBridge{
		server: server,
		logs:   logs,
		logger: logger.Named("log_bridge"),
	}
}

func (b *logBridge) Run(ctx context.Context) {
	entries := b.logs.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			b.publish(ctx, entry)
		}
	}
}

func (b *logBridge) publish(ctx context.Context, entry domain.LogEntry) {
	params := &mcp.LoggingMessageParams{
		Logger: entry.Logger,
		Level:  mcp.LoggingLevel(entry.Level),
		Data:   entry.DataJSON,
	}
	for session := range b.server.Sessions() {
		_ = session.Log(ctx, params)
	}
}
