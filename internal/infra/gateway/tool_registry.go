package gateway

import (
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"sfinmcp/internal/infra/catalog"
)

type toolRegistry struct {
	server     *mcp.Server
	handler    func(name string) mcp.ToolHandler
	logger     *zap.Logger
	mu         sync.Mutex
	registered map[string]struct{}
}

func newToolRegistry(server *mcp.Server, handler func(name string) mcp.ToolHandler, logger *zap.Logger) *toolRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &toolRegistry{
		server:     server,
		handler:    handler,
		logger:     logger.Named("tool_registry"),
		registered: make(map[string]struct{}),
	}
}

// Register adds every descriptor to the server. Tools no longer listed are removed.
func (r *toolRegistry) Register(descriptors []catalog.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]struct{}, len(descriptors))
	for _, desc := range descriptors {
		name := desc.Name()
		if name == "" || desc.InputSchema == nil {
			r.logger.Warn("skip tool without name or schema", zap.String("tool", name))
			continue
		}
		r.server.AddTool(toolFromDescriptor(desc), r.handler(name))
		next[name] = struct{}{}
	}

	var remove []string
	for name := range r.registered {
		if _, ok := next[name]; !ok {
			remove = append(remove, name)
		}
	}
	if len(remove) > 0 {
		r.server.RemoveTools(remove...)
	}
	r.registered = next
	r.logger.Debug("tools registered", zap.Int("count", len(next)))
}

func (r *toolRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.registered))
	for name := range r.registered {
		out = append(out, name)
	}
	return out
}

func toolFromDescriptor(desc catalog.Descriptor) *mcp.Tool {
	openWorld := desc.OpenWorld
	destructive := false
	return &mcp.Tool{
		Name:        desc.Name(),
		Title:       desc.Title,
		Description: desc.Description,
		InputSchema: desc.InputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:           desc.Title,
			ReadOnlyHint:    desc.ReadOnly,
			IdempotentHint:  true,
			DestructiveHint: &destructive,
			OpenWorldHint:   &openWorld,
		},
	}
}
