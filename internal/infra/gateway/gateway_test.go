package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/catalog"
	"sfinmcp/internal/infra/telemetry"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []string
	args  []json.RawMessage
	reply domain.ToolResult
}

func (d *recordingDispatcher) Handle(_ context.Context, name string, args json.RawMessage) domain.ToolResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, name)
	d.args = append(d.args, args)
	return d.reply
}

func connectClient(t *testing.T, ctx context.Context, server *mcp.Server, opts *mcp.ClientOptions) *mcp.ClientSession {
	t.Helper()
	ct, st := mcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, opts)
	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestGateway_ListsCatalogTools(t *testing.T) {
	ctx := context.Background()
	g := New(Options{Dispatcher: &recordingDispatcher{}, Catalog: catalog.MustNew()})
	session := connectClient(t, ctx, g.Server(), nil)

	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		require.NotNil(t, tool.Annotations)
	}
	var want []string
	for _, tool := range domain.AllTools() {
		want = append(want, tool.String())
	}
	sort.Strings(names)
	sort.Strings(want)
	assert.Equal(t, want, names)

	registered := g.registry.Names()
	assert.Len(t, registered, len(want))
}

func TestGateway_CallToolForwardsToDispatcher(t *testing.T) {
	ctx := context.Background()
	dispatcher := &recordingDispatcher{reply: domain.ToolResult{Text: `{"message": "ok"}`}}
	g := New(Options{Dispatcher: dispatcher})
	session := connectClient(t, ctx, g.Server(), nil)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_overview",
		Arguments: map[string]any{"symbol": "INFY"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, `{"message": "ok"}`, text.Text)

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	assert.Equal(t, []string{"get_overview"}, dispatcher.calls)
	assert.JSONEq(t, `{"symbol":"INFY"}`, string(dispatcher.args[0]))
}

func TestGateway_ErrorResultSetsIsError(t *testing.T) {
	ctx := context.Background()
	dispatcher := &recordingDispatcher{reply: domain.ToolResult{
		Text:    `{"error": "login required", "kind": "LOGIN_REQUIRED"}`,
		IsError: true,
		Kind:    domain.KindLoginRequired,
	}}
	g := New(Options{Dispatcher: dispatcher})
	session := connectClient(t, ctx, g.Server(), nil)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "screen_stocks",
		Arguments: map[string]any{"query": "x"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGateway_ForwardsLogsToSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logs := telemetry.NewLogBroadcaster(zapcore.DebugLevel)
	g := New(Options{Dispatcher: &recordingDispatcher{}, Logs: logs})

	received := make(chan *mcp.LoggingMessageParams, 8)
	session := connectClient(t, ctx, g.Server(), &mcp.ClientOptions{
		LoggingMessageHandler: func(_ context.Context, req *mcp.LoggingMessageRequest) {
			received <- req.Params
		},
	})
	require.NoError(t, session.SetLoggingLevel(ctx, &mcp.SetLoggingLevelParams{Level: "info"}))

	go newLogBridge(g.Server(), logs, zap.NewNop()).Run(ctx)
	require.Eventually(t, func() bool { return logs.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	logger := zap.New(logs.Core()).Named("broker")
	logger.Debug("below client level")
	logger.Info("backing client ready")

	select {
	case params := <-received:
		assert.Equal(t, "broker", params.Logger)
		assert.Equal(t, mcp.LoggingLevel("info"), params.Level)
	case <-time.After(2 * time.Second):
		t.Fatal("log message not forwarded")
	}
}

func TestGateway_StreamableHTTPHandler(t *testing.T) {
	ctx := context.Background()
	dispatcher := &recordingDispatcher{reply: domain.ToolResult{Text: "{}"}}
	g := New(Options{Dispatcher: dispatcher})

	srv := httptest.NewServer(g.Handler(domain.HTTPConfig{JSONResponse: true}))
	defer srv.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: srv.URL}, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "get_cache_stats"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestGateway_RunRejectsUnknownTransport(t *testing.T) {
	g := New(Options{Dispatcher: &recordingDispatcher{}})
	err := g.Run(context.Background(), "carrier-pigeon", domain.HTTPConfig{})
	require.Error(t, err)
}
