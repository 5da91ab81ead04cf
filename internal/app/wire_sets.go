//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"sfinmcp/internal/infra/broker"
	"sfinmcp/internal/infra/dispatch"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewLogLevel,
	NewLogBroadcaster,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var BackendSet = wire.NewSet(
	NewCredentials,
	NewClientFactory,
	NewBroker,
	wire.Bind(new(dispatch.SessionBroker), new(*broker.Broker)),
	NewTickerCache,
)

var ToolSet = wire.NewSet(
	NewCatalog,
	NewDispatcher,
	NewGateway,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	BackendSet,
	ToolSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
