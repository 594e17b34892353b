package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/smmpanel/internal/observability"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Options(
	fx.Provide(func(m *observability.Metrics) MetricsProvider { return m }),
	fx.Provide(Setup),
)
