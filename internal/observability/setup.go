package observability

import (
	"context"

	"github.com/honeynil/content-checkout/internal/infrastructure/observability"
)

// Setup wires logs, metrics and traces in one call and returns the tracer shutdown.
func Setup(serviceName, logLevel, otlpEndpoint string) func(context.Context) error {
	observability.InitLogger(logLevel)
	observability.InitMetrics()
	return observability.InitTracing(serviceName, otlpEndpoint)
}
