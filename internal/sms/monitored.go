package sms

import (
	"context"
	"log/slog"

	id "afridio/pkg/domain"
	"afridio/pkg/platform/circuit"
)

// MonitoredGateway wraps a provider with a circuit breaker used as an
// operator signal. Every failure still surfaces to the caller — a dispatch
// that did not reach the provider must never look like a delivered code. The
// breaker only collapses a failure streak into a single opened/closed log
// transition instead of one error line per request.
type MonitoredGateway struct {
	provider Gateway
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewMonitoredGateway wraps provider with outage detection.
func NewMonitoredGateway(provider Gateway, logger *slog.Logger, opts ...circuit.Option) *MonitoredGateway {
	return &MonitoredGateway{
		provider: provider,
		breaker:  circuit.New("sms", opts...),
		logger:   logger,
	}
}

// Degraded reports whether the provider is in a detected outage.
func (g *MonitoredGateway) Degraded() bool {
	return g.breaker.IsOpen()
}

func (g *MonitoredGateway) Send(ctx context.Context, to id.PhoneNumber, body string) (MessageID, error) {
	msgID, err := g.provider.Send(ctx, to, body)
	if err == nil {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.InfoContext(ctx, "sms provider recovered")
		}
		return msgID, nil
	}

	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.logger.ErrorContext(ctx, "sms provider outage detected",
			"error", err.Error(),
		)
	}
	return "", err
}
