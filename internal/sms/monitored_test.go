package sms

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "afridio/pkg/domain"
	"afridio/pkg/platform/circuit"
)

type scriptedGateway struct {
	fail  bool
	sends int
}

func (g *scriptedGateway) Send(context.Context, id.PhoneNumber, string) (MessageID, error) {
	g.sends++
	if g.fail {
		return "", errors.New("provider unavailable")
	}
	return "ok", nil
}

func TestMonitoredGateway(t *testing.T) {
	ctx := context.Background()
	phone, err := id.ParsePhoneNumber("+251911000001")
	require.NoError(t, err)
	logger := slog.New(slog.DiscardHandler)

	t.Run("healthy provider passes through", func(t *testing.T) {
		provider := &scriptedGateway{}
		gw := NewMonitoredGateway(provider, logger)

		msgID, err := gw.Send(ctx, phone, "body")
		require.NoError(t, err)
		assert.Equal(t, MessageID("ok"), msgID)
		assert.False(t, gw.Degraded())
	})

	t.Run("every failure surfaces, before and after the circuit opens", func(t *testing.T) {
		provider := &scriptedGateway{fail: true}
		gw := NewMonitoredGateway(provider, logger, circuit.WithFailureThreshold(2))

		for i := 0; i < 5; i++ {
			_, err := gw.Send(ctx, phone, "body")
			require.Error(t, err, "send %d", i)
		}
		assert.True(t, gw.Degraded())
		assert.Equal(t, 5, provider.sends, "the provider is still attempted while degraded")
	})

	t.Run("recovery closes the circuit", func(t *testing.T) {
		provider := &scriptedGateway{fail: true}
		gw := NewMonitoredGateway(provider, logger,
			circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(2))

		_, err := gw.Send(ctx, phone, "body")
		require.Error(t, err)
		assert.True(t, gw.Degraded())

		provider.fail = false
		_, err = gw.Send(ctx, phone, "body")
		require.NoError(t, err)
		assert.True(t, gw.Degraded(), "one success is not yet a recovery")

		_, err = gw.Send(ctx, phone, "body")
		require.NoError(t, err)
		assert.False(t, gw.Degraded())
	})
}
