package sms

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	id "afridio/pkg/domain"
)

// ConsoleGateway logs messages instead of sending them. Development and
// local testing only.
type ConsoleGateway struct {
	logger *slog.Logger
}

func NewConsoleGateway(logger *slog.Logger) *ConsoleGateway {
	return &ConsoleGateway{logger: logger}
}

func (g *ConsoleGateway) Send(ctx context.Context, to id.PhoneNumber, body string) (MessageID, error) {
	messageID := MessageID(uuid.NewString())
	g.logger.InfoContext(ctx, "sms dispatched to console",
		"to", to.Masked(),
		"body", body,
		"message_id", string(messageID),
	)
	return messageID, nil
}
