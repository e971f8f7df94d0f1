package notification

import (
	"context"
	"log/slog"
)

const (
	// KindTransferReceived indicates money landed in a wallet.
	KindTransferReceived = "transfer_received"
)

// Message describes a notification payload.
type Message struct {
	Kind     string
	WalletID string
	Body     string
}

// Notifier delivers notifications to downstream systems, e.g. a table-wide
// broadcast so players see incoming money.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "wallet_id", message.WalletID, "body", message.Body)
	return nil
}
