// Package discord defines the outbound Discord collaborator boundary. The
// engine only needs these four calls; the bot that implements them lives in a
// separate process.
package discord

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers ticket updates to Discord users and channels.
type Notifier interface {
	SendTicketDMReply(ctx context.Context, identityID, ticketPublicID, body string) error
	SendTicketUpdateDM(ctx context.Context, identityID, ticketPublicID, change string) error
	SendSupportChannelMessage(ctx context.Context, content string) error
	HandleAutoRoleAndWelcome(ctx context.Context, identityID string) error
}

// LogNotifier is the default Notifier when no bot is configured. It records
// every outbound delivery so operators can see what would have been sent.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs the logging fallback.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendTicketDMReply(_ context.Context, identityID, ticketPublicID, _ string) error {
	n.logger.Info("discord dm reply skipped, no bot configured",
		zap.String("identity_id", identityID),
		zap.String("ticket_id", ticketPublicID))
	return nil
}

func (n *LogNotifier) SendTicketUpdateDM(_ context.Context, identityID, ticketPublicID, change string) error {
	n.logger.Info("discord update dm skipped, no bot configured",
		zap.String("identity_id", identityID),
		zap.String("ticket_id", ticketPublicID),
		zap.String("change", change))
	return nil
}

func (n *LogNotifier) SendSupportChannelMessage(_ context.Context, content string) error {
	n.logger.Info("discord channel message skipped, no bot configured",
		zap.Int("length", len(content)))
	return nil
}

func (n *LogNotifier) HandleAutoRoleAndWelcome(_ context.Context, identityID string) error {
	n.logger.Info("discord auto-role skipped, no bot configured",
		zap.String("identity_id", identityID))
	return nil
}
