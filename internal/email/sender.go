// Package email provides the outbound email boundary: a transactional Sender
// and the stage template renderer. Rendering is pure; only sending does I/O.
package email

import (
	"context"

	"nurture_backend/platform/config"
)

// Tag header names attached to every stage dispatch. They are opaque metadata
// for provider-side analytics and deduplication; nothing in the engine depends
// on them being round-tripped.
const (
	TagTrack       = "track"
	TagStage       = "stage"
	TagSubscriber  = "subscriber"
	TagIdempotency = "idempotency"
)

// Sender delivers rendered messages to a recipient.
type Sender interface {
	// SendStageEmail dispatches one nurture stage email. Tags carry
	// track/stage/subscriber metadata plus the dispatch idempotency key.
	SendStageEmail(ctx context.Context, toEmail, subject, htmlContent string, tags map[string]string) error

	// SendSalesAlert dispatches an internal alert to the sales team.
	SendSalesAlert(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender drops all mail. Used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendStageEmail(ctx context.Context, toEmail, subject, htmlContent string, tags map[string]string) error {
	return nil
}

func (NoopSender) SendSalesAlert(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

// NewSender returns the configured Sender implementation: SMTP when email is
// enabled, otherwise a no-op.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(), cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
	)
}
