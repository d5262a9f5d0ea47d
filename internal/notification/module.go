// Package notification turns domain events into internal sales alerts.
// It subscribes to the event bus so the leads modules never need to know
// about alert recipients or templates.
package notification

import (
	"context"
	"fmt"

	"nurture_backend/internal/email"
	"nurture_backend/internal/events"
	"nurture_backend/internal/leads/domain"
	"nurture_backend/platform/config"
	"nurture_backend/platform/logger"
)

// Module handles domain events that warrant a sales alert.
type Module struct {
	sender       email.Sender
	renderer     *email.Renderer
	alertAddress string
	log          *logger.Logger
}

func NewModule(sender email.Sender, renderer *email.Renderer, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sender:       sender,
		renderer:     renderer,
		alertAddress: cfg.GetSalesAlertAddress(),
		log:          log,
	}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCaptured{}.EventName(), m)
	bus.Subscribe(events.LeadBecameHot{}.EventName(), m)
	bus.Subscribe(events.DemoRequested{}.EventName(), m)
}

// Handle dispatches incoming events to the appropriate handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCaptured:
		return m.handleLeadCaptured(ctx, e)
	case events.LeadBecameHot:
		return m.handleLeadBecameHot(ctx, e)
	case events.DemoRequested:
		return m.handleDemoRequested(ctx, e)
	default:
		return nil
	}
}

// handleLeadCaptured alerts sales when a lead enters hot on its initial
// score, which never produces a tier-crossing event.
func (m *Module) handleLeadCaptured(ctx context.Context, e events.LeadCaptured) error {
	if e.Tier != domain.TierHot {
		return nil
	}
	return m.sendAlert(ctx, email.SalesAlertData{
		Email:  e.Email,
		Track:  e.Track,
		Reason: "scored hot at capture",
		Score:  e.Score,
		Tier:   string(e.Tier),
	})
}

func (m *Module) handleLeadBecameHot(ctx context.Context, e events.LeadBecameHot) error {
	return m.sendAlert(ctx, email.SalesAlertData{
		Email:            e.Email,
		Company:          e.Company,
		Track:            e.Track,
		Reason:           "crossed into the hot tier",
		Score:            e.Score,
		Tier:             string(e.Tier),
		ProjectedSavings: e.ProjectedSavings,
	})
}

func (m *Module) handleDemoRequested(ctx context.Context, e events.DemoRequested) error {
	return m.sendAlert(ctx, email.SalesAlertData{
		Email:            e.Email,
		Company:          e.Company,
		Track:            e.Track,
		Reason:           "requested a demo",
		Score:            e.Score,
		Tier:             string(e.Tier),
		ProjectedSavings: e.ProjectedSavings,
	})
}

func (m *Module) sendAlert(ctx context.Context, data email.SalesAlertData) error {
	if m.alertAddress == "" {
		if m.log != nil {
			m.log.Debug("sales alert skipped, no alert address configured", "lead_email", data.Email)
		}
		return nil
	}

	subject, html, err := m.renderer.RenderSalesAlert(data)
	if err != nil {
		return fmt.Errorf("render sales alert: %w", err)
	}
	if err := m.sender.SendSalesAlert(ctx, m.alertAddress, subject, html); err != nil {
		return fmt.Errorf("send sales alert: %w", err)
	}

	if m.log != nil {
		m.log.Info("sales alert sent",
			"lead_email", data.Email, "reason", data.Reason, "score", data.Score, "tier", data.Tier)
	}
	return nil
}
