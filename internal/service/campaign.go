package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aniladanir/mailing-campaign-service/internal/domain"
	campaignRepo "github.com/aniladanir/mailing-campaign-service/internal/repository/campaign"
)

// CampaignManager drives the campaign state machine.
type CampaignManager struct {
	campaignRepo campaignRepo.Repository
	clock        Clock
	logger       *slog.Logger
}

func NewCampaignManager(campaignRepo campaignRepo.Repository, clock Clock, logger *slog.Logger) *CampaignManager {
	return &CampaignManager{
		campaignRepo: campaignRepo,
		clock:        clock,
		logger:       logger,
	}
}

// TryStart activates a SCHEDULED campaign whose start time has passed and
// creates one ENQUEUED message per audience client. Reports whether it started.
func (m *CampaignManager) TryStart(ctx context.Context, c *domain.Campaign) (bool, error) {
	if c.Status != domain.CampaignScheduled {
		return false, nil
	}
	if ended, err := m.guardExpiry(ctx, c); ended || err != nil {
		return false, err
	}

	transition := domain.DecideCampaign(c, m.clock.Now())
	if transition.Action != domain.CampaignStart {
		return false, nil
	}

	audience, err := m.campaignRepo.Audience(ctx, c)
	if err != nil {
		return false, fmt.Errorf("failed to query audience: %w", err)
	}

	messages := make([]domain.Message, 0, len(audience))
	for _, client := range audience {
		messages = append(messages, domain.Message{
			Status:     domain.StatusEnqueued,
			CampaignID: c.ID,
			ClientID:   client.ID,
		})
	}

	c.Status = transition.Next
	if err := m.campaignRepo.Activate(ctx, c, messages); err != nil {
		c.Status = domain.CampaignScheduled
		return false, fmt.Errorf("failed to activate campaign: %w", err)
	}

	campaignTransitionsTotal.WithLabelValues(string(c.Status)).Inc()
	m.logger.Info("campaign has started", slog.Int64("campaignId", c.ID), slog.Int("messages", len(messages)))
	return true, nil
}

// TryEnd moves a RUNNING campaign past its end time to ENDED.
func (m *CampaignManager) TryEnd(ctx context.Context, c *domain.Campaign) (bool, error) {
	if c.Status != domain.CampaignRunning {
		return false, nil
	}

	transition := domain.DecideCampaign(c, m.clock.Now())
	if transition.Action != domain.CampaignEnd {
		return false, nil
	}

	c.Status = transition.Next
	if err := m.campaignRepo.Save(ctx, c); err != nil {
		return false, fmt.Errorf("failed to end campaign: %w", err)
	}

	campaignTransitionsTotal.WithLabelValues(string(c.Status)).Inc()
	m.logger.Info("campaign has ended", slog.Int64("campaignId", c.ID))
	return true, nil
}

// StartScheduled runs TryStart over every SCHEDULED campaign. A failing
// campaign is logged and skipped.
func (m *CampaignManager) StartScheduled(ctx context.Context) error {
	campaigns, err := m.campaignRepo.FindByStatus(ctx, domain.CampaignScheduled)
	if err != nil {
		return fmt.Errorf("failed to list scheduled campaigns: %w", err)
	}

	for i := range campaigns {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := m.TryStart(ctx, &campaigns[i]); err != nil {
			itemErrorsTotal.WithLabelValues("start_campaign").Inc()
			m.logger.Error("failed to start campaign", slog.Int64("campaignId", campaigns[i].ID), "error", err.Error())
		}
	}
	return nil
}

// EndExpired runs TryEnd over every RUNNING campaign.
func (m *CampaignManager) EndExpired(ctx context.Context) error {
	campaigns, err := m.campaignRepo.FindByStatus(ctx, domain.CampaignRunning)
	if err != nil {
		return fmt.Errorf("failed to list running campaigns: %w", err)
	}

	for i := range campaigns {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := m.TryEnd(ctx, &campaigns[i]); err != nil {
			itemErrorsTotal.WithLabelValues("end_campaign").Inc()
			m.logger.Error("failed to end campaign", slog.Int64("campaignId", campaigns[i].ID), "error", err.Error())
		}
	}
	return nil
}

// guardExpiry persists ENDED for an expired campaign before any other change.
func (m *CampaignManager) guardExpiry(ctx context.Context, c *domain.Campaign) (bool, error) {
	if !c.EnforceExpiry(m.clock.Now()) {
		return false, nil
	}
	if err := m.campaignRepo.Save(ctx, c); err != nil {
		return true, fmt.Errorf("failed to end expired campaign: %w", err)
	}
	campaignTransitionsTotal.WithLabelValues(string(c.Status)).Inc()
	m.logger.Info("campaign has ended", slog.Int64("campaignId", c.ID))
	return true, nil
}
