package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnforceExpiry(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	for _, status := range []CampaignStatus{CampaignScheduled, CampaignRunning} {
		c := &Campaign{Status: status, StartAt: now.Add(-48 * time.Hour), EndAt: now.Add(-time.Hour)}
		assert.True(t, c.EnforceExpiry(now))
		assert.Equal(t, CampaignEnded, c.Status)
	}

	c := &Campaign{Status: CampaignRunning, EndAt: now.Add(time.Hour)}
	assert.False(t, c.EnforceExpiry(now))
	assert.Equal(t, CampaignRunning, c.Status)

	ended := &Campaign{Status: CampaignEnded, EndAt: now.Add(-time.Hour)}
	assert.False(t, ended.EnforceExpiry(now))
}

func TestDecideCampaign(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	yesterday, tomorrow := now.Add(-24*time.Hour), now.Add(24*time.Hour)

	tests := []struct {
		name     string
		campaign Campaign
		want     CampaignTransition
	}{
		{
			name:     "scheduled and started",
			campaign: Campaign{Status: CampaignScheduled, StartAt: yesterday, EndAt: tomorrow},
			want:     CampaignTransition{Next: CampaignRunning, Action: CampaignStart},
		},
		{
			name:     "scheduled in the future",
			campaign: Campaign{Status: CampaignScheduled, StartAt: tomorrow, EndAt: tomorrow.Add(time.Hour)},
			want:     CampaignTransition{Next: CampaignScheduled, Action: CampaignNoop},
		},
		{
			name:     "scheduled but expired",
			campaign: Campaign{Status: CampaignScheduled, StartAt: yesterday.Add(-time.Hour), EndAt: yesterday},
			want:     CampaignTransition{Next: CampaignEnded, Action: CampaignEnd},
		},
		{
			name:     "running and expired",
			campaign: Campaign{Status: CampaignRunning, StartAt: yesterday.Add(-time.Hour), EndAt: yesterday},
			want:     CampaignTransition{Next: CampaignEnded, Action: CampaignEnd},
		},
		{
			name:     "running within period",
			campaign: Campaign{Status: CampaignRunning, StartAt: yesterday, EndAt: tomorrow},
			want:     CampaignTransition{Next: CampaignRunning, Action: CampaignNoop},
		},
		{
			name:     "ended never reverts",
			campaign: Campaign{Status: CampaignEnded, StartAt: yesterday, EndAt: tomorrow},
			want:     CampaignTransition{Next: CampaignEnded, Action: CampaignNoop},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideCampaign(&tt.campaign, now))
		})
	}
}

func TestIsTimeAware(t *testing.T) {
	from, to := NewTimeOfDay(9, 0, 0), NewTimeOfDay(17, 0, 0)

	assert.False(t, (&Campaign{}).IsTimeAware())
	assert.False(t, (&Campaign{AllowedFromTime: &from}).IsTimeAware())
	assert.True(t, (&Campaign{AllowedFromTime: &from, AllowedToTime: &to}).IsTimeAware())
}
