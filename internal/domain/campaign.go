package domain

import "time"

type CampaignStatus string

const (
	CampaignScheduled CampaignStatus = "SCHEDULED"
	CampaignRunning   CampaignStatus = "RUNNING"
	CampaignEnded     CampaignStatus = "ENDED"
)

type Campaign struct {
	ID              int64            `gorm:"primaryKey" json:"id"`
	Status          CampaignStatus   `gorm:"type:varchar(100);not null;default:SCHEDULED;index" json:"status"`
	Text            string           `gorm:"type:text;not null" json:"text"`
	StartAt         time.Time        `gorm:"not null" json:"start_at"`
	EndAt           time.Time        `gorm:"not null" json:"end_at"`
	AllowedFromTime *TimeOfDay       `gorm:"type:time" json:"allowed_from_time,omitempty"`
	AllowedToTime   *TimeOfDay       `gorm:"type:time" json:"allowed_to_time,omitempty"`
	Tags            []Tag            `gorm:"many2many:campaign_tags" json:"tags,omitempty"`
	Operators       []MobileOperator `gorm:"many2many:campaign_operators" json:"operators,omitempty"`
	Messages        []Message        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Campaign) HasExpired(now time.Time) bool {
	return now.After(c.EndAt)
}

// IsTimeAware reports whether sending is limited to a daily window.
func (c *Campaign) IsTimeAware() bool {
	return c.AllowedFromTime != nil && c.AllowedToTime != nil
}

func (c *Campaign) ReadyToStart(now time.Time) bool {
	if c.Status != CampaignScheduled || c.HasExpired(now) {
		return false
	}
	return now.After(c.StartAt)
}

func (c *Campaign) DueToEnd(now time.Time) bool {
	return c.Status == CampaignRunning && c.HasExpired(now)
}

// EnforceExpiry forces ENDED on an expired campaign whatever its current status.
// It must run before every campaign write. Reports whether the status changed.
func (c *Campaign) EnforceExpiry(now time.Time) bool {
	if c.HasExpired(now) && c.Status != CampaignEnded {
		c.Status = CampaignEnded
		return true
	}
	return false
}

// CampaignAction is the side effect a campaign transition asks for.
type CampaignAction int

const (
	CampaignNoop CampaignAction = iota
	// CampaignStart persists RUNNING and spawns the audience messages.
	CampaignStart
	// CampaignEnd persists ENDED.
	CampaignEnd
)

type CampaignTransition struct {
	Next   CampaignStatus
	Action CampaignAction
}

// DecideCampaign is the campaign state machine.
func DecideCampaign(c *Campaign, now time.Time) CampaignTransition {
	switch c.Status {
	case CampaignScheduled:
		if c.ReadyToStart(now) {
			return CampaignTransition{Next: CampaignRunning, Action: CampaignStart}
		}
		if c.HasExpired(now) {
			return CampaignTransition{Next: CampaignEnded, Action: CampaignEnd}
		}
	case CampaignRunning:
		if c.DueToEnd(now) {
			return CampaignTransition{Next: CampaignEnded, Action: CampaignEnd}
		}
	}
	return CampaignTransition{Next: c.Status, Action: CampaignNoop}
}
