package domain

import (
	"time"
)

type MessageStatus string

const (
	StatusEnqueued MessageStatus = "ENQUEUED"
	StatusDelayed  MessageStatus = "DELAYED"
	StatusFailed   MessageStatus = "FAILED"
	StatusExpired  MessageStatus = "EXPIRED"
	StatusSuccess  MessageStatus = "SUCCESS"
)

// PendingStatuses are the statuses selected for another send attempt.
var PendingStatuses = []MessageStatus{StatusEnqueued, StatusDelayed, StatusFailed}

func (s MessageStatus) Valid() bool {
	switch s {
	case StatusEnqueued, StatusDelayed, StatusFailed, StatusExpired, StatusSuccess:
		return true
	}
	return false
}

type Message struct {
	ID         int64         `gorm:"primaryKey" json:"id"`
	Status     MessageStatus `gorm:"type:varchar(100);not null;default:ENQUEUED;index" json:"status"`
	CampaignID int64         `gorm:"not null;index" json:"campaign_id"`
	Campaign   Campaign      `json:"-"`
	ClientID   int64         `gorm:"not null;index" json:"client_id"`
	Client     Client        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	SentAt     *time.Time    `json:"sent_at"`
}

// MessageStep tells the caller what to do next with a message.
type MessageStep int

const (
	// StepNone leaves the message untouched.
	StepNone MessageStep = iota
	// StepPersist stores the decided status without calling the transport.
	StepPersist
	// StepSend calls the transport, then stores MessageAfterSend's result.
	StepSend
)

type MessageDecision struct {
	Next   MessageStatus
	Step   MessageStep
	Reason string
}

// DecideMessage is the pre-send half of the message state machine.
func DecideMessage(status MessageStatus, campaignExpired, windowOpen bool) MessageDecision {
	switch {
	case status == StatusSuccess:
		return MessageDecision{Next: StatusSuccess, Step: StepNone, Reason: "already sent"}
	case campaignExpired:
		return MessageDecision{Next: StatusExpired, Step: StepPersist, Reason: "has expired"}
	case !windowOpen:
		return MessageDecision{Next: StatusDelayed, Step: StepPersist, Reason: "has been delayed"}
	default:
		return MessageDecision{Next: status, Step: StepSend}
	}
}

// MessageAfterSend applies a transport outcome and keeps SentAt set iff SUCCESS.
func MessageAfterSend(m *Message, ok bool, sentAt time.Time) {
	if !ok {
		m.Status = StatusFailed
		m.SentAt = nil
		return
	}
	m.Status = StatusSuccess
	m.SentAt = &sentAt
}

// WindowOpen is the delivery window predicate. The interval is strict and does
// not wrap, so a window crossing midnight never opens.
func WindowOpen(c *Campaign, clientLocal TimeOfDay) bool {
	if !c.IsTimeAware() {
		return true
	}
	return clientLocal.After(*c.AllowedFromTime) && clientLocal.Before(*c.AllowedToTime)
}
