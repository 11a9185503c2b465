package models

import (
	"time"

	"gorm.io/gorm"
)

// EmailSubscription tracks one contact's progress through an autoresponder
// sequence. Restarting a sequence resets StartedAt, CurrentStep and the
// sent-set; unsubscribing is terminal.
type EmailSubscription struct {
	gorm.Model
	Email      string `gorm:"not null;uniqueIndex" json:"email"`
	SequenceID string `gorm:"not null;index" json:"sequence_id"`

	StartedAt   time.Time `gorm:"not null" json:"started_at"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CurrentStep int       `gorm:"default:0" json:"current_step"`

	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`

	// Relations
	SentSteps []SubscriptionStepSend `gorm:"foreignKey:SubscriptionID" json:"sent_steps,omitempty"`
}

// HasSent reports whether a step has already been delivered to this
// subscription, based on the loaded SentSteps rows.
func (s *EmailSubscription) HasSent(stepID string) bool {
	for _, sent := range s.SentSteps {
		if sent.StepID == stepID {
			return true
		}
	}
	return false
}

// SubscriptionStepSend records a single delivered step. The unique index on
// (subscription_id, step_id) is what enforces at-most-once delivery: marking a
// step sent is a conditional insert against this table.
type SubscriptionStepSend struct {
	gorm.Model
	SubscriptionID uint   `gorm:"not null;uniqueIndex:idx_subscription_step" json:"subscription_id"`
	StepID         string `gorm:"not null;uniqueIndex:idx_subscription_step" json:"step_id"`

	SentAt time.Time `gorm:"not null" json:"sent_at"`
}
