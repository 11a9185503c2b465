package worker

import (
	"context"
	"time"

	"propertypulse/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionStore is the persistence dependency of the Sequencer. The gorm
// implementation below is used in production; tests substitute an in-memory
// fake.
type SubscriptionStore interface {
	// ListActive returns every subscription with the active flag set,
	// including its sent-step rows.
	ListActive(ctx context.Context) ([]models.EmailSubscription, error)

	// StartSequence creates or overwrites the subscription for an email
	// address, resetting start time, current step and the sent-set.
	StartSequence(ctx context.Context, email, sequenceID string, now time.Time) error

	// Unsubscribe deactivates the subscription and stamps the unsubscribe
	// time. Unknown emails are a no-op.
	Unsubscribe(ctx context.Context, email string, now time.Time) error

	// MarkStepSent records a delivered step and advances the step counter.
	// It returns false when the step was already recorded, which makes the
	// mark conditional: two overlapping sweeps cannot both claim a step.
	MarkStepSent(ctx context.Context, subscriptionID uint, stepID string, now time.Time) (bool, error)
}

// GormSubscriptionStore is the Postgres-backed SubscriptionStore.
type GormSubscriptionStore struct {
	DB *gorm.DB
}

func NewGormSubscriptionStore(db *gorm.DB) *GormSubscriptionStore {
	return &GormSubscriptionStore{DB: db}
}

func (s *GormSubscriptionStore) ListActive(ctx context.Context) ([]models.EmailSubscription, error) {
	var subs []models.EmailSubscription
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Preload("SentSteps").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *GormSubscriptionStore) StartSequence(ctx context.Context, email, sequenceID string, now time.Time) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub models.EmailSubscription
		err := tx.Where("email = ?", email).First(&sub).Error
		if err == gorm.ErrRecordNotFound {
			sub = models.EmailSubscription{
				Email:      email,
				SequenceID: sequenceID,
				StartedAt:  now,
				IsActive:   true,
			}
			return tx.Create(&sub).Error
		}
		if err != nil {
			return err
		}

		// Restart: clear the sent-set and reset progress
		if err := tx.Where("subscription_id = ?", sub.ID).
			Delete(&models.SubscriptionStepSend{}).Error; err != nil {
			return err
		}
		return tx.Model(&sub).Updates(map[string]interface{}{
			"sequence_id":     sequenceID,
			"started_at":      now,
			"is_active":       true,
			"current_step":    0,
			"unsubscribed_at": nil,
		}).Error
	})
}

func (s *GormSubscriptionStore) Unsubscribe(ctx context.Context, email string, now time.Time) error {
	return s.DB.WithContext(ctx).
		Model(&models.EmailSubscription{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"is_active":       false,
			"unsubscribed_at": now,
		}).Error
}

func (s *GormSubscriptionStore) MarkStepSent(ctx context.Context, subscriptionID uint, stepID string, now time.Time) (bool, error) {
	// Conditional insert against the unique (subscription_id, step_id) index
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SubscriptionStepSend{
			SubscriptionID: subscriptionID,
			StepID:         stepID,
			SentAt:         now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := s.DB.WithContext(ctx).
		Model(&models.EmailSubscription{}).
		Where("id = ?", subscriptionID).
		Update("current_step", gorm.Expr("current_step + ?", 1)).Error
	if err != nil {
		return true, err
	}
	return true, nil
}
