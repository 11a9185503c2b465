package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"propertypulse/models"
	"propertypulse/utils"
)

// Sequencer advances active email subscriptions through their sequence
// definitions. All dependencies are injected so tests can run against fakes
// with a simulated clock.
type Sequencer struct {
	Store  SubscriptionStore
	Mailer utils.Mailer
	Logger *log.Logger

	// Resolve maps a sequence ID to its definition. Defaults to the static
	// registry; tests override it.
	Resolve func(id string) (utils.SequenceDefinition, bool)

	// Clock supplies the current time for eligibility checks.
	Clock func() time.Time
}

func NewSequencer(store SubscriptionStore, mailer utils.Mailer, logger *log.Logger) *Sequencer {
	return &Sequencer{
		Store:   store,
		Mailer:  mailer,
		Logger:  logger,
		Resolve: utils.GetSequence,
		Clock:   time.Now,
	}
}

// SweepStats summarizes one sweep pass.
type SweepStats struct {
	Visited int `json:"visited"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Sweep visits every active subscription once and dispatches any steps that
// have become eligible. Individual step failures are logged and isolated;
// the sweep only fails as a whole when the subscription list cannot be
// loaded. Safe to invoke repeatedly: already-sent steps are never re-sent.
func (s *Sequencer) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	subs, err := s.Store.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load active subscriptions: %v", err)
	}

	for i := range subs {
		stats.Visited++
		s.processSubscription(ctx, &subs[i], &stats)
	}
	return stats, nil
}

func (s *Sequencer) processSubscription(ctx context.Context, sub *models.EmailSubscription, stats *SweepStats) {
	seq, ok := s.Resolve(sub.SequenceID)
	if !ok {
		// Unknown sequence: skip, don't deactivate
		s.Logger.Printf("Subscription %d references unknown sequence %q, skipping", sub.ID, sub.SequenceID)
		stats.Skipped++
		return
	}

	elapsedHours := s.Clock().Sub(sub.StartedAt).Hours()

	for _, step := range seq.Steps {
		if !step.Active || step.DelayHours > elapsedHours || sub.HasSent(step.ID) {
			continue
		}

		body, err := utils.RenderEmailTemplate(step.Template, step.Subject, sub.Email, nil)
		if err != nil {
			s.Logger.Printf("Step %q of sequence %q: %v, skipping", step.ID, seq.ID, err)
			stats.Skipped++
			continue
		}

		if err := s.Mailer.Send(sub.Email, step.Subject, body); err != nil {
			// Not marked sent, so the next sweep retries it
			utils.LogError("autoresponder_dispatch_failed", err, map[string]interface{}{
				"subscription_id": sub.ID,
				"sequence_id":     seq.ID,
				"step_id":         step.ID,
			})
			stats.Failed++
			continue
		}

		// Persist before moving to the next candidate so an interrupted
		// sweep never re-sends this step
		marked, err := s.Store.MarkStepSent(ctx, sub.ID, step.ID, s.Clock())
		if err != nil {
			utils.LogError("autoresponder_mark_failed", err, map[string]interface{}{
				"subscription_id": sub.ID,
				"step_id":         step.ID,
			})
			stats.Failed++
			continue
		}
		if !marked {
			// A concurrent sweep got here first
			s.Logger.Printf("Step %q already marked for subscription %d", step.ID, sub.ID)
			continue
		}

		sub.SentSteps = append(sub.SentSteps, models.SubscriptionStepSend{
			SubscriptionID: sub.ID,
			StepID:         step.ID,
		})
		stats.Sent++
	}
}

// StartSequence creates or restarts the subscription for an email address.
// Restarting is an explicit reset: the journey begins again from step zero.
func (s *Sequencer) StartSequence(ctx context.Context, email, sequenceID string) error {
	if _, ok := s.Resolve(sequenceID); !ok {
		return fmt.Errorf("unknown sequence %q", sequenceID)
	}
	if err := s.Store.StartSequence(ctx, email, sequenceID, s.Clock()); err != nil {
		return fmt.Errorf("failed to start sequence: %v", err)
	}

	utils.LogEvent("sequence_started", map[string]interface{}{
		"email":       email,
		"sequence_id": sequenceID,
	})
	return nil
}

// Unsubscribe permanently removes the contact from the sweep. Takes effect no
// later than the next sweep.
func (s *Sequencer) Unsubscribe(ctx context.Context, email string) error {
	if err := s.Store.Unsubscribe(ctx, email, s.Clock()); err != nil {
		return fmt.Errorf("failed to unsubscribe: %v", err)
	}

	utils.LogEvent("sequence_unsubscribed", map[string]interface{}{
		"email": email,
	})
	return nil
}
