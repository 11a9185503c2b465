package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"propertypulse/models"
	"propertypulse/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory SubscriptionStore.
type fakeStore struct {
	subs   map[string]*models.EmailSubscription
	nextID uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[string]*models.EmailSubscription)}
}

func (f *fakeStore) ListActive(ctx context.Context) ([]models.EmailSubscription, error) {
	var out []models.EmailSubscription
	for _, sub := range f.subs {
		if sub.IsActive {
			copied := *sub
			copied.SentSteps = append([]models.SubscriptionStepSend(nil), sub.SentSteps...)
			out = append(out, copied)
		}
	}
	return out, nil
}

func (f *fakeStore) StartSequence(ctx context.Context, email, sequenceID string, now time.Time) error {
	if sub, ok := f.subs[email]; ok {
		sub.SequenceID = sequenceID
		sub.StartedAt = now
		sub.IsActive = true
		sub.CurrentStep = 0
		sub.UnsubscribedAt = nil
		sub.SentSteps = nil
		return nil
	}
	f.nextID++
	sub := &models.EmailSubscription{
		Email:      email,
		SequenceID: sequenceID,
		StartedAt:  now,
		IsActive:   true,
	}
	sub.ID = f.nextID
	f.subs[email] = sub
	return nil
}

func (f *fakeStore) Unsubscribe(ctx context.Context, email string, now time.Time) error {
	if sub, ok := f.subs[email]; ok {
		sub.IsActive = false
		sub.UnsubscribedAt = &now
	}
	return nil
}

func (f *fakeStore) MarkStepSent(ctx context.Context, subscriptionID uint, stepID string, now time.Time) (bool, error) {
	for _, sub := range f.subs {
		if sub.ID != subscriptionID {
			continue
		}
		if sub.HasSent(stepID) {
			return false, nil
		}
		sub.SentSteps = append(sub.SentSteps, models.SubscriptionStepSend{
			SubscriptionID: subscriptionID,
			StepID:         stepID,
			SentAt:         now,
		})
		sub.CurrentStep++
		return true, nil
	}
	return false, fmt.Errorf("subscription %d not found", subscriptionID)
}

func (f *fakeStore) get(email string) *models.EmailSubscription {
	return f.subs[email]
}

type sentEmail struct {
	To      string
	Subject string
}

// fakeMailer records sends and can be told to fail specific subjects.
type fakeMailer struct {
	sent        []sentEmail
	failSubject map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failSubject: make(map[string]bool)}
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	if m.failSubject[subject] {
		return errors.New("smtp connection refused")
	}
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject})
	return nil
}

var testSequence = utils.SequenceDefinition{
	ID:   "test-nurture",
	Name: "Test Nurture",
	Steps: []utils.EmailStep{
		{ID: "welcome", DelayHours: 0, Template: "nurture_welcome", Subject: "Welcome", Active: true},
		{ID: "day-1-guide", DelayHours: 24, Template: "nurture_buying_guide", Subject: "Day 1", Active: true},
		{ID: "day-3-tips", DelayHours: 72, Template: "nurture_financing", Subject: "Day 3", Active: true},
	},
}

func newTestSequencer(store SubscriptionStore, mailer utils.Mailer, now time.Time) *Sequencer {
	seq := NewSequencer(store, mailer, log.New(os.Stdout, "TEST: ", log.LstdFlags))
	seq.Resolve = func(id string) (utils.SequenceDefinition, bool) {
		if id == testSequence.ID {
			return testSequence, true
		}
		return utils.SequenceDefinition{}, false
	}
	seq.Clock = func() time.Time { return now }
	return seq
}

func TestSweepEligibilityGating(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seq := newTestSequencer(store, mailer, start)
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))

	// 50 hours in: the 0h and 24h steps are due, the 72h step is not
	seq.Clock = func() time.Time { return start.Add(50 * time.Hour) }

	stats, err := seq.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Visited)
	assert.Equal(t, 2, stats.Sent)
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "Welcome", mailer.sent[0].Subject)
	assert.Equal(t, "Day 1", mailer.sent[1].Subject)

	sub := store.get("buyer@example.com")
	assert.Equal(t, 2, sub.CurrentStep)
	assert.True(t, sub.HasSent("welcome"))
	assert.True(t, sub.HasSent("day-1-guide"))
	assert.False(t, sub.HasSent("day-3-tips"))
}

func TestSweepAtMostOnce(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seq := newTestSequencer(store, mailer, start)
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))

	seq.Clock = func() time.Time { return start.Add(50 * time.Hour) }

	_, err := seq.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, mailer.sent, 2)

	// Repeated sweeps must not re-dispatch already-sent steps
	for i := 0; i < 3; i++ {
		stats, err := seq.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Sent)
	}
	assert.Len(t, mailer.sent, 2)
	assert.Len(t, store.get("buyer@example.com").SentSteps, 2)
}

func TestSweepStepBecomesEligibleLater(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seq := newTestSequencer(store, mailer, start)
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))

	seq.Clock = func() time.Time { return start.Add(50 * time.Hour) }
	_, err := seq.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, mailer.sent, 2)

	// Past the 72h mark only the remaining step fires
	seq.Clock = func() time.Time { return start.Add(80 * time.Hour) }
	stats, err := seq.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Sent)
	require.Len(t, mailer.sent, 3)
	assert.Equal(t, "Day 3", mailer.sent[2].Subject)
	assert.Equal(t, 3, store.get("buyer@example.com").CurrentStep)
}

func TestSweepUnsubscribeIsTerminal(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seq := newTestSequencer(store, mailer, start)
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))
	require.NoError(t, seq.Unsubscribe(context.Background(), "buyer@example.com"))

	sub := store.get("buyer@example.com")
	assert.False(t, sub.IsActive)
	require.NotNil(t, sub.UnsubscribedAt)

	seq.Clock = func() time.Time { return start.Add(500 * time.Hour) }
	for i := 0; i < 3; i++ {
		stats, err := seq.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Visited)
	}

	assert.Empty(t, mailer.sent)
	assert.Equal(t, 0, sub.CurrentStep)
	assert.Empty(t, sub.SentSteps)
}

func TestSweepDispatchFailureIsolated(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seq := newTestSequencer(store, mailer, start)
	require.NoError(t, seq.StartSequence(context.Background(), "first@example.com", "test-nurture"))
	require.NoError(t, seq.StartSequence(context.Background(), "second@example.com", "test-nurture"))

	// The welcome email fails for everyone this sweep
	mailer.failSubject["Welcome"] = true
	seq.Clock = func() time.Time { return start.Add(50 * time.Hour) }

	stats, err := seq.Sweep(context.Background())
	require.NoError(t, err)

	// Both subscriptions were still visited and the later step still went out
	assert.Equal(t, 2, stats.Visited)
	assert.Equal(t, 2, stats.Sent)
	assert.Equal(t, 2, stats.Failed)
	assert.Len(t, mailer.sent, 2)

	// Failed steps are not marked sent, so the next sweep retries them
	assert.False(t, store.get("first@example.com").HasSent("welcome"))
	assert.True(t, store.get("first@example.com").HasSent("day-1-guide"))

	mailer.failSubject["Welcome"] = false
	stats, err = seq.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sent)
	assert.True(t, store.get("first@example.com").HasSent("welcome"))
	assert.True(t, store.get("second@example.com").HasSent("welcome"))
}

func TestSweepUnknownSequenceSkipped(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Seed a subscription that references a sequence the resolver no longer knows
	require.NoError(t, store.StartSequence(context.Background(), "buyer@example.com", "retired-sequence", now.Add(-100*time.Hour)))

	seq := newTestSequencer(store, mailer, now)
	stats, err := seq.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Visited)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Sent)
	assert.Empty(t, mailer.sent)

	// Not deactivated: the subscription stays visible to future sweeps
	assert.True(t, store.get("buyer@example.com").IsActive)
}

func TestSweepInactiveStepSkipped(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	withInactive := utils.SequenceDefinition{
		ID: "test-nurture",
		Steps: []utils.EmailStep{
			{ID: "welcome", DelayHours: 0, Template: "nurture_welcome", Subject: "Welcome", Active: true},
			{ID: "paused", DelayHours: 1, Template: "nurture_financing", Subject: "Paused", Active: false},
		},
	}

	seq := newTestSequencer(store, mailer, start)
	seq.Resolve = func(id string) (utils.SequenceDefinition, bool) { return withInactive, true }
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))

	seq.Clock = func() time.Time { return start.Add(10 * time.Hour) }
	stats, err := seq.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Welcome", mailer.sent[0].Subject)
}

func TestSweepMissingTemplateSkipsStep(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	broken := utils.SequenceDefinition{
		ID: "test-nurture",
		Steps: []utils.EmailStep{
			{ID: "broken", DelayHours: 0, Template: "no_such_template", Subject: "Broken", Active: true},
			{ID: "ok", DelayHours: 0, Template: "nurture_welcome", Subject: "OK", Active: true},
		},
	}

	seq := newTestSequencer(store, mailer, start)
	seq.Resolve = func(id string) (utils.SequenceDefinition, bool) { return broken, true }
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))

	seq.Clock = func() time.Time { return start.Add(time.Hour) }
	stats, err := seq.Sweep(context.Background())
	require.NoError(t, err)

	// The broken step is skipped, the next one still goes out
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "OK", mailer.sent[0].Subject)
	assert.False(t, store.get("buyer@example.com").HasSent("broken"))
}

func TestStartSequenceIdempotentRestart(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seq := newTestSequencer(store, mailer, start)
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))

	seq.Clock = func() time.Time { return start.Add(50 * time.Hour) }
	_, err := seq.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, store.get("buyer@example.com").SentSteps, 2)

	// Restarting resets progress under a fresh start time
	restartAt := start.Add(60 * time.Hour)
	seq.Clock = func() time.Time { return restartAt }
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))

	sub := store.get("buyer@example.com")
	assert.Equal(t, 0, sub.CurrentStep)
	assert.Empty(t, sub.SentSteps)
	assert.Equal(t, restartAt, sub.StartedAt)
	assert.True(t, sub.IsActive)

	// Only the immediate step is due again; the 24h step waits for the new clock
	stats, err := seq.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
}

func TestStartSequenceUnknownSequence(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seq := newTestSequencer(store, mailer, now)
	err := seq.StartSequence(context.Background(), "buyer@example.com", "no-such-sequence")
	require.Error(t, err)
	assert.Nil(t, store.get("buyer@example.com"))
}

func TestMarkStepSentConditional(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.StartSequence(context.Background(), "buyer@example.com", "test-nurture", now))
	sub := store.get("buyer@example.com")

	marked, err := store.MarkStepSent(context.Background(), sub.ID, "day-1-guide", now)
	require.NoError(t, err)
	assert.True(t, marked)

	// Second mark for the same step must be refused
	marked, err = store.MarkStepSent(context.Background(), sub.ID, "day-1-guide", now)
	require.NoError(t, err)
	assert.False(t, marked)

	assert.Equal(t, 1, sub.CurrentStep)
	assert.Len(t, sub.SentSteps, 1)
}

func TestSweepFractionalHours(t *testing.T) {
	store := newFakeStore()
	mailer := newFakeMailer()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seq := newTestSequencer(store, mailer, start)
	require.NoError(t, seq.StartSequence(context.Background(), "buyer@example.com", "test-nurture"))

	// 23.5 hours in: the 24h step is not yet due
	seq.Clock = func() time.Time { return start.Add(23*time.Hour + 30*time.Minute) }
	stats, err := seq.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent) // welcome only

	// 24 hours exactly: due now
	seq.Clock = func() time.Time { return start.Add(24 * time.Hour) }
	stats, err = seq.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, "Day 1", mailer.sent[1].Subject)
}
