package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSequence(t *testing.T) {
	seq, ok := GetSequence("buyer-nurture")
	require.True(t, ok)
	assert.Equal(t, "buyer-nurture", seq.ID)
	assert.NotEmpty(t, seq.Steps)

	_, ok = GetSequence("no-such-sequence")
	assert.False(t, ok)
}

func TestSequenceDelaysNonDecreasing(t *testing.T) {
	for _, id := range SequenceIDs() {
		seq, ok := GetSequence(id)
		require.True(t, ok)

		prev := 0.0
		for _, step := range seq.Steps {
			assert.GreaterOrEqual(t, step.DelayHours, prev,
				"sequence %s step %s has a delay before its predecessor", id, step.ID)
			prev = step.DelayHours
		}
	}
}

func TestSequenceStepIDsUnique(t *testing.T) {
	for _, id := range SequenceIDs() {
		seq, _ := GetSequence(id)

		seen := make(map[string]bool)
		for _, step := range seq.Steps {
			assert.False(t, seen[step.ID], "sequence %s repeats step id %s", id, step.ID)
			seen[step.ID] = true
		}
	}
}

func TestSequenceTemplatesRender(t *testing.T) {
	for _, id := range SequenceIDs() {
		seq, _ := GetSequence(id)

		for _, step := range seq.Steps {
			body, err := RenderEmailTemplate(step.Template, step.Subject, "buyer@example.com", nil)
			require.NoError(t, err, "sequence %s step %s", id, step.ID)
			assert.Contains(t, body, "buyer@example.com", "template should carry the unsubscribe link")
		}
	}
}

func TestRenderEmailTemplateUnknown(t *testing.T) {
	_, err := RenderEmailTemplate("no_such_template", "Subject", "a@b.com", nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not found"))
}

func TestRenderLeadNotification(t *testing.T) {
	body, err := RenderEmailTemplate("lead_notification", "New HOT lead", "buyer@example.com", map[string]interface{}{
		"Category":        "HOT",
		"Name":            "Jane Tan",
		"Email":           "buyer@example.com",
		"Phone":           "+6591234567",
		"Total":           85,
		"JourneyStage":    "actively-viewing",
		"JourneyScore":    40,
		"Budget":          "2m-3m",
		"BudgetScore":     25,
		"FinancingStatus": "approved",
		"FinancingScore":  20,
		"Timeline":        "no-timeline",
		"TimelineScore":   0,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Jane Tan")
	assert.Contains(t, body, "85")
	assert.Contains(t, body, "actively-viewing")
}
