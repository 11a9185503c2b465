package utils

import (
	"propertypulse/models"
)

// AnswerSet holds the four questionnaire selections from the buyer form. Any
// field may be empty or carry an unrecognized value; both score zero.
type AnswerSet struct {
	JourneyStage    string `json:"journeyStage"`
	Budget          string `json:"budget"`
	FinancingStatus string `json:"financingStatus"`
	Timeline        string `json:"timeline"`
}

// LeadScore is the breakdown computed from an AnswerSet. Total is the sum of
// the four sub-scores and tops out at 100.
type LeadScore struct {
	JourneyScore   int                 `json:"journeyScore"`
	BudgetScore    int                 `json:"budgetScore"`
	FinancingScore int                 `json:"financingScore"`
	TimelineScore  int                 `json:"timelineScore"`
	Total          int                 `json:"total"`
	Category       models.LeadCategory `json:"category"`
}

// Category thresholds on the total score.
const (
	hotThreshold  = 80
	warmThreshold = 50
)

// Fixed point tables per questionnaire field. Values not present score zero.
var journeyStagePoints = map[string]int{
	"actively-viewing":     40,
	"researching-3-months": 30,
	"planning-6-12-months": 20,
	"exploring-options":    10,
	"market-research":      0,
}

var budgetPoints = map[string]int{
	"under-800k": 5,
	"800k-1m":    10,
	"1m-1.5m":    15,
	"1.5m-2m":    20,
	"2m-3m":      25,
	"above-3m":   30,
}

var financingPoints = map[string]int{
	"approved":   20,
	"in-process": 15,
	"not-yet":    5,
}

var timelinePoints = map[string]int{
	"within-1-month": 10,
	"1-3-months":     8,
	"3-6-months":     6,
	"6-12-months":    4,
	"over-1-year":    2,
	"no-timeline":    0,
}

// ScoreLead converts an answer set into a score breakdown and category. It is
// a pure function: no lookups outside the fixed tables, no side effects, and
// it never fails — unknown or empty selections simply contribute zero. This
// lets the form recompute the score live on every change.
func ScoreLead(answers AnswerSet) LeadScore {
	score := LeadScore{
		JourneyScore:   journeyStagePoints[answers.JourneyStage],
		BudgetScore:    budgetPoints[answers.Budget],
		FinancingScore: financingPoints[answers.FinancingStatus],
		TimelineScore:  timelinePoints[answers.Timeline],
	}
	score.Total = score.JourneyScore + score.BudgetScore + score.FinancingScore + score.TimelineScore
	score.Category = categorize(score.Total)
	return score
}

func categorize(total int) models.LeadCategory {
	switch {
	case total >= hotThreshold:
		return models.LeadCategoryHot
	case total >= warmThreshold:
		return models.LeadCategoryWarm
	default:
		return models.LeadCategoryCold
	}
}
