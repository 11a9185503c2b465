package models

import (
	"gorm.io/gorm"
)

// LeadCategory is the coarse follow-up priority derived from a submission's
// total score.
type LeadCategory string

const (
	LeadCategoryHot  LeadCategory = "HOT"
	LeadCategoryWarm LeadCategory = "WARM"
	LeadCategoryCold LeadCategory = "COLD"
)

// LeadSubmission is one completed questionnaire from the property-buyer form.
// The score columns are written once at submission time and never updated.
type LeadSubmission struct {
	gorm.Model
	Reference string `gorm:"not null;uniqueIndex" json:"reference"`

	Name  string `json:"name"`
	Email string `gorm:"not null;index" json:"email"`
	Phone string `json:"phone"`

	// Questionnaire answers as submitted
	JourneyStage    string `json:"journey_stage"`
	Budget          string `json:"budget"`
	FinancingStatus string `json:"financing_status"`
	Timeline        string `json:"timeline"`

	// Score breakdown, immutable once computed
	JourneyScore   int          `gorm:"not null" json:"journey_score"`
	BudgetScore    int          `gorm:"not null" json:"budget_score"`
	FinancingScore int          `gorm:"not null" json:"financing_score"`
	TimelineScore  int          `gorm:"not null" json:"timeline_score"`
	TotalScore     int          `gorm:"not null;index" json:"total_score"`
	Category       LeadCategory `gorm:"not null;index" json:"category"`

	// Whether the lead opted into the nurture email sequence
	Subscribed bool `gorm:"default:false" json:"subscribed"`

	Source string `json:"source"` // which page/form the submission came from
}
