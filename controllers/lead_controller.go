package controller

import (
	"log"
	"strings"

	"propertypulse/config"
	"propertypulse/models"
	"propertypulse/utils"
	"propertypulse/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeadController struct {
	DB        *gorm.DB
	Mailer    utils.Mailer
	Sequencer *worker.Sequencer
	Logger    *log.Logger
}

func NewLeadController(db *gorm.DB, mailer utils.Mailer, sequencer *worker.Sequencer, logger *log.Logger) *LeadController {
	return &LeadController{
		DB:        db,
		Mailer:    mailer,
		Sequencer: sequencer,
		Logger:    logger,
	}
}

type leadSubmissionInput struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=20"`

	JourneyStage    string `json:"journeyStage" validate:"omitempty,max=50"`
	Budget          string `json:"budget" validate:"omitempty,max=50"`
	FinancingStatus string `json:"financingStatus" validate:"omitempty,max=50"`
	Timeline        string `json:"timeline" validate:"omitempty,max=50"`

	Subscribe bool   `json:"subscribe"`
	Source    string `json:"source" validate:"omitempty,max=100"`
}

// SubmitLead scores a questionnaire submission, persists it, notifies sales
// for high-priority leads and optionally starts the nurture sequence.
func (lc *LeadController) SubmitLead(c *fiber.Ctx) error {
	var input leadSubmissionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if err := utils.ValidateLeadEmail(input.Email, config.AppConfig.VerifyEmailHost); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
	}

	score := utils.ScoreLead(utils.AnswerSet{
		JourneyStage:    input.JourneyStage,
		Budget:          input.Budget,
		FinancingStatus: input.FinancingStatus,
		Timeline:        input.Timeline,
	})

	submission := models.LeadSubmission{
		Reference:       uuid.NewString(),
		Name:            input.Name,
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:           input.Phone,
		JourneyStage:    input.JourneyStage,
		Budget:          input.Budget,
		FinancingStatus: input.FinancingStatus,
		Timeline:        input.Timeline,
		JourneyScore:    score.JourneyScore,
		BudgetScore:     score.BudgetScore,
		FinancingScore:  score.FinancingScore,
		TimelineScore:   score.TimelineScore,
		TotalScore:      score.Total,
		Category:        score.Category,
		Subscribed:      input.Subscribe,
		Source:          input.Source,
	}

	if err := lc.DB.Create(&submission).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save submission", err)
	}

	utils.LogEvent("lead_submitted", map[string]interface{}{
		"reference": submission.Reference,
		"category":  string(submission.Category),
		"total":     submission.TotalScore,
	})

	// Sales notification failures must not fail the submission
	if submission.Category != models.LeadCategoryCold {
		lc.notifySales(submission)
	}

	if input.Subscribe {
		if err := lc.Sequencer.StartSequence(c.Context(), submission.Email, "buyer-nurture"); err != nil {
			lc.Logger.Printf("Failed to start nurture sequence for %s: %v", submission.Email, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"reference": submission.Reference,
		"score":     score,
	}))
}

// ScoreLead computes a score preview without persisting anything. The form
// calls this on every change so the buyer sees their score live.
func (lc *LeadController) ScoreLead(c *fiber.Ctx) error {
	var answers utils.AnswerSet
	if err := c.BodyParser(&answers); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	return c.JSON(utils.SuccessResponse(utils.ScoreLead(answers)))
}

// GetLeads lists submissions for the sales team, newest first, optionally
// filtered by category.
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := lc.DB.Model(&models.LeadSubmission{})
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", strings.ToUpper(category))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count leads", err)
	}

	var leads []models.LeadSubmission
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&leads).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch leads", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  leads,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (lc *LeadController) notifySales(submission models.LeadSubmission) {
	if config.AppConfig.SalesEmail == "" {
		return
	}

	subject := "New " + string(submission.Category) + " lead: " + submission.Email
	body, err := utils.RenderEmailTemplate("lead_notification", subject, submission.Email, fiber.Map{
		"Category":        submission.Category,
		"Name":            submission.Name,
		"Email":           submission.Email,
		"Phone":           submission.Phone,
		"Total":           submission.TotalScore,
		"JourneyStage":    submission.JourneyStage,
		"JourneyScore":    submission.JourneyScore,
		"Budget":          submission.Budget,
		"BudgetScore":     submission.BudgetScore,
		"FinancingStatus": submission.FinancingStatus,
		"FinancingScore":  submission.FinancingScore,
		"Timeline":        submission.Timeline,
		"TimelineScore":   submission.TimelineScore,
	})
	if err != nil {
		lc.Logger.Printf("Failed to render sales notification: %v", err)
		return
	}

	if err := lc.Mailer.Send(config.AppConfig.SalesEmail, subject, body); err != nil {
		utils.LogError("sales_notification_failed", err, map[string]interface{}{
			"reference": submission.Reference,
		})
	}
}
