package controller

import (
	"log"
	"strings"

	"propertypulse/config"
	"propertypulse/utils"
	"propertypulse/worker"

	"github.com/gofiber/fiber/v2"
)

type SubscriptionController struct {
	Sequencer *worker.Sequencer
	Logger    *log.Logger
}

func NewSubscriptionController(sequencer *worker.Sequencer, logger *log.Logger) *SubscriptionController {
	return &SubscriptionController{
		Sequencer: sequencer,
		Logger:    logger,
	}
}

// Subscribe starts (or restarts) an autoresponder sequence for a contact.
// Restarting resets progress: the journey begins again from step zero.
func (sc *SubscriptionController) Subscribe(c *fiber.Ctx) error {
	var input struct {
		Email      string `json:"email" validate:"required,email"`
		SequenceID string `json:"sequenceId" validate:"required,max=50"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := utils.ValidateLeadEmail(input.Email, config.AppConfig.VerifyEmailHost); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := sc.Sequencer.StartSequence(c.Context(), email, input.SequenceID); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to start sequence", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"email":      email,
		"sequenceId": input.SequenceID,
	}))
}

// Unsubscribe permanently deactivates a contact's subscription. Unknown
// emails return success so the endpoint leaks nothing about who subscribes.
func (sc *SubscriptionController) Unsubscribe(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := sc.Sequencer.Unsubscribe(c.Context(), email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to unsubscribe", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"email": email}))
}

// TriggerSweep runs one autoresponder sweep. Intended for an external cron
// to hit on a fixed interval; safe to call repeatedly.
func (sc *SubscriptionController) TriggerSweep(c *fiber.Ctx) error {
	stats, err := sc.Sequencer.Sweep(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Sweep failed", err)
	}

	sc.Logger.Printf("Manual sweep: %d visited, %d sent, %d failed, %d skipped",
		stats.Visited, stats.Sent, stats.Failed, stats.Skipped)

	return c.JSON(utils.SuccessResponse(stats))
}
