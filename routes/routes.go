package routes

import (
	"log"
	"os"

	controller "propertypulse/controllers"
	"propertypulse/middleware"
	"propertypulse/utils"
	"propertypulse/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// Deps carries the shared services the route handlers need.
type Deps struct {
	DB        *gorm.DB
	Mailer    utils.Mailer
	Sequencer *worker.Sequencer
	Generator *utils.ContentGenerator
}

func SetupRoutes(app *fiber.App, deps Deps) {
	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	leadController := controller.NewLeadController(deps.DB, deps.Mailer, deps.Sequencer,
		log.New(os.Stdout, "LEAD: ", log.LstdFlags))
	subscriptionController := controller.NewSubscriptionController(deps.Sequencer,
		log.New(os.Stdout, "SUBSCRIPTION: ", log.LstdFlags))
	articleController := controller.NewArticleController(deps.DB, deps.Generator,
		log.New(os.Stdout, "ARTICLE: ", log.LstdFlags))

	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public lead form endpoints, rate limited per IP
	lead := api.Group("/leads", middleware.LeadFormRateLimiter())
	lead.Post("/", leadController.SubmitLead)
	lead.Post("/score", leadController.ScoreLead)

	// Public subscription endpoints
	subscription := api.Group("/subscriptions")
	subscription.Post("/", subscriptionController.Subscribe)
	subscription.Post("/unsubscribe", subscriptionController.Unsubscribe)

	// Public article endpoints
	articles := api.Group("/articles")
	articles.Get("/", articleController.GetArticles)
	articles.Get("/:slug", articleController.GetArticle)

	// Admin endpoints, API key protected
	admin := api.Group("/", middleware.Protected())
	admin.Get("/leads", leadController.GetLeads)
	admin.Post("/autoresponder/sweep", subscriptionController.TriggerSweep)
	admin.Post("/articles/generate", articleController.GenerateArticle)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	log.Println("API routes initialized successfully")
}
