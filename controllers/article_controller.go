package controller

import (
	"log"
	"time"

	"propertypulse/models"
	"propertypulse/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ArticleController struct {
	DB        *gorm.DB
	Generator *utils.ContentGenerator
	Logger    *log.Logger
}

func NewArticleController(db *gorm.DB, generator *utils.ContentGenerator, logger *log.Logger) *ArticleController {
	return &ArticleController{
		DB:        db,
		Generator: generator,
		Logger:    logger,
	}
}

// GetArticles lists published articles, newest first.
func (ac *ArticleController) GetArticles(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := ac.DB.Model(&models.Article{}).Where("status = ?", "published")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count articles", err)
	}

	var articles []models.Article
	err := query.Order("published_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch articles", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  articles,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetArticle fetches one published article by slug.
func (ac *ArticleController) GetArticle(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var article models.Article
	err := ac.DB.Where("slug = ? AND status = ?", slug, "published").First(&article).Error
	if err == gorm.ErrRecordNotFound {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Article not found", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch article", err)
	}

	return c.JSON(utils.SuccessResponse(article))
}

// GenerateArticle drafts a new article for a topic via the LLM and stores it
// as a draft (or published when requested).
func (ac *ArticleController) GenerateArticle(c *fiber.Ctx) error {
	var input struct {
		Topic   string `json:"topic" validate:"required,max=200"`
		Publish bool   `json:"publish"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	generated, err := ac.Generator.GenerateArticle(c.Context(), input.Topic)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Article generation failed", err)
	}

	article := models.Article{
		Slug:         utils.Slugify(generated.Title),
		Title:        generated.Title,
		Excerpt:      generated.Excerpt,
		Body:         generated.Body,
		Category:     generated.Category,
		HeroImageURL: utils.PickHeroImage(generated.Category, generated.Title),
		Status:       "draft",
		Source:       "generated",
	}
	if input.Publish {
		article.Status = "published"
		article.PublishedAt = utils.Pointer(time.Now())
	}

	if err := ac.DB.Create(&article).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save article", err)
	}

	utils.LogEvent("article_generated", map[string]interface{}{
		"slug":     article.Slug,
		"category": article.Category,
		"status":   article.Status,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(article))
}
