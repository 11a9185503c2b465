package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// ContentGenerator drafts blog articles by calling an OpenAI-compatible
// chat-completions API.
type ContentGenerator struct {
	client *resty.Client
	model  string
	logger *log.Logger
}

func NewContentGenerator(baseURL, apiKey, model string, logger *log.Logger) *ContentGenerator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(90 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &ContentGenerator{
		client: client,
		model:  model,
		logger: logger,
	}
}

// GeneratedArticle is the parsed output of one generation call.
type GeneratedArticle struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const articleSystemPrompt = `You are a property market writer for a Singapore real-estate blog.
Write factual, practical content for Singapore home buyers and sellers.
Respond with a single JSON object with keys "title", "excerpt", "body" and
"category". "body" is HTML using only <h2>, <p>, <ul> and <li> tags.
"category" must be exactly one of: condo, hdb, landed, new-launch, market-outlook.`

// GenerateArticle asks the model for a full draft on the given topic.
func (g *ContentGenerator) GenerateArticle(ctx context.Context, topic string) (*GeneratedArticle, error) {
	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: articleSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Write an article about: %s", topic)},
		},
		Temperature: 0.7,
	}

	var result chatResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %v", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("completion API returned %s", resp.Status())
	}
	if result.Error != nil {
		return nil, fmt.Errorf("completion API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("completion API returned no choices")
	}

	article, err := parseGeneratedArticle(result.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	g.logger.Printf("Generated article %q (category %s)", article.Title, article.Category)
	return article, nil
}

// parseGeneratedArticle extracts the JSON object from a completion, tolerating
// markdown code fences around it.
func parseGeneratedArticle(content string) (*GeneratedArticle, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var article GeneratedArticle
	if err := json.Unmarshal([]byte(content), &article); err != nil {
		return nil, fmt.Errorf("could not parse generated article: %v", err)
	}
	if article.Title == "" || article.Body == "" {
		return nil, fmt.Errorf("generated article is missing title or body")
	}
	return &article, nil
}

// Curated stock images per article category. The generator never fetches
// images itself; it only picks a category and we map it here.
var stockImages = map[string][]string{
	"condo": {
		"https://images.unsplash.com/photo-1545324418-cc1a3fa10c00",
		"https://images.unsplash.com/photo-1567496898669-ee935f5f647a",
		"https://images.unsplash.com/photo-1512917774080-9991f1c4c750",
	},
	"hdb": {
		"https://images.unsplash.com/photo-1565967511849-76a60a516170",
		"https://images.unsplash.com/photo-1517178313053-8905a8f9a881",
	},
	"landed": {
		"https://images.unsplash.com/photo-1564013799919-ab600027ffc6",
		"https://images.unsplash.com/photo-1568605114967-8130f3a36994",
	},
	"new-launch": {
		"https://images.unsplash.com/photo-1486325212027-8081e485255e",
		"https://images.unsplash.com/photo-1503387762-592deb58ef4e",
	},
	"market-outlook": {
		"https://images.unsplash.com/photo-1460925895917-afdab827c52f",
		"https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3",
	},
}

const defaultHeroImage = "https://images.unsplash.com/photo-1560518883-ce09059eeffa"

// PickHeroImage returns a stable image URL for the article: same category and
// title always map to the same image.
func PickHeroImage(category, title string) string {
	images, ok := stockImages[category]
	if !ok || len(images) == 0 {
		return defaultHeroImage
	}
	h := fnv.New32a()
	h.Write([]byte(title))
	return images[int(h.Sum32())%len(images)]
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds a URL slug from a title, with a short random suffix to keep
// slugs unique across regenerations of similar topics.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
		slug = strings.Trim(slug, "-")
	}
	return slug + "-" + uuid.NewString()[:8]
}
