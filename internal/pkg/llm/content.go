package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Content is what the tutoring core consumes from the content collaborator:
// the text plus provenance. Generation parameters stay on this side.
type Content struct {
	Content    string `json:"content"`
	Model      string `json:"model"`
	TemplateID string `json:"templateId"`
}

// ContentProvider generates guidance text for surfaced decisions.
// Implementations must be safe to replace with nil-equivalents; the engine
// falls back to static content when generation fails or is disabled.
type ContentProvider interface {
	GenerateHint(ctx context.Context, problemID, errorSubtypeID string, hintLevel int) (Content, error)
	GenerateExplanation(ctx context.Context, problemID, errorSubtypeID string) (Content, error)
	GenerateReportNarrative(ctx context.Context, prompt string) (Content, error)
}

const (
	templateHint        = "hint-ladder-v1"
	templateExplanation = "explanation-v1"
	templateReport      = "learner-report-v1"
)

// Client talks to an OpenAI-compatible endpoint.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	client  *openai.Client
}

// NewClient builds a content client for an OpenAI-compatible API.
func NewClient(apiKey string, model string, baseURL string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: baseURL,
		client:  openai.NewClientWithConfig(config),
	}
}

var hintLevelGuidance = map[int]string{
	1: "Point at the general area of the mistake without naming the fix. One sentence.",
	2: "Name the SQL construct involved and what about it is wrong. Two sentences at most.",
	3: "Describe the exact change needed, but do not write the corrected query.",
}

func (c *Client) GenerateHint(ctx context.Context, problemID, errorSubtypeID string, hintLevel int) (Content, error) {
	guidance, ok := hintLevelGuidance[hintLevel]
	if !ok {
		return Content{}, fmt.Errorf("invalid hint level %d", hintLevel)
	}

	prompt := fmt.Sprintf(`A SQL learner working on problem %q hit the error subtype %q and asked for a level-%d hint.

%s

Do not reveal the full solution. Return plain text only.`, problemID, errorSubtypeID, hintLevel, guidance)

	text, err := c.generate(ctx, prompt, 512)
	if err != nil {
		return Content{}, err
	}
	return Content{Content: text, Model: c.Model, TemplateID: templateHint}, nil
}

func (c *Client) GenerateExplanation(ctx context.Context, problemID, errorSubtypeID string) (Content, error) {
	prompt := fmt.Sprintf(`A SQL learner working on problem %q has exhausted the hint ladder on error subtype %q.

Write a short, complete explanation of the underlying SQL concept and why this class of error happens. Close with the corrected approach, described in prose. Keep it under 150 words. Return plain text only.`, problemID, errorSubtypeID)

	text, err := c.generate(ctx, prompt, 1024)
	if err != nil {
		return Content{}, err
	}
	return Content{Content: text, Model: c.Model, TemplateID: templateExplanation}, nil
}

func (c *Client) GenerateReportNarrative(ctx context.Context, prompt string) (Content, error) {
	text, err := c.generate(ctx, prompt, 1024)
	if err != nil {
		return Content{}, err
	}
	return Content{Content: text, Model: c.Model, TemplateID: templateReport}, nil
}

func (c *Client) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("client not initialized")
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
			TopP:        0.95,
			MaxTokens:   maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("llm generate error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("llm returned empty response")
	}

	return text, nil
}

// StaticFallbackHint returns deterministic hint text for when no content
// provider is configured or generation fails.
func StaticFallbackHint(hintLevel int, errorSubtypeID string) Content {
	texts := map[int]string{
		1: "Look again at the part of your query related to: " + errorSubtypeID + ".",
		2: "The error subtype " + errorSubtypeID + " usually means a clause is referencing something the database cannot resolve. Check that clause.",
		3: "Fix the clause that triggers " + errorSubtypeID + ": compare each referenced column and table against your FROM/JOIN list.",
	}
	text, ok := texts[hintLevel]
	if !ok {
		text = texts[1]
	}
	return Content{Content: text, Model: "static", TemplateID: templateHint}
}

// StaticFallbackExplanation returns deterministic explanation text.
func StaticFallbackExplanation(errorSubtypeID string) Content {
	return Content{
		Content:    "You have seen all three hints for this problem. The recurring error subtype is " + errorSubtypeID + ". Revisit the related concept in the textbook panel and rebuild the query clause by clause.",
		Model:      "static",
		TemplateID: templateExplanation,
	}
}
