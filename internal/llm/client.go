package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is an abstraction over generative model providers.
type Client interface {
	// GenerateJSON generates a JSON document using the specified model tier.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateVision submits a PNG image plus instructions and returns the
	// model's text response.
	GenerateVision(ctx context.Context, prompt string, imagePNG []byte, tier ModelTier) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewClient creates a Gemini-backed client.
func NewClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: config}, nil
}

// GenerateJSON generates JSON content using the specified model tier.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // Low temperature for consistent output
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GenerateVision submits a screenshot and instructions to a vision-capable
// model tier and returns the raw text response.
func (c *GeminiClient) GenerateVision(ctx context.Context, prompt string, imagePNG []byte, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData("png", imagePNG),
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

// CleanJSONBlock removes markdown code fences from a model response. Models
// often wrap JSON in ```json blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
