package serving

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// contentGenerator is the slice of the genai client used here (allows mocking in tests).
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for the Gemini provider. Model plays the
// role of the endpoint identifier.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiClient implements Endpoint on Google's Gemini API.
type GeminiClient struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed endpoint.
func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("gemini model cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGeminiClient(client.Models, config), nil
}

func newGeminiClient(models contentGenerator, config GeminiConfig) *GeminiClient {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &GeminiClient{
		models:  models,
		model:   config.Model,
		timeout: config.Timeout,
	}
}

// Query sends the conversation to Gemini. Assistant turns are sent with the
// "model" role.
func (c *GeminiClient) Query(ctx context.Context, req Request) (Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty")
	}

	queryCtx, cancel := prepareQueryContext(ctx, c.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	genConfig := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens) //nolint:gosec // bounded by configuration
	}

	result, err := c.models.GenerateContent(queryCtx, c.model, contents, genConfig)
	if err != nil {
		if queryCtx.Err() != nil {
			return nil, fmt.Errorf("endpoint query timed out: %w", queryCtx.Err())
		}
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", ErrMalformedResponse)
	}

	return Text(result.Text()), nil
}
