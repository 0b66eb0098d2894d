// Package agents provides the AI vision clients and chart analysis pipeline.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"

	"setup-memory/internal/config"
	"setup-memory/internal/errors"
)

const defaultMediaType = "image/png"

// VisionRequest is one prompt plus one base64-encoded chart image.
type VisionRequest struct {
	Prompt      string
	ImageBase64 string
	MediaType   string // defaults to image/png
}

func (r VisionRequest) mediaType() string {
	if r.MediaType == "" {
		return defaultMediaType
	}
	return r.MediaType
}

// VisionClient sends a chart image to a multimodal model and returns its text reply.
type VisionClient interface {
	Analyze(ctx context.Context, req VisionRequest) (string, error)
	Provider() string
	Model() string
}

// VisionConfig holds what a VisionClient needs to reach its provider.
type VisionConfig struct {
	Provider    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	BaseURL     string // overrides the provider endpoint
}

// VisionConfigFrom builds a VisionConfig for the active provider in cfg.
func VisionConfigFrom(cfg *config.Config) VisionConfig {
	return VisionConfig{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.APIKey(),
		Model:       cfg.Model(),
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}
}

// NewVisionClient returns the client for cfg.Provider.
func NewVisionClient(cfg VisionConfig) (VisionClient, error) {
	if err := config.ValidateAPIKey(cfg.Provider, cfg.APIKey); err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel(cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIVisionClient(cfg), nil
	case config.ProviderGemini:
		if cfg.BaseURL == "" {
			cfg.BaseURL = config.GeminiBaseURL
		}
		return NewOpenAIVisionClient(cfg), nil
	case config.ProviderAnthropic:
		return NewAnthropicVisionClient(cfg), nil
	default:
		return nil, errors.Wrapf(errors.ErrProviderNotFound, "provider %q", cfg.Provider)
	}
}

// OpenAIVisionClient implements VisionClient over the Chat Completions API.
// Gemini is reached through its OpenAI-compatible endpoint.
type OpenAIVisionClient struct {
	client      *openai.Client
	provider    string
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIVisionClient creates a Chat Completions vision client.
func NewOpenAIVisionClient(cfg VisionConfig) *OpenAIVisionClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderOpenAI
	}

	return &OpenAIVisionClient{
		client:      openai.NewClientWithConfig(clientCfg),
		provider:    provider,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
	}
}

// Analyze sends the prompt and image as one multi-part user message.
func (c *OpenAIVisionClient) Analyze(ctx context.Context, req VisionRequest) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", req.mediaType(), req.ImageBase64)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.Wrapf(errors.ErrEmptyResponse, "%s", c.provider)
	}
	return resp.Choices[0].Message.Content, nil
}

// Provider returns the provider id.
func (c *OpenAIVisionClient) Provider() string { return c.provider }

// Model returns the model name.
func (c *OpenAIVisionClient) Model() string { return c.model }

// AnthropicVisionClient implements VisionClient over the Anthropic Messages API.
type AnthropicVisionClient struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicVisionClient creates a Messages API vision client.
func NewAnthropicVisionClient(cfg VisionConfig) *AnthropicVisionClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicVisionClient{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

// Analyze sends the image followed by the prompt and returns the first text block.
func (c *AnthropicVisionClient) Analyze(ctx context.Context, req VisionRequest) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(req.mediaType(), req.ImageBase64),
				anthropic.NewTextBlock(req.Prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", errors.Wrapf(errors.ErrEmptyResponse, "%s", config.ProviderAnthropic)
}

// Provider returns the provider id.
func (c *AnthropicVisionClient) Provider() string { return config.ProviderAnthropic }

// Model returns the model name.
func (c *AnthropicVisionClient) Model() string { return c.model }
