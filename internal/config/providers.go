package config

import (
	"fmt"
	"strings"

	"setup-memory/internal/errors"
)

// Supported vision providers.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Vision bool   `json:"vision"`
}

// ProviderInfo describes a vision provider and its API-key format.
type ProviderInfo struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Models       []ModelInfo `json:"models"`
	APIKeyPrefix string      `json:"apiKeyPrefix"`
	APIKeyLabel  string      `json:"apiKeyLabel"`
}

var providers = []ProviderInfo{
	{
		ID:   ProviderOpenAI,
		Name: "OpenAI",
		Models: []ModelInfo{
			{ID: "gpt-4o", Name: "GPT-4o (Recommended)", Vision: true},
			{ID: "gpt-4o-mini", Name: "GPT-4o Mini (Cheaper)", Vision: true},
			{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Vision: true},
			{ID: "chatgpt-4o-latest", Name: "ChatGPT-4o Latest", Vision: true},
		},
		APIKeyPrefix: "sk-",
		APIKeyLabel:  "OpenAI API Key",
	},
	{
		ID:   ProviderGemini,
		Name: "Google Gemini",
		Models: []ModelInfo{
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash (Stable & Fast)", Vision: true},
			{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash-Lite (Cheapest)", Vision: true},
			{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro (Deep thinking)", Vision: true},
		},
		APIKeyPrefix: "AI",
		APIKeyLabel:  "Google AI API Key",
	},
	{
		ID:   ProviderAnthropic,
		Name: "Anthropic Claude",
		Models: []ModelInfo{
			{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Vision: true},
			{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet", Vision: true},
			{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku (Faster)", Vision: true},
		},
		APIKeyPrefix: "sk-ant-",
		APIKeyLabel:  "Anthropic API Key",
	},
}

// Providers returns the provider catalog in display order.
func Providers() []ProviderInfo {
	out := make([]ProviderInfo, len(providers))
	copy(out, providers)
	return out
}

// ProviderIDs returns the supported provider identifiers.
func ProviderIDs() []string {
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	return ids
}

// LookupProvider returns the catalog entry for id.
func LookupProvider(id string) (ProviderInfo, bool) {
	for _, p := range providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderInfo{}, false
}

// DefaultModel returns the first listed model of provider, or "" if unknown.
func DefaultModel(provider string) string {
	p, ok := LookupProvider(provider)
	if !ok || len(p.Models) == 0 {
		return ""
	}
	return p.Models[0].ID
}

// ValidateAPIKey checks that key is present and carries provider's prefix.
func ValidateAPIKey(provider, key string) error {
	p, ok := LookupProvider(provider)
	if !ok {
		return errors.Wrapf(errors.ErrProviderNotFound, "provider %q", provider)
	}
	if strings.TrimSpace(key) == "" {
		return errors.Wrapf(errors.ErrMissingAPIKey, "%s", p.APIKeyLabel)
	}
	if !strings.HasPrefix(key, p.APIKeyPrefix) {
		return errors.NewValidationError("api_key", MaskAPIKey(key),
			fmt.Sprintf("%s API keys should start with %q", p.Name, p.APIKeyPrefix))
	}
	return nil
}

// MaskAPIKey hides all but the first 7 and last 4 characters of key.
func MaskAPIKey(key string) string {
	if len(key) < 15 {
		return "Not configured"
	}
	return key[:7] + strings.Repeat("•", len(key)-11) + key[len(key)-4:]
}
