package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/cliprecall/internal/lang"
)

// OpenAITranslator translates words and short phrases with the OpenAI
// chat completion API
type OpenAITranslator struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAITranslator creates a new translator instance. An empty model
// selects gpt-4o-mini; baseURL may point at any OpenAI-compatible API.
func NewOpenAITranslator(apiKey, model, baseURL string) *OpenAITranslator {
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAITranslator{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Translate translates text from sourceLang to targetLang
func (t *OpenAITranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not found")
	}

	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(text, sourceLang, targetLang),
			},
		},
		MaxTokens:   100,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Name returns the provider name
func (t *OpenAITranslator) Name() string {
	return "openai"
}

// buildPrompt asks for the bare translation. An unknown source language
// lets the model detect it.
func buildPrompt(text, sourceLang, targetLang string) string {
	source := lang.Name(sourceLang)
	if source == "" {
		source = "the source language (detect it)"
	}
	target := lang.Name(targetLang)
	if target == "" {
		target = "English"
	}

	return fmt.Sprintf(`Translate the following text from %s to %s.
Only provide the translation, no explanations:

%s`, source, target, text)
}

// Cache stores translations in memory for the lifetime of a session
type Cache struct {
	mu           sync.RWMutex
	translations map[string]string
}

// NewCache creates a new translation cache
func NewCache() *Cache {
	return &Cache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (c *Cache) Add(key, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.translations[key] = translation
}

// Get retrieves a translation from the cache
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	translation, ok := c.translations[key]
	return translation, ok
}

// GetAll returns a copy of all cached translations
func (c *Cache) GetAll() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string]string, len(c.translations))
	for k, v := range c.translations {
		result[k] = v
	}
	return result
}
