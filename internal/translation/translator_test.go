package translation

import (
	"context"
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestNewOpenAITranslator(t *testing.T) {
	translator := NewOpenAITranslator("test-api-key", "", "")

	if translator == nil {
		t.Fatal("NewOpenAITranslator returned nil")
	}
	if translator.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", translator.apiKey)
	}
	if translator.model != "gpt-4o-mini" {
		t.Errorf("Expected default model gpt-4o-mini, got %s", translator.model)
	}
	if translator.client == nil {
		t.Error("OpenAI client not initialized")
	}
	if translator.Name() != "openai" {
		t.Errorf("Name() = %s", translator.Name())
	}
}

func TestTranslate_NoAPIKey(t *testing.T) {
	translator := NewOpenAITranslator("", "", "")

	_, err := translator.Translate(context.Background(), "chat", "fr", "en")
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}
	if err.Error() != "OpenAI API key not found" {
		t.Errorf("Expected 'OpenAI API key not found' error, got: %v", err)
	}
}

func TestTranslate_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	translator := NewOpenAITranslator(apiKey, "", "")
	translation, err := translator.Translate(context.Background(), "maison", "fr", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if translation == "" {
		t.Error("Got empty translation")
	}
	t.Logf("Translation of 'maison': %s", translation)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("hola", "es", "en")
	if !strings.Contains(prompt, "from Spanish to English") {
		t.Errorf("prompt does not name the languages: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "hola") {
		t.Errorf("prompt does not end with the text: %q", prompt)
	}

	prompt = buildPrompt("hola", "", "")
	if !strings.Contains(prompt, "detect it") || !strings.Contains(prompt, "to English") {
		t.Errorf("unexpected fallback prompt: %q", prompt)
	}
}

func TestNewGeminiTranslator_NoAPIKey(t *testing.T) {
	if _, err := NewGeminiTranslator(context.Background(), "", ""); err == nil {
		t.Error("Expected error for missing Gemini API key")
	}
}

func TestGeminiTranslator_Integration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GEMINI_API_KEY not set")
	}

	translator, err := NewGeminiTranslator(context.Background(), apiKey, "")
	if err != nil {
		t.Fatalf("NewGeminiTranslator failed: %v", err)
	}
	translation, err := translator.Translate(context.Background(), "perro", "es", "en")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	t.Logf("Translation of 'perro': %s", translation)
}

func TestCache(t *testing.T) {
	cache := NewCache()

	if _, found := cache.Get("fr|en|chat"); found {
		t.Error("Expected not found in empty cache")
	}

	cache.Add("fr|en|chat", "cat")
	cache.Add("es|en|perro", "dog")

	translation, found := cache.Get("fr|en|chat")
	if !found || translation != "cat" {
		t.Errorf("Get() = %q, %v; want cat, true", translation, found)
	}

	cache.Add("fr|en|chat", "cat (animal)")
	if translation, _ = cache.Get("fr|en|chat"); translation != "cat (animal)" {
		t.Errorf("Expected overwritten value, got '%s'", translation)
	}
}

func TestCache_GetAll(t *testing.T) {
	cache := NewCache()
	cache.Add("fr|en|chat", "cat")
	cache.Add("es|en|perro", "dog")

	all := cache.GetAll()
	expected := map[string]string{
		"fr|en|chat":  "cat",
		"es|en|perro": "dog",
	}
	if !reflect.DeepEqual(all, expected) {
		t.Errorf("GetAll() = %v, want %v", all, expected)
	}

	all["fr|en|chat"] = "modified"
	if translation, _ := cache.Get("fr|en|chat"); translation != "cat" {
		t.Error("Cache was modified through returned map")
	}
}
