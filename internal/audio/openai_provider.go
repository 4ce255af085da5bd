package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/cliprecall/internal/lang"
	"codeberg.org/snonux/cliprecall/internal/logger"
)

// openAILanguages are the languages the OpenAI speech models pronounce
// reliably
var openAILanguages = map[string]bool{
	"af": true, "ar": true, "bg": true, "ca": true, "cs": true, "da": true,
	"de": true, "el": true, "en": true, "es": true, "et": true, "fa": true,
	"fi": true, "fr": true, "he": true, "hi": true, "hr": true, "hu": true,
	"id": true, "it": true, "ja": true, "ko": true, "lt": true, "lv": true,
	"nl": true, "no": true, "pl": true, "pt": true, "ro": true, "ru": true,
	"sk": true, "sl": true, "sr": true, "sv": true, "th": true, "tr": true,
	"uk": true, "vi": true, "zh": true,
}

// OpenAISpeaker implements Speaker with OpenAI TTS
type OpenAISpeaker struct {
	client      *openai.Client
	config      *Config
	cacheDir    string
	enableCache bool
	log         *logger.Logger
}

// NewOpenAISpeaker creates a new OpenAI TTS speaker
func NewOpenAISpeaker(config *Config) (*OpenAISpeaker, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.OpenAIBaseURL
	}

	speaker := &OpenAISpeaker{
		client:      openai.NewClientWithConfig(clientConfig),
		config:      config,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache && config.CacheDir != "",
		log:         logger.Default().With("tts"),
	}

	// Create cache directory if caching is enabled
	if speaker.enableCache {
		if err := os.MkdirAll(speaker.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return speaker, nil
}

// Voice returns the voice used for language, or "" when the language is
// not spoken by the OpenAI models
func (p *OpenAISpeaker) Voice(language string) string {
	if voice, ok := p.config.Voices[language]; ok {
		return voice
	}
	if !openAILanguages[language] {
		return ""
	}
	if p.config.OpenAIVoice == "" {
		return "alloy"
	}
	return p.config.OpenAIVoice
}

// Speak generates mp3 audio using OpenAI TTS
func (p *OpenAISpeaker) Speak(ctx context.Context, text, language string) ([]byte, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	voice := p.Voice(language)
	if voice == "" {
		p.log.Debug("no OpenAI voice for language %q", language)
		return nil, nil
	}

	text = strings.TrimSpace(text)

	// Check cache first
	if p.enableCache {
		if data, err := os.ReadFile(p.getCacheFilePath(text, language, voice)); err == nil && len(data) > 0 {
			p.log.Debug("cache hit for %q", text)
			return data, nil
		}
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}

	if instruction := p.instruction(language); instruction != "" {
		req.Instructions = instruction
	}

	p.log.Debug("using model '%s' with voice '%s' for %q", p.config.OpenAIModel, voice, text)

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		// Check if it's a model access error
		if strings.Contains(err.Error(), "does not have access to model") && p.supportsInstructions() {
			return nil, fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try using tts-1-hd instead", err, p.config.OpenAIModel)
		}
		return nil, fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	data, err := io.ReadAll(response)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no audio data received from OpenAI")
	}

	// Cache the result if caching is enabled
	if p.enableCache {
		if err := writeCacheFile(p.getCacheFilePath(text, language, voice), data); err != nil {
			p.log.Warn("failed to cache audio: %v", err)
		}
	}

	return data, nil
}

// Name returns the provider name
func (p *OpenAISpeaker) Name() string {
	return "openai"
}

func (p *OpenAISpeaker) supportsInstructions() bool {
	return p.config.OpenAIModel == "gpt-4o-mini-tts" || p.config.OpenAIModel == "gpt-4o-mini-audio-preview"
}

// instruction renders the voice instruction for language
func (p *OpenAISpeaker) instruction(language string) string {
	if p.config.OpenAIInstruction == "" || !p.supportsInstructions() {
		return ""
	}
	if !strings.Contains(p.config.OpenAIInstruction, "%s") {
		return p.config.OpenAIInstruction
	}
	name := lang.Name(language)
	if name == "" {
		name = language
	}
	return fmt.Sprintf(p.config.OpenAIInstruction, name)
}

// getCacheFilePath generates a cache file path for the given text
func (p *OpenAISpeaker) getCacheFilePath(text, language, voice string) string {
	// Create a hash of the text and settings
	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte(language))
	h.Write([]byte(p.config.OpenAIModel))
	h.Write([]byte(voice))
	h.Write([]byte(fmt.Sprintf("%.2f", p.config.OpenAISpeed)))
	h.Write([]byte(p.instruction(language)))
	hash := hex.EncodeToString(h.Sum(nil))

	// Use first 2 chars as subdirectory for better file system performance
	return filepath.Join(p.cacheDir, hash[:2], hash[2:]+".mp3")
}

func writeCacheFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ClearCache removes all cached audio files
func (p *OpenAISpeaker) ClearCache() error {
	if p.cacheDir == "" {
		return nil
	}
	return os.RemoveAll(p.cacheDir)
}

// GetCacheStats returns cache statistics
func (p *OpenAISpeaker) GetCacheStats() (fileCount int, totalSize int64, err error) {
	if !p.enableCache {
		return 0, 0, nil
	}

	err = filepath.Walk(p.cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})

	return fileCount, totalSize, err
}
