// Package audio synthesizes speech for looked-up words. Speakers return
// the encoded audio as bytes; a speaker without a voice for a language
// returns (nil, nil).
package audio

import (
	"context"
	"fmt"

	"codeberg.org/snonux/cliprecall/internal/logger"
)

// Speaker synthesizes speech for text in a language
type Speaker interface {
	// Speak returns the encoded audio, or nil when there is no voice for
	// the language
	Speak(ctx context.Context, text, language string) ([]byte, error)

	// Name returns the provider name
	Name() string
}

// Config holds common configuration for speech providers
type Config struct {
	Provider string // "openai", "espeak" or "none"

	// Fallback to espeak-ng when the primary provider fails
	ESpeakFallback bool

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string            // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string            // default voice, e.g. "alloy" or "nova"
	OpenAISpeed       float64           // 0.25 to 4.0
	OpenAIInstruction string            // voice instructions for gpt-4o-mini-tts; %s is the language name
	Voices            map[string]string // per-language voice overrides

	// Disk cache for synthesized audio
	CacheDir    string
	EnableCache bool

	// espeak-ng settings
	ESpeakBinary string
	ESpeakSpeed  int
}

// DefaultProviderConfig returns the default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:          "openai",
		OpenAIModel:       "gpt-4o-mini-tts",
		OpenAIVoice:       "alloy",
		OpenAISpeed:       1.0,
		OpenAIInstruction: "You are speaking %s. Pronounce the word with authentic native phonetics. Speak slowly and clearly for language learners.",
		ESpeakBinary:      "espeak-ng",
		ESpeakSpeed:       150,
	}
}

// NewSpeaker creates the speaker selected by config. It returns a nil
// Speaker for the "none" provider.
func NewSpeaker(config *Config) (Speaker, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "openai":
		primary, err := NewOpenAISpeaker(config)
		if err != nil {
			return nil, err
		}
		if !config.ESpeakFallback {
			return primary, nil
		}
		fallback, err := NewESpeakSpeaker(config)
		if err != nil {
			logger.Warn("espeak-ng fallback disabled: %v", err)
			return primary, nil
		}
		return NewSpeakerWithFallback(primary, fallback), nil

	case "espeak", "espeak-ng":
		speaker, err := NewESpeakSpeaker(config)
		if err != nil {
			return nil, err
		}
		return speaker, nil

	case "none", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown speech provider: %s", config.Provider)
	}
}

// SpeakerWithFallback wraps a primary speaker with a fallback option
type SpeakerWithFallback struct {
	primary  Speaker
	fallback Speaker
}

// NewSpeakerWithFallback creates a speaker that falls back to secondary
// if primary fails or has no voice for the language
func NewSpeakerWithFallback(primary, fallback Speaker) Speaker {
	return &SpeakerWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

// Speak tries the primary speaker first, falls back to the secondary
func (p *SpeakerWithFallback) Speak(ctx context.Context, text, language string) ([]byte, error) {
	data, err := p.primary.Speak(ctx, text, language)
	if err == nil && data != nil {
		return data, nil
	}
	if err != nil {
		logger.Warn("Primary speaker (%s) failed: %v. Falling back to %s",
			p.primary.Name(), err, p.fallback.Name())
	}

	data, fbErr := p.fallback.Speak(ctx, text, language)
	if fbErr != nil {
		if err != nil {
			return nil, fmt.Errorf("both speakers failed: primary=%v, fallback=%w", err, fbErr)
		}
		return nil, fbErr
	}
	if data == nil && err != nil {
		return nil, err
	}
	return data, nil
}

// Name returns the provider name
func (p *SpeakerWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}
