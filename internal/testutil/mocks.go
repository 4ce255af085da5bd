package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MockTranslator is a scriptable translator. A text listed in Gates
// blocks until its channel is closed or the context ends.
type MockTranslator struct {
	Translations map[string]string
	Errors       map[string]error
	Gates        map[string]chan struct{}

	mu    sync.Mutex
	calls []string
}

// NewMockTranslator creates an empty MockTranslator
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{
		Translations: make(map[string]string),
		Errors:       make(map[string]error),
		Gates:        make(map[string]chan struct{}),
	}
}

// Translate mocks translating text
func (m *MockTranslator) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, fmt.Sprintf("Translate: %s (%s->%s)", text, fromLang, toLang))
	gate := m.Gates[text]
	err, failing := m.Errors[text]
	translation, known := m.Translations[text]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if failing {
		return "", err
	}
	if known {
		return translation, nil
	}
	return fmt.Sprintf("mock translation of %s", text), nil
}

// Name returns the provider name
func (m *MockTranslator) Name() string {
	return "mock-translator"
}

// Calls returns the recorded calls
func (m *MockTranslator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockSpeaker is a scriptable speech provider. Languages missing from
// Voices produce an empty result, like a provider without a voice.
type MockSpeaker struct {
	Voices map[string]bool
	Errors map[string]error

	mu    sync.Mutex
	calls []string
}

// NewMockSpeaker creates a speaker with voices for the given languages
func NewMockSpeaker(languages ...string) *MockSpeaker {
	voices := make(map[string]bool)
	for _, l := range languages {
		voices[l] = true
	}
	return &MockSpeaker{Voices: voices, Errors: make(map[string]error)}
}

// Speak mocks speech synthesis
func (m *MockSpeaker) Speak(ctx context.Context, text, language string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, fmt.Sprintf("Speak: %s (%s)", text, language))
	err, failing := m.Errors[text]
	hasVoice := m.Voices[language]
	m.mu.Unlock()

	if failing {
		return nil, err
	}
	if !hasVoice {
		return nil, nil
	}
	return GenerateAudioData(), nil
}

// Name returns the provider name
func (m *MockSpeaker) Name() string {
	return "mock-speaker"
}

// Calls returns the recorded calls
func (m *MockSpeaker) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// GenerateAudioData generates mock audio data
func GenerateAudioData() []byte {
	// Simple mock MP3 header
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}
