package audio

import (
	"context"
	"sync"
)

// ESpeakSpeaker implements Speaker with espeak-ng. The voice is the
// language code itself when espeak-ng lists it.
type ESpeakSpeaker struct {
	espeak *ESpeak

	mu     sync.Mutex
	loaded bool
	voices map[string]bool
	err    error
}

// NewESpeakSpeaker creates a new espeak-ng speaker
func NewESpeakSpeaker(config *Config) (*ESpeakSpeaker, error) {
	ecfg := DefaultConfig()
	if config != nil {
		if config.ESpeakBinary != "" {
			ecfg.Binary = config.ESpeakBinary
		}
		if config.ESpeakSpeed > 0 {
			ecfg.Speed = config.ESpeakSpeed
		}
	}

	espeak, err := New(ecfg)
	if err != nil {
		return nil, err
	}
	espeak.SetSpeed(ecfg.Speed)

	return &ESpeakSpeaker{espeak: espeak}, nil
}

// HasVoice reports whether espeak-ng can speak language. The voice list
// is read once; a read cut short by ctx is retried on the next call.
func (p *ESpeakSpeaker) HasVoice(ctx context.Context, language string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		voices, err := p.espeak.Voices(ctx)
		if err != nil && ctx.Err() != nil {
			return false, err
		}
		p.voices, p.err, p.loaded = voices, err, true
	}
	if p.err != nil {
		return false, p.err
	}
	return p.voices[language], nil
}

// Speak generates WAV audio using espeak-ng
func (p *ESpeakSpeaker) Speak(ctx context.Context, text, language string) ([]byte, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	ok, err := p.HasVoice(ctx, language)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return p.espeak.Synthesize(ctx, language, text)
}

// Name returns the provider name
func (p *ESpeakSpeaker) Name() string {
	return "espeak-ng"
}
