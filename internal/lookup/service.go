package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"codeberg.org/snonux/cliprecall/internal/logger"
	"codeberg.org/snonux/cliprecall/internal/translation"
)

// Config tunes the protection wrapped around the providers
type Config struct {
	// Timeout bounds every provider call
	Timeout time.Duration

	// BreakerFailures is the number of consecutive failures that opens a
	// provider's circuit breaker
	BreakerFailures uint32

	// BreakerCooldown is how long an open breaker rejects calls before it
	// lets a probe through
	BreakerCooldown time.Duration
}

// DefaultConfig returns the default service configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         15 * time.Second,
		BreakerFailures: 3,
		BreakerCooldown: 30 * time.Second,
	}
}

// Service guards one translator and an optional speaker with a timeout,
// a circuit breaker per provider, request deduplication and a
// translation cache.
type Service struct {
	translator Translator
	speaker    Speaker
	cfg        Config

	translateCB *gobreaker.CircuitBreaker
	speakCB     *gobreaker.CircuitBreaker
	group       singleflight.Group
	cache       *translation.Cache
	log         *logger.Logger
}

// NewService creates a lookup service. speaker may be nil.
func NewService(translator Translator, speaker Speaker, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaults.BreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaults.BreakerCooldown
	}

	s := &Service{
		translator: translator,
		speaker:    speaker,
		cfg:        cfg,
		cache:      translation.NewCache(),
		log:        logger.Default().With("lookup"),
	}

	s.translateCB = s.newBreaker("translate:" + translator.Name())
	if speaker != nil {
		s.speakCB = s.newBreaker("speak:" + speaker.Name())
	}
	return s
}

func (s *Service) newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a provider failure
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
}

// HasSpeech reports whether a speech provider is configured
func (s *Service) HasSpeech() bool {
	return s.speaker != nil
}

// Translate translates text from sourceLang to targetLang
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	key := sourceLang + "|" + targetLang + "|" + text
	if cached, ok := s.cache.Get(key); ok {
		s.log.Debug("translation cache hit for %q", text)
		return cached, nil
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()

		return s.translateCB.Execute(func() (interface{}, error) {
			out, err := s.translator.Translate(callCtx, text, sourceLang, targetLang)
			if err != nil {
				return nil, err
			}
			out = strings.TrimSpace(out)
			if out == "" {
				return nil, fmt.Errorf("empty translation")
			}
			return out, nil
		})
	})
	if shared {
		s.log.Debug("translation of %q shared with a concurrent request", text)
	}
	if err != nil {
		return "", &UnavailableError{Op: "translate", Provider: s.translator.Name(), Err: err}
	}

	out := v.(string)
	s.cache.Add(key, out)
	return out, nil
}

// Speak synthesizes text. It returns (nil, nil) when no speech provider
// is configured or the provider has no voice for the language.
func (s *Service) Speak(ctx context.Context, text, language string) ([]byte, error) {
	if s.speaker == nil {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	v, err := s.speakCB.Execute(func() (interface{}, error) {
		return s.speaker.Speak(callCtx, text, language)
	})
	if err != nil {
		return nil, &UnavailableError{Op: "speak", Provider: s.speaker.Name(), Err: err}
	}

	audio, _ := v.([]byte)
	return audio, nil
}
