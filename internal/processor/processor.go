package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/snonux/cliprecall/internal"
	"codeberg.org/snonux/cliprecall/internal/anki"
	"codeberg.org/snonux/cliprecall/internal/archive"
	"codeberg.org/snonux/cliprecall/internal/audio"
	"codeberg.org/snonux/cliprecall/internal/cli"
	"codeberg.org/snonux/cliprecall/internal/console"
	"codeberg.org/snonux/cliprecall/internal/gui"
	"codeberg.org/snonux/cliprecall/internal/history"
	"codeberg.org/snonux/cliprecall/internal/logger"
	"codeberg.org/snonux/cliprecall/internal/lookup"
	"codeberg.org/snonux/cliprecall/internal/models"
	"codeberg.org/snonux/cliprecall/internal/player"
	"codeberg.org/snonux/cliprecall/internal/segment"
	"codeberg.org/snonux/cliprecall/internal/session"
	"codeberg.org/snonux/cliprecall/internal/translation"
)

// Processor runs the mode selected by the flags
type Processor struct {
	flags  *cli.Flags
	config cli.Config
	in     io.Reader
	out    io.Writer
	log    *logger.Logger
}

// NewProcessor creates a processor and applies the configured log level
func NewProcessor(flags *cli.Flags, config cli.Config) *Processor {
	logger.SetLevel(logger.ParseLevel(config.LogLevel))
	return &Processor{
		flags:  flags,
		config: config,
		in:     os.Stdin,
		out:    os.Stdout,
		log:    logger.Default().With("processor"),
	}
}

// Run runs the selected mode
func (p *Processor) Run(ctx context.Context) error {
	switch {
	case p.flags.Archive:
		return p.Archive()
	case p.flags.ListModels:
		return p.ListModels(ctx)
	case p.flags.ExportAnki != "":
		return p.ExportAnki(ctx, p.flags.ExportAnki)
	case p.flags.Console:
		return p.RunConsoleMode(ctx)
	default:
		return p.RunGUIMode()
	}
}

// Archive moves the segment directory aside
func (p *Processor) Archive() error {
	path, err := archive.ArchiveSegments(p.config.SegmentsDir)
	if err != nil {
		return fmt.Errorf("failed to archive segments: %w", err)
	}
	fmt.Fprintf(p.out, "Segments directory archived to: %s\n", path)
	return nil
}

// ListModels prints the OpenAI models available with the configured key
func (p *Processor) ListModels(ctx context.Context) error {
	return models.NewLister(p.config.OpenAIKey, p.config.OpenAIBaseURL).ListAvailableModels(ctx, p.out)
}

// ExportAnki writes the looked-up words to path, as an Anki package when
// path ends in .apkg and as CSV otherwise. An existing directory receives
// a package named after the deck.
func (p *Processor) ExportAnki(ctx context.Context, path string) error {
	store, err := history.Open(p.historyPath())
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Words(ctx)
	if err != nil {
		return fmt.Errorf("failed to read lookup history: %w", err)
	}
	lookups, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to read lookup history: %w", err)
	}

	deck := p.flags.DeckName
	if deck == "" {
		deck = cli.NewFlags().DeckName
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, internal.SanitizeFilename(deck)+".apkg")
	}

	cards := anki.CardsFromEntries(entries)
	if err := anki.Export(cards, path, deck); err != nil {
		return fmt.Errorf("failed to export Anki cards: %w", err)
	}
	fmt.Fprintf(p.out, "Exported %d card(s) from %d lookup(s) to %s\n", len(cards), lookups, path)
	return nil
}

// RunConsoleMode reviews the segments in the terminal
func (p *Processor) RunConsoleMode(ctx context.Context) error {
	s, err := p.NewSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	mp := player.New(p.config.PlayerCommand)
	defer mp.Stop()

	c := console.New(s, mp, p.in, p.out, console.Options{AutoPlay: true, History: s})
	return c.Run(ctx)
}

// RunGUIMode reviews the segments in the GUI
func (p *Processor) RunGUIMode() error {
	// Log lines are shown in the window; components capture the output
	// when they are created
	logs := gui.NewLogWriter(os.Stderr)
	logger.SetOutput(logs)
	defer logger.SetOutput(os.Stderr)

	s, err := p.NewSession(context.Background())
	if err != nil {
		return err
	}
	defer s.Close()

	mp := player.New(p.config.PlayerCommand)
	defer mp.Stop()

	app := gui.New(s, mp, &gui.Config{
		AutoPlay:   true,
		SpeakWords: true,
		Speech:     s.HasSpeech(),
		Logs:       logs,
	})
	app.Run()
	return nil
}

// Session is a controller together with the resources it holds
type Session struct {
	*session.Controller
	history *history.Store
	speech  bool

	closeOnce sync.Once
	closeErr  error
}

// HasSpeech reports whether word lookups can produce audio
func (s *Session) HasSpeech() bool {
	return s.speech
}

// Recent returns up to limit recorded lookups, newest first. Without a
// history it returns nothing.
func (s *Session) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(ctx, limit)
}

// Close closes the controller and the lookup history. Calling it again
// returns the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Controller.Close()
		if s.history != nil {
			if err := s.history.Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
	})
	return s.closeErr
}

// NewSession builds the session controller from the configuration
func (p *Processor) NewSession(ctx context.Context) (*Session, error) {
	order, err := session.ParseOrder(p.config.Order)
	if err != nil {
		return nil, err
	}

	translator, err := p.newTranslator(ctx)
	if err != nil {
		return nil, err
	}

	speaker, err := p.newSpeaker()
	if err != nil {
		return nil, err
	}

	service := lookup.NewService(translator, speaker, lookup.Config{
		Timeout:         p.config.Timeout,
		BreakerFailures: uint32(max(p.config.BreakerFailures, 0)),
		BreakerCooldown: p.config.BreakerCooldown,
	})

	store := segment.NewStore(p.config.SegmentsDir, segment.Options{
		DefaultLanguage: p.config.DefaultLanguage,
		DetectLanguage:  p.config.DetectLanguage,
	})

	s := &Session{speech: service.HasSpeech()}
	opts := session.Options{
		Order:          order,
		TargetLanguage: p.config.TargetLanguage,
	}
	if !p.config.HistoryDisabled {
		h, err := history.Open(p.historyPath())
		if err != nil {
			// History is optional; reviewing works without it
			p.log.Warn("Lookup history disabled: %v", err)
		} else {
			s.history = h
			opts.Recorder = h
		}
	}

	s.Controller = session.New(store, service, opts)
	p.log.Info("Reviewing %s (translator %s, speech %s)", p.config.SegmentsDir, translator.Name(), speakerName(speaker))
	return s, nil
}

func (p *Processor) newTranslator(ctx context.Context) (lookup.Translator, error) {
	switch p.config.Translator {
	case "openai", "":
		if p.config.OpenAIKey == "" {
			p.log.Warn("OpenAI API key not found, word lookups will fail")
		}
		return translation.NewOpenAITranslator(p.config.OpenAIKey, p.config.TranslatorModel, p.config.OpenAIBaseURL), nil
	case "gemini":
		t, err := translation.NewGeminiTranslator(ctx, p.config.GeminiKey, p.config.TranslatorModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini translator: %w", err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown translator: %s", p.config.Translator)
	}
}

func (p *Processor) newSpeaker() (lookup.Speaker, error) {
	config := audio.DefaultProviderConfig()
	config.Provider = p.config.Speech
	config.ESpeakFallback = p.config.ESpeakFallback
	config.OpenAIKey = p.config.OpenAIKey
	config.OpenAIBaseURL = p.config.OpenAIBaseURL
	config.Voices = p.config.Voices
	config.EnableCache = p.config.AudioCache
	config.CacheDir = p.config.AudioCacheDir
	if p.config.OpenAIModel != "" {
		config.OpenAIModel = p.config.OpenAIModel
	}
	if p.config.OpenAIVoice != "" {
		config.OpenAIVoice = p.config.OpenAIVoice
	}
	if p.config.OpenAISpeed > 0 {
		config.OpenAISpeed = p.config.OpenAISpeed
	}
	if p.config.OpenAIInstruction != "" {
		config.OpenAIInstruction = p.config.OpenAIInstruction
	}

	if config.Provider == "openai" && config.OpenAIKey == "" {
		p.log.Warn("OpenAI API key not found, using espeak-ng for speech")
		config.Provider = "espeak"
	}

	speaker, err := audio.NewSpeaker(config)
	if err != nil {
		if p.config.Speech == "openai" {
			// No key and no espeak-ng: review without speech
			p.log.Warn("Speech disabled: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create speech provider: %w", err)
	}
	if speaker == nil {
		return nil, nil
	}
	return speaker, nil
}

func (p *Processor) historyPath() string {
	if p.config.HistoryFile != "" {
		return p.config.HistoryFile
	}
	return history.DefaultPath()
}

func speakerName(s lookup.Speaker) string {
	if s == nil {
		return "none"
	}
	return s.Name()
}
