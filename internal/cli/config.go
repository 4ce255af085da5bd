package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved configuration: flags override environment
// variables, which override the config file, which overrides defaults.
type Config struct {
	SegmentsDir     string
	Order           string
	DefaultLanguage string
	DetectLanguage  bool

	TargetLanguage  string
	Translator      string
	TranslatorModel string
	Speech          string
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
	OpenAIKey       string
	OpenAIBaseURL   string
	GeminiKey       string

	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string
	Voices            map[string]string
	AudioCache        bool
	AudioCacheDir     string
	ESpeakFallback    bool

	HistoryDisabled bool
	HistoryFile     string

	PlayerCommand string
	LogLevel      string
}

// LoadConfig resolves the configuration. A positional argument replaces
// the segment directory.
func LoadConfig(args []string) Config {
	cfg := Config{
		SegmentsDir:     expandHome(viper.GetString("segments.directory")),
		Order:           strings.ToLower(viper.GetString("segments.order")),
		DefaultLanguage: viper.GetString("segments.default_language"),
		DetectLanguage:  viper.GetBool("segments.detect_language"),

		TargetLanguage:  viper.GetString("lookup.target_language"),
		Translator:      strings.ToLower(viper.GetString("lookup.translator")),
		TranslatorModel: viper.GetString("lookup.translator_model"),
		Speech:          strings.ToLower(viper.GetString("lookup.speech")),
		Timeout:         viper.GetDuration("lookup.timeout"),
		BreakerFailures: viper.GetInt("lookup.breaker_failures"),
		BreakerCooldown: viper.GetDuration("lookup.breaker_cooldown"),
		OpenAIKey:       GetOpenAIKey(),
		OpenAIBaseURL:   viper.GetString("lookup.openai_base_url"),
		GeminiKey:       GetGeminiKey(),

		OpenAIModel:       viper.GetString("audio.openai_model"),
		OpenAIVoice:       viper.GetString("audio.openai_voice"),
		OpenAISpeed:       viper.GetFloat64("audio.openai_speed"),
		OpenAIInstruction: viper.GetString("audio.openai_instruction"),
		Voices:            viper.GetStringMapString("audio.voices"),
		AudioCache:        viper.GetBool("audio.cache"),
		AudioCacheDir:     expandHome(viper.GetString("audio.cache_dir")),
		ESpeakFallback:    viper.GetBool("audio.espeak_fallback"),

		HistoryDisabled: viper.GetBool("history.disabled"),
		HistoryFile:     expandHome(viper.GetString("history.file")),

		PlayerCommand: viper.GetString("player.command"),
		LogLevel:      viper.GetString("log.level"),
	}

	if len(args) > 0 && args[0] != "" {
		cfg.SegmentsDir = expandHome(args[0])
	}
	if cfg.SegmentsDir == "" {
		cfg.SegmentsDir = DefaultSegmentsDir()
	}
	if cfg.AudioCacheDir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cfg.AudioCacheDir = filepath.Join(dir, "cliprecall", "audio")
		}
	}
	if viper.GetBool("log.verbose") {
		cfg.LogLevel = "debug"
	}
	return cfg
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
