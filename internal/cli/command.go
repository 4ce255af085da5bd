package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/cliprecall/internal"
)

// DefaultSegmentsDir returns ~/.flashcard/segments
func DefaultSegmentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "segments"
	}
	return filepath.Join(home, ".flashcard", "segments")
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cliprecall [segments-dir]",
		Short: "Subtitle clip review for language learners",
		Long: `cliprecall reviews a directory of subtitled video clips.

Each clip plays in an external media player while its subtitle is shown
as clickable words. Clicking a word translates it (OpenAI or Gemini) and
speaks it (OpenAI TTS or espeak-ng). Move on with next, or delete a clip
you have learned for good.

Examples:
  cliprecall                          # Review ~/.flashcard/segments in the GUI
  cliprecall ~/clips/french           # Review another directory
  cliprecall --console --order insertion
  cliprecall --export-anki words.csv  # Export looked-up words for Anki
  cliprecall --export-anki words.apkg --deck-name French`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.cliprecall.yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	// Local flags
	cmd.Flags().StringVarP(&flags.SegmentsDir, "segments", "s", DefaultSegmentsDir(), "Segment directory")
	cmd.Flags().StringVar(&flags.Order, "order", flags.Order, "Segment order: random or insertion")
	cmd.Flags().BoolVar(&flags.Console, "console", false, "Use the console instead of the GUI")
	cmd.Flags().StringVar(&flags.ExportAnki, "export-anki", "", "Export looked-up words to this file and exit (.apkg: Anki package, otherwise CSV)")
	cmd.Flags().StringVar(&flags.DeckName, "deck-name", flags.DeckName, "Deck name for APKG export")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move the segment directory aside and exit")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")

	cmd.Flags().StringVar(&flags.DefaultLanguage, "default-language", "", "Language of segments without one (empty: detect only)")
	cmd.Flags().BoolVar(&flags.DetectLanguage, "detect-language", flags.DetectLanguage, "Detect the language of segments without one")

	// Lookup flags
	cmd.Flags().StringVarP(&flags.TargetLanguage, "target-language", "t", flags.TargetLanguage, "Language words are translated into")
	cmd.Flags().StringVar(&flags.Translator, "translator", flags.Translator, "Translation provider: openai or gemini")
	cmd.Flags().StringVar(&flags.TranslatorModel, "translator-model", "", "Model used for translation (provider default if empty)")
	cmd.Flags().StringVar(&flags.Speech, "speech", flags.Speech, "Speech provider: openai, espeak or none")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout of a single translation or speech request")
	cmd.Flags().BoolVar(&flags.NoHistory, "no-history", false, "Do not record looked-up words")
	cmd.Flags().StringVar(&flags.HistoryFile, "history", "", "History database (default is ~/.local/state/cliprecall/history.db)")

	// Player flags
	cmd.Flags().StringVar(&flags.PlayerCommand, "player", "", "Media player command, {file} and {rate} are replaced (default: mpv, ffplay or vlc)")

	// OpenAI speech flags
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")
	cmd.Flags().StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts, %s is replaced by the language name")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("log.verbose", cmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("segments.directory", cmd.Flags().Lookup("segments"))
	viper.BindPFlag("segments.order", cmd.Flags().Lookup("order"))
	viper.BindPFlag("segments.default_language", cmd.Flags().Lookup("default-language"))
	viper.BindPFlag("segments.detect_language", cmd.Flags().Lookup("detect-language"))
	viper.BindPFlag("lookup.target_language", cmd.Flags().Lookup("target-language"))
	viper.BindPFlag("lookup.translator", cmd.Flags().Lookup("translator"))
	viper.BindPFlag("lookup.translator_model", cmd.Flags().Lookup("translator-model"))
	viper.BindPFlag("lookup.speech", cmd.Flags().Lookup("speech"))
	viper.BindPFlag("lookup.timeout", cmd.Flags().Lookup("timeout"))
	viper.BindPFlag("history.disabled", cmd.Flags().Lookup("no-history"))
	viper.BindPFlag("history.file", cmd.Flags().Lookup("history"))
	viper.BindPFlag("player.command", cmd.Flags().Lookup("player"))
	viper.BindPFlag("audio.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("audio.openai_voice", cmd.Flags().Lookup("openai-voice"))
	viper.BindPFlag("audio.openai_speed", cmd.Flags().Lookup("openai-speed"))
	viper.BindPFlag("audio.openai_instruction", cmd.Flags().Lookup("openai-instruction"))
}

// InitConfig initializes viper configuration. A .env file in the working
// directory is loaded into the environment first.
func InitConfig(cfgFile string) {
	// Existing environment variables win over .env
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".cliprecall" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cliprecall")
	}

	// Environment variables: CLIPRECALL_LOOKUP_TRANSLATOR -> lookup.translator
	viper.SetEnvPrefix("CLIPRECALL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("audio.cache", true)
	viper.SetDefault("audio.espeak_fallback", true)
	viper.SetDefault("audio.voices", map[string]string{})
	viper.SetDefault("lookup.breaker_failures", 3)
	viper.SetDefault("lookup.breaker_cooldown", "30s")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("lookup.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("lookup.gemini_key")
}
