package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// resetViper restores the global viper instance after a test
func resetViper(t *testing.T) {
	t.Helper()
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	t.Cleanup(func() {
		*viper.GetViper() = *originalConfig
	})
	viper.Reset()
}

func TestCreateRootCommand(t *testing.T) {
	resetViper(t)

	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	// Test basic command properties
	if cmd.Use != "cliprecall [segments-dir]" {
		t.Errorf("Expected Use to be 'cliprecall [segments-dir]', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "clip review") {
		t.Errorf("Expected Short description to mention clip review, got %q", cmd.Short)
	}

	// Test that flags are set up
	flagNames := []string{
		"config", "verbose", "segments", "order", "console", "export-anki", "deck-name",
		"archive", "list-models", "default-language", "detect-language",
		"target-language", "translator", "translator-model", "speech",
		"timeout", "no-history", "history", "player", "openai-model",
		"openai-voice", "openai-speed", "openai-instruction",
	}

	for _, name := range flagNames {
		t.Run("flag_"+name, func(t *testing.T) {
			var flag *pflag.Flag
			if name == "config" || name == "verbose" {
				flag = cmd.PersistentFlags().Lookup(name)
			} else {
				flag = cmd.Flags().Lookup(name)
			}
			if flag == nil {
				t.Errorf("Expected flag %s to exist", name)
			}
		})
	}

	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Error("Expected error for two positional arguments")
	}
}

func TestSetupFlags(t *testing.T) {
	resetViper(t)

	cmd := &cobra.Command{}
	setupFlags(cmd, NewFlags())

	segmentsFlag := cmd.Flags().Lookup("segments")
	if segmentsFlag == nil {
		t.Fatal("segments flag not found")
	}

	home, _ := os.UserHomeDir()
	expectedDefault := filepath.Join(home, ".flashcard", "segments")
	if segmentsFlag.DefValue != expectedDefault {
		t.Errorf("Expected default segments dir to be %s, got %s", expectedDefault, segmentsFlag.DefValue)
	}

	orderFlag := cmd.Flags().Lookup("order")
	if orderFlag == nil || orderFlag.DefValue != "random" {
		t.Errorf("Expected default order random, got %v", orderFlag)
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
	}{
		{
			name: "with config file",
			setupFunc: func(t *testing.T) string {
				cfgPath := filepath.Join(t.TempDir(), "test-config.yaml")
				content := `lookup:
  translator: gemini
  gemini_key: test-key
segments:
  directory: /test/segments`
				if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
				return cfgPath
			},
		},
		{
			name: "without config file",
			setupFunc: func(t *testing.T) string {
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)

			cfgPath := tt.setupFunc(t)
			InitConfig(cfgPath)

			// Test environment variable prefix
			t.Setenv("CLIPRECALL_TEST_VAR", "test-value")
			if viper.GetString("test_var") != "test-value" {
				t.Error("Environment variable not properly loaded")
			}

			// Nested keys map to underscores
			t.Setenv("CLIPRECALL_PLAYER_COMMAND", "mpv --fs")
			if viper.GetString("player.command") != "mpv --fs" {
				t.Errorf("player.command = %q", viper.GetString("player.command"))
			}

			if cfgPath != "" && viper.GetString("lookup.translator") != "gemini" {
				t.Errorf("lookup.translator = %q, want gemini", viper.GetString("lookup.translator"))
			}
		})
	}
}

func TestInitConfig_DotEnv(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CLIPRECALL_LOOKUP_SPEECH=espeak\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Chdir(wd)
		os.Unsetenv("CLIPRECALL_LOOKUP_SPEECH")
	})

	InitConfig("")

	if viper.GetString("lookup.speech") != "espeak" {
		t.Errorf("lookup.speech = %q, want espeak from .env", viper.GetString("lookup.speech"))
	}
}

func TestGetOpenAIKey(t *testing.T) {
	tests := []struct {
		name      string
		envKey    string
		configKey string
		expected  string
	}{
		{
			name:      "from environment",
			envKey:    "env-test-key",
			configKey: "config-test-key",
			expected:  "env-test-key",
		},
		{
			name:      "from config when no env",
			envKey:    "",
			configKey: "config-test-key",
			expected:  "config-test-key",
		},
		{
			name:      "empty when neither set",
			envKey:    "",
			configKey: "",
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)

			// Set up environment
			t.Setenv("OPENAI_API_KEY", tt.envKey)

			// Set up config
			if tt.configKey != "" {
				viper.Set("lookup.openai_key", tt.configKey)
			}

			got := GetOpenAIKey()
			if got != tt.expected {
				t.Errorf("GetOpenAIKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetGeminiKey(t *testing.T) {
	resetViper(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	if got := GetGeminiKey(); got != "google-key" {
		t.Errorf("GetGeminiKey() = %q, want google-key", got)
	}

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	if got := GetGeminiKey(); got != "gemini-key" {
		t.Errorf("GetGeminiKey() = %q, want gemini-key", got)
	}

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	viper.Set("lookup.gemini_key", "config-key")
	if got := GetGeminiKey(); got != "config-key" {
		t.Errorf("GetGeminiKey() = %q, want config-key", got)
	}
}

func TestBindFlagsToViper(t *testing.T) {
	resetViper(t)

	cmd := &cobra.Command{}
	setupFlags(cmd, NewFlags())

	// Set some flag values
	cmd.Flags().Set("segments", "/test/segments")
	cmd.Flags().Set("order", "insertion")
	cmd.Flags().Set("timeout", "3s")
	cmd.Flags().Set("openai-model", "tts-1-hd")

	// Test that values are bound
	if viper.GetString("segments.directory") != "/test/segments" {
		t.Errorf("Expected segments.directory to be /test/segments, got %s", viper.GetString("segments.directory"))
	}
	if viper.GetString("segments.order") != "insertion" {
		t.Errorf("Expected segments.order to be insertion, got %s", viper.GetString("segments.order"))
	}
	if viper.GetDuration("lookup.timeout") != 3*time.Second {
		t.Errorf("Expected lookup.timeout to be 3s, got %s", viper.GetDuration("lookup.timeout"))
	}
	if viper.GetString("audio.openai_model") != "tts-1-hd" {
		t.Errorf("Expected audio.openai_model to be tts-1-hd, got %s", viper.GetString("audio.openai_model"))
	}
}
