package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	SegmentsDir string
	Order       string
	Console     bool
	Verbose     bool
	ExportAnki  string
	DeckName    string
	Archive     bool
	ListModels  bool

	// Segment metadata defaults
	DefaultLanguage string
	DetectLanguage  bool

	// Lookup flags
	TargetLanguage  string
	Translator      string
	TranslatorModel string
	Speech          string
	Timeout         time.Duration
	NoHistory       bool
	HistoryFile     string

	// Player flags
	PlayerCommand string

	// OpenAI speech flags
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Order:          "random",
		DeckName:       "ClipRecall Vocabulary",
		DetectLanguage: true,
		TargetLanguage: "en",
		Translator:     "openai",
		Speech:         "openai",
		Timeout:        15 * time.Second,
		OpenAIModel:    "gpt-4o-mini-tts",
		OpenAIVoice:    "alloy",
		OpenAISpeed:    1.0,
	}
}
