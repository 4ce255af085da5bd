package audio

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
)

// maxSpeechRunes bounds the text sent to a speech provider
const maxSpeechRunes = 200

// ValidateText checks that text is worth synthesizing: non-empty, not
// too long and containing at least one letter
func ValidateText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if len([]rune(text)) > maxSpeechRunes {
		return fmt.Errorf("text too long for speech: %d characters", len([]rune(text)))
	}

	for _, r := range text {
		if unicode.IsLetter(r) {
			return nil
		}
	}
	return fmt.Errorf("text must contain letters")
}

// Extension returns the file extension matching the encoded audio
func Extension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return ".wav"
	case bytes.HasPrefix(data, []byte("OggS")):
		return ".ogg"
	default:
		return ".mp3"
	}
}
