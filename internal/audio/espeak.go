package audio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ESpeakConfig holds configuration for espeak-ng speech
type ESpeakConfig struct {
	Binary    string // espeak-ng executable
	Speed     int    // Speech speed in words per minute (default: 150)
	Pitch     int    // Pitch adjustment, 0 to 99 (default: 50)
	Amplitude int    // Volume/amplitude, 0 to 200 (default: 100)
	WordGap   int    // Gap between words in 10ms units (default: 0)
}

// DefaultConfig returns the default espeak-ng configuration
func DefaultConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Binary:    "espeak-ng",
		Speed:     150,
		Pitch:     50,
		Amplitude: 100,
		WordGap:   0,
	}
}

// ESpeak provides an interface to the espeak-ng text-to-speech engine
type ESpeak struct {
	config *ESpeakConfig
}

// New creates a new ESpeak instance with the given configuration
func New(config *ESpeakConfig) (*ESpeak, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Binary == "" {
		config.Binary = "espeak-ng"
	}

	// Check if espeak-ng is installed
	if err := checkESpeakInstalled(config.Binary); err != nil {
		return nil, err
	}

	return &ESpeak{config: config}, nil
}

// args builds the espeak-ng arguments writing WAV data to stdout
func (e *ESpeak) args(voice, text string) []string {
	args := []string{
		"-v", voice,
		"-s", fmt.Sprintf("%d", e.config.Speed),
		"-p", fmt.Sprintf("%d", e.config.Pitch),
		"-a", fmt.Sprintf("%d", e.config.Amplitude),
	}

	// Add word gap if specified
	if e.config.WordGap > 0 {
		args = append(args, "-g", fmt.Sprintf("%d", e.config.WordGap))
	}

	return append(args, "--stdout", text)
}

// Synthesize returns WAV audio for text spoken with voice
func (e *ESpeak) Synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.Binary, e.args(voice, text)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("espeak-ng produced no audio")
	}

	return stdout.Bytes(), nil
}

// Voices returns the language codes espeak-ng has voices for
func (e *ESpeak) Voices(ctx context.Context) (map[string]bool, error) {
	out, err := exec.CommandContext(ctx, e.config.Binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list espeak-ng voices: %w", err)
	}
	return parseVoices(out), nil
}

// parseVoices parses `espeak-ng --voices` output. The language code is
// the second column; regional variants also register their base code.
func parseVoices(out []byte) map[string]bool {
	voices := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] == "Pty" {
			continue
		}
		code := strings.ToLower(fields[1])
		voices[code] = true
		if base, _, ok := strings.Cut(code, "-"); ok {
			voices[base] = true
		}
	}
	return voices
}

// SetSpeed updates the speech speed
func (e *ESpeak) SetSpeed(speed int) {
	if speed < 80 {
		speed = 80
	} else if speed > 450 {
		speed = 450
	}
	e.config.Speed = speed
}

// SetPitch updates the pitch (0-99, 50 is default)
func (e *ESpeak) SetPitch(pitch int) {
	if pitch < 0 {
		pitch = 0
	} else if pitch > 99 {
		pitch = 99
	}
	e.config.Pitch = pitch
}

// SetAmplitude updates the volume/amplitude (0-200, 100 is default)
func (e *ESpeak) SetAmplitude(amplitude int) {
	if amplitude < 0 {
		amplitude = 0
	} else if amplitude > 200 {
		amplitude = 200
	}
	e.config.Amplitude = amplitude
}

// SetWordGap updates the gap between words in 10ms units
func (e *ESpeak) SetWordGap(gap int) {
	if gap < 0 {
		gap = 0
	}
	e.config.WordGap = gap
}

// checkESpeakInstalled verifies that espeak-ng is available on the system
func checkESpeakInstalled(binary string) error {
	cmd := exec.Command(binary, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}
