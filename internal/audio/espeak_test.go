package audio

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const voicesOutput = `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  bg              --/M      Bulgarian          zls/bg
 5  en-gb           --/M      English_(Great_Britain) gmw/en            (en 2)
 5  fr-fr           --/M      French_(France)    roa/fr               (fr 5)
`

// fakeESpeak writes a stand-in espeak-ng executable and returns its path
func fakeESpeak(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake espeak-ng needs a POSIX shell")
	}

	dir := t.TempDir()
	voices := filepath.Join(dir, "voices.txt")
	if err := os.WriteFile(voices, []byte(voicesOutput), 0644); err != nil {
		t.Fatalf("Failed to write voices: %v", err)
	}

	script := `#!/bin/sh
case "$1" in
--version) echo "eSpeak NG text-to-speech: 1.51"; exit 0 ;;
--voices) cat "` + voices + `"; exit 0 ;;
esac
for last; do :; done
if [ "$last" = "fail" ]; then echo "synthesis error" >&2; exit 1; fi
printf 'RIFF%s' "$*"
`
	path := filepath.Join(dir, "espeak-ng")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if config.Binary != "espeak-ng" {
		t.Errorf("Expected default binary 'espeak-ng', got '%s'", config.Binary)
	}
	if config.Speed != 150 {
		t.Errorf("Expected default speed 150, got %d", config.Speed)
	}
	if config.Pitch != 50 {
		t.Errorf("Expected default pitch 50, got %d", config.Pitch)
	}
}

func TestNew_MissingBinary(t *testing.T) {
	_, err := New(&ESpeakConfig{Binary: filepath.Join(t.TempDir(), "no-such-espeak")})
	if err == nil {
		t.Fatal("New() expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "espeak-ng is not installed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSetSpeed(t *testing.T) {
	espeak := &ESpeak{config: DefaultConfig()}

	tests := []struct {
		input    int
		expected int
	}{
		{150, 150}, // Normal speed
		{50, 80},   // Below minimum
		{500, 450}, // Above maximum
		{200, 200}, // Valid speed
	}

	for _, tt := range tests {
		espeak.SetSpeed(tt.input)
		if espeak.config.Speed != tt.expected {
			t.Errorf("SetSpeed(%d) resulted in speed %d, expected %d",
				tt.input, espeak.config.Speed, tt.expected)
		}
	}
}

func TestSetPitchAmplitudeWordGap(t *testing.T) {
	espeak := &ESpeak{config: DefaultConfig()}

	espeak.SetPitch(120)
	espeak.SetAmplitude(-5)
	espeak.SetWordGap(-1)

	if espeak.config.Pitch != 99 {
		t.Errorf("Pitch = %d, want 99", espeak.config.Pitch)
	}
	if espeak.config.Amplitude != 0 {
		t.Errorf("Amplitude = %d, want 0", espeak.config.Amplitude)
	}
	if espeak.config.WordGap != 0 {
		t.Errorf("WordGap = %d, want 0", espeak.config.WordGap)
	}
}

func TestArgs(t *testing.T) {
	espeak := &ESpeak{config: DefaultConfig()}
	espeak.SetWordGap(2)

	got := strings.Join(espeak.args("fr", "maison"), " ")
	want := "-v fr -s 150 -p 50 -a 100 -g 2 --stdout maison"
	if got != want {
		t.Errorf("args() = %q, want %q", got, want)
	}
}

func TestParseVoices(t *testing.T) {
	voices := parseVoices([]byte(voicesOutput))

	for _, code := range []string{"af", "bg", "en-gb", "en", "fr-fr", "fr"} {
		if !voices[code] {
			t.Errorf("voice %q missing from %v", code, voices)
		}
	}
	if voices["pty"] || voices["language"] {
		t.Error("header parsed as a voice")
	}
	if voices["ja"] {
		t.Error("unexpected voice ja")
	}
}

func TestESpeakSpeaker_Speak(t *testing.T) {
	binary := fakeESpeak(t)
	speaker, err := NewESpeakSpeaker(&Config{ESpeakBinary: binary})
	if err != nil {
		t.Fatalf("NewESpeakSpeaker() error = %v", err)
	}
	if speaker.Name() != "espeak-ng" {
		t.Errorf("Name() = %s", speaker.Name())
	}

	data, err := speaker.Speak(context.Background(), "maison", "fr")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if Extension(data) != ".wav" {
		t.Errorf("Speak() returned %q, want WAV data", data)
	}
	if !strings.Contains(string(data), "-v fr") {
		t.Errorf("voice not passed to espeak-ng: %q", data)
	}

	// No voice is an empty result, not an error
	data, err = speaker.Speak(context.Background(), "猫", "ja")
	if err != nil || data != nil {
		t.Errorf("Speak() without voice = %q, %v; want nil, nil", data, err)
	}
}

func TestESpeakSpeaker_SpeakError(t *testing.T) {
	speaker, err := NewESpeakSpeaker(&Config{ESpeakBinary: fakeESpeak(t)})
	if err != nil {
		t.Fatalf("NewESpeakSpeaker() error = %v", err)
	}

	_, err = speaker.Speak(context.Background(), "fail", "bg")
	if err == nil || !strings.Contains(err.Error(), "synthesis error") {
		t.Errorf("Speak() error = %v, want espeak-ng failure", err)
	}

	if _, err := speaker.Speak(context.Background(), "", "bg"); err == nil {
		t.Error("Speak() with empty text should return error")
	}
}

func TestESpeakSpeaker_HasVoiceRetriesAfterCancel(t *testing.T) {
	speaker, err := NewESpeakSpeaker(&Config{ESpeakBinary: fakeESpeak(t)})
	if err != nil {
		t.Fatalf("NewESpeakSpeaker() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := speaker.HasVoice(ctx, "fr"); err == nil {
		t.Fatal("HasVoice() with a cancelled context should fail")
	}

	ok, err := speaker.HasVoice(context.Background(), "fr")
	if err != nil {
		t.Fatalf("HasVoice() after cancel error = %v", err)
	}
	if !ok {
		t.Error("HasVoice(fr) = false after cancel, want true")
	}
}

func TestESpeakSpeaker_HasVoiceKeepsFailure(t *testing.T) {
	speaker, err := NewESpeakSpeaker(&Config{ESpeakBinary: fakeESpeak(t)})
	if err != nil {
		t.Fatalf("NewESpeakSpeaker() error = %v", err)
	}

	// espeak-ng itself failing is not retried
	speaker.espeak.config.Binary = filepath.Join(t.TempDir(), "gone")
	if _, err := speaker.HasVoice(context.Background(), "fr"); err == nil {
		t.Fatal("HasVoice() expected error from a missing binary")
	}
	speaker.espeak.config.Binary = fakeESpeak(t)
	if _, err := speaker.HasVoice(context.Background(), "fr"); err == nil {
		t.Error("HasVoice() retried a failed voice listing")
	}
}

func TestESpeak_Integration(t *testing.T) {
	if checkESpeakInstalled("espeak-ng") != nil {
		t.Skip("espeak-ng not installed, skipping integration test")
	}

	speaker, err := NewESpeakSpeaker(nil)
	if err != nil {
		t.Fatalf("NewESpeakSpeaker() error = %v", err)
	}

	data, err := speaker.Speak(context.Background(), "maison", "fr")
	if err != nil {
		t.Fatalf("Speak() failed: %v", err)
	}
	if len(data) == 0 {
		t.Skip("espeak-ng has no French voice")
	}
	if Extension(data) != ".wav" {
		t.Error("espeak-ng output is not WAV")
	}
}
