package anki

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/snonux/cliprecall/internal/history"
)

func TestCardsFromEntries(t *testing.T) {
	entries := []history.Entry{
		{Word: "chien", Translation: "dog", Language: "fr", SegmentID: "clip_0002.json", CreatedAt: time.Now()},
		{Word: "Katze", Translation: "cat", Language: "de", SegmentID: "noext"},
	}

	cards := CardsFromEntries(entries)
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d", len(cards))
	}

	want := Card{Word: "chien", Translation: "dog", Language: "fr", Segment: "clip_0002"}
	if cards[0] != want {
		t.Errorf("cards[0] = %+v, want %+v", cards[0], want)
	}
	if cards[1].Segment != "noext" {
		t.Errorf("Expected segment 'noext', got %q", cards[1].Segment)
	}
}

func TestWriteCSV(t *testing.T) {
	cards := []Card{
		{Word: "chien", Translation: "dog", Language: "fr", Segment: "clip_0002"},
		{Word: "bonjour, toi", Translation: "hello, you", Language: "fr", Segment: "clip_0001"},
	}

	tests := []struct {
		name    string
		headers bool
		want    string
	}{
		{
			name:    "with headers",
			headers: true,
			want:    "Word,Translation,Language,Segment\nchien,dog,fr,clip_0002\n\"bonjour, toi\",\"hello, you\",fr,clip_0001\n",
		},
		{
			name: "without headers",
			want: "chien,dog,fr,clip_0002\n\"bonjour, toi\",\"hello, you\",fr,clip_0001\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteCSV(&buf, cards, tt.headers); err != nil {
				t.Fatalf("WriteCSV() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), tt.want)
			}
		})
	}
}

func TestExport_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "words.csv")
	cards := []Card{{Word: "chien", Translation: "dog", Language: "fr", Segment: "clip_0002"}}

	if err := Export(cards, path, "ClipRecall"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if !strings.Contains(string(data), "chien,dog,fr,clip_0002") {
		t.Errorf("Unexpected CSV content: %s", data)
	}
}

func TestExport_APKG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.APKG")
	cards := []Card{{Word: "chien", Translation: "dog", Language: "fr"}}

	if err := Export(cards, path, "ClipRecall"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	names := zipNames(t, path)
	if !names["collection.anki2"] || !names["media"] {
		t.Errorf("Expected collection.anki2 and media in package, got %v", names)
	}
}

func TestLanguageLabel(t *testing.T) {
	if got := languageLabel("fr"); got != "French" {
		t.Errorf("languageLabel(fr) = %q", got)
	}
	if got := languageLabel(""); got != "" {
		t.Errorf("languageLabel(\"\") = %q", got)
	}
}
