// Package anki turns the lookup history into Anki import material: a
// CSV file or a self-contained .apkg deck.
package anki

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/cliprecall/internal/history"
	"codeberg.org/snonux/cliprecall/internal/lang"
)

// Card represents a single Anki flashcard
type Card struct {
	Word        string // The looked-up word
	Translation string
	Language    string
	Segment     string // Segment the word was clicked in
}

// CardsFromEntries turns history entries into cards
func CardsFromEntries(entries []history.Entry) []Card {
	cards := make([]Card, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, Card{
			Word:        e.Word,
			Translation: e.Translation,
			Language:    e.Language,
			Segment:     strings.TrimSuffix(e.SegmentID, filepath.Ext(e.SegmentID)),
		})
	}
	return cards
}

// WriteCSV writes cards in Anki's CSV import format
func WriteCSV(w io.Writer, cards []Card, includeHeaders bool) error {
	writer := csv.NewWriter(w)

	// Write headers if requested
	if includeHeaders {
		headers := []string{"Word", "Translation", "Language", "Segment"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, card := range cards {
		record := []string{card.Word, card.Translation, card.Language, card.Segment}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Export writes cards to path: an .apkg deck named deckName when path
// ends in .apkg, a CSV file with headers otherwise
func Export(cards []Card, path, deckName string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".apkg") {
		gen := NewAPKGGenerator(deckName)
		for _, card := range cards {
			gen.AddCard(card)
		}
		return gen.GenerateAPKG(path)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := WriteCSV(file, cards, true); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file: %w", err)
	}
	return nil
}

// languageLabel renders a card's language for the deck ("French")
func languageLabel(code string) string {
	if name := lang.Name(code); name != "" {
		return name
	}
	return code
}
