// Package lang normalises language codes and detects the language of
// subtitle text.
package lang

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize turns a language code or BCP 47 tag ("fr", "fr-FR", "FR_fr",
// "spa") into its lower-case base code. Values that do not parse are
// returned lower-cased and trimmed; an empty input stays empty.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return strings.ToLower(code)
	}

	base, _ := tag.Base()
	return base.String()
}

// Detect guesses the language of text. ok is false when the guess is not
// reliable enough to be used instead of a configured default.
func Detect(text string) (code string, ok bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", false
	}

	code = info.Lang.Iso6391()
	if code == "" {
		return "", false
	}
	return code, true
}

// Name returns the English display name of a language code ("fr" ->
// "French"), or the code itself when it is unknown.
func Name(code string) string {
	code = Normalize(code)
	if code == "" {
		return ""
	}

	tag, err := language.Parse(code)
	if err != nil {
		return code
	}

	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
