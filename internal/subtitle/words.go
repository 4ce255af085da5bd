// Package subtitle splits subtitle text into the words a learner can
// click on.
package subtitle

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"codeberg.org/snonux/cliprecall/internal/lang"
)

var (
	jaOnce      sync.Once
	jaTokenizer *tokenizer.Tokenizer
	jaErr       error
)

// Words splits text into clickable words. Japanese has no spaces between
// words and is segmented with kagome; every other language is split on
// whitespace. Tokens made only of punctuation or spaces are dropped.
func Words(text, language string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if lang.Normalize(language) == "ja" {
		if words, ok := japaneseWords(text); ok {
			return words
		}
	}

	return strings.Fields(text)
}

func japaneseWords(text string) ([]string, bool) {
	jaOnce.Do(func() {
		jaTokenizer, jaErr = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	if jaErr != nil {
		return nil, false
	}

	var words []string
	for _, w := range jaTokenizer.Wakati(text) {
		if hasWordRune(w) {
			words = append(words, w)
		}
	}
	return words, true
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
