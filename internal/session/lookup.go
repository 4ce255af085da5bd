package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/cliprecall/internal"
	"codeberg.org/snonux/cliprecall/internal/history"
)

var errNothingToTranslate = errors.New("nothing to translate")

// LookupWord translates (and speaks) a word of the current segment. An
// empty language means the language of the current segment. It returns
// immediately; the result is published to the snapshot unless a newer
// lookup has superseded it. Failures end in LookupFailed, never in an
// error to the caller.
func (c *Controller) LookupWord(text, language string) {
	raw := strings.TrimSpace(text)
	query := internal.RemovePunctuation(raw)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	segmentID := ""
	if c.current != nil {
		segmentID = c.current.ID
		if language == "" {
			language = c.current.Language
		}
	}

	c.token++
	token := c.token
	c.lookup = WordLookup{
		Token:    token,
		Text:     raw,
		Language: language,
		Status:   LookupPending,
	}

	if query == "" {
		c.lookup.Status = LookupFailed
		c.lookup.Translation = FailedTranslation
		c.lookup.Err = errNothingToTranslate
		c.mu.Unlock()
		c.notify()
		return
	}

	ctx := c.lookupCtx
	c.wg.Add(1)
	c.mu.Unlock()
	c.notify()

	go c.resolve(ctx, token, segmentID, raw, query, language)
}

// resolve runs the translation and the speech synthesis concurrently and
// publishes the result if token is still the latest lookup
func (c *Controller) resolve(ctx context.Context, token uint64, segmentID, raw, query, language string) {
	defer c.wg.Done()

	var (
		translation string
		audio       []byte
		speechErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.lookups.Translate(gctx, query, language, c.opts.TargetLanguage)
		if err != nil {
			return err
		}
		translation = out
		return nil
	})
	g.Go(func() error {
		// Speech failure alone does not fail the lookup
		audio, speechErr = c.lookups.Speak(gctx, raw, language)
		return nil
	})
	err := g.Wait()

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		c.log.Debug("Discarding stale lookup of %q", raw)
		return
	}

	if err != nil {
		c.log.Warn("Lookup of %q failed: %v", raw, err)
		c.lookup.Status = LookupFailed
		c.lookup.Translation = FailedTranslation
		c.lookup.Err = err
	} else {
		c.lookup.Status = LookupResolved
		c.lookup.Translation = translation
		c.lookup.Audio = audio
		c.lookup.SpeechErr = speechErr
		if speechErr != nil {
			c.log.Warn("Speech for %q failed: %v", raw, speechErr)
			c.lookup.Audio = nil
		}
	}
	recorder := c.opts.Recorder
	c.mu.Unlock()
	c.notify()

	if err != nil || recorder == nil {
		return
	}

	entry := history.Entry{
		SessionID:   c.id,
		SegmentID:   segmentID,
		Word:        query,
		Language:    language,
		Translation: translation,
		CreatedAt:   time.Now(),
	}
	if err := recorder.Record(ctx, entry); err != nil {
		c.log.Warn("Failed to record lookup of %q: %v", query, err)
	}
}
