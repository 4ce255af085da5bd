package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"codeberg.org/snonux/cliprecall/internal/lookup"
)

func TestLookupWord(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json")), Insertion)
	f.translator.Translations["chat"] = "cat"
	f.start(t)

	f.controller.LookupWord("chat", "")
	if l := f.controller.Snapshot().Lookup; l.Status != LookupPending && l.Status != LookupResolved {
		t.Errorf("Status right after LookupWord = %s", l.Status)
	}
	f.controller.Wait()

	l := f.controller.Snapshot().Lookup
	if l.Status != LookupResolved || l.Translation != "cat" {
		t.Fatalf("lookup = %+v, want resolved cat", l)
	}
	if l.Language != "fr" {
		t.Errorf("Language = %q, want the segment language fr", l.Language)
	}
	if len(l.Audio) == 0 || l.SpeechErr != nil {
		t.Errorf("expected audio, got %d bytes (err %v)", len(l.Audio), l.SpeechErr)
	}

	entries := f.recorder.all()
	if len(entries) != 1 {
		t.Fatalf("recorded %d lookups, want 1", len(entries))
	}
	e := entries[0]
	if e.Word != "chat" || e.Translation != "cat" || e.Language != "fr" || e.SegmentID != "a.json" || e.SessionID != f.controller.ID() {
		t.Errorf("recorded %+v", e)
	}
}

func TestLookupWord_Supersedes(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json")), Insertion)
	f.translator.Translations["chat"] = "cat"
	f.translator.Translations["maison"] = "house"
	gate := make(chan struct{})
	f.translator.Gates["chat"] = gate
	f.start(t)

	f.controller.LookupWord("chat", "fr")
	f.controller.LookupWord("maison", "fr")

	// Let "maison" resolve first, then the stale "chat"
	waitFor(t, f, func(s Snapshot) bool { return s.Lookup.Status == LookupResolved })
	close(gate)
	f.controller.Wait()

	l := f.controller.Snapshot().Lookup
	if l.Text != "maison" || l.Translation != "house" || l.Status != LookupResolved {
		t.Errorf("lookup = %+v, want resolved maison", l)
	}
	for _, s := range f.changes.all() {
		if s.Lookup.Translation == "cat" {
			t.Fatalf("stale translation published: %+v", s.Lookup)
		}
	}
	if entries := f.recorder.all(); len(entries) != 1 || entries[0].Word != "maison" {
		t.Errorf("recorded %+v, want only maison", entries)
	}
}

func TestLookupWord_SupersededWhileBothPending(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json")), Insertion)
	chatGate, maisonGate := make(chan struct{}), make(chan struct{})
	f.translator.Gates["chat"] = chatGate
	f.translator.Gates["maison"] = maisonGate
	f.start(t)

	f.controller.LookupWord("chat", "fr")
	f.controller.LookupWord("maison", "fr")

	l := f.controller.Snapshot().Lookup
	if l.Text != "maison" || l.Status != LookupPending {
		t.Errorf("lookup = %+v, want pending maison", l)
	}

	// The older request finishes last
	close(maisonGate)
	waitFor(t, f, func(s Snapshot) bool { return s.Lookup.Status == LookupResolved })
	close(chatGate)
	f.controller.Wait()

	if l := f.controller.Snapshot().Lookup; l.Text != "maison" || l.Translation != "mock translation of maison" {
		t.Errorf("lookup = %+v, want maison", l)
	}
}

func TestLookupWord_Unavailable(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json", "b.json")), Insertion)
	f.translator.Errors["hola"] = fmt.Errorf("503 service unavailable")
	before := f.start(t)

	f.controller.LookupWord("hola", "es")
	f.controller.Wait()

	snap := f.controller.Snapshot()
	l := snap.Lookup
	if l.Status != LookupFailed {
		t.Fatalf("Status = %s, want failed", l.Status)
	}
	if l.Translation != FailedTranslation {
		t.Errorf("Translation = %q, want placeholder", l.Translation)
	}
	if !errors.Is(l.Err, lookup.ErrUnavailable) {
		t.Errorf("Err = %v, want ErrUnavailable", l.Err)
	}
	if l.Language != "es" {
		t.Errorf("Language = %q, want es", l.Language)
	}

	// Playback state is untouched
	if snap.State != Ready || snap.Cursor != before.Cursor || currentID(t, snap) != currentID(t, before) || snap.Err != nil {
		t.Errorf("segment state changed: %+v", snap)
	}
	if len(f.recorder.all()) != 0 {
		t.Error("failed lookup recorded in history")
	}

	if err := f.controller.Advance(context.Background()); err != nil {
		t.Errorf("Advance() after failed lookup = %v", err)
	}
}

func TestLookupWord_StripsPunctuation(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json")), Insertion)
	f.translator.Translations["chat"] = "cat"
	f.start(t)

	f.controller.LookupWord(" «chat!» ", "")
	f.controller.Wait()

	l := f.controller.Snapshot().Lookup
	if l.Text != "«chat!»" || l.Translation != "cat" {
		t.Errorf("lookup = %+v", l)
	}
	if calls := strings.Join(f.translator.Calls(), ";"); calls != "Translate: chat (fr->en)" {
		t.Errorf("translator calls = %s", calls)
	}
	if calls := strings.Join(f.speaker.Calls(), ";"); calls != "Speak: «chat!» (fr)" {
		t.Errorf("speaker calls = %s", calls)
	}
}

func TestLookupWord_SpeechFailureOnly(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json")), Insertion)
	f.speaker.Errors["chat"] = fmt.Errorf("quota exceeded")
	f.start(t)

	f.controller.LookupWord("chat", "")
	f.controller.Wait()

	l := f.controller.Snapshot().Lookup
	if l.Status != LookupResolved || l.Translation != "mock translation of chat" {
		t.Errorf("lookup = %+v, want resolved", l)
	}
	if !errors.Is(l.SpeechErr, lookup.ErrUnavailable) || l.Audio != nil {
		t.Errorf("SpeechErr = %v, Audio = %v", l.SpeechErr, l.Audio)
	}
}

func TestLookupWord_NoVoice(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json")), Insertion)
	f.start(t)

	f.controller.LookupWord("Hund", "de")
	f.controller.Wait()

	l := f.controller.Snapshot().Lookup
	if l.Status != LookupResolved || l.Audio != nil || l.SpeechErr != nil {
		t.Errorf("lookup = %+v, want resolved without audio", l)
	}
}

func TestLookupWord_Empty(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json")), Insertion)
	f.start(t)

	f.controller.LookupWord(" ?! ", "")

	l := f.controller.Snapshot().Lookup
	if l.Status != LookupFailed || l.Translation != FailedTranslation || l.Err == nil {
		t.Errorf("lookup = %+v, want failed", l)
	}
	if len(f.translator.Calls()) != 0 {
		t.Error("translator called for punctuation only")
	}
}

func TestLookupWord_ClearedOnAdvance(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json", "b.json")), Insertion)
	gate := make(chan struct{})
	f.translator.Gates["chat"] = gate
	f.start(t)

	f.controller.LookupWord("chat", "")
	if err := f.controller.Advance(context.Background()); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	close(gate)
	f.controller.Wait()

	if l := f.controller.Snapshot().Lookup; l.Status != LookupIdle || l.Text != "" {
		t.Errorf("lookup = %+v, want idle after advance", l)
	}
}

func TestLookupWord_WithoutSegment(t *testing.T) {
	f := newFixture(t, newStore(t.TempDir()), Insertion)

	f.controller.LookupWord("perro", "es")
	f.controller.Wait()

	if l := f.controller.Snapshot().Lookup; l.Status != LookupResolved {
		t.Errorf("lookup = %+v, want resolved", l)
	}
}

func TestClose_AbandonsLookups(t *testing.T) {
	f := newFixture(t, newStore(segmentDir(t, "a.json")), Insertion)
	f.translator.Gates["chat"] = make(chan struct{}) // never released
	f.start(t)

	f.controller.LookupWord("chat", "")
	if err := f.controller.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f.controller.LookupWord("maison", "")
	if l := f.controller.Snapshot().Lookup; l.Text != "chat" {
		t.Errorf("lookup after Close = %+v", l)
	}
}

// waitFor blocks until the controller publishes a snapshot matching ok
func waitFor(t *testing.T, f *fixture, ok func(Snapshot) bool) {
	t.Helper()

	done := make(chan struct{})
	var once bool
	f.controller.OnChange(func(s Snapshot) {
		if !once && ok(s) {
			once = true
			close(done)
		}
	})
	if ok(f.controller.Snapshot()) {
		return
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}
