package gui

import (
	"errors"
	"fmt"

	"codeberg.org/snonux/cliprecall/internal/session"
)

// controls tells which buttons a snapshot allows
type controls struct {
	clip  bool // play and speed
	queue bool // next and remove
}

func controlsFor(snap session.Snapshot) controls {
	switch snap.State {
	case session.Ready:
		return controls{clip: true, queue: true}
	case session.Loading:
		// The previous segment stays visible while the next one loads
		return controls{clip: snap.Current != nil}
	default:
		return controls{}
	}
}

func statusText(snap session.Snapshot) string {
	var status string
	switch snap.State {
	case session.Empty:
		status = "Starting..."
	case session.Loading:
		status = "Loading..."
	case session.Ready:
		status = "Ready"
		if snap.Err != nil {
			status = fmt.Sprintf("Error: %v", snap.Err)
		}
	case session.Exhausted:
		status = "All segments reviewed"
		if errors.Is(snap.Err, session.ErrEmptyQueue) {
			status = "No segments to review"
		}
	case session.Failed:
		status = fmt.Sprintf("Failed: %v", snap.Err)
	}

	if n := len(snap.Skipped); n > 0 {
		status += fmt.Sprintf(" (%d corrupt segment(s) skipped)", n)
	}
	return status
}

func lookupText(l session.WordLookup) (word, translation string) {
	switch l.Status {
	case session.LookupPending:
		return l.Text, "Translating..."
	case session.LookupResolved, session.LookupFailed:
		return l.Text, l.Translation
	default:
		return "", "Click a word of the subtitle to translate it"
	}
}
