// Package session implements the review session over a segment
// directory: the ordered queue, the cursor into it, the loaded segment
// and the word lookup currently shown.
//
// State machine:
//
//	Empty --Start--> Loading --> Ready --Advance/DeleteCurrent--> Loading --> Ready
//	                    |                                            |
//	                    +--> Failed                                  +--> Exhausted
//
// Only one load runs at a time. Advance and DeleteCurrent issued while a
// load is in flight return ErrBusy and leave the cursor alone.
package session

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/snonux/cliprecall/internal/history"
	"codeberg.org/snonux/cliprecall/internal/segment"
)

var (
	// ErrEmptyQueue is returned by Start when there is nothing to review
	ErrEmptyQueue = errors.New("no segments to review")

	// ErrBusy is returned while another load is in flight
	ErrBusy = errors.New("segment load in progress")

	// ErrNotReady is returned when an operation needs a loaded segment
	ErrNotReady = errors.New("no segment loaded")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("session closed")
)

// FailedTranslation is shown for a word that could not be looked up
const FailedTranslation = "Word could not be translated."

// State of the session queue
type State int

const (
	Empty State = iota
	Loading
	Ready
	Exhausted
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Order is the policy applied once to the queue at Start
type Order int

const (
	// Insertion orders segments by modification time, then by id
	Insertion Order = iota
	// Random shuffles the segments uniformly
	Random
)

func (o Order) String() string {
	if o == Random {
		return "random"
	}
	return "insertion"
}

// ParseOrder parses "insertion" or "random"
func ParseOrder(s string) (Order, error) {
	switch s {
	case "insertion", "":
		return Insertion, nil
	case "random", "shuffle":
		return Random, nil
	default:
		return Insertion, fmt.Errorf("unknown segment order: %s", s)
	}
}

// LookupStatus is the progress of a word lookup
type LookupStatus int

const (
	LookupIdle LookupStatus = iota
	LookupPending
	LookupResolved
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupIdle:
		return "idle"
	case LookupPending:
		return "pending"
	case LookupResolved:
		return "resolved"
	case LookupFailed:
		return "failed"
	default:
		return fmt.Sprintf("LookupStatus(%d)", int(s))
	}
}

// WordLookup is the most recent word lookup of the session
type WordLookup struct {
	Token       uint64
	Text        string
	Language    string
	Status      LookupStatus
	Translation string
	Audio       []byte

	// Err is the diagnostic of a failed lookup
	Err error
	// SpeechErr is set when only the speech synthesis failed
	SpeechErr error
}

// SkippedRecord is a segment dropped from the queue because its metadata
// could not be parsed
type SkippedRecord struct {
	ID  string
	Err error
}

// Snapshot is a read-only view of the session for presentation layers
type Snapshot struct {
	SessionID string
	State     State
	Cursor    int
	Len       int
	Current   *segment.Record
	Lookup    WordLookup
	Skipped   []SkippedRecord
	Err       error
}

// Position renders the 1-based position in the queue, e.g. "2/5"
func (s Snapshot) Position() string {
	if s.Current == nil {
		return fmt.Sprintf("-/%d", s.Len)
	}
	return fmt.Sprintf("%d/%d", s.Cursor+1, s.Len)
}

// Store is the segment storage the controller reads and deletes from
type Store interface {
	List(ctx context.Context) ([]segment.Entry, error)
	Load(ctx context.Context, id string) (segment.Record, error)
	Delete(ctx context.Context, id string) error
}

// Lookup translates and speaks words. Errors are never fatal to the
// session.
type Lookup interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	Speak(ctx context.Context, text, language string) ([]byte, error)
}

// Recorder stores resolved lookups
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}
