// Package console is the line-oriented presentation of a review session.
// It reads one command per line and prints the current segment after
// every change.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"codeberg.org/snonux/cliprecall/internal/history"
	"codeberg.org/snonux/cliprecall/internal/logger"
	"codeberg.org/snonux/cliprecall/internal/player"
	"codeberg.org/snonux/cliprecall/internal/session"
	"codeberg.org/snonux/cliprecall/internal/subtitle"
)

// Session is the part of the controller the console drives
type Session interface {
	Start(ctx context.Context) error
	Advance(ctx context.Context) error
	DeleteCurrent(ctx context.Context) error
	LookupWord(text, language string)
	Wait()
	Snapshot() session.Snapshot
}

// MediaPlayer plays clips and word audio
type MediaPlayer interface {
	Play(file string, rate player.Rate) error
	PlayAudio(data []byte) error
	StopClip()
	Stop()
}

// History lists recorded word lookups, newest first
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Options configure the console
type Options struct {
	// AutoPlay plays every newly shown clip
	AutoPlay bool

	// History, if set, backs the l command
	History History
}

// recentLimit is the number of lookups the l command lists
const recentLimit = 10

// Console runs a review session over a reader and a writer
type Console struct {
	session Session
	player  MediaPlayer
	opts    Options
	in      *bufio.Scanner
	out     io.Writer
	rate    player.Rate
	log     *logger.Logger
}

const help = `Commands:
  n          next segment
  d          delete the current segment (media and metadata)
  w <word>   look up a word of the subtitle
  p          replay the clip
  a          play the audio of the last looked up word
  l          list the last looked up words
  s          toggle playback speed (Normal/Slow)
  i          session info
  r          restart the session
  h          this help
  q          quit
`

// New creates a console. mp may be nil to disable playback.
func New(s Session, mp MediaPlayer, in io.Reader, out io.Writer, opts Options) *Console {
	return &Console{
		session: s,
		player:  mp,
		opts:    opts,
		in:      bufio.NewScanner(in),
		out:     out,
		rate:    player.Normal,
		log:     logger.Default().With("console"),
	}
}

// Run starts the session and processes commands until q or end of input
func (c *Console) Run(ctx context.Context) error {
	if err := c.session.Start(ctx); err != nil {
		if errors.Is(err, session.ErrEmptyQueue) {
			fmt.Fprintln(c.out, "No segments to review.")
			return nil
		}
		return fmt.Errorf("failed to start session: %w", err)
	}
	c.showCurrent()
	fmt.Fprintln(c.out, "Type h for help.")

	for {
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		quit := c.execute(ctx, strings.TrimSpace(c.in.Text()))
		if quit {
			return nil
		}
	}
}

// execute runs one command line and reports whether to quit
func (c *Console) execute(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "n", "next":
		c.report(c.session.Advance(ctx))
		c.showCurrent()

	case "d", "delete":
		snap := c.session.Snapshot()
		if snap.Current != nil && c.player != nil {
			// The player may still hold the media file open
			c.player.StopClip()
		}
		c.report(c.session.DeleteCurrent(ctx))
		c.showCurrent()

	case "w", "word":
		c.lookup(arg)

	case "p", "play":
		c.playCurrent()

	case "a", "audio":
		c.playWord()

	case "s", "speed":
		c.rate = c.rate.Toggle()
		fmt.Fprintf(c.out, "Speed: %s\n", c.rate)
		if c.opts.AutoPlay {
			c.playCurrent()
		}

	case "i", "info":
		c.info()

	case "r", "restart":
		err := c.session.Start(ctx)
		if !errors.Is(err, session.ErrEmptyQueue) {
			c.report(err)
		}
		c.showCurrent()

	case "h", "help", "?":
		fmt.Fprint(c.out, help)

	case "l", "list":
		c.recent(ctx)

	case "q", "quit", "exit":
		if c.player != nil {
			c.player.Stop()
		}
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command %q, type h for help.\n", cmd)
	}
	return false
}

func (c *Console) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintln(c.out, "Busy, try again.")
	default:
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}

// showCurrent prints the current segment or the end of the session
func (c *Console) showCurrent() {
	snap := c.session.Snapshot()
	switch snap.State {
	case session.Exhausted:
		fmt.Fprintln(c.out, "All segments reviewed. r restarts, q quits.")
		return
	case session.Failed:
		fmt.Fprintf(c.out, "Session failed: %v\n", snap.Err)
		return
	}
	if snap.Current == nil {
		return
	}

	rec := snap.Current
	fmt.Fprintf(c.out, "\n[%s] %s (%s)\n", snap.Position(), rec.ID, rec.Language)
	words := subtitle.Words(rec.Text, rec.Language)
	if len(words) == 0 {
		fmt.Fprintln(c.out, "  (no subtitle)")
	} else {
		fmt.Fprintf(c.out, "  %s\n", strings.Join(words, " | "))
	}

	if c.opts.AutoPlay {
		c.playCurrent()
	}
}

func (c *Console) lookup(word string) {
	if word == "" {
		fmt.Fprintln(c.out, "Usage: w <word>")
		return
	}

	c.session.LookupWord(word, "")
	c.session.Wait()

	l := c.session.Snapshot().Lookup
	switch l.Status {
	case session.LookupResolved:
		fmt.Fprintf(c.out, "%s (%s): %s\n", l.Text, l.Language, l.Translation)
		if l.SpeechErr != nil {
			fmt.Fprintf(c.out, "  speech unavailable: %v\n", l.SpeechErr)
		}
	case session.LookupFailed:
		fmt.Fprintf(c.out, "%s: %s\n", l.Text, l.Translation)
		c.log.Debug("Lookup of %q failed: %v", l.Text, l.Err)
	}
}

func (c *Console) recent(ctx context.Context) {
	if c.opts.History == nil {
		fmt.Fprintln(c.out, "Lookup history is disabled.")
		return
	}

	entries, err := c.opts.History.Recent(ctx, recentLimit)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No words looked up yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "  %s (%s): %s\n", e.Word, e.Language, e.Translation)
	}
}

func (c *Console) playCurrent() {
	snap := c.session.Snapshot()
	if snap.Current == nil || c.player == nil {
		return
	}
	if err := c.player.Play(snap.Current.MediaPath, c.rate); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}

func (c *Console) playWord() {
	l := c.session.Snapshot().Lookup
	if len(l.Audio) == 0 {
		fmt.Fprintln(c.out, "No word audio available.")
		return
	}
	if c.player == nil {
		return
	}
	if err := c.player.PlayAudio(l.Audio); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}

func (c *Console) info() {
	snap := c.session.Snapshot()
	fmt.Fprintf(c.out, "Session:  %s\n", snap.SessionID)
	fmt.Fprintf(c.out, "State:    %s\n", snap.State)
	fmt.Fprintf(c.out, "Position: %s\n", snap.Position())
	fmt.Fprintf(c.out, "Speed:    %s\n", c.rate)
	if snap.Current != nil {
		fmt.Fprintf(c.out, "Segment:  %s\n", snap.Current.ID)
		fmt.Fprintf(c.out, "Language: %s\n", snap.Current.Language)
		fmt.Fprintf(c.out, "Media:    %s\n", snap.Current.MediaPath)
	}
	if len(snap.Skipped) > 0 {
		fmt.Fprintf(c.out, "Skipped:  %d corrupt segment(s)\n", len(snap.Skipped))
		for _, s := range snap.Skipped {
			fmt.Fprintf(c.out, "  %s: %v\n", s.ID, s.Err)
		}
	}
	if snap.Err != nil {
		fmt.Fprintf(c.out, "Last error: %v\n", snap.Err)
	}
}
