// Package player plays segment clips and word audio in an external media
// player process.
package player

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"codeberg.org/snonux/cliprecall/internal/audio"
	"codeberg.org/snonux/cliprecall/internal/logger"
)

// Rate is the clip playback rate
type Rate float64

const (
	Normal Rate = 1.0
	Slow   Rate = 0.5
)

// Toggle switches between Normal and Slow
func (r Rate) Toggle() Rate {
	if r == Slow {
		return Normal
	}
	return Slow
}

func (r Rate) String() string {
	if r == Slow {
		return "Slow"
	}
	return "Normal"
}

// Player runs clips and word audio as two independent external
// playbacks. A new clip stops the previous clip and a new word stops the
// previous word, but neither stops the other.
type Player struct {
	command  string // user template, may contain {file} and {rate}
	lookPath func(string) (string, error)
	log      *logger.Logger

	clip  slot
	audio slot
}

// slot holds at most one running player process
type slot struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	tmpFile string
}

// New creates a player. An empty command picks mpv, ffplay or vlc,
// whichever is installed.
func New(command string) *Player {
	return &Player{
		command:  strings.TrimSpace(command),
		lookPath: exec.LookPath,
		log:      logger.Default().With("player"),
	}
}

// Command builds the command line playing file at rate
func (p *Player) Command(file string, rate Rate) ([]string, error) {
	if p.command != "" {
		return expandTemplate(p.command, file, rate), nil
	}

	speed := strconv.FormatFloat(float64(rate), 'f', -1, 64)

	// Try multiple commands in order of preference
	if _, err := p.lookPath("mpv"); err == nil {
		return []string{"mpv", "--really-quiet", "--speed=" + speed, file}, nil
	}
	if _, err := p.lookPath("ffplay"); err == nil {
		return []string{"ffplay", "-autoexit", "-loglevel", "quiet",
			"-af", "atempo=" + speed,
			"-vf", "setpts=PTS/" + speed,
			file}, nil
	}
	if _, err := p.lookPath("vlc"); err == nil {
		return []string{"vlc", "--play-and-exit", "--rate=" + speed, file}, nil
	}

	switch runtime.GOOS {
	case "darwin": // macOS
		return []string{"open", file}, nil
	case "windows":
		return []string{"cmd", "/c", "start", "/min", file}, nil
	}
	return nil, fmt.Errorf("no media player found. Install mpv, ffplay or vlc, or set player.command")
}

func expandTemplate(template, file string, rate Rate) []string {
	speed := strconv.FormatFloat(float64(rate), 'f', -1, 64)

	fields := strings.Fields(template)
	hasFile := false
	for i, f := range fields {
		if strings.Contains(f, "{file}") {
			hasFile = true
		}
		f = strings.ReplaceAll(f, "{file}", file)
		fields[i] = strings.ReplaceAll(f, "{rate}", speed)
	}
	if !hasFile {
		fields = append(fields, file)
	}
	return fields
}

// Play starts playing file at rate in the background. It replaces a
// running clip and leaves word audio alone.
func (p *Player) Play(file string, rate Rate) error {
	if file == "" {
		return fmt.Errorf("nothing to play")
	}
	return p.start(&p.clip, file, rate, "")
}

// PlayAudio plays encoded audio bytes through a temporary file. It
// replaces running word audio and leaves the clip alone.
func (p *Player) PlayAudio(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("no audio to play")
	}

	tmp, err := os.CreateTemp("", "cliprecall-*"+audio.Extension(data))
	if err != nil {
		return fmt.Errorf("failed to create temp audio file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp audio file: %w", err)
	}
	tmp.Close()

	if err := p.start(&p.audio, tmp.Name(), Normal, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (p *Player) start(s *slot, file string, rate Rate, tmpFile string) error {
	args, err := p.Command(file, rate)
	if err != nil {
		return err
	}

	s.stop()

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", args[0], err)
	}
	p.log.Debug("playing %s at %s rate with %s", file, rate, args[0])

	done := make(chan struct{})
	s.mu.Lock()
	s.cmd = cmd
	s.done = done
	s.tmpFile = tmpFile
	s.mu.Unlock()

	go func() {
		if err := cmd.Wait(); err != nil {
			p.log.Debug("%s exited: %v", args[0], err)
		}
		if tmpFile != "" {
			os.Remove(tmpFile)
		}
		close(done)
	}()
	return nil
}

// StopClip kills the running clip, if any
func (p *Player) StopClip() {
	p.clip.stop()
}

// Stop kills the running clip and word audio
func (p *Player) Stop() {
	p.clip.stop()
	p.audio.stop()
}

// Wait blocks until the current clip and word audio have finished
func (p *Player) Wait() {
	p.clip.wait()
	p.audio.wait()
}

func (s *slot) stop() {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.cmd, s.done = nil, nil
	s.mu.Unlock()

	if cmd == nil {
		return
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-done
}

func (s *slot) wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// running reports whether the slot's process has not exited yet
func (s *slot) running() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
