package gui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/cliprecall/internal"
	"codeberg.org/snonux/cliprecall/internal/logger"
	"codeberg.org/snonux/cliprecall/internal/player"
	"codeberg.org/snonux/cliprecall/internal/session"
)

// Session is the part of the controller the GUI drives
type Session interface {
	Start(ctx context.Context) error
	Advance(ctx context.Context) error
	DeleteCurrent(ctx context.Context) error
	LookupWord(text, language string)
	Snapshot() session.Snapshot
	OnChange(fn func(session.Snapshot))
	Close() error
}

// MediaPlayer plays clips and word audio
type MediaPlayer interface {
	Play(file string, rate player.Rate) error
	PlayAudio(data []byte) error
	StopClip()
	Stop()
}

// Config holds GUI application configuration
type Config struct {
	// AutoPlay plays every newly shown clip
	AutoPlay bool

	// SpeakWords plays the word audio as soon as a lookup resolves
	SpeakWords bool

	// Speech reports whether lookups produce audio. Without it the
	// play-word button is hidden.
	Speech bool

	// Logs, if set, is shown in a log panel
	Logs *LogWriter
}

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// UI elements
	subtitleDisplay *SubtitleDisplay
	lookupPanel     *LookupPanel
	wordEntry       *CustomEntry
	statusLabel     *widget.Label
	positionLabel   *widget.Label
	logViewer       *LogViewer

	// Clip buttons
	playButton   *ttwidget.Button
	speedButton  *ttwidget.Button
	nextButton   *ttwidget.Button
	deleteButton *ttwidget.Button

	session Session
	player  MediaPlayer
	config  *Config
	log     *logger.Logger

	// UI goroutine state
	rate             player.Rate
	current          session.Snapshot
	spokenToken      uint64
	deleteConfirming bool

	// Background processing
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New creates a new GUI application reviewing s
func New(s Session, mp MediaPlayer, config *Config) *Application {
	if config == nil {
		config = &Config{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	myApp := app.NewWithID("org.codeberg.snonux.cliprecall")
	myApp.SetIcon(GetAppIcon())

	a := &Application{
		app:     myApp,
		session: s,
		player:  mp,
		config:  config,
		log:     logger.Default().With("gui"),
		rate:    player.Normal,
		ctx:     ctx,
		cancel:  cancel,
	}

	a.setupUI()

	s.OnChange(func(snap session.Snapshot) {
		fyne.Do(func() { a.render(snap) })
	})

	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("ClipRecall v%s - Subtitle Clip Review", internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(800, 500))

	a.subtitleDisplay = NewSubtitleDisplay(a.onWord)
	a.lookupPanel = NewLookupPanel(a.playAudio)

	// Words the subtitle splitting got wrong can be typed in
	a.wordEntry = NewCustomEntry()
	a.wordEntry.SetPlaceHolder("Look up another word...")
	a.wordEntry.OnSubmitted = func(text string) {
		a.onWord(text)
		a.wordEntry.SetText("")
		a.window.Canvas().Unfocus()
	}
	a.wordEntry.SetOnEscape(func() {
		a.window.Canvas().Unfocus()
	})

	// Create clip buttons (tooltips will be set after tooltip layer is created)
	a.playButton = ttwidget.NewButtonWithIcon("", theme.MediaPlayIcon(), a.onPlay)
	a.speedButton = ttwidget.NewButtonWithIcon(a.rate.String(), theme.MediaFastForwardIcon(), a.onSpeed)
	a.nextButton = ttwidget.NewButtonWithIcon("", theme.NavigateNextIcon(), a.onNext)
	a.nextButton.Importance = widget.HighImportance
	a.deleteButton = ttwidget.NewButtonWithIcon("", theme.DeleteIcon(), a.onDelete)
	a.deleteButton.Importance = widget.DangerImportance

	helpButton := ttwidget.NewButtonWithIcon("", theme.HelpIcon(), a.onShowHotkeys)

	a.positionLabel = widget.NewLabel("-/0")

	toolbar := container.NewHBox(
		a.playButton,
		a.speedButton,
		widget.NewSeparator(),
		a.nextButton,
		a.deleteButton,
		widget.NewSeparator(),
		helpButton,
		layout.NewSpacer(),
		a.positionLabel,
	)

	lookupSection := container.NewBorder(
		nil,
		a.wordEntry,
		nil, nil,
		a.lookupPanel,
	)

	a.statusLabel = widget.NewLabel("Starting...")

	bottom := container.NewVBox(widget.NewSeparator(), a.statusLabel)
	if a.config.Logs != nil {
		a.logViewer = NewLogViewer(a.config.Logs)
		bottom.Add(a.logViewer)
	}

	content := container.NewBorder(
		container.NewVBox(
			toolbar,
			widget.NewSeparator(),
			a.subtitleDisplay,
			widget.NewSeparator(),
		),
		bottom,
		nil, nil,
		lookupSection,
	)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))

	a.playButton.SetToolTip("Replay clip (p)")
	a.speedButton.SetToolTip("Toggle speed Normal/Slow (s)")
	a.nextButton.SetToolTip("Next segment (n / →)")
	a.deleteButton.SetToolTip("Remove segment for good (d)")
	a.lookupPanel.playButton.SetToolTip("Play word audio (a)")
	helpButton.SetToolTip("Show hotkeys (h)")

	a.setControls(controls{})
	if !a.config.Speech {
		a.lookupPanel.playButton.Hide()
	}

	a.window.SetOnClosed(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		a.cancel()
		if a.player != nil {
			a.player.Stop()
		}
		a.session.Close()
		a.wg.Wait()
	})

	a.setupKeyboardShortcuts()
}

// Run starts the session and the GUI application
func (a *Application) Run() {
	a.background("start", a.session.Start)
	a.window.ShowAndRun()
}

// render shows snap. It runs on the UI goroutine.
func (a *Application) render(snap session.Snapshot) {
	a.current = snap

	a.positionLabel.SetText(snap.Position())
	a.statusLabel.SetText(statusText(snap))
	a.setControls(controlsFor(snap))

	if a.subtitleDisplay.SetSegment(snap.Current) && snap.Current != nil && a.config.AutoPlay {
		a.onPlay()
	}
	if snap.Current == nil && snap.State == session.Exhausted {
		a.subtitleDisplay.Clear(statusText(snap))
	}

	l := snap.Lookup
	a.lookupPanel.SetLookup(l)
	if a.config.SpeakWords && l.Status == session.LookupResolved && len(l.Audio) > 0 && l.Token != a.spokenToken {
		a.spokenToken = l.Token
		a.playAudio(l.Audio)
	}
}

func (a *Application) setControls(c controls) {
	setEnabled(a.playButton, c.clip)
	setEnabled(a.speedButton, c.clip)
	setEnabled(a.nextButton, c.queue)
	setEnabled(a.deleteButton, c.queue)
}

// background runs op off the UI goroutine and reports its error
func (a *Application) background(name string, op func(ctx context.Context) error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		if err := op(a.ctx); err != nil {
			fyne.Do(func() { a.handleError(name, err) })
		}
	}()
}

func (a *Application) handleError(name string, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		a.updateStatus("Busy, try again")
	case errors.Is(err, session.ErrEmptyQueue), errors.Is(err, session.ErrClosed), errors.Is(err, context.Canceled):
		// Shown through the snapshot
	default:
		a.log.Error("%s failed: %v", name, err)
		a.showError(err)
	}
}

func (a *Application) onWord(word string) {
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}
	// LookupWord returns at once; calling it here keeps clicks in order
	a.session.LookupWord(word, "")
}

func (a *Application) onNext() {
	if a.nextButton.Disabled() {
		return
	}
	a.background("next", a.session.Advance)
}

func (a *Application) onDelete() {
	if a.deleteButton.Disabled() || a.current.Current == nil {
		return
	}

	id := a.current.Current.ID
	a.deleteConfirming = true
	d := dialog.NewConfirm(
		"Remove segment",
		fmt.Sprintf("Delete %s and its media file for good?", id),
		func(ok bool) {
			a.deleteConfirming = false
			if !ok {
				return
			}
			if a.player != nil {
				// The player may still hold the media file open
				a.player.StopClip()
			}
			a.background("delete", a.session.DeleteCurrent)
		},
		a.window,
	)
	d.SetConfirmText("Delete")
	d.SetDismissText("Keep")
	d.Show()
}

func (a *Application) onSpeed() {
	a.rate = a.rate.Toggle()
	a.speedButton.SetText(a.rate.String())
	a.updateStatus(fmt.Sprintf("Speed: %s", a.rate))
	if a.current.Current != nil {
		a.onPlay()
	}
}

func (a *Application) onPlay() {
	rec := a.current.Current
	if rec == nil || a.player == nil {
		return
	}
	if err := a.player.Play(rec.MediaPath, a.rate); err != nil {
		a.showError(err)
	}
}

func (a *Application) onPlayWord() {
	a.playAudio(a.lookupPanel.Audio())
}

func (a *Application) playAudio(data []byte) {
	if len(data) == 0 || a.player == nil {
		return
	}
	if err := a.player.PlayAudio(data); err != nil {
		a.showError(err)
	}
}

func (a *Application) updateStatus(message string) {
	a.statusLabel.SetText(message)
}

func (a *Application) showError(err error) {
	dialog.ShowError(err, a.window)
	a.updateStatus("Error: " + err.Error())
}

func setEnabled(b *ttwidget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}
