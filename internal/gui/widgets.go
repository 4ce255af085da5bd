package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/cliprecall/internal/lang"
	"codeberg.org/snonux/cliprecall/internal/segment"
	"codeberg.org/snonux/cliprecall/internal/session"
	"codeberg.org/snonux/cliprecall/internal/subtitle"
)

// SubtitleDisplay shows the subtitle of a segment as one button per word
type SubtitleDisplay struct {
	widget.BaseWidget

	container     *fyne.Container
	words         *fyne.Container
	languageLabel *widget.Label
	onWord        func(word string)

	segmentID string
}

// NewSubtitleDisplay creates a subtitle display calling onWord when a
// word is clicked
func NewSubtitleDisplay(onWord func(word string)) *SubtitleDisplay {
	d := &SubtitleDisplay{onWord: onWord}

	d.words = container.NewHBox()
	d.languageLabel = widget.NewLabel("")
	d.languageLabel.TextStyle = fyne.TextStyle{Italic: true}

	scroll := container.NewHScroll(d.words)
	scroll.SetMinSize(fyne.NewSize(0, 60))

	d.container = container.NewBorder(
		nil,
		d.languageLabel,
		nil, nil,
		scroll,
	)

	d.Clear("No segment loaded")
	d.ExtendBaseWidget(d)
	return d
}

// CreateRenderer implements fyne.Widget
func (d *SubtitleDisplay) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(d.container)
}

// SetSegment shows the words of rec. It reports whether the segment
// changed.
func (d *SubtitleDisplay) SetSegment(rec *segment.Record) bool {
	if rec == nil {
		changed := d.segmentID != ""
		d.Clear("No segment loaded")
		return changed
	}
	if rec.ID == d.segmentID {
		return false
	}
	d.segmentID = rec.ID

	d.words.RemoveAll()
	words := subtitle.Words(rec.Text, rec.Language)
	if len(words) == 0 {
		d.words.Add(widget.NewLabel("(no subtitle)"))
	}
	for _, word := range words {
		word := word
		btn := widget.NewButton(word, func() {
			if d.onWord != nil {
				d.onWord(word)
			}
		})
		btn.Importance = widget.LowImportance
		d.words.Add(btn)
	}
	d.words.Refresh()

	d.languageLabel.SetText(languageText(rec.Language))
	return true
}

// Clear empties the display and shows message instead of words
func (d *SubtitleDisplay) Clear(message string) {
	d.segmentID = ""
	d.words.RemoveAll()
	d.words.Add(widget.NewLabel(message))
	d.words.Refresh()
	d.languageLabel.SetText("")
}

// LookupPanel shows the word lookup of the session
type LookupPanel struct {
	widget.BaseWidget

	container        *fyne.Container
	wordLabel        *widget.Label
	translationLabel *widget.Label
	activity         *widget.Activity
	playButton       *ttwidget.Button

	audio []byte
}

// NewLookupPanel creates a lookup panel calling onPlay with the word
// audio when its play button is pressed
func NewLookupPanel(onPlay func(audio []byte)) *LookupPanel {
	p := &LookupPanel{}

	p.wordLabel = widget.NewLabel("")
	p.wordLabel.TextStyle = fyne.TextStyle{Bold: true}

	p.translationLabel = widget.NewLabel("")
	p.translationLabel.Wrapping = fyne.TextWrapWord

	p.activity = widget.NewActivity()

	p.playButton = ttwidget.NewButtonWithIcon("", theme.VolumeUpIcon(), func() {
		if len(p.audio) > 0 && onPlay != nil {
			onPlay(p.audio)
		}
	})

	p.container = container.NewBorder(
		widget.NewLabel("Word:"),
		nil,
		nil,
		container.NewHBox(p.activity, p.playButton),
		container.NewVBox(p.wordLabel, p.translationLabel),
	)

	p.SetLookup(session.WordLookup{})
	p.ExtendBaseWidget(p)
	return p
}

// CreateRenderer implements fyne.Widget
func (p *LookupPanel) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.container)
}

// SetLookup shows l
func (p *LookupPanel) SetLookup(l session.WordLookup) {
	word, translation := lookupText(l)
	p.wordLabel.SetText(word)
	p.translationLabel.SetText(translation)

	if l.Status == session.LookupPending {
		p.activity.Show()
		p.activity.Start()
	} else {
		p.activity.Stop()
		p.activity.Hide()
	}

	p.audio = l.Audio
	if len(l.Audio) > 0 {
		p.playButton.Enable()
	} else {
		p.playButton.Disable()
	}
}

// Audio returns the audio of the shown word, if any
func (p *LookupPanel) Audio() []byte {
	return p.audio
}

func languageText(code string) string {
	name := lang.Name(code)
	if name == "" {
		return "Language: unknown"
	}
	if name == code {
		return fmt.Sprintf("Language: %s", code)
	}
	return fmt.Sprintf("Language: %s (%s)", name, code)
}
