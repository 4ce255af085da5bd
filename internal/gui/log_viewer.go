package gui

import (
	"io"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// LogWriter keeps the most recent log lines for the log viewer and
// passes everything through to the original output
type LogWriter struct {
	original io.Writer

	mu          sync.Mutex
	messages    []string
	maxMessages int
	partial     string
	onChange    func()
}

// NewLogWriter creates a log writer. original may be nil.
func NewLogWriter(original io.Writer) *LogWriter {
	return &LogWriter{
		original:    original,
		maxMessages: 500,
	}
}

// Write implements io.Writer
func (w *LogWriter) Write(p []byte) (n int, err error) {
	if w.original != nil {
		w.original.Write(p)
	}

	w.mu.Lock()
	text := w.partial + string(p)
	lines := strings.Split(text, "\n")
	// The last element is an unterminated line (or empty)
	w.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		// Newest first
		w.messages = append([]string{line}, w.messages...)
	}
	if len(w.messages) > w.maxMessages {
		w.messages = w.messages[:w.maxMessages]
	}
	onChange := w.onChange
	w.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return len(p), nil
}

// Messages returns the kept lines, newest first
func (w *LogWriter) Messages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.messages...)
}

// Clear drops all kept lines
func (w *LogWriter) Clear() {
	w.mu.Lock()
	w.messages = nil
	onChange := w.onChange
	w.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

func (w *LogWriter) setOnChange(f func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = f
}

// LogViewer is a widget that displays the lines of a LogWriter
type LogViewer struct {
	widget.BaseWidget

	container  *fyne.Container
	logEntry   *widget.Entry
	scrollView *container.Scroll
	writer     *LogWriter
}

// NewLogViewer creates a log viewer following writer
func NewLogViewer(writer *LogWriter) *LogViewer {
	v := &LogViewer{writer: writer}

	// Read-only multiline entry
	v.logEntry = widget.NewMultiLineEntry()
	v.logEntry.Disable()
	v.logEntry.Wrapping = fyne.TextWrapWord

	v.scrollView = container.NewScroll(v.logEntry)
	v.scrollView.SetMinSize(fyne.NewSize(0, 120))
	v.scrollView.Direction = container.ScrollBoth

	v.container = container.NewBorder(
		widget.NewLabel("Log messages (newest first):"),
		nil,
		nil,
		nil,
		v.scrollView,
	)

	writer.setOnChange(func() {
		fyne.Do(v.refreshText)
	})
	v.refreshText()

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *LogViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.container)
}

func (v *LogViewer) refreshText() {
	v.logEntry.SetText(strings.Join(v.writer.Messages(), "\n"))

	// Keep scroll at top to show newest messages
	v.scrollView.Offset = fyne.NewPos(0, 0)
	v.scrollView.Refresh()
}
