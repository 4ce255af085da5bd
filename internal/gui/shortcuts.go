package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const hotkeys = `## Clip
**p** Replay clip  
**s** Toggle speed (Normal/Slow)  

## Queue
**n** or **→** Next segment  
**d** Remove segment (asks first)  

## Words
**w** Focus the word field  
**a** Play word audio  
**Esc** Unfocus field  

## Application
**h** Show hotkeys  
**q** Quit application  `

func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			a.window.Canvas().Unfocus()
			return
		}

		// Typing in the word field must not trigger shortcuts
		if a.window.Canvas().Focused() == a.wordEntry {
			return
		}

		a.handleShortcutKey(ev.Name)
	})
}

// handleShortcutKey handles the actual shortcut action
func (a *Application) handleShortcutKey(key fyne.KeyName) {
	// The confirmation dialog owns the keyboard
	if a.deleteConfirming {
		return
	}

	switch key {
	case fyne.KeyN, fyne.KeyRight:
		a.onNext()
	case fyne.KeyD:
		a.onDelete()
	case fyne.KeyS:
		if !a.speedButton.Disabled() {
			a.onSpeed()
		}
	case fyne.KeyP:
		if !a.playButton.Disabled() {
			a.onPlay()
		}
	case fyne.KeyA:
		a.onPlayWord()
	case fyne.KeyW:
		a.window.Canvas().Focus(a.wordEntry)
	case fyne.KeyH:
		a.onShowHotkeys()
	case fyne.KeyQ:
		a.window.Close()
	}
}

func (a *Application) onShowHotkeys() {
	content := widget.NewRichTextFromMarkdown(hotkeys)
	content.Wrapping = fyne.TextWrapWord

	scroll := container.NewScroll(container.NewPadded(content))
	scroll.SetMinSize(fyne.NewSize(420, 360))

	dialog.ShowCustom("Keyboard Shortcuts", "Close", scroll, a.window)
}
