// Package tray shows fingerspell's status in the system tray.
package tray

import (
	"sync"
	"unicode/utf8"

	"github.com/getlantern/systray"
)

const maxPreview = 24

// Tray is the system tray menu: an enable toggle, the last committed letter,
// a preview of the spelled text, and links to the web client and quit.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	last     rune
	text     string
	mu       sync.RWMutex

	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	menuText   *systray.MenuItem
}

// New creates a Tray. enabled is the initial pipeline state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback invoked when the pipeline is enabled or disabled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback invoked by "Open Fingerspell...".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback invoked by "Quit".
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Fingerspell")
	systray.SetTooltip("Fingerspelling recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle the camera pipeline")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last committed letter")
	t.menuLast.Disable()
	t.menuText = systray.AddMenuItem(textTitle(t.text), "Spelled text")
	t.menuText.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Fingerspell...", "Open the web client")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Fingerspell")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock; the callback may call back into the tray.
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastLetter shows the most recently committed letter.
func (t *Tray) SetLastLetter(letter rune) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = letter
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(letter))
	}
}

// SetText shows the tail of the spelled text.
func (t *Tray) SetText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.text = text
	if t.menuText != nil {
		t.menuText.SetTitle(textTitle(text))
	}
}

// LastLetter returns the letter currently shown.
func (t *Tray) LastLetter() rune {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(letter rune) string {
	if letter == 0 {
		return "Last: none"
	}
	return "Last: " + string(letter)
}

func textTitle(text string) string {
	if text == "" {
		return "Text: (empty)"
	}
	if n := utf8.RuneCountInString(text); n > maxPreview {
		r := []rune(text)
		text = "…" + string(r[n-maxPreview:])
	}
	return "Text: " + text
}
