// Package tray provides the system tray menu: an enable toggle, a live
// gesture readout and shortcuts to clear the trail or open the viewer.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/airtrail/internal/app"
	"github.com/ayusman/airtrail/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onClear  func()
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuHands  *systray.MenuItem
	menuScene  *systray.MenuItem

	handsText string
	sceneText string
}

// New creates a Tray showing the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled:   enabled,
		handsText: handsLine(nil),
		sceneText: sceneLine(app.Snapshot{}),
	}
}

// OnToggle sets the callback for the enable toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnClear sets the callback for the clear trail item.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnOpen sets the callback for the open viewer item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu, e.g. on a signal.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("airtrail")
	systray.SetTooltip("airtrail: draw in the air")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	systray.AddSeparator()

	t.menuHands = systray.AddMenuItem(t.handsText, "Tracked hands")
	t.menuHands.Disable()
	t.menuScene = systray.AddMenuItem(t.sceneText, "Drawing state")
	t.menuScene.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuClear := systray.AddMenuItem("Clear Trail", "Erase the live drawing")
	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the renderer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit airtrail")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuClear.ClickedCh:
				t.call(func() func() { return t.onClear })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback picked under the read lock.
func (t *Tray) call(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// Update refreshes the readout from a pipeline snapshot. Menu titles are
// only rewritten when their text changes.
func (t *Tray) Update(snap app.Snapshot) {
	hands := handsLine(snap.Hands)
	scene := sceneLine(snap)

	t.mu.Lock()
	defer t.mu.Unlock()
	if hands != t.handsText {
		t.handsText = hands
		if t.menuHands != nil {
			t.menuHands.SetTitle(hands)
		}
	}
	if scene != t.sceneText {
		t.sceneText = scene
		if t.menuScene != nil {
			t.menuScene.SetTitle(scene)
		}
	}
}

// Readout returns the current hands and scene lines.
func (t *Tray) Readout() (hands, scene string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handsText, t.sceneText
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

// handsLine describes each tracked hand, e.g. "Right: drawing | Left: palm 12".
func handsLine(hands []gesture.HandState) string {
	if len(hands) == 0 {
		return "No hands"
	}
	parts := make([]string, 0, len(hands))
	for _, h := range hands {
		var state string
		switch {
		case h.Touching:
			state = "drawing"
		case h.PalmOpen:
			state = "palm open"
		case h.PalmCounter > 0:
			state = fmt.Sprintf("palm %d", h.PalmCounter)
		default:
			state = "idle"
		}
		side := h.Side
		if side != "" {
			side = strings.ToUpper(side[:1]) + side[1:]
		}
		parts = append(parts, side+": "+state)
	}
	return strings.Join(parts, " | ")
}

// sceneLine summarizes the overlay, speed and trail.
func sceneLine(snap app.Snapshot) string {
	overlay := "Speed"
	if snap.Scene.Overlay {
		overlay = "Overlay open, speed"
	}
	return fmt.Sprintf("%s %.0f | %d points", overlay, snap.Scene.Speed.Current, snap.TrailLength)
}
