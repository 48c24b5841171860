// Command keystroke is an airtrail hook that sends a keyboard shortcut when
// a gesture changes. Bindings are keyed by "<side>:<kind>", e.g.
// "left:palm_opened". It uses AppleScript on macOS and xdotool elsewhere.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/internal/hook"
)

// Binding is one shortcut.
type Binding struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

type options struct {
	Bindings map[string]Binding `json:"bindings"`
}

// appleModifiers maps friendly modifier names to AppleScript.
var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdoModifiers maps friendly modifier names to xdotool key names.
var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req hook.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		reply(hook.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	b, ok, err := lookup(req)
	if err != nil {
		reply(hook.Response{Error: err.Error()})
		return
	}
	if !ok {
		reply(hook.Response{Success: true})
		return
	}

	name, args := command(runtime.GOOS, b)
	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		reply(hook.Response{Error: fmt.Sprintf("%s failed: %v: %s", name, err, out)})
		return
	}
	reply(hook.Response{Success: true})
}

// lookup finds the binding for the request's gesture. Unbound gestures are
// not an error.
func lookup(req hook.Request) (Binding, bool, error) {
	if req.Event != hook.GestureChanged || req.Gesture == nil {
		return Binding{}, false, fmt.Errorf("unsupported event: %s", req.Event)
	}
	var opts options
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &opts); err != nil {
			return Binding{}, false, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	b, ok := opts.Bindings[bindingKey(*req.Gesture)]
	if !ok {
		return Binding{}, false, nil
	}
	if b.Key == "" {
		return Binding{}, false, errors.New("key is required")
	}
	return b, true, nil
}

func bindingKey(e gesture.Event) string {
	return e.Side.String() + ":" + string(e.Kind)
}

// command builds the program and arguments that press b on goos.
func command(goos string, b Binding) (string, []string) {
	if goos == "darwin" {
		return "osascript", []string{"-e", appleScript(b)}
	}
	keys := make([]string, 0, len(b.Modifiers)+1)
	for _, m := range b.Modifiers {
		if k, ok := xdoModifiers[strings.ToLower(m)]; ok {
			keys = append(keys, k)
		}
	}
	keys = append(keys, b.Key)
	return "xdotool", []string{"key", strings.Join(keys, "+")}
}

func appleScript(b Binding) string {
	var mods []string
	for _, m := range b.Modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}
	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke %q`, b.Key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke %q using {%s}`, b.Key, strings.Join(mods, ", "))
}

func reply(resp hook.Response) {
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}
