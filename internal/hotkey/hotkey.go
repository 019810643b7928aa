package hotkey

import (
	"fmt"
	"strings"
)

// Manager defines the interface for global hotkey management
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

// Modifier bitmask, platform-independent. Platform files translate
// these to X11 masks or Carbon flags.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

// Accel is a parsed accelerator like "Alt+Space" or "Ctrl+Shift+C".
type Accel struct {
	Mods Modifier
	Key  string // canonical lower-case key name
}

// ParseAccel splits an accelerator string into modifiers and a key.
func ParseAccel(accel string) (Accel, error) {
	parts := strings.Split(accel, "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Accel{}, fmt.Errorf("invalid accelerator: %q", accel)
	}

	var out Accel
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl", "control":
			out.Mods |= ModCtrl
		case "shift":
			out.Mods |= ModShift
		case "alt", "option", "opt":
			out.Mods |= ModAlt
		case "super", "cmd", "win", "meta":
			out.Mods |= ModSuper
		default:
			return Accel{}, fmt.Errorf("unknown modifier %q in %q", mod, accel)
		}
	}

	out.Key = strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if out.Key == "" {
		return Accel{}, fmt.Errorf("missing key in accelerator %q", accel)
	}
	return out, nil
}
