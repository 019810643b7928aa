//go:build linux

package inject

import (
	"context"
	"fmt"
)

// platformPaste sends the paste keystroke on Linux.
// TODO: Implement using XTest (X11) or wlroots virtual keyboard (Wayland);
// until then PasteOrType falls through to the clipboard copy.
func platformPaste(ctx context.Context, text string) error {
	return fmt.Errorf("paste not yet implemented on Linux")
}

// platformType simulates typing on Linux.
// TODO: Implement using XTest or an appropriate Wayland method
func platformType(ctx context.Context, text string) error {
	return fmt.Errorf("type not yet implemented on Linux")
}
