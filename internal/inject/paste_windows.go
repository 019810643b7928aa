//go:build windows

package inject

import (
	"context"
	"fmt"
)

// platformPaste sends the paste keystroke on Windows.
// TODO: Implement using Win32 SendInput for Ctrl+V
func platformPaste(ctx context.Context, text string) error {
	return fmt.Errorf("paste not yet implemented on Windows")
}

// platformType simulates typing on Windows.
// TODO: Implement using Win32 SendInput API
func platformType(ctx context.Context, text string) error {
	return fmt.Errorf("type not yet implemented on Windows")
}
