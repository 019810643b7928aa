package inject

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/MikelWL/whisper-clipboard/internal/config"
)

type clipboardInjector struct {
	cfg config.InjectConfig
}

// New creates a new text injector
func New(cfg config.InjectConfig) Injector {
	return &clipboardInjector{
		cfg: cfg,
	}
}

// Copy places text on the system clipboard without simulating input.
func (c *clipboardInjector) Copy(ctx context.Context, text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Paste copies the text and sends the platform paste shortcut
// (see paste_darwin.go; stubbed on other platforms)
func (c *clipboardInjector) Paste(ctx context.Context, text string) error {
	return platformPaste(ctx, text)
}

// Type injects text using keyboard simulation
func (c *clipboardInjector) Type(ctx context.Context, text string) error {
	return platformType(ctx, text)
}

// PasteOrType tries paste first, then typing, and finally falls back
// to a plain clipboard copy so the transcript is never lost.
func (c *clipboardInjector) PasteOrType(ctx context.Context, text string) error {
	if c.cfg.PreferPaste {
		if err := c.Paste(ctx, text); err == nil {
			return nil
		}
	}
	if err := c.Type(ctx, text); err == nil {
		return nil
	}
	return c.Copy(ctx, text)
}
