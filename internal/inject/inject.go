package inject

import "context"

// Injector delivers transcribed text to the user. Copy only touches
// the clipboard; Paste additionally sends the platform paste shortcut.
type Injector interface {
	Copy(ctx context.Context, text string) error
	Paste(ctx context.Context, text string) error
	Type(ctx context.Context, text string) error
	PasteOrType(ctx context.Context, text string) error
}
