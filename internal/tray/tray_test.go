package tray

import (
	"testing"

	"github.com/MikelWL/whisper-clipboard/internal/config"
)

func TestNextModeCyclesThroughAllModes(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{"push-to-talk advances to toggle", config.ModePushToTalk, config.ModeToggle},
		{"toggle advances to voice activation", config.ModeToggle, config.ModeVAD},
		{"voice activation wraps to push-to-talk", config.ModeVAD, config.ModePushToTalk},
		{"unknown mode resets to push-to-talk", "garbage", config.ModePushToTalk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextMode(tt.from); got != tt.want {
				t.Errorf("nextMode(%q) = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}

func TestModeTitle(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{config.ModePushToTalk, "Mode: Push-to-Talk"},
		{config.ModeToggle, "Mode: Toggle"},
		{config.ModeVAD, "Mode: Voice Activated"},
	}

	for _, tt := range tests {
		if got := modeTitle(tt.mode); got != tt.want {
			t.Errorf("modeTitle(%q) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestEmojiForStatusDefaultsToReady(t *testing.T) {
	if got := emojiForStatus("something-else"); got != emojiForStatus("idle") {
		t.Errorf("unknown status should render as idle, got %q", got)
	}
	if emojiForStatus("recording") == emojiForStatus("idle") {
		t.Error("recording and idle must render differently")
	}
}
