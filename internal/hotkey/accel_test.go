package hotkey

import "testing"

func TestParseAccel(t *testing.T) {
	tests := []struct {
		name    string
		accel   string
		mods    Modifier
		key     string
		wantErr bool
	}{
		{name: "alt space", accel: "Alt+Space", mods: ModAlt, key: "space"},
		{name: "cancel combo", accel: "Ctrl+Shift+C", mods: ModCtrl | ModShift, key: "c"},
		{name: "bare key", accel: "F12", mods: 0, key: "f12"},
		{name: "option alias", accel: "Option+Space", mods: ModAlt, key: "space"},
		{name: "cmd alias", accel: "Cmd+C", mods: ModSuper, key: "c"},
		{name: "case insensitive", accel: "ctrl+shift+c", mods: ModCtrl | ModShift, key: "c"},
		{name: "unknown modifier", accel: "Hyper+Space", wantErr: true},
		{name: "trailing plus", accel: "Ctrl+", wantErr: true},
		{name: "empty", accel: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAccel(tt.accel)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.accel)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Mods != tt.mods {
				t.Errorf("mods: expected %b, got %b", tt.mods, got.Mods)
			}
			if got.Key != tt.key {
				t.Errorf("key: expected %q, got %q", tt.key, got.Key)
			}
		})
	}
}
