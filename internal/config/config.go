package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

// Recording trigger modes.
const (
	ModePushToTalk = "PushToTalk"
	ModeToggle     = "Toggle"
	ModeVAD        = "VAD"
)

// DefaultDeviceIndex selects the platform default input device.
const DefaultDeviceIndex = -1

type Config struct {
	Hotkey       string          `json:"hotkey"`
	HotkeyDarwin string          `json:"hotkey_darwin"`
	CancelHotkey string          `json:"cancel_hotkey"`
	Mode         string          `json:"mode"` // "PushToTalk", "Toggle" or "VAD"
	Audio        AudioConfig     `json:"audio"`
	VAD          VADConfig       `json:"vad"`
	Recording    RecordingConfig `json:"recording"`
	Whisper      WhisperConfig   `json:"whisper"`
	Inject       InjectConfig    `json:"inject"`
	AppendSpace  bool            `json:"append_space"`
	RunAtLogin   bool            `json:"run_at_login"`
	LogLevel     string          `json:"log_level"`
}

type AudioConfig struct {
	DeviceIndex int `json:"device_index"` // -1 selects the default device
	SampleRate  int `json:"sample_rate"`
	FrameSize   int `json:"frame_size"` // samples per read
	Channels    int `json:"channels"`
}

type VADConfig struct {
	Threshold         float64 `json:"threshold"`           // RMS energy ratio
	SilenceTimeoutSec float64 `json:"silence_timeout_sec"` // auto-stop after this much silence
}

type RecordingConfig struct {
	JoinTimeoutSec float64 `json:"join_timeout_sec"` // capture thread join bound
	MaxDurationSec float64 `json:"max_duration_sec"` // hard session cap, 0 disables
}

type WhisperConfig struct {
	Model       string  `json:"model"`    // "base.en", "small", etc.
	Language    string  `json:"language"` // "auto", "en", etc.
	Temperature float32 `json:"temperature"`
	Threads     int     `json:"threads"`
}

type InjectConfig struct {
	PreferPaste bool `json:"prefer_paste"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	cfg := Default()

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Hotkey:       "Alt+Space",
		HotkeyDarwin: "Alt+Space", // Option+Space
		CancelHotkey: "Ctrl+Shift+C",
		Mode:         ModePushToTalk,
		Audio: AudioConfig{
			DeviceIndex: DefaultDeviceIndex,
			SampleRate:  16000, // Whisper native rate
			FrameSize:   1024,
			Channels:    1,
		},
		VAD: VADConfig{
			Threshold:         0.01,
			SilenceTimeoutSec: 2.0,
		},
		Recording: RecordingConfig{
			JoinTimeoutSec: 2.0,
			MaxDurationSec: 30.0,
		},
		Whisper: WhisperConfig{
			Model:       "base.en",
			Language:    "auto",
			Temperature: 0.0,
			Threads:     0, // Auto-detect
		},
		Inject: InjectConfig{
			PreferPaste: true,
		},
		AppendSpace: true,
		RunAtLogin:  false,
		LogLevel:    "info",
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PlatformHotkey returns the appropriate hotkey for the current platform
func (c *Config) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && c.HotkeyDarwin != "" {
		return c.HotkeyDarwin
	}
	return c.Hotkey
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "whisper-clipboard", "config.json")
}

// ModelsPath returns the platform-specific models directory path
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "whisper-clipboard", "models")
}
