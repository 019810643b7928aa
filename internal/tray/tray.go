package tray

import (
	"context"
	"fmt"

	"github.com/MikelWL/whisper-clipboard/internal/app"
	"github.com/MikelWL/whisper-clipboard/internal/config"
	"github.com/MikelWL/whisper-clipboard/internal/logging"
	"github.com/MikelWL/whisper-clipboard/internal/whisper"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"
)

type UI struct {
	app     *app.App
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	// Menu items
	mStatus      *systray.MenuItem
	mMode        *systray.MenuItem
	mDevices     *systray.MenuItem
	mModels      *systray.MenuItem
	mPastePrefer *systray.MenuItem
	mRunAtLogin  *systray.MenuItem
}

// Status update methods for the app to call
func (u *UI) SetIdle() {
	u.updateStatus("idle")
}

func (u *UI) SetRecording() {
	u.updateStatus("recording")
}

func (u *UI) SetProcessing() {
	u.updateStatus("processing")
}

func (u *UI) SetError() {
	u.updateStatus("error")
}

func New(cfg *config.Config, version, commit string) *UI {
	return &UI{
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     logging.New(),
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	// Use emoji instead of icon - microphone with initial status
	u.updateStatus("idle")
	systray.SetTooltip("Local voice dictation")

	// Build menu
	u.mStatus = systray.AddMenuItem("Ready", "Press the hotkey to dictate")
	u.mStatus.Disable()
	systray.AddSeparator()

	u.mMode = systray.AddMenuItem(modeTitle(u.cfg.Mode), "Cycle trigger mode")
	systray.AddSeparator()

	u.mDevices = systray.AddMenuItem("Microphone", "Select audio device")
	u.buildDeviceMenu()

	u.mModels = systray.AddMenuItem("Model", "Select Whisper model")
	u.buildModelMenu()

	systray.AddSeparator()
	u.mPastePrefer = systray.AddMenuItemCheckbox("Prefer Paste", "Paste instead of copy only", u.cfg.Inject.PreferPaste)
	u.mRunAtLogin = systray.AddMenuItemCheckbox("Run at Login", "Start on system boot", u.cfg.RunAtLogin)

	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About Whisper Clipboard")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mAbout, mQuit)
}

func (u *UI) handleEvents(mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mMode.ClickedCh:
			u.cycleMode()
		case <-u.mPastePrefer.ClickedCh:
			u.togglePastePrefer()
		case <-u.mRunAtLogin.ClickedCh:
			u.toggleRunAtLogin()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) buildDeviceMenu() {
	devices, err := u.app.ListDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio devices")
		return
	}

	deviceItems := make(map[int]*systray.MenuItem)

	defaultItem := u.mDevices.AddSubMenuItem("System Default", "")
	deviceItems[config.DefaultDeviceIndex] = defaultItem
	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		deviceItems[dev.Index] = u.mDevices.AddSubMenuItem(dev.Name, "")
	}

	for idx, itm := range deviceItems {
		if idx == u.cfg.Audio.DeviceIndex {
			itm.Check()
		}

		go func(index int, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				for i, other := range deviceItems {
					if i != index {
						other.Uncheck()
					}
				}
				menuItem.Check()
				if err := u.app.SetDevice(index); err != nil {
					u.log.Error().Err(err).Int("device", index).Msg("Failed to change audio device")
					continue
				}
				u.log.Info().Int("device", index).Msg("Changed audio device")
			}
		}(idx, itm)
	}
}

func (u *UI) buildModelMenu() {
	modelItems := make(map[string]*systray.MenuItem)

	for _, model := range whisper.KnownModels() {
		item := u.mModels.AddSubMenuItem(model, "")
		if model == u.cfg.Whisper.Model {
			item.Check()
		}
		modelItems[model] = item

		go func(m string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				oldModel := u.cfg.Whisper.Model
				if err := u.app.SetModel(m); err != nil {
					u.log.Error().Err(err).Str("model", m).Msg("Failed to change Whisper model")
					continue
				}
				for mdl, itm := range modelItems {
					if mdl != m {
						itm.Uncheck()
					}
				}
				menuItem.Check()
				u.log.Info().Str("from", oldModel).Str("to", m).Msg("Changed Whisper model")
			}
		}(model, item)
	}
}

func (u *UI) cycleMode() {
	oldMode := u.cfg.Mode
	mode := nextMode(oldMode)
	u.mMode.SetTitle(modeTitle(mode))
	u.app.SetMode(mode)
	u.log.Info().Str("from", oldMode).Str("to", mode).Msg("Changed mode")
}

// nextMode cycles PushToTalk -> Toggle -> VAD -> PushToTalk. A VAD
// restart only takes effect on the next launch; the hotkey modes switch
// immediately.
func nextMode(mode string) string {
	switch mode {
	case config.ModePushToTalk:
		return config.ModeToggle
	case config.ModeToggle:
		return config.ModeVAD
	default:
		return config.ModePushToTalk
	}
}

func modeTitle(mode string) string {
	switch mode {
	case config.ModeToggle:
		return "Mode: Toggle"
	case config.ModeVAD:
		return "Mode: Voice Activated"
	default:
		return "Mode: Push-to-Talk"
	}
}

func (u *UI) togglePastePrefer() {
	u.cfg.Inject.PreferPaste = !u.cfg.Inject.PreferPaste
	if u.cfg.Inject.PreferPaste {
		u.mPastePrefer.Check()
		u.log.Info().Msg("Enabled prefer paste")
	} else {
		u.mPastePrefer.Uncheck()
		u.log.Info().Msg("Disabled prefer paste (clipboard copy only)")
	}
	u.cfg.Save()
}

func (u *UI) toggleRunAtLogin() {
	u.cfg.RunAtLogin = !u.cfg.RunAtLogin
	if u.cfg.RunAtLogin {
		u.mRunAtLogin.Check()
		u.log.Info().Msg("Enabled run at login")
	} else {
		u.mRunAtLogin.Uncheck()
		u.log.Info().Msg("Disabled run at login")
	}
	u.cfg.Save()
	// TODO: Platform-specific login item registration
}

func (u *UI) showAbout() {
	// TODO: Show about dialog with native UI
	fmt.Printf("Whisper Clipboard %s (%s)\nLocal voice dictation\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

// updateStatus sets the tray title with microphone emoji and status indicator
func (u *UI) updateStatus(status string) {
	systray.SetTitle(fmt.Sprintf("🎤 %s", emojiForStatus(status)))
}

func emojiForStatus(status string) string {
	switch status {
	case "recording":
		return "🔴"
	case "processing":
		return "🟡"
	case "error":
		return "⚪️"
	default:
		return "🟢" // idle/ready
	}
}
