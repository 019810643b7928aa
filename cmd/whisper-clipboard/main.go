package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikelWL/whisper-clipboard/internal/app"
	"github.com/MikelWL/whisper-clipboard/internal/audio"
	"github.com/MikelWL/whisper-clipboard/internal/config"
	"github.com/MikelWL/whisper-clipboard/internal/hotkey"
	"github.com/MikelWL/whisper-clipboard/internal/inject"
	"github.com/MikelWL/whisper-clipboard/internal/logging"
	"github.com/MikelWL/whisper-clipboard/internal/permissions"
	"github.com/MikelWL/whisper-clipboard/internal/tray"
	"github.com/MikelWL/whisper-clipboard/internal/whisper"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// macOS requires explicit microphone + accessibility approval before capture or hotkeys work
	if err := permissions.EnsurePermissions(); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize audio capture
	device, err := audio.New(log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	defer device.Close()

	// A device from an old config may be unplugged; fall back to the
	// system default rather than failing every recording.
	if cfg.Audio.DeviceIndex != config.DefaultDeviceIndex {
		if !deviceExists(device, cfg.Audio.DeviceIndex) {
			log.Warn().Int("device", cfg.Audio.DeviceIndex).Msg("Configured audio device not found, using default")
			cfg.Audio.DeviceIndex = config.DefaultDeviceIndex
		}
	}

	// Initialize whisper
	transcriber, err := whisper.New(cfg.Whisper)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize whisper")
	}
	defer transcriber.Close()

	// Initialize text injector
	injector := inject.New(cfg.Inject)

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(cfg, Version, Commit) // App reference set below

	// Create app with tray as status updater
	application := app.New(app.Config{
		Device:        device,
		Transcriber:   transcriber,
		Injector:      injector,
		Config:        cfg,
		Logger:        log,
		StatusUpdater: trayUI,
	})

	// Set app reference in tray
	trayUI.SetApp(application)

	// Initialize hotkey manager
	hkManager, err := hotkey.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize hotkeys")
	}
	defer hkManager.Close()

	if cfg.Mode == config.ModeVAD {
		go func() {
			if err := application.RunVAD(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Voice activation stopped")
			}
		}()
	} else {
		// Register global record hotkey
		if err := hkManager.Register(cfg.PlatformHotkey(), application.OnHotkey); err != nil {
			log.Fatal().Err(err).Msg("Failed to register hotkey")
		}
	}

	// Cancel hotkey works in every mode
	if cfg.CancelHotkey != "" {
		if err := hkManager.Register(cfg.CancelHotkey, application.OnCancelHotkey); err != nil {
			log.Warn().Err(err).Msg("Failed to register cancel hotkey")
		}
	}

	log.Info().Str("mode", cfg.Mode).Msg("Whisper Clipboard starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}

func deviceExists(dev audio.Device, index int) bool {
	devices, err := dev.ListDevices()
	if err != nil {
		return false
	}
	for _, d := range devices {
		if d.Index == index && d.MaxInputChannels > 0 {
			return true
		}
	}
	return false
}
