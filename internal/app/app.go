package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MikelWL/whisper-clipboard/internal/audio"
	"github.com/MikelWL/whisper-clipboard/internal/config"
	"github.com/MikelWL/whisper-clipboard/internal/inject"
	"github.com/MikelWL/whisper-clipboard/internal/recorder"
	"github.com/MikelWL/whisper-clipboard/internal/vad"
	"github.com/MikelWL/whisper-clipboard/internal/whisper"
	"github.com/rs/zerolog"
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetProcessing()
	SetError()
}

type Config struct {
	Device        audio.Device
	Transcriber   whisper.Transcriber
	Injector      inject.Injector
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

// App wires the trigger sources (hotkey or VAD) to the recording
// controller and feeds completed utterances through transcription into
// the clipboard.
type App struct {
	dev    audio.Device
	rec    *recorder.Controller
	stt    whisper.Transcriber
	inj    inject.Injector
	cfg    *config.Config
	log    zerolog.Logger
	status StatusUpdater

	trigger atomic.Pointer[vad.Trigger] // set while running in VAD mode

	utterances chan *recorder.Utterance
	workerDone chan struct{}
}

func New(cfg Config) *App {
	a := &App{
		dev:        cfg.Device,
		stt:        cfg.Transcriber,
		inj:        cfg.Injector,
		cfg:        cfg.Config,
		log:        cfg.Logger,
		status:     cfg.StatusUpdater,
		utterances: make(chan *recorder.Utterance, 4),
		workerDone: make(chan struct{}),
	}

	a.rec = recorder.New(recorder.Config{
		Device:      cfg.Device,
		Params:      streamParams(cfg.Config.Audio),
		JoinTimeout: seconds(cfg.Config.Recording.JoinTimeoutSec),
		MaxDuration: seconds(cfg.Config.Recording.MaxDurationSec),
		Callbacks: recorder.Callbacks{
			OnStart:  a.onRecordingStart,
			OnStop:   a.onRecordingStop,
			OnEmpty:  a.onRecordingEmpty,
			OnCancel: a.onRecordingCancel,
		},
		FrameTap: a.tapFrame,
		Logger:   cfg.Logger,
	})

	go a.transcribeWorker()
	return a
}

func streamParams(cfg config.AudioConfig) audio.StreamParams {
	return audio.StreamParams{
		DeviceIndex: cfg.DeviceIndex,
		SampleRate:  cfg.SampleRate,
		FrameSize:   cfg.FrameSize,
		Channels:    cfg.Channels,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// OnHotkey handles press/release of the record hotkey.
func (a *App) OnHotkey(pressed bool) {
	switch a.cfg.Mode {
	case config.ModeToggle:
		if !pressed {
			return
		}
		if a.rec.State() == recorder.StateRecording {
			a.stopRecording()
		} else {
			a.startRecording()
		}
	default: // push-to-talk
		if pressed {
			a.startRecording()
		} else {
			a.stopRecording()
		}
	}
}

// OnCancelHotkey discards the in-progress recording.
func (a *App) OnCancelHotkey(pressed bool) {
	if !pressed {
		return
	}
	if err := a.rec.Cancel(); err != nil {
		a.log.Debug().Err(err).Msg("Cancel rejected")
	}
}

func (a *App) startRecording() {
	if err := a.rec.Start(); err != nil {
		a.log.Error().Err(err).Msg("Failed to start recording")
		if a.status != nil {
			a.status.SetError()
		}
	}
}

func (a *App) stopRecording() {
	if err := a.rec.Stop(); err != nil {
		a.log.Debug().Err(err).Msg("Stop rejected")
	}
}

// RunVAD drives the recorder from voice activity instead of hotkeys,
// until ctx is cancelled.
func (a *App) RunVAD(ctx context.Context) error {
	det := vad.NewDetector(a.cfg.VAD.Threshold, seconds(a.cfg.VAD.SilenceTimeoutSec))
	trig := vad.NewTrigger(a.rec, a.dev, streamParams(a.cfg.Audio), det, a.log)
	a.trigger.Store(trig)
	defer a.trigger.Store(nil)

	a.log.Info().
		Float64("threshold", a.cfg.VAD.Threshold).
		Float64("silence_timeout_sec", a.cfg.VAD.SilenceTimeoutSec).
		Msg("Voice activation enabled")

	return trig.Run(ctx)
}

// tapFrame forwards capture-loop frames to the VAD trigger when one is
// active. Must stay cheap: it runs on the capture goroutine.
func (a *App) tapFrame(frame []float32) {
	if t := a.trigger.Load(); t != nil {
		t.Tap(frame)
	}
}

func (a *App) onRecordingStart(sessionID uint64) {
	a.log.Info().Uint64("session", sessionID).Msg("Dictation started")
	if a.status != nil {
		a.status.SetRecording()
	}
}

func (a *App) onRecordingStop(sessionID uint64, u *recorder.Utterance) {
	if a.status != nil {
		a.status.SetProcessing()
	}
	a.utterances <- u
}

func (a *App) onRecordingEmpty(sessionID uint64) {
	a.log.Info().Uint64("session", sessionID).Msg("Nothing captured")
	if a.status != nil {
		a.status.SetIdle()
	}
}

func (a *App) onRecordingCancel(sessionID uint64) {
	a.log.Info().Uint64("session", sessionID).Msg("Dictation cancelled")
	if a.status != nil {
		a.status.SetIdle()
	}
}

// transcribeWorker consumes completed utterances one at a time so a
// slow model never delays the next recording session.
func (a *App) transcribeWorker() {
	defer close(a.workerDone)

	for u := range a.utterances {
		samples := u.Samples
		if u.Channels > 1 {
			samples = audio.DownmixInterleaved(samples, u.Channels, len(samples)/u.Channels)
		}

		start := time.Now()
		text, err := a.stt.Transcribe(context.Background(), samples, u.SampleRate)
		if err != nil {
			a.log.Error().Err(err).Msg("Transcription failed")
			if a.status != nil {
				a.status.SetError()
			}
			continue
		}
		a.log.Info().
			Dur("took", time.Since(start)).
			Dur("audio", u.Duration()).
			Msg("Transcription complete")

		a.deliver(text)
	}
}

func (a *App) deliver(text string) {
	text = a.applyFilters(text)
	if text == "" {
		a.log.Info().Msg("No text to deliver")
		if a.status != nil {
			a.status.SetIdle()
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	if a.cfg.Inject.PreferPaste {
		err = a.inj.PasteOrType(ctx, text)
	} else {
		err = a.inj.Copy(ctx, text)
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to deliver text")
		if a.status != nil {
			a.status.SetError()
		}
		return
	}

	a.log.Info().Str("text", text).Msg("Text delivered")
	if a.status != nil {
		a.status.SetIdle()
	}
}

func (a *App) applyFilters(text string) string {
	if len(text) == 0 {
		return text
	}

	// Auto-capitalize first letter
	if text[0] >= 'a' && text[0] <= 'z' {
		text = string(text[0]-32) + text[1:]
	}

	if a.cfg.AppendSpace {
		text += " "
	}

	return text
}

// Shutdown stops any active recording and waits for queued utterances
// to finish transcribing, bounded by ctx.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.rec.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Recorder close failed")
	}
	close(a.utterances)

	select {
	case <-a.workerDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tray actions

func (a *App) SetMode(mode string) {
	a.cfg.Mode = mode
	if err := a.cfg.Save(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to save config")
	}
}

func (a *App) SetDevice(index int) error {
	if a.rec.State() != recorder.StateIdle {
		return fmt.Errorf("cannot change device while recording")
	}
	a.cfg.Audio.DeviceIndex = index
	return a.cfg.Save()
}

func (a *App) SetModel(model string) error {
	if a.rec.State() != recorder.StateIdle {
		return fmt.Errorf("cannot change model while recording")
	}
	if err := a.stt.LoadModel(model); err != nil {
		return err
	}
	a.cfg.Whisper.Model = model
	return a.cfg.Save()
}

// IsRecording reports whether a session is currently capturing audio.
func (a *App) IsRecording() bool {
	return a.rec.State() == recorder.StateRecording
}

func (a *App) ListDevices() ([]audio.DeviceInfo, error) {
	return a.dev.ListDevices()
}
