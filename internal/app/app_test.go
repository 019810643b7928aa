package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MikelWL/whisper-clipboard/internal/audio"
	"github.com/MikelWL/whisper-clipboard/internal/config"
	"github.com/rs/zerolog"
)

// Mock implementations for testing

// fakeStream yields its scripted frames, then blocks in Read until the
// stream is closed.
type fakeStream struct {
	mu     sync.Mutex
	frames [][]float32
	closed chan struct{}
	once   sync.Once
}

func newFakeStream(frames [][]float32) *fakeStream {
	return &fakeStream{frames: frames, closed: make(chan struct{})}
}

func (s *fakeStream) Read() ([]float32, error) {
	s.mu.Lock()
	if len(s.frames) > 0 {
		f := s.frames[0]
		s.frames = s.frames[1:]
		s.mu.Unlock()
		return f, nil
	}
	s.mu.Unlock()

	<-s.closed
	return nil, errors.New("stream closed")
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// fakeDevice hands out a fresh fakeStream per Open.
type fakeDevice struct {
	frames [][]float32 // frames for each opened stream
}

func (d *fakeDevice) Open(params audio.StreamParams) (audio.Stream, error) {
	return newFakeStream(d.frames), nil
}

func (d *fakeDevice) ListDevices() ([]audio.DeviceInfo, error) {
	return []audio.DeviceInfo{{Index: 0, Name: "Default", MaxInputChannels: 1, DefaultSampleRate: 16000}}, nil
}

func (d *fakeDevice) Close() error { return nil }

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, nil
}

func (f *fakeTranscriber) LoadModel(model string) error { return nil }
func (f *fakeTranscriber) Close() error                 { return nil }

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeInjector struct {
	mu        sync.Mutex
	delivered []string
}

func (f *fakeInjector) record(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, text)
}

func (f *fakeInjector) Copy(ctx context.Context, text string) error {
	f.record(text)
	return nil
}

func (f *fakeInjector) Paste(ctx context.Context, text string) error {
	f.record(text)
	return nil
}

func (f *fakeInjector) Type(ctx context.Context, text string) error {
	f.record(text)
	return nil
}

func (f *fakeInjector) PasteOrType(ctx context.Context, text string) error {
	f.record(text)
	return nil
}

func (f *fakeInjector) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.delivered...)
}

func testConfig(mode string) *config.Config {
	cfg := config.Default()
	cfg.Mode = mode
	cfg.Recording.JoinTimeoutSec = 0.1
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, dev audio.Device, stt *fakeTranscriber, inj *fakeInjector) *App {
	t.Helper()
	a := New(Config{
		Device:      dev,
		Transcriber: stt,
		Injector:    inj,
		Config:      cfg,
		Logger:      zerolog.Nop(),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		a.Shutdown(ctx)
	})
	return a
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestToggleModeKeyPress(t *testing.T) {
	app := newTestApp(t, testConfig(config.ModeToggle), &fakeDevice{}, &fakeTranscriber{}, &fakeInjector{})

	// Initially not recording
	if app.IsRecording() {
		t.Error("App should not be recording initially")
	}

	// First key press - should start recording
	app.OnHotkey(true)
	if !app.IsRecording() {
		t.Error("App should be recording after first key press")
	}

	// Key release - should NOT stop recording in Toggle mode
	app.OnHotkey(false)
	if !app.IsRecording() {
		t.Error("App should still be recording after key release in Toggle mode")
	}

	// Second key press - should stop recording
	app.OnHotkey(true)

	if !waitFor(t, time.Second, func() bool { return !app.IsRecording() }) {
		t.Error("App should have stopped recording after second key press")
	}
}

func TestPushToTalkModeKeyPress(t *testing.T) {
	app := newTestApp(t, testConfig(config.ModePushToTalk), &fakeDevice{}, &fakeTranscriber{}, &fakeInjector{})

	// Key press - should start recording
	app.OnHotkey(true)
	if !app.IsRecording() {
		t.Error("App should be recording after key press")
	}

	// Key release - should stop recording in PushToTalk mode
	app.OnHotkey(false)

	if !waitFor(t, time.Second, func() bool { return !app.IsRecording() }) {
		t.Error("App should have stopped recording after key release")
	}
}

func TestToggleModeIgnoresKeyRelease(t *testing.T) {
	app := newTestApp(t, testConfig(config.ModeToggle), &fakeDevice{}, &fakeTranscriber{}, &fakeInjector{})

	// Key release when not recording - should do nothing
	app.OnHotkey(false)
	if app.IsRecording() {
		t.Error("App should not be recording after key release")
	}
}

func TestCancelHotkeyDiscardsRecording(t *testing.T) {
	frames := [][]float32{make([]float32, 1024), make([]float32, 1024)}
	stt := &fakeTranscriber{text: "should not appear"}
	inj := &fakeInjector{}
	app := newTestApp(t, testConfig(config.ModeToggle), &fakeDevice{frames: frames}, stt, inj)

	app.OnHotkey(true)
	if !app.IsRecording() {
		t.Fatal("App should be recording")
	}

	app.OnCancelHotkey(true)
	if app.IsRecording() {
		t.Error("App should not be recording after cancel")
	}

	// The discarded audio must never reach the transcriber
	time.Sleep(50 * time.Millisecond)
	if n := stt.callCount(); n != 0 {
		t.Errorf("Transcribe called %d times after cancel, want 0", n)
	}
	if got := inj.texts(); len(got) != 0 {
		t.Errorf("Text delivered after cancel: %v", got)
	}
}

func TestTranscribedTextDelivered(t *testing.T) {
	frames := [][]float32{make([]float32, 1024), make([]float32, 1024)}
	stt := &fakeTranscriber{text: "hello world"}
	inj := &fakeInjector{}
	app := newTestApp(t, testConfig(config.ModePushToTalk), &fakeDevice{frames: frames}, stt, inj)

	app.OnHotkey(true)
	time.Sleep(20 * time.Millisecond) // let the capture loop consume the frames
	app.OnHotkey(false)

	if !waitFor(t, time.Second, func() bool { return len(inj.texts()) == 1 }) {
		t.Fatalf("Expected one delivery, got %v", inj.texts())
	}

	// Capitalized with a trailing space per the default filters
	if got := inj.texts()[0]; got != "Hello world " {
		t.Errorf("Delivered %q, want %q", got, "Hello world ")
	}
}

func TestEmptySessionDeliversNothing(t *testing.T) {
	stt := &fakeTranscriber{text: "hello"}
	inj := &fakeInjector{}
	app := newTestApp(t, testConfig(config.ModePushToTalk), &fakeDevice{}, stt, inj)

	app.OnHotkey(true)
	app.OnHotkey(false)

	time.Sleep(50 * time.Millisecond)
	if n := stt.callCount(); n != 0 {
		t.Errorf("Transcribe called %d times for an empty session, want 0", n)
	}
	if got := inj.texts(); len(got) != 0 {
		t.Errorf("Text delivered for an empty session: %v", got)
	}
}

func TestShutdownDrainsPendingTranscriptions(t *testing.T) {
	frames := [][]float32{make([]float32, 1024)}
	stt := &fakeTranscriber{text: "last words"}
	inj := &fakeInjector{}
	app := New(Config{
		Device:      &fakeDevice{frames: frames},
		Transcriber: stt,
		Injector:    inj,
		Config:      testConfig(config.ModePushToTalk),
		Logger:      zerolog.Nop(),
	})

	app.OnHotkey(true)
	time.Sleep(20 * time.Millisecond)
	app.OnHotkey(false)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if got := inj.texts(); len(got) != 1 {
		t.Errorf("Expected the queued utterance to be delivered before shutdown, got %v", got)
	}
}
