package recorder

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MikelWL/whisper-clipboard/internal/audio"
	"github.com/rs/zerolog"
)

// State of the recording controller.
type State int32

const (
	StateIdle State = iota
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyActive is returned by Start while a session is recording.
	ErrAlreadyActive = errors.New("recorder: already active")
	// ErrNotActive is returned by Stop/Cancel with no active session.
	ErrNotActive = errors.New("recorder: not active")
	// ErrBusy is returned while a previous stop is still joining.
	ErrBusy = errors.New("recorder: stop in progress")
)

// DefaultJoinTimeout bounds how long Stop/Cancel wait for the capture
// goroutine before force-releasing the stream.
const DefaultJoinTimeout = 2 * time.Second

// forceReleaseGrace is how long a timed-out join waits after the forced
// stream close before abandoning the session buffer.
const forceReleaseGrace = 250 * time.Millisecond

// Utterance is the completed waveform of one recording session.
type Utterance struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Duration returns the captured audio length.
func (u *Utterance) Duration() time.Duration {
	if u.SampleRate <= 0 || u.Channels <= 0 {
		return 0
	}
	frames := len(u.Samples) / u.Channels
	return time.Duration(frames) * time.Second / time.Duration(u.SampleRate)
}

// Callbacks are fired on a dedicated worker goroutine, never on the
// capture loop or the caller of Start/Stop/Cancel. Any field may be nil.
type Callbacks struct {
	OnStart  func(sessionID uint64)
	OnStop   func(sessionID uint64, u *Utterance)
	OnEmpty  func(sessionID uint64)
	OnCancel func(sessionID uint64)
}

// Config for a Controller.
type Config struct {
	Device      audio.Device
	Params      audio.StreamParams
	JoinTimeout time.Duration // 0 means DefaultJoinTimeout
	MaxDuration time.Duration // 0 disables the hard session cap
	Callbacks   Callbacks
	// FrameTap, when set, is invoked synchronously on the capture loop
	// for every appended frame. It must be cheap.
	FrameTap func(frame []float32)
	Logger   zerolog.Logger
}

// Controller owns the audio device for the duration of one recording
// session and exposes the start/stop/cancel state machine that hotkey
// and VAD triggers drive. At most one session records at a time.
type Controller struct {
	dev         audio.Device
	params      audio.StreamParams
	joinTimeout time.Duration
	maxDuration time.Duration
	cb          Callbacks
	tap         func([]float32)
	log         zerolog.Logger
	tasks       *dispatcher

	mu     sync.Mutex
	state  State
	sess   *session
	lastID uint64
}

// session tracks one recording attempt. The buffer is touched only by
// the capture goroutine until done is closed, then only by the
// controller, so the stop flag is the sole concurrently shared datum.
// If the goroutine never joins, the session is abandoned whole and the
// controller never touches the buffer again.
type session struct {
	id        uint64
	startedAt time.Time
	stream    audio.Stream
	buf       utteranceBuffer
	stop      atomic.Bool
	done      chan struct{}
	maxTimer  *time.Timer
}

// New creates a Controller in the Idle state.
func New(cfg Config) *Controller {
	joinTimeout := cfg.JoinTimeout
	if joinTimeout <= 0 {
		joinTimeout = DefaultJoinTimeout
	}
	return &Controller{
		dev:         cfg.Device,
		params:      cfg.Params,
		joinTimeout: joinTimeout,
		maxDuration: cfg.MaxDuration,
		cb:          cfg.Callbacks,
		tap:         cfg.FrameTap,
		log:         cfg.Logger,
		tasks:       newDispatcher(cfg.Logger),
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the id of the most recently started session.
func (c *Controller) SessionID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID
}

// Start opens the device, clears the buffer and spawns the capture
// loop. A device-open failure leaves the controller Idle. If the
// configured device cannot be opened it falls back to the platform
// default before giving up.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRecording:
		return ErrAlreadyActive
	case StateStopping:
		return ErrBusy
	}

	stream, err := c.openStream()
	if err != nil {
		return err
	}

	c.lastID++
	s := &session{
		id:        c.lastID,
		startedAt: time.Now(),
		stream:    stream,
		done:      make(chan struct{}),
	}
	c.sess = s
	c.state = StateRecording

	go c.captureLoop(s)

	if c.maxDuration > 0 {
		id := s.id
		s.maxTimer = time.AfterFunc(c.maxDuration, func() { c.stopExpired(id) })
	}

	c.log.Info().
		Uint64("session", s.id).
		Int("sample_rate", c.params.SampleRate).
		Int("frame_size", c.params.FrameSize).
		Msg("Recording started")

	if c.cb.OnStart != nil {
		id := s.id
		c.tasks.submit(func() { c.cb.OnStart(id) })
	}
	return nil
}

func (c *Controller) openStream() (audio.Stream, error) {
	stream, err := c.dev.Open(c.params)
	if err == nil {
		return stream, nil
	}
	if errors.Is(err, audio.ErrDeviceUnavailable) && c.params.DeviceIndex != audio.DefaultDevice {
		c.log.Warn().
			Int("device", c.params.DeviceIndex).
			Err(err).
			Msg("Configured device unavailable, falling back to default")
		fallback := c.params
		fallback.DeviceIndex = audio.DefaultDevice
		if stream, err = c.dev.Open(fallback); err == nil {
			return stream, nil
		}
	}
	return nil, fmt.Errorf("recorder: open device: %w", err)
}

// captureLoop runs on its own goroutine and is the only writer of the
// session buffer. It releases the stream before signalling completion
// so the controller can reopen the device immediately afterwards.
func (c *Controller) captureLoop(s *session) {
	defer close(s.done)
	defer s.stream.Close()

	for !s.stop.Load() {
		frame, err := s.stream.Read()
		switch {
		case err == nil:
		case errors.Is(err, audio.ErrOverflow):
			// Recoverable: the driver dropped samples but this frame is intact.
			c.log.Warn().Uint64("session", s.id).Msg("Input overflow")
		default:
			if !s.stop.Load() {
				c.log.Error().Err(err).Uint64("session", s.id).Msg("Capture read failed, ending session early")
			}
			return
		}

		s.buf.append(frame)
		if c.tap != nil {
			c.tap(frame)
		}
	}
}

// Stop ends the active session, waits for the capture loop and emits
// the completed utterance via OnStop. A session that captured nothing
// fires OnEmpty instead. Blocks the caller for at most the join timeout.
func (c *Controller) Stop() error {
	return c.finish(false)
}

// Cancel ends the active session and discards everything captured.
// No utterance is produced and OnStop never fires.
func (c *Controller) Cancel() error {
	return c.finish(true)
}

func (c *Controller) finish(discard bool) error {
	c.mu.Lock()
	switch c.state {
	case StateIdle:
		c.mu.Unlock()
		return ErrNotActive
	case StateStopping:
		c.mu.Unlock()
		return ErrBusy
	}
	s := c.sess
	c.state = StateStopping
	c.mu.Unlock()

	if s.maxTimer != nil {
		s.maxTimer.Stop()
	}

	joined := c.join(s)

	// The terminal callback is queued under the same lock that flips the
	// state back to Idle, so a racing Start cannot slot its OnStart into
	// the dispatcher ahead of this session's OnStop/OnEmpty/OnCancel.
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess = nil
	c.state = StateIdle

	id := s.id
	switch {
	case !joined:
		// The capture goroutine is still alive and owns the buffer; the
		// orphaned session keeps it untouched.
		if discard {
			c.log.Info().Uint64("session", id).Msg("Recording cancelled")
			if c.cb.OnCancel != nil {
				c.tasks.submit(func() { c.cb.OnCancel(id) })
			}
			break
		}
		if c.cb.OnEmpty != nil {
			c.tasks.submit(func() { c.cb.OnEmpty(id) })
		}
	case discard:
		s.buf.discard()
		c.log.Info().Uint64("session", id).Msg("Recording cancelled")
		if c.cb.OnCancel != nil {
			c.tasks.submit(func() { c.cb.OnCancel(id) })
		}
	default:
		samples := s.buf.drain()
		if len(samples) == 0 {
			c.log.Info().Uint64("session", id).Msg("Recording stopped with no audio captured")
			if c.cb.OnEmpty != nil {
				c.tasks.submit(func() { c.cb.OnEmpty(id) })
			}
			break
		}
		u := &Utterance{
			Samples:    samples,
			SampleRate: c.params.SampleRate,
			Channels:   c.params.Channels,
		}
		c.log.Info().
			Uint64("session", id).
			Int("samples", len(samples)).
			Dur("duration", u.Duration()).
			Msg("Recording stopped")
		if c.cb.OnStop != nil {
			c.tasks.submit(func() { c.cb.OnStop(id, u) })
		}
	}
	return nil
}

// join signals the stop flag and waits for the capture goroutine. On
// timeout the stream is force-closed to unblock the pending read; the
// return value reports whether the goroutine actually exited.
func (c *Controller) join(s *session) bool {
	s.stop.Store(true)

	select {
	case <-s.done:
		return true
	case <-time.After(c.joinTimeout):
	}

	c.log.Error().
		Uint64("session", s.id).
		Dur("timeout", c.joinTimeout).
		Msg("Capture loop did not stop in time, force releasing stream")
	s.stream.Close()

	select {
	case <-s.done:
		return true
	case <-time.After(forceReleaseGrace):
		c.log.Error().Uint64("session", s.id).Msg("Capture loop still running, abandoning session buffer")
		return false
	}
}

// stopExpired enforces the max session duration cap. It only acts if
// the session that armed the timer is still the one recording.
func (c *Controller) stopExpired(id uint64) {
	c.mu.Lock()
	active := c.state == StateRecording && c.sess != nil && c.sess.id == id
	c.mu.Unlock()
	if !active {
		return
	}

	c.log.Info().Uint64("session", id).Dur("max_duration", c.maxDuration).Msg("Max recording duration reached")
	if err := c.Stop(); err != nil {
		// A concurrent Stop/Cancel won the race.
		c.log.Debug().Err(err).Uint64("session", id).Msg("Duration cap stop superseded")
	}
}

// Close cancels any active session and stops the callback worker after
// draining pending callbacks.
func (c *Controller) Close() error {
	if err := c.Cancel(); err != nil && !errors.Is(err, ErrNotActive) {
		c.log.Warn().Err(err).Msg("Cancel on close failed")
	}
	c.tasks.close()
	return nil
}
