package vad

import (
	"context"
	"errors"
	"time"

	"github.com/MikelWL/whisper-clipboard/internal/audio"
	"github.com/MikelWL/whisper-clipboard/internal/recorder"
	"github.com/rs/zerolog"
)

// Control is the subset of the recording controller the trigger drives.
// The trigger is just another caller of Start/Stop; it never touches
// the session or buffer directly.
type Control interface {
	Start() error
	Stop() error
	State() recorder.State
}

// Trigger turns voice activity into Start/Stop calls. While the
// controller is idle it listens on its own stream; once recording it
// consumes the frames the capture loop taps off via Tap.
type Trigger struct {
	ctrl   Control
	dev    audio.Device
	params audio.StreamParams
	det    *Detector
	log    zerolog.Logger

	frames chan []float32
	now    func() time.Time
}

// NewTrigger creates a VAD trigger. Register Tap as the controller's
// FrameTap so the trigger sees frames during recording.
func NewTrigger(ctrl Control, dev audio.Device, params audio.StreamParams, det *Detector, log zerolog.Logger) *Trigger {
	return &Trigger{
		ctrl:   ctrl,
		dev:    dev,
		params: params,
		det:    det,
		log:    log,
		frames: make(chan []float32, 8),
		now:    time.Now,
	}
}

// Tap receives frames from the capture loop. It never blocks: when the
// monitor lags, frames are dropped rather than stalling capture.
func (t *Trigger) Tap(frame []float32) {
	select {
	case t.frames <- frame:
	default:
	}
}

// Run alternates between listening for voice while idle and watching
// for silence while recording, until the context is cancelled.
func (t *Trigger) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		switch t.ctrl.State() {
		case recorder.StateIdle:
			if err := t.listen(ctx); err != nil {
				t.log.Error().Err(err).Msg("VAD listen failed, retrying")
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		case recorder.StateRecording:
			t.monitor(ctx)
		default:
			// Stopping is transient; wait for the join to finish.
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// listen reads from its own stream until voice is detected, then
// releases the microphone and starts a recording session.
func (t *Trigger) listen(ctx context.Context) error {
	stream, err := t.dev.Open(t.params)
	if err != nil {
		return err
	}
	defer stream.Close()

	// Stale frames from a previous session are meaningless now.
	t.drainTap()
	t.det.Reset()

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := stream.Read()
		if errors.Is(err, audio.ErrOverflow) {
			err = nil
		}
		if err != nil {
			return err
		}

		if t.det.Observe(frame, t.now()) == EventVoiceStart {
			// Release the microphone before the controller reopens it.
			stream.Close()
			t.log.Debug().Msg("Voice detected")
			if err := t.ctrl.Start(); err != nil {
				t.det.Reset()
				return err
			}
			return nil
		}
	}
}

// monitor watches tapped frames for the silence timeout and stops the
// session when it elapses.
func (t *Trigger) monitor(ctx context.Context) {
	idleCheck := 4 * t.params.FramePeriod()
	if idleCheck <= 0 {
		idleCheck = 100 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-t.frames:
			if t.det.Observe(frame, t.now()) == EventSilenceTimeout {
				t.log.Debug().Msg("Silence timeout")
				if err := t.ctrl.Stop(); err != nil {
					// The session already ended some other way.
					t.log.Debug().Err(err).Msg("VAD stop superseded")
				}
				return
			}
		case <-time.After(idleCheck):
			// Frames stopped flowing: the session ended elsewhere
			// (max-duration cap, fatal fault, manual stop).
			if t.ctrl.State() != recorder.StateRecording {
				t.det.Reset()
				return
			}
		}
	}
}

func (t *Trigger) drainTap() {
	for {
		select {
		case <-t.frames:
		default:
			return
		}
	}
}
