package vad

import (
	"math"
	"time"
)

// RMS computes the root-mean-square energy of one frame.
func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// Event is the detector's verdict for one observed frame.
type Event int

const (
	EventNone Event = iota
	// EventVoiceStart fires on the first voiced frame of an utterance.
	EventVoiceStart
	// EventSilenceTimeout fires once elapsed silence inside an
	// utterance exceeds the configured timeout.
	EventSilenceTimeout
)

// Detector classifies frames as voice or silence by RMS energy and
// tracks the silence timer across an utterance. The clock is passed in
// explicitly so callers control time.
type Detector struct {
	threshold float64
	timeout   time.Duration

	voiced       bool
	silenceStart time.Time
}

// NewDetector creates a detector with the given energy threshold and
// silence timeout.
func NewDetector(threshold float64, timeout time.Duration) *Detector {
	return &Detector{threshold: threshold, timeout: timeout}
}

// Observe feeds one frame at the given instant and returns the
// resulting event. Voiced frames reset the silence timer.
func (d *Detector) Observe(frame []float32, now time.Time) Event {
	if RMS(frame) > d.threshold {
		d.silenceStart = time.Time{}
		if !d.voiced {
			d.voiced = true
			return EventVoiceStart
		}
		return EventNone
	}

	if !d.voiced {
		return EventNone
	}
	if d.silenceStart.IsZero() {
		d.silenceStart = now
		return EventNone
	}
	if now.Sub(d.silenceStart) > d.timeout {
		d.Reset()
		return EventSilenceTimeout
	}
	return EventNone
}

// Voiced reports whether the detector is inside an utterance.
func (d *Detector) Voiced() bool {
	return d.voiced
}

// Reset clears the utterance and silence-timer state.
func (d *Detector) Reset() {
	d.voiced = false
	d.silenceStart = time.Time{}
}
