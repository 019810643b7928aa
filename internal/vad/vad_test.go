package vad

import (
	"math"
	"testing"
	"time"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name     string
		frame    []float32
		expected float64
	}{
		{name: "empty frame", frame: nil, expected: 0},
		{name: "silence", frame: []float32{0, 0, 0, 0}, expected: 0},
		{name: "constant amplitude", frame: []float32{0.5, 0.5, 0.5, 0.5}, expected: 0.5},
		{name: "sign does not matter", frame: []float32{-0.5, 0.5, -0.5, 0.5}, expected: 0.5},
		{name: "full scale", frame: []float32{1, -1}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RMS(tt.frame)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// constFrame builds a frame whose RMS equals amp.
func constFrame(amp float32, size int) []float32 {
	frame := make([]float32, size)
	for i := range frame {
		frame[i] = amp
	}
	return frame
}

func TestDetectorVoiceStartOnce(t *testing.T) {
	d := NewDetector(0.01, 2*time.Second)
	now := time.Unix(0, 0)

	if got := d.Observe(constFrame(0.5, 64), now); got != EventVoiceStart {
		t.Fatalf("expected EventVoiceStart, got %v", got)
	}
	for i := 0; i < 10; i++ {
		now = now.Add(64 * time.Millisecond)
		if got := d.Observe(constFrame(0.5, 64), now); got != EventNone {
			t.Fatalf("voiced frame %d: expected EventNone, got %v", i, got)
		}
	}
}

func TestDetectorSilenceBeforeVoiceIsIgnored(t *testing.T) {
	d := NewDetector(0.01, time.Second)
	now := time.Unix(0, 0)

	for i := 0; i < 100; i++ {
		if got := d.Observe(constFrame(0, 64), now); got != EventNone {
			t.Fatalf("silence while idle must not fire events, got %v", got)
		}
		now = now.Add(64 * time.Millisecond)
	}
}

func TestDetectorVoiceResetsSilenceTimer(t *testing.T) {
	d := NewDetector(0.01, time.Second)
	now := time.Unix(0, 0)

	d.Observe(constFrame(0.5, 64), now)

	// 900ms of silence, then voice again: the timer must restart.
	for i := 0; i < 14; i++ {
		now = now.Add(64 * time.Millisecond)
		if got := d.Observe(constFrame(0, 64), now); got != EventNone {
			t.Fatalf("timeout fired too early at frame %d: %v", i, got)
		}
	}
	now = now.Add(64 * time.Millisecond)
	d.Observe(constFrame(0.5, 64), now)

	// Another 900ms of silence still must not fire.
	for i := 0; i < 14; i++ {
		now = now.Add(64 * time.Millisecond)
		if got := d.Observe(constFrame(0, 64), now); got != EventNone {
			t.Fatalf("timeout fired despite reset at frame %d: %v", i, got)
		}
	}
}

// Mirrors the reference scenario: threshold 0.01, timeout 2s, 1s of
// voice followed by 2.1s of silence, one frame every 64ms.
func TestDetectorSilenceTimeoutScenario(t *testing.T) {
	d := NewDetector(0.01, 2*time.Second)

	const framePeriod = 64 * time.Millisecond
	start := time.Unix(0, 0)
	now := start

	var voiceStarts, timeouts int
	var timeoutAt time.Duration

	for elapsed := time.Duration(0); elapsed < 3500*time.Millisecond; elapsed += framePeriod {
		amp := float32(0.1)
		if elapsed >= time.Second {
			amp = 0.001
		}
		switch d.Observe(constFrame(amp, 1024), now) {
		case EventVoiceStart:
			voiceStarts++
		case EventSilenceTimeout:
			timeouts++
			timeoutAt = now.Sub(start)
		}
		now = now.Add(framePeriod)
	}

	if voiceStarts != 1 {
		t.Fatalf("expected one voice start, got %d", voiceStarts)
	}
	if timeouts != 1 {
		t.Fatalf("expected one silence timeout, got %d", timeouts)
	}
	// Voice ends at 1.0s, timeout 2s later, within one frame period.
	want := 3100 * time.Millisecond
	if diff := timeoutAt - want; diff < -2*framePeriod || diff > 2*framePeriod {
		t.Fatalf("timeout at %v, want about %v", timeoutAt, want)
	}
}

func TestDetectorResumesAfterTimeout(t *testing.T) {
	d := NewDetector(0.01, 100*time.Millisecond)
	now := time.Unix(0, 0)

	d.Observe(constFrame(0.5, 64), now)
	now = now.Add(64 * time.Millisecond)
	d.Observe(constFrame(0, 64), now)
	now = now.Add(200 * time.Millisecond)
	if got := d.Observe(constFrame(0, 64), now); got != EventSilenceTimeout {
		t.Fatalf("expected timeout, got %v", got)
	}

	// A new utterance can start after the timeout.
	now = now.Add(64 * time.Millisecond)
	if got := d.Observe(constFrame(0.5, 64), now); got != EventVoiceStart {
		t.Fatalf("expected a new voice start, got %v", got)
	}
}
