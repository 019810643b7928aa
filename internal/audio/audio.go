package audio

import (
	"errors"
	"time"
)

// DefaultDevice selects the platform default input device.
const DefaultDevice = -1

// ErrDeviceUnavailable is returned by Open when the requested device
// index does not exist or is not input-capable.
var ErrDeviceUnavailable = errors.New("audio: device unavailable")

// ErrOverflow signals a driver input overflow. The frame returned
// alongside it is still valid; some samples before it were dropped.
var ErrOverflow = errors.New("audio: input overflow")

// StreamParams describes an input stream to open.
type StreamParams struct {
	DeviceIndex int // DefaultDevice or an index from ListDevices
	SampleRate  int // Hz
	FrameSize   int // samples per channel per Read
	Channels    int
}

// FramePeriod returns the wall-clock duration of one frame.
func (p StreamParams) FramePeriod() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(p.FrameSize) * time.Second / time.Duration(p.SampleRate)
}

// Device abstracts the platform audio subsystem.
type Device interface {
	Open(params StreamParams) (Stream, error)
	ListDevices() ([]DeviceInfo, error)
	Close() error
}

// Stream is an open input stream. Read blocks until one frame of
// FrameSize*Channels interleaved samples is available and returns a
// freshly allocated slice the caller owns. Close is idempotent and
// safe to call from another goroutine to unblock a pending Read.
type Stream interface {
	Read() ([]float32, error)
	Close() error
}

// DeviceInfo describes an input-capable device.
type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
}

// DownmixInterleaved averages interleaved multi-channel samples into a
// mono slice of the given frame count. Mono input is copied, not aliased.
func DownmixInterleaved(samples []float32, channels, frames int) []float32 {
	out := make([]float32, frames)
	if channels <= 1 {
		copy(out, samples)
		return out
	}
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
