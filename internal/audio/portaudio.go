package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

type portAudioDevice struct {
	log zerolog.Logger
}

// New initializes PortAudio and returns a Device bound to it. The
// library stays initialized until Close is called.
func New(log zerolog.Logger) (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioDevice{log: log}, nil
}

func (d *portAudioDevice) Open(params StreamParams) (Stream, error) {
	info, err := d.resolveDevice(params.DeviceIndex)
	if err != nil {
		return nil, err
	}

	channels := params.Channels
	if channels < 1 {
		channels = 1
	}

	buffer := make([]float32, params.FrameSize*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(params.SampleRate),
		FramesPerBuffer: params.FrameSize,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	return &paStream{stream: stream, buffer: buffer, log: d.log}, nil
}

// resolveDevice maps an opaque index to a PortAudio device, or the
// platform default for DefaultDevice.
func (d *portAudioDevice) resolveDevice(index int) (*portaudio.DeviceInfo, error) {
	if index == DefaultDevice {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: no default input device: %v", ErrDeviceUnavailable, err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrDeviceUnavailable, index)
	}
	if devices[index].MaxInputChannels == 0 {
		return nil, fmt.Errorf("%w: device %d has no input channels", ErrDeviceUnavailable, index)
	}
	return devices[index], nil
}

func (d *portAudioDevice) ListDevices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]DeviceInfo, 0, len(devices))
	for i, dev := range devices {
		if dev.MaxInputChannels > 0 {
			result = append(result, DeviceInfo{
				Index:             i,
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
			})
		}
	}
	return result, nil
}

func (d *portAudioDevice) Close() error {
	portaudio.Terminate()
	return nil
}

type paStream struct {
	stream *portaudio.Stream
	buffer []float32
	log    zerolog.Logger

	mu     sync.Mutex
	closed bool
}

func (s *paStream) Read() ([]float32, error) {
	err := s.stream.Read()
	if err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, fmt.Errorf("audio: stream closed: %w", err)
		}
		return nil, fmt.Errorf("audio: read failed: %w", err)
	}

	frame := make([]float32, len(s.buffer))
	copy(frame, s.buffer)

	if err != nil {
		return frame, ErrOverflow
	}
	return frame, nil
}

// Close aborts the stream so a concurrent Read unblocks, then releases
// it. Teardown errors are logged and swallowed so shutdown never fails
// on a misbehaving driver.
func (s *paStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.stream.Abort(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to abort audio stream")
	}
	if err := s.stream.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to close audio stream")
	}
	return nil
}
