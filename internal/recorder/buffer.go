package recorder

// utteranceBuffer accumulates the frames of one recording session.
// It is appended to only by the capture goroutine and drained only by
// the controller after that goroutine has been joined, so it needs no
// locking of its own.
type utteranceBuffer struct {
	frames  [][]float32
	samples int
}

func (b *utteranceBuffer) append(frame []float32) {
	b.frames = append(b.frames, frame)
	b.samples += len(frame)
}

func (b *utteranceBuffer) len() int {
	return b.samples
}

// drain concatenates all frames in capture order into one contiguous
// waveform and empties the buffer. Returns nil when nothing was captured.
func (b *utteranceBuffer) drain() []float32 {
	if b.samples == 0 {
		b.frames = nil
		return nil
	}
	out := make([]float32, 0, b.samples)
	for _, frame := range b.frames {
		out = append(out, frame...)
	}
	b.frames = nil
	b.samples = 0
	return out
}

func (b *utteranceBuffer) discard() {
	b.frames = nil
	b.samples = 0
}
