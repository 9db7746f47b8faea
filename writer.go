package tsm

// SliceWriter is a Writer that accumulates planar audio in memory, growing
// as needed. It never exerts backpressure.
type SliceWriter struct {
	data [][]float64
}

// NewSliceWriter returns a SliceWriter for the given channel count. Panics
// on a non-positive count.
func NewSliceWriter(channels int) *SliceWriter {
	if channels < 1 {
		panic("tsm: SliceWriter needs at least one channel")
	}
	return &SliceWriter{data: make([][]float64, channels)}
}

// Write appends all offered samples. It returns ErrChannelMismatch when src
// has the wrong channel count.
func (w *SliceWriter) Write(src [][]float64) (int, error) {
	if len(src) != len(w.data) {
		return 0, ErrChannelMismatch
	}

	n := 0
	for ch, c := range src {
		w.data[ch] = append(w.data[ch], c...)
		n = len(c)
	}

	return n, nil
}

// Data returns the accumulated audio, one slice per channel. The slices
// alias the writer's storage; they remain valid but may grow on later
// writes.
func (w *SliceWriter) Data() [][]float64 { return w.data }

// Len returns the number of samples accumulated per channel.
func (w *SliceWriter) Len() int { return len(w.data[0]) }
