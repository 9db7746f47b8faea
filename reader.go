package tsm

// SliceReader is a Reader backed by in-memory planar audio. It serves the
// samples in order and reports Empty once they are exhausted.
type SliceReader struct {
	data [][]float64
	pos  int
}

// NewSliceReader returns a SliceReader over data, one slice per channel.
// All channels must have the same length. Panics on an empty channel list
// or ragged channel lengths; the data layout is a programming error, not a
// stream condition.
func NewSliceReader(data [][]float64) *SliceReader {
	if len(data) == 0 {
		panic("tsm: SliceReader needs at least one channel")
	}
	for _, c := range data[1:] {
		if len(c) != len(data[0]) {
			panic("tsm: SliceReader channels must have equal lengths")
		}
	}
	return &SliceReader{data: data}
}

// Read copies up to len(dst[ch]) samples per channel into dst and advances
// the read position. It returns ErrChannelMismatch when dst has the wrong
// channel count.
func (r *SliceReader) Read(dst [][]float64) (int, error) {
	if len(dst) != len(r.data) {
		return 0, ErrChannelMismatch
	}

	n := len(r.data[0]) - r.pos
	if len(dst) > 0 && len(dst[0]) < n {
		n = len(dst[0])
	}
	if n <= 0 {
		return 0, nil
	}

	for ch, c := range dst {
		copy(c[:n], r.data[ch][r.pos:r.pos+n])
	}
	r.pos += n

	return n, nil
}

// Empty reports whether every sample has been served.
func (r *SliceReader) Empty() bool {
	return r.pos >= len(r.data[0])
}

// Remaining returns the number of samples not yet served.
func (r *SliceReader) Remaining() int {
	return len(r.data[0]) - r.pos
}
