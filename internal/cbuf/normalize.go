package cbuf

// NormalizeBuffer is a mono circular accumulator tracking how much window
// weight has been overlap-added onto each output position. Its leading values
// are the divisors that rescale the synthesis buffer back to unity gain.
//
// Unlike CBuffer it has a fixed logical length: Add accumulates a window at
// the current origin, Remove discards finalized divisors and exposes zeroed
// slots at the end.
type NormalizeBuffer struct {
	data   []float64
	offset int
}

// NewNormalize returns a zeroed NormalizeBuffer of the given length.
func NewNormalize(length int) *NormalizeBuffer {
	if length <= 0 {
		panic("cbuf: normalize buffer length must be positive")
	}
	return &NormalizeBuffer{data: make([]float64, length)}
}

// Len returns the buffer length.
func (b *NormalizeBuffer) Len() int { return len(b.data) }

// Add accumulates window element-wise starting at the buffer origin. Panics
// if the window is longer than the buffer.
func (b *NormalizeBuffer) Add(window []float64) {
	if len(window) > len(b.data) {
		panic("cbuf: window larger than NormalizeBuffer")
	}

	start := b.offset
	head := len(b.data) - start
	if head > len(window) {
		head = len(window)
	}
	for i := 0; i < head; i++ {
		b.data[start+i] += window[i]
	}
	for i := head; i < len(window); i++ {
		b.data[i-head] += window[i]
	}
}

// Prefix copies the first len(dst) divisor values into dst.
func (b *NormalizeBuffer) Prefix(dst []float64) {
	if len(dst) > len(b.data) {
		panic("cbuf: prefix larger than NormalizeBuffer")
	}
	copyWrapSrc(dst, b.data, b.offset)
}

// Remove discards the first n divisors, zeroing their slots and advancing the
// origin so the buffer is ready to accumulate the next frame.
func (b *NormalizeBuffer) Remove(n int) {
	if n > len(b.data) {
		n = len(b.data)
	}
	if n <= 0 {
		return
	}

	zeroWrap(b.data, b.offset, n)
	b.offset = (b.offset + n) % len(b.data)
}

// Reset zeroes the buffer and resets the origin.
func (b *NormalizeBuffer) Reset() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.offset = 0
}
