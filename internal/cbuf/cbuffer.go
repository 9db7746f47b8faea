// Package cbuf implements the fixed-capacity circular buffers backing the
// analysis-synthesis engine: a multi-channel sample buffer (CBuffer) and a
// mono accumulator for window normalization (NormalizeBuffer).
//
// A CBuffer behaves like a variable-length buffer bounded by its capacity.
// Write and RightPad append samples at the end, Read and Remove consume them
// from the beginning, and Rewind moves the read cursor back over samples that
// were removed but not yet overwritten. Add and Divide mutate the readable
// region in place, which is what the overlap-add synthesis path needs.
//
// All operations use modulo cursor arithmetic; buffer contents are never
// shifted. Buffers are single-owner and not safe for concurrent use.
package cbuf

// CBuffer is a multi-channel circular buffer with one backing array per
// channel. The invariant Len()+Free() == Capacity() holds at all times.
type CBuffer struct {
	data     [][]float64
	channels int
	capacity int

	offset   int // read cursor
	length   int // readable samples
	ready    int // prefix of the readable region finalized for output
	retained int // intact samples behind the read cursor (rewind budget)
}

// New returns an empty CBuffer with the given channel count and per-channel
// capacity.
func New(channels, capacity int) *CBuffer {
	if channels <= 0 || capacity <= 0 {
		panic("cbuf: channels and capacity must be positive")
	}

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, capacity)
	}

	return &CBuffer{
		data:     data,
		channels: channels,
		capacity: capacity,
	}
}

// Channels returns the number of channels.
func (b *CBuffer) Channels() int { return b.channels }

// Capacity returns the per-channel capacity.
func (b *CBuffer) Capacity() int { return b.capacity }

// Len returns the number of readable samples per channel.
func (b *CBuffer) Len() int { return b.length }

// Free returns the number of samples that can still be written per channel.
func (b *CBuffer) Free() int { return b.capacity - b.length }

// Ready returns the number of leading samples finalized for output.
func (b *CBuffer) Ready() int { return b.ready }

// Retained returns the number of samples behind the read cursor that are
// still intact and can be recovered with Rewind.
func (b *CBuffer) Retained() int { return b.retained }

// Write copies up to n samples per channel from src into the buffer, bounded
// by the free space, and returns the number of samples written.
func (b *CBuffer) Write(src [][]float64, n int) int {
	b.checkChannels(len(src))

	if n > b.Free() {
		n = b.Free()
	}
	if n <= 0 {
		return 0
	}

	start := (b.offset + b.length) % b.capacity
	for ch, c := range src {
		copyWrapDst(b.data[ch], start, c[:n])
	}

	b.length += n
	b.clampRetained()

	return n
}

// Peek copies the oldest readable samples into dst without consuming them and
// returns the number of samples copied, bounded by len(dst[ch]) and Len().
func (b *CBuffer) Peek(dst [][]float64) int {
	b.checkChannels(len(dst))

	n := b.length
	if len(dst) > 0 && len(dst[0]) < n {
		n = len(dst[0])
	}
	if n <= 0 {
		return 0
	}

	for ch, c := range dst {
		copyWrapSrc(c[:n], b.data[ch], b.offset)
	}

	return n
}

// Read copies the oldest readable samples into dst, consumes them, and
// returns the number of samples read.
func (b *CBuffer) Read(dst [][]float64) int {
	n := b.Peek(dst)
	b.Remove(n)
	return n
}

// Remove discards up to n samples from the beginning of the buffer and
// returns the number of samples removed. Removed samples stay physically
// present until overwritten and count toward the rewind budget.
func (b *CBuffer) Remove(n int) int {
	if n > b.length {
		n = b.length
	}
	if n <= 0 {
		return 0
	}

	b.offset = (b.offset + n) % b.capacity
	b.length -= n
	b.ready -= n
	if b.ready < 0 {
		b.ready = 0
	}

	b.retained += n
	b.clampRetained()

	return n
}

// Rewind moves the read cursor backward by up to n samples, bounded by the
// retained history, and returns the number of samples recovered. Recovered
// samples are not part of the ready region; Rewind is meant for analysis
// buffers, which never mark samples ready.
func (b *CBuffer) Rewind(n int) int {
	if n > b.retained {
		n = b.retained
	}
	if n <= 0 {
		return 0
	}

	b.offset = (b.offset - n + b.capacity) % b.capacity
	b.length += n
	b.retained -= n

	return n
}

// RightPad appends n zero samples to the end of the readable region. The
// exposed span is cleared so later Add calls accumulate from silence. Panics
// if there is not enough free space.
func (b *CBuffer) RightPad(n int) {
	if n > b.Free() {
		panic("cbuf: not enough space remaining in CBuffer")
	}
	if n <= 0 {
		return
	}

	start := (b.offset + b.length) % b.capacity
	for ch := range b.data {
		zeroWrap(b.data[ch], start, n)
	}

	b.length += n
	b.clampRetained()
}

// Add accumulates n samples per channel from src into the readable region,
// starting offset samples past the read cursor. Panics if the target span
// exceeds the readable region.
func (b *CBuffer) Add(offset int, src [][]float64, n int) {
	b.checkChannels(len(src))
	if offset < 0 || offset+n > b.length {
		panic("cbuf: add span exceeds readable region")
	}

	start := (b.offset + offset) % b.capacity
	for ch, c := range src {
		addWrap(b.data[ch], start, c[:n])
	}
}

// Divide divides each channel element-wise by div, starting offset samples
// past the read cursor. Panics if the target span exceeds the readable
// region.
func (b *CBuffer) Divide(offset int, div []float64) {
	if offset < 0 || offset+len(div) > b.length {
		panic("cbuf: divide span exceeds readable region")
	}

	start := (b.offset + offset) % b.capacity
	for ch := range b.data {
		divideWrap(b.data[ch], start, div)
	}
}

// SetReady marks n additional readable samples as finalized for output.
// Panics if the ready region would exceed the readable region.
func (b *CBuffer) SetReady(n int) {
	if b.ready+n > b.length {
		panic("cbuf: ready region exceeds readable region")
	}
	b.ready += n
}

// Reset empties the buffer and discards the rewind history without
// reallocating.
func (b *CBuffer) Reset() {
	b.offset = 0
	b.length = 0
	b.ready = 0
	b.retained = 0
}

// clampRetained caps the rewind budget at the free space; anything beyond it
// has been overwritten.
func (b *CBuffer) clampRetained() {
	if free := b.Free(); b.retained > free {
		b.retained = free
	}
}

func (b *CBuffer) checkChannels(n int) {
	if n != b.channels {
		panic("cbuf: channel count mismatch")
	}
}

// copyWrapDst copies src into ring starting at start, wrapping at the end.
func copyWrapDst(ring []float64, start int, src []float64) {
	n := copy(ring[start:], src)
	if n < len(src) {
		copy(ring, src[n:])
	}
}

// copyWrapSrc copies from ring starting at start into dst, wrapping at the
// end.
func copyWrapSrc(dst []float64, ring []float64, start int) {
	n := copy(dst, ring[start:])
	if n < len(dst) {
		copy(dst[n:], ring)
	}
}

func addWrap(ring []float64, start int, src []float64) {
	head := len(ring) - start
	if head > len(src) {
		head = len(src)
	}
	for i := 0; i < head; i++ {
		ring[start+i] += src[i]
	}
	for i := head; i < len(src); i++ {
		ring[i-head] += src[i]
	}
}

func divideWrap(ring []float64, start int, div []float64) {
	head := len(ring) - start
	if head > len(div) {
		head = len(div)
	}
	for i := 0; i < head; i++ {
		ring[start+i] /= div[i]
	}
	for i := head; i < len(div); i++ {
		ring[i-head] /= div[i]
	}
}

func zeroWrap(ring []float64, start, n int) {
	head := len(ring) - start
	if head > n {
		head = n
	}
	for i := 0; i < head; i++ {
		ring[start+i] = 0
	}
	for i := 0; i < n-head; i++ {
		ring[i] = 0
	}
}
