package cbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planar(chans ...[]float64) [][]float64 { return chans }

func TestNewPanicsOnInvalidArgs(t *testing.T) {
	assert.Panics(t, func() { New(0, 8) })
	assert.Panics(t, func() { New(2, 0) })
	assert.Panics(t, func() { New(-1, -1) })
}

func TestWriteReadRoundTrip(t *testing.T) {
	b := New(2, 8)

	src := planar(
		[]float64{1, 2, 3, 4},
		[]float64{5, 6, 7, 8},
	)
	n := b.Write(src, 4)
	require.Equal(t, 4, n)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 4, b.Free())

	dst := planar(make([]float64, 4), make([]float64, 4))
	n = b.Read(dst)
	require.Equal(t, 4, n)
	assert.Equal(t, []float64{1, 2, 3, 4}, dst[0])
	assert.Equal(t, []float64{5, 6, 7, 8}, dst[1])
	assert.Equal(t, 0, b.Len())
}

func TestWriteBoundedByFreeSpace(t *testing.T) {
	b := New(1, 4)

	n := b.Write(planar([]float64{1, 2, 3}), 3)
	require.Equal(t, 3, n)

	// Only one slot left
	n = b.Write(planar([]float64{4, 5, 6}), 3)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 0, b.Free())
}

func TestLenPlusFreeIsCapacity(t *testing.T) {
	b := New(1, 8)
	src := planar([]float64{1, 2, 3, 4, 5})
	dst := planar(make([]float64, 3))

	for i := 0; i < 10; i++ {
		b.Write(src, 5)
		assert.Equal(t, b.Capacity(), b.Len()+b.Free())
		b.Read(dst)
		assert.Equal(t, b.Capacity(), b.Len()+b.Free())
		b.Remove(1)
		assert.Equal(t, b.Capacity(), b.Len()+b.Free())
	}
}

func TestWraparoundPreservesOrder(t *testing.T) {
	b := New(1, 5)

	// Fill, drain partially, refill so the write cursor wraps.
	b.Write(planar([]float64{1, 2, 3, 4}), 4)
	dst := planar(make([]float64, 3))
	b.Read(dst)
	assert.Equal(t, []float64{1, 2, 3}, dst[0])

	b.Write(planar([]float64{5, 6, 7}), 3)

	out := planar(make([]float64, 4))
	n := b.Read(out)
	require.Equal(t, 4, n)
	assert.Equal(t, []float64{4, 5, 6, 7}, out[0])
}

func TestPeekDoesNotConsume(t *testing.T) {
	b := New(1, 8)
	b.Write(planar([]float64{1, 2, 3}), 3)

	dst := planar(make([]float64, 2))
	n := b.Peek(dst)
	require.Equal(t, 2, n)
	assert.Equal(t, []float64{1, 2}, dst[0])
	assert.Equal(t, 3, b.Len())

	// Second peek sees the same samples
	n = b.Peek(dst)
	require.Equal(t, 2, n)
	assert.Equal(t, []float64{1, 2}, dst[0])
}

func TestRemoveClampsToAvailable(t *testing.T) {
	b := New(1, 8)
	b.Write(planar([]float64{1, 2, 3}), 3)

	assert.Equal(t, 3, b.Remove(10))
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Remove(1))
}

func TestRewindRecoversRemovedSamples(t *testing.T) {
	b := New(1, 8)
	b.Write(planar([]float64{1, 2, 3, 4, 5}), 5)

	b.Remove(3)
	assert.Equal(t, 3, b.Retained())

	n := b.Rewind(2)
	require.Equal(t, 2, n)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 1, b.Retained())

	dst := planar(make([]float64, 4))
	b.Peek(dst)
	assert.Equal(t, []float64{2, 3, 4, 5}, dst[0])
}

func TestRewindBoundedByRetainedHistory(t *testing.T) {
	b := New(1, 8)
	b.Write(planar([]float64{1, 2, 3}), 3)
	b.Remove(2)

	// Only 2 samples were ever removed
	assert.Equal(t, 2, b.Rewind(5))
	assert.Equal(t, 0, b.Rewind(1))
}

func TestRetainedClampedAfterOverwrite(t *testing.T) {
	b := New(1, 4)
	b.Write(planar([]float64{1, 2, 3, 4}), 4)
	b.Remove(4)
	assert.Equal(t, 4, b.Retained())

	// Writing 3 new samples overwrites 3 of the removed ones
	b.Write(planar([]float64{5, 6, 7}), 3)
	assert.Equal(t, 1, b.Retained())

	n := b.Rewind(4)
	require.Equal(t, 1, n)
	dst := planar(make([]float64, 4))
	b.Peek(dst)
	assert.Equal(t, []float64{4, 5, 6, 7}, dst[0])
}

func TestRightPadAppendsZeros(t *testing.T) {
	b := New(1, 8)
	b.Write(planar([]float64{1, 2}), 2)
	b.RightPad(3)

	assert.Equal(t, 5, b.Len())
	dst := planar(make([]float64, 5))
	b.Peek(dst)
	assert.Equal(t, []float64{1, 2, 0, 0, 0}, dst[0])
}

func TestRightPadPanicsBeyondCapacity(t *testing.T) {
	b := New(1, 4)
	b.Write(planar([]float64{1, 2, 3}), 3)
	assert.Panics(t, func() { b.RightPad(2) })
}

func TestRightPadClearsStaleData(t *testing.T) {
	b := New(1, 4)
	b.Write(planar([]float64{1, 2, 3, 4}), 4)
	b.Remove(4)

	// The pad region physically overlaps the old samples; it must read as
	// silence.
	b.RightPad(4)
	dst := planar(make([]float64, 4))
	b.Peek(dst)
	assert.Equal(t, []float64{0, 0, 0, 0}, dst[0])
}

func TestAddAccumulatesAtOffset(t *testing.T) {
	b := New(1, 8)
	b.RightPad(6)

	b.Add(2, planar([]float64{1, 1, 1}), 3)
	b.Add(3, planar([]float64{2, 2}), 2)

	dst := planar(make([]float64, 6))
	b.Peek(dst)
	assert.Equal(t, []float64{0, 0, 1, 3, 3, 0}, dst[0])
}

func TestAddPanicsOutsideReadableRegion(t *testing.T) {
	b := New(1, 8)
	b.RightPad(4)
	assert.Panics(t, func() { b.Add(2, planar([]float64{1, 1, 1}), 3) })
	assert.Panics(t, func() { b.Add(-1, planar([]float64{1}), 1) })
}

func TestAddWrapsAroundBuffer(t *testing.T) {
	b := New(1, 4)
	b.Write(planar([]float64{9, 9}), 2)
	b.Remove(2)

	// Readable region now wraps the physical end
	b.RightPad(4)
	b.Add(0, planar([]float64{1, 2, 3, 4}), 4)

	dst := planar(make([]float64, 4))
	b.Peek(dst)
	assert.Equal(t, []float64{1, 2, 3, 4}, dst[0])
}

func TestDivideRescalesSpan(t *testing.T) {
	b := New(1, 8)
	b.Write(planar([]float64{2, 4, 6, 8}), 4)

	b.Divide(1, []float64{2, 2})

	dst := planar(make([]float64, 4))
	b.Peek(dst)
	assert.Equal(t, []float64{2, 2, 3, 8}, dst[0])
}

func TestReadyAccounting(t *testing.T) {
	b := New(1, 8)
	b.RightPad(6)
	assert.Equal(t, 0, b.Ready())

	b.SetReady(4)
	assert.Equal(t, 4, b.Ready())

	// Removing consumes the ready prefix first
	b.Remove(3)
	assert.Equal(t, 1, b.Ready())
	b.Remove(2)
	assert.Equal(t, 0, b.Ready())
}

func TestSetReadyPanicsBeyondReadable(t *testing.T) {
	b := New(1, 8)
	b.RightPad(3)
	assert.Panics(t, func() { b.SetReady(4) })
}

func TestChannelMismatchPanics(t *testing.T) {
	b := New(2, 8)
	assert.Panics(t, func() { b.Write(planar([]float64{1}), 1) })
	assert.Panics(t, func() { b.Peek(planar(make([]float64, 1))) })
}

func TestReset(t *testing.T) {
	b := New(1, 8)
	b.Write(planar([]float64{1, 2, 3}), 3)
	b.Remove(2)
	b.SetReady(1)

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Ready())
	assert.Equal(t, 0, b.Retained())
	assert.Equal(t, 8, b.Free())
}
