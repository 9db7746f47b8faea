// Package window provides the window tables used to taper analysis and
// synthesis frames before overlap-add.
package window

import "math"

// Hann returns a periodic Hann window of the given length:
//
//	w[i] = 0.5 * (1 - cos(2*pi*i/length))
//
// The periodic form (rather than the symmetric one) is used so that windows
// overlapped at a hop of length/2 sum to a constant. The output is a pure
// function of length; a non-positive length yields an empty table.
func Hann(length int) []float64 {
	if length <= 0 {
		return nil
	}

	w := make([]float64, length)
	step := 2 * math.Pi / float64(length)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(step*float64(i)))
	}

	return w
}

// Product returns the element-wise product of two windows. If either window
// is nil the other is returned unchanged; if both are nil, nil is returned.
// Panics if both are non-nil with different lengths.
func Product(a, b []float64) []float64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if len(a) != len(b) {
		panic("window: product of windows with different lengths")
	}

	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] * b[i]
	}

	return out
}

// Apply multiplies each channel of frame in place by w. A nil window is a
// no-op. Panics if a channel is shorter than the window.
func Apply(frame [][]float64, w []float64) {
	if w == nil {
		return
	}

	for _, c := range frame {
		c = c[:len(w)]
		for i, v := range w {
			c[i] *= v
		}
	}
}

// Ones returns a window of all-one coefficients, the identity taper used when
// a procedure supplies no window of its own.
func Ones(length int) []float64 {
	w := make([]float64, length)
	for i := range w {
		w[i] = 1
	}
	return w
}
