package testutil

import "math"

// Sine returns n samples of a sine wave at freq Hz sampled at rate Hz with
// the given amplitude. Deterministic, so tests get identical input on every
// run.
func Sine(n int, freq, rate, amplitude float64) []float64 {
	s := make([]float64, n)
	step := 2 * math.Pi * freq / rate
	for i := range s {
		s[i] = amplitude * math.Sin(step*float64(i))
	}
	return s
}

// DC returns n samples of the constant value.
func DC(n int, value float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = value
	}
	return s
}

// Impulse returns n samples of silence with a single unit sample at pos.
func Impulse(n, pos int) []float64 {
	s := make([]float64, n)
	if pos >= 0 && pos < n {
		s[pos] = 1
	}
	return s
}

// Ramp returns n samples rising linearly from 0 to 1.
func Ramp(n int) []float64 {
	s := make([]float64, n)
	if n < 2 {
		return s
	}
	for i := range s {
		s[i] = float64(i) / float64(n-1)
	}
	return s
}

// Planar wraps mono samples as single-channel planar audio.
func Planar(s []float64) [][]float64 {
	return [][]float64{s}
}
