package testutil

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DominantFrequency returns the frequency in Hz of the strongest spectral
// component of s, excluding DC. Time-scale modification must preserve
// pitch, so the dominant frequency of a stretched sine should match the
// input within one bin.
func DominantFrequency(s []float64, rate float64) float64 {
	if len(s) < 2 {
		return 0
	}

	fft := fourier.NewFFT(len(s))
	coeffs := fft.Coefficients(nil, s)

	best := 1
	bestMag := 0.0
	for i := 1; i < len(coeffs); i++ {
		if mag := cmplx.Abs(coeffs[i]); mag > bestMag {
			best = i
			bestMag = mag
		}
	}

	return fft.Freq(best) * rate
}

// FrequencyResolution returns the bin width in Hz of a length-n spectrum.
func FrequencyResolution(n int, rate float64) float64 {
	if n <= 0 {
		return 0
	}
	return rate / float64(n)
}
