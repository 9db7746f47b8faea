package engine

import (
	"math"

	"github.com/tphakala/simd/f64"
)

// WSOLA is the waveform-similarity overlap-add procedure. The analysis
// cursor advances on a fixed nominal grid, but each frame may shift up to
// tolerance samples away from its nominal position, toward whichever offset
// best continues the waveform of the previous synthesis frame. Shifting
// backward reaches into the retained history the engine rewinds for it.
//
// The reference for the similarity search is the natural progression of the
// previously chosen frame: the samples that would have followed it at
// unmodified speed. Maximizing the normalized cross-correlation against that
// reference minimizes the phase jump at the synthesis overlap.
type WSOLA struct {
	frameLength  int
	synthesisHop int
	analysisHop  int
	tolerance    int

	reference [][]float64
	first     bool
}

// NewWSOLA returns a WSOLA procedure for the given channel count. tolerance
// bounds the frame shift to [-tolerance, tolerance] around the nominal
// position; a tolerance of zero degenerates to plain OLA behavior.
func NewWSOLA(channels, frameLength, synthesisHop, analysisHop, tolerance int) *WSOLA {
	overlap := frameLength - synthesisHop
	if overlap < 0 {
		overlap = 0
	}

	reference := make([][]float64, channels)
	for ch := range reference {
		reference[ch] = make([]float64, overlap)
	}

	w := &WSOLA{
		frameLength:  frameLength,
		synthesisHop: synthesisHop,
		tolerance:    tolerance,
		reference:    reference,
		first:        true,
	}
	w.SetAnalysisHop(analysisHop)
	return w
}

// AnalysisHop returns the nominal analysis hop.
func (w *WSOLA) AnalysisHop() int { return w.analysisHop }

// SetAnalysisHop updates the nominal hop, clamping it to at least one
// sample. The change applies from the next frame.
func (w *WSOLA) SetAnalysisHop(hop int) {
	if hop < minAnalysisHop {
		hop = minAnalysisHop
	}
	w.analysisHop = hop
}

// Tolerance returns the maximum frame shift in samples.
func (w *WSOLA) Tolerance() int { return w.tolerance }

// Margins requests tolerance samples of retained history, so frames can
// shift backward past the cursor, and tolerance plus one synthesis hop of
// lookahead, so the natural progression of a fully shifted frame is still
// inside the span.
func (w *WSOLA) Margins() (back, front int) {
	return w.tolerance, w.tolerance + w.synthesisHop
}

// ProcessFrame scores every admissible shift of the frame around its
// nominal position at origin and returns the best frame start. The cursor
// advance is always the nominal hop; the shift never accumulates across
// frames. Ties on score are broken toward the nominal position, then toward
// the earlier offset, making the search fully deterministic.
func (w *WSOLA) ProcessFrame(span [][]float64, origin, n int) (start, advance int) {
	overlap := w.frameLength - w.synthesisHop

	best := origin
	if !w.first && w.tolerance > 0 && overlap > 0 {
		lo := origin - w.tolerance
		if lo < 0 {
			lo = 0
		}
		hi := origin + w.tolerance
		if max := n - w.frameLength; hi > max {
			hi = max
		}
		if lo <= hi {
			best = w.search(span, origin, lo, hi, overlap)
		}
	}

	// Save the natural progression of the chosen frame as the reference
	// for the next search.
	if overlap > 0 {
		for ch := range w.reference {
			tail := span[ch][best+w.synthesisHop : best+w.frameLength]
			copy(w.reference[ch], tail)
		}
	}
	w.first = false

	return best, w.analysisHop
}

// search returns the offset in [lo, hi] whose leading overlap correlates
// best with the stored reference.
func (w *WSOLA) search(span [][]float64, origin, lo, hi, overlap int) int {
	refEnergy := 0.0
	for ch := range w.reference {
		ref := w.reference[ch]
		refEnergy += f64.DotProductUnsafe(ref, ref)
	}

	best := lo
	bestScore := math.Inf(-1)
	bestDev := w.tolerance + 1
	for s := lo; s <= hi; s++ {
		cross := 0.0
		candEnergy := 0.0
		for ch := range w.reference {
			cand := span[ch][s : s+overlap]
			cross += f64.DotProductUnsafe(w.reference[ch], cand)
			candEnergy += f64.DotProductUnsafe(cand, cand)
		}
		score := cross / math.Sqrt(refEnergy*candEnergy+energyFloor)

		dev := s - origin
		if dev < 0 {
			dev = -dev
		}
		if score > bestScore || (score == bestScore && dev < bestDev) {
			best = s
			bestScore = score
			bestDev = dev
		}
	}

	return best
}

// Clear forgets the stored reference so the next frame is taken at its
// nominal position.
func (w *WSOLA) Clear() {
	w.first = true
}
