package engine

// Reader is the input side of the engine. Read fills the per-channel
// destination buffers with up to len(dst[ch]) samples and returns the number
// of samples provided. A short or zero read is not an error; it only means
// the reader has nothing more to offer right now. Empty reports definitive
// end of stream.
type Reader interface {
	Read(dst [][]float64) (int, error)
	Empty() bool
}

// Writer is the output side of the engine. Write consumes up to
// len(src[ch]) samples from the per-channel source buffers and returns the
// number of samples accepted. Accepting fewer samples than offered signals
// backpressure; the engine retries the remainder rather than dropping it.
type Writer interface {
	Write(src [][]float64) (int, error)
}

// Procedure selects how analysis frames are aligned before they are
// overlap-added into the synthesis stream. The engine holds exactly one
// procedure and forwards every frame decision to it.
type Procedure interface {
	// AnalysisHop returns the current nominal analysis hop.
	AnalysisHop() int

	// SetAnalysisHop updates the nominal hop, taking effect on the next
	// frame without disturbing buffered state.
	SetAnalysisHop(hop int)

	// Margins returns the number of samples of retained history (back) and
	// lookahead past the frame (front) the procedure needs in its span.
	Margins() (back, front int)

	// ProcessFrame inspects the analysis span and chooses the frame to
	// emit. span holds n valid samples per channel; the nominal frame
	// position is index origin, preceded by origin samples of rewound
	// history. It returns the chosen frame start within the span, which
	// may reach into that history, and the advance to apply to the
	// analysis cursor.
	ProcessFrame(span [][]float64, origin, n int) (start, advance int)

	// Clear resets per-stream state, keeping configuration.
	Clear()
}

// Phase identifies the engine's position in the stream lifecycle.
type Phase int

const (
	// PhaseFilling: accumulating input until a full analysis span is
	// available.
	PhaseFilling Phase = iota

	// PhaseReady: a full span is buffered and frames can be processed.
	PhaseReady

	// PhaseFlushing: the reader is exhausted; remaining buffered audio is
	// being drained.
	PhaseFlushing

	// PhaseDone: all derivable output has been emitted. Terminal until
	// Clear, though Run resumes a Done engine to continue a stream.
	PhaseDone
)

// String returns the phase name for diagnostics.
func (p Phase) String() string {
	switch p {
	case PhaseFilling:
		return "filling"
	case PhaseReady:
		return "ready"
	case PhaseFlushing:
		return "flushing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
