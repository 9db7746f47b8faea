// Package engine implements the analysis-synthesis core shared by every
// time-scale modification procedure. It decomposes the input into
// overlapping analysis frames, lets a Procedure choose how the analysis
// cursor advances between frames, and overlap-adds the windowed frames at
// the fixed synthesis hop, normalizing by the accumulated window energy.
package engine

import (
	"math"

	"github.com/tphakala/go-audio-tsm/internal/cbuf"
	"github.com/tphakala/go-audio-tsm/internal/window"
)

// Engine drives one stream through a Procedure. It owns the analysis and
// synthesis buffers, the stream phase, and the warm-up and flush
// bookkeeping. An Engine is single-stream; call Clear before reusing it on
// unrelated audio.
type Engine struct {
	channels     int
	frameLength  int
	synthesisHop int
	back         int
	front        int
	fillTarget   int

	proc Procedure

	in   *cbuf.CBuffer
	out  *cbuf.CBuffer
	norm *cbuf.NormalizeBuffer

	frameWindow []float64
	span        [][]float64
	synth       [][]float64
	scratch     [][]float64
	view        [][]float64
	divisors    []float64

	skipInput  int
	skipOutput int
	flushPad   int
	flushReal  int
	phase      Phase
}

// New returns an Engine for the given procedure. analysisWindow and
// synthesisWindow may be nil, meaning a rectangular window; when both are
// nil no normalization weighting is applied beyond unity. Panics on
// non-positive sizes or window length mismatches; the public package
// validates configuration before reaching this point.
func New(channels, frameLength, synthesisHop int, analysisWindow, synthesisWindow []float64, proc Procedure) *Engine {
	if channels <= 0 || frameLength <= 0 || synthesisHop <= 0 {
		panic("engine: channels, frame length and synthesis hop must be positive")
	}
	if synthesisHop > frameLength {
		panic("engine: synthesis hop exceeds frame length")
	}
	if analysisWindow != nil && len(analysisWindow) != frameLength {
		panic("engine: analysis window length mismatch")
	}
	if synthesisWindow != nil && len(synthesisWindow) != frameLength {
		panic("engine: synthesis window length mismatch")
	}

	back, front := proc.Margins()
	fillTarget := frameLength + front

	frameWindow := window.Product(analysisWindow, synthesisWindow)
	if frameWindow == nil {
		frameWindow = window.Ones(frameLength)
	}

	e := &Engine{
		channels:     channels,
		frameLength:  frameLength,
		synthesisHop: synthesisHop,
		back:         back,
		front:        front,
		fillTarget:   fillTarget,
		proc:         proc,
		in:           cbuf.New(channels, back+fillTarget),
		out:          cbuf.New(channels, frameLength+2*synthesisHop),
		norm:         cbuf.NewNormalize(frameLength),
		frameWindow:  frameWindow,
		span:         newPlanar(channels, back+fillTarget),
		synth:        newPlanar(channels, frameLength),
		scratch:      newPlanar(channels, frameLength+2*synthesisHop),
		view:         make([][]float64, channels),
		divisors:     make([]float64, synthesisHop),
	}
	e.Clear()
	return e
}

// Channels returns the channel count the engine was built for.
func (e *Engine) Channels() int { return e.channels }

// FrameLength returns the analysis frame length.
func (e *Engine) FrameLength() int { return e.frameLength }

// SynthesisHop returns the fixed synthesis hop.
func (e *Engine) SynthesisHop() int { return e.synthesisHop }

// AnalysisHop returns the procedure's current nominal analysis hop.
func (e *Engine) AnalysisHop() int { return e.proc.AnalysisHop() }

// Phase returns the current stream phase.
func (e *Engine) Phase() Phase { return e.phase }

// SetSpeed adjusts the nominal analysis hop to synthesisHop*speed, rounded
// to the nearest sample and clamped to at least one. It takes effect on the
// next frame; buffered audio is unaffected.
func (e *Engine) SetSpeed(speed float64) {
	e.proc.SetAnalysisHop(int(math.Round(float64(e.synthesisHop) * speed)))
}

// Clear resets the engine for a new, unrelated stream. The input is
// left-padded with half a frame of silence and the stretched equivalent of
// that padding is discarded from the output, so the first audible sample
// lines up with the peak of the window function and with input position
// zero.
func (e *Engine) Clear() {
	e.in.Reset()
	e.out.Reset()
	e.norm.Reset()
	e.proc.Clear()

	warmup := e.frameLength / 2
	e.in.RightPad(warmup)
	e.skipOutput = int(math.Round(float64(warmup) * float64(e.synthesisHop) /
		float64(e.proc.AnalysisHop())))
	e.skipInput = 0
	e.flushPad = 0
	e.flushReal = 0
	e.phase = PhaseFilling
}

// Feed pulls samples from r into the analysis buffer until it holds a full
// span or the reader has nothing more. It returns the number of input
// samples consumed, including any skipped to catch the cursor up after a
// large advance. A reader reporting Empty moves the engine into
// PhaseFlushing, after which Feed tops the span up with silence so the
// buffered tail can still be emitted.
func (e *Engine) Feed(r Reader) (int, error) {
	if e.phase == PhaseDone {
		return 0, nil
	}

	total := 0
	for e.skipInput > 0 && !r.Empty() {
		n := e.skipInput
		if n > len(e.span[0]) {
			n = len(e.span[0])
		}
		m, err := r.Read(e.views(e.span, n))
		e.skipInput -= m
		total += m
		if err != nil {
			return total, err
		}
		if m == 0 {
			break
		}
	}

	for e.skipInput == 0 && !r.Empty() && e.in.Len() < e.fillTarget {
		room := e.fillTarget - e.in.Len()
		m, err := r.Read(e.views(e.span, room))
		if m > 0 {
			e.in.Write(e.span, m)
			total += m
		}
		if err != nil {
			return total, err
		}
		if m == 0 {
			break
		}
	}

	if r.Empty() && (e.phase == PhaseFilling || e.phase == PhaseReady) {
		e.phase = PhaseFlushing
		e.flushReal = e.in.Len()
		e.flushPad = e.fillTarget
		e.skipInput = 0
	}

	// Top the span up with silence while real samples remain, so the
	// buffered tail can still be framed. Once the real samples are
	// consumed no further frames are produced; the padding never turns
	// into trailing silence in the output.
	if e.phase == PhaseFlushing && e.flushReal > 0 && e.flushPad > 0 {
		pad := e.fillTarget - e.in.Len()
		if pad > e.flushPad {
			pad = e.flushPad
		}
		if pad > 0 {
			e.in.RightPad(pad)
			e.flushPad -= pad
		}
	}

	if e.phase == PhaseFilling && e.in.Len() >= e.fillTarget {
		e.phase = PhaseReady
	}

	return total, nil
}

// CanStep reports whether a frame can be processed right now: the analysis
// span is full, no input remains to be skipped, and the synthesis buffer
// has room for one more hop of finalized output.
func (e *Engine) CanStep() bool {
	if e.phase == PhaseFlushing && e.flushReal <= 0 {
		return false
	}
	return e.skipInput == 0 &&
		e.in.Len() >= e.fillTarget &&
		e.out.Free() >= e.synthesisHop
}

// Step processes one analysis frame: it rewinds the retained history the
// procedure asked for, lets the procedure choose the frame position and
// cursor advance, then windows the frame, overlap-adds it into the
// synthesis buffer and finalizes one synthesis hop of normalized output.
// It returns false without touching any state when CanStep is false.
func (e *Engine) Step() bool {
	if !e.CanStep() {
		return false
	}

	origin := e.in.Rewind(e.back)
	n := e.in.Peek(e.views(e.span, e.in.Len()))

	start, advance := e.proc.ProcessFrame(e.span, origin, n)
	if start < 0 {
		start = 0
	}
	if max := n - e.frameLength; start > max {
		start = max
	}
	if advance < 1 {
		advance = 1
	}

	for ch := range e.span {
		frame := e.span[ch][start : start+e.frameLength]
		syn := e.synth[ch]
		for i, w := range e.frameWindow {
			syn[i] = frame[i] * w
		}
	}

	base := e.out.Ready()
	if need := base + e.frameLength; need > e.out.Len() {
		e.out.RightPad(need - e.out.Len())
	}
	e.out.Add(base, e.synth, e.frameLength)

	e.norm.Add(e.frameWindow)
	e.norm.Prefix(e.divisors)
	for i, d := range e.divisors {
		if d < normalizeEpsilon {
			e.divisors[i] = 1
		}
	}
	e.out.Divide(base, e.divisors)
	e.out.SetReady(e.synthesisHop)
	e.norm.Remove(e.synthesisHop)

	consumed := origin + advance
	removed := e.in.Remove(consumed)
	e.skipInput += consumed - removed

	if e.phase == PhaseFlushing {
		// The rewound history was consumed by earlier steps; only the net
		// cursor movement eats into the remaining real samples.
		e.flushReal -= advance
		if e.flushReal < 0 {
			e.flushReal = 0
		}
		// Samples owed to the cursor will never arrive once the stream
		// has ended.
		e.skipInput = 0
	}

	if e.skipOutput > 0 {
		drop := e.skipOutput
		if r := e.out.Ready(); drop > r {
			drop = r
		}
		e.out.Remove(drop)
		e.skipOutput -= drop
	}

	if e.phase == PhaseReady && e.in.Len() < e.fillTarget {
		e.phase = PhaseFilling
	}

	return true
}

// Drain writes finalized output to w until none remains or the writer
// exerts backpressure by accepting a partial write. Unaccepted samples stay
// buffered and are offered again on the next call; nothing is dropped. It
// returns the number of samples written.
func (e *Engine) Drain(w Writer) (int, error) {
	total := 0
	for {
		m := e.out.Ready()
		if m == 0 {
			break
		}
		e.out.Peek(e.views(e.scratch, m))
		wrote, err := w.Write(e.views(e.scratch, m))
		if wrote > m {
			wrote = m
		}
		if wrote > 0 {
			e.out.Remove(wrote)
			total += wrote
		}
		if err != nil {
			return total, err
		}
		if wrote < m {
			break
		}
	}

	if e.phase == PhaseFlushing && e.flushReal <= 0 && e.out.Ready() == 0 {
		e.phase = PhaseDone
	}

	return total, nil
}

// Run drives the stream until it is done or no forward progress is
// possible. It alternates Feed, Step and Drain; a reader that reports Empty
// triggers the flush sequence, and Run returns nil once the engine reaches
// PhaseDone. Run also returns nil, with the phase short of PhaseDone, when
// the reader is starved or the writer refuses all output; calling Run again
// later resumes the same stream. Reader and writer errors are returned
// unchanged.
func (e *Engine) Run(r Reader, w Writer) error {
	if e.phase == PhaseDone {
		// Any unread samples left behind by the flush are injected
		// padding; drop them so the resumed stream follows the previous
		// audio directly instead of a stretch of silence.
		e.in.Remove(e.in.Len())
		e.phase = PhaseFilling
	}

	for {
		fed, err := e.Feed(r)
		if err != nil {
			return err
		}

		steps := 0
		for e.CanStep() {
			e.Step()
			steps++
			if _, err := e.Drain(w); err != nil {
				return err
			}
		}

		drained, err := e.Drain(w)
		if err != nil {
			return err
		}
		if e.phase == PhaseDone {
			return nil
		}
		if fed == 0 && steps == 0 && drained == 0 {
			return nil
		}
	}
}

// Pending returns the number of finalized samples waiting to be drained.
func (e *Engine) Pending() int { return e.out.Ready() }

func (e *Engine) views(buf [][]float64, n int) [][]float64 {
	for ch := range buf {
		e.view[ch] = buf[ch][:n]
	}
	return e.view
}

func newPlanar(channels, length int) [][]float64 {
	buf := make([][]float64, channels)
	for ch := range buf {
		buf[ch] = make([]float64, length)
	}
	return buf
}
