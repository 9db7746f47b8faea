package tsm

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-audio-tsm/internal/engine"
	"github.com/tphakala/go-audio-tsm/internal/window"
)

// Reader supplies planar audio to a Session. Read fills the per-channel
// destination buffers and returns the number of samples provided; Empty
// reports definitive end of stream. See [SliceReader] for an in-memory
// implementation.
type Reader = engine.Reader

// Writer receives planar audio from a Session. Write consumes up to
// len(src[ch]) samples and returns the number accepted; accepting fewer
// signals backpressure and the session will offer the remainder again.
type Writer = engine.Writer

// Phase identifies a session's position in the stream lifecycle.
type Phase = engine.Phase

// Stream lifecycle phases, in their natural order.
const (
	PhaseFilling  = engine.PhaseFilling
	PhaseReady    = engine.PhaseReady
	PhaseFlushing = engine.PhaseFlushing
	PhaseDone     = engine.PhaseDone
)

// Procedure selects the time-scale modification algorithm.
type Procedure int

const (
	// OLA is plain overlap-add: fixed analysis hop, lowest CPU cost.
	// Well suited to simple or percussive material.
	OLA Procedure = iota

	// WSOLA is waveform-similarity overlap-add: each analysis frame is
	// realigned within a tolerance window to maximize waveform continuity,
	// at the cost of a cross-correlation search per frame. The usual
	// choice for music and speech.
	WSOLA
)

// String returns the procedure name.
func (p Procedure) String() string {
	switch p {
	case OLA:
		return "ola"
	case WSOLA:
		return "wsola"
	default:
		return "unknown"
	}
}

// Config holds time-scale modification parameters. The zero value of every
// field except Channels selects a sensible default, so a minimal
// configuration is Config{Channels: 1}.
type Config struct {
	// Channels is the number of audio channels to process. Required.
	Channels int

	// Procedure selects the modification algorithm. Defaults to OLA.
	Procedure Procedure

	// FrameLength is the analysis frame length in samples.
	// Set to 0 to use the procedure default (256 for OLA, 1024 for WSOLA).
	FrameLength int

	// SynthesisHop is the fixed spacing of synthesis frames in samples.
	// Set to 0 to use FrameLength/2.
	SynthesisHop int

	// Speed is the ratio by which the signal speed is multiplied: 2.0
	// halves the duration, 0.5 doubles it. Set to 0 to use 1.0.
	Speed float64

	// Tolerance is the WSOLA search radius in samples: how far an analysis
	// frame may shift from its nominal position. Set to 0 to use
	// SynthesisHop/2. Ignored by OLA; to disable the search entirely use
	// the OLA procedure instead.
	Tolerance int
}

// Common errors returned by the package.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid tsm configuration")

	// ErrChannelMismatch indicates audio whose channel count does not
	// match the session.
	ErrChannelMismatch = errors.New("channel count mismatch")
)

// Validate checks if the configuration is valid. Zero values that select
// defaults are accepted.
func (c *Config) Validate() error {
	if c.Channels < 1 {
		return fmt.Errorf("%w: channels must be at least 1", ErrInvalidConfig)
	}
	if c.Channels > maxChannels {
		return fmt.Errorf("%w: too many channels (max %d)", ErrInvalidConfig, maxChannels)
	}
	if c.Procedure != OLA && c.Procedure != WSOLA {
		return fmt.Errorf("%w: unknown procedure %d", ErrInvalidConfig, int(c.Procedure))
	}
	if c.FrameLength < 0 {
		return fmt.Errorf("%w: frame length must not be negative", ErrInvalidConfig)
	}
	if c.SynthesisHop < 0 {
		return fmt.Errorf("%w: synthesis hop must not be negative", ErrInvalidConfig)
	}
	if c.Speed < 0 || math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("%w: speed must be positive and finite", ErrInvalidConfig)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must not be negative", ErrInvalidConfig)
	}
	if r := c.withDefaults(); r.SynthesisHop > r.FrameLength {
		return fmt.Errorf("%w: synthesis hop %d exceeds frame length %d",
			ErrInvalidConfig, r.SynthesisHop, r.FrameLength)
	}
	return nil
}

// withDefaults returns a copy of the configuration with every zero field
// resolved to its default.
func (c Config) withDefaults() Config {
	if c.FrameLength == 0 {
		switch c.Procedure {
		case WSOLA:
			c.FrameLength = DefaultWSOLAFrameLength
		default:
			c.FrameLength = DefaultOLAFrameLength
		}
	}
	if c.SynthesisHop == 0 {
		c.SynthesisHop = c.FrameLength / synthesisHopDivisor
		if c.SynthesisHop < 1 {
			c.SynthesisHop = 1
		}
	}
	if c.Speed == 0 {
		c.Speed = DefaultSpeed
	}
	if c.Tolerance == 0 && c.Procedure == WSOLA {
		c.Tolerance = c.SynthesisHop / toleranceDivisor
	}
	return c
}

// analysisHop derives the nominal analysis hop for a speed, rounded to the
// nearest sample and never below one.
func analysisHop(synthesisHop int, speed float64) int {
	hop := int(math.Round(float64(synthesisHop) * speed))
	if hop < 1 {
		hop = 1
	}
	return hop
}

// Session is a reusable time-scale modification stream. It owns the
// analysis-synthesis engine and the procedure configured at construction,
// and processes one logical stream at a time; Clear resets it for
// unrelated audio. A Session is not safe for concurrent use.
type Session struct {
	cfg   Config
	speed float64
	eng   *engine.Engine
}

// New returns a Session for the given configuration. Construction fails
// fast on invalid parameters; a Session never reports a configuration error
// mid-stream.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	hop := analysisHop(cfg.SynthesisHop, cfg.Speed)

	var proc engine.Procedure
	switch cfg.Procedure {
	case WSOLA:
		proc = engine.NewWSOLA(cfg.Channels, cfg.FrameLength, cfg.SynthesisHop, hop, cfg.Tolerance)
	default:
		proc = engine.NewOLA(hop)
	}

	eng := engine.New(cfg.Channels, cfg.FrameLength, cfg.SynthesisHop,
		nil, window.Hann(cfg.FrameLength), proc)

	return &Session{cfg: cfg, speed: cfg.Speed, eng: eng}, nil
}

// NewOLA returns an OLA session with default frame parameters.
func NewOLA(channels int, speed float64) (*Session, error) {
	return New(Config{Channels: channels, Procedure: OLA, Speed: speed})
}

// NewWSOLA returns a WSOLA session with default frame parameters.
func NewWSOLA(channels int, speed float64) (*Session, error) {
	return New(Config{Channels: channels, Procedure: WSOLA, Speed: speed})
}

// Run processes audio from r to w until the stream completes or neither
// side can make progress. A reader that reports Empty triggers the flush
// sequence and Run returns once every derivable output sample has been
// written. With a starved reader or a saturated writer Run returns nil
// early; calling it again resumes the same stream. Errors from the reader
// or writer are returned unchanged.
func (s *Session) Run(r Reader, w Writer) error {
	return s.eng.Run(r, w)
}

// Process feeds one chunk of planar audio through the session without
// ending the stream. It consumes the whole chunk, writing whatever output
// becomes available, and returns with the stream still open; call Flush
// after the last chunk. Use Run instead when a Reader can represent the
// whole stream.
func (s *Session) Process(input [][]float64, w Writer) error {
	if len(input) != s.cfg.Channels {
		return ErrChannelMismatch
	}
	return s.eng.Run(&chunkReader{NewSliceReader(input)}, w)
}

// Flush drains the remaining buffered audio to w as if the input stream had
// ended. It is equivalent to Run with an exhausted reader.
func (s *Session) Flush(w Writer) error {
	return s.eng.Run(emptyReader{}, w)
}

// SetSpeed changes the speed ratio mid-stream. It takes effect on the next
// analysis frame; audio already buffered is unaffected.
func (s *Session) SetSpeed(speed float64) error {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w: speed must be positive and finite", ErrInvalidConfig)
	}
	s.speed = speed
	s.eng.SetSpeed(speed)
	return nil
}

// Clear resets the session for a new, unrelated stream, keeping the
// configuration and allocated buffers.
func (s *Session) Clear() {
	s.eng.Clear()
}

// Phase returns the current stream phase.
func (s *Session) Phase() Phase { return s.eng.Phase() }

// Channels returns the configured channel count.
func (s *Session) Channels() int { return s.cfg.Channels }

// FrameLength returns the analysis frame length in samples.
func (s *Session) FrameLength() int { return s.cfg.FrameLength }

// SynthesisHop returns the synthesis hop in samples.
func (s *Session) SynthesisHop() int { return s.cfg.SynthesisHop }

// Speed returns the current speed ratio.
func (s *Session) Speed() float64 { return s.speed }

// emptyReader is a Reader with no samples; it drives the flush sequence.
type emptyReader struct{}

func (emptyReader) Read(dst [][]float64) (int, error) { return 0, nil }
func (emptyReader) Empty() bool                       { return true }

// chunkReader serves one chunk but never reports end of stream, so the
// engine stays open for the next chunk.
type chunkReader struct {
	*SliceReader
}

func (chunkReader) Empty() bool { return false }
