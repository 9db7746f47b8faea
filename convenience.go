package tsm

// stereoChannels is the channel count handled by the stereo helpers.
const stereoChannels = 2

// Stretch performs one-shot time-scale modification of in-memory planar
// audio, returning the complete output. It builds a Session from cfg, runs
// it over the input and flushes it.
func Stretch(cfg Config, input [][]float64) ([][]float64, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if len(input) != s.Channels() {
		return nil, ErrChannelMismatch
	}

	out := NewSliceWriter(s.Channels())
	if err := s.Run(NewSliceReader(input), out); err != nil {
		return nil, err
	}

	return out.Data(), nil
}

// StretchMono changes the speed of a mono signal using the given procedure
// with default frame parameters.
func StretchMono(input []float64, speed float64, proc Procedure) ([]float64, error) {
	out, err := Stretch(Config{
		Channels:  1,
		Procedure: proc,
		Speed:     speed,
	}, [][]float64{input})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// StretchStereo changes the speed of a stereo signal using the given
// procedure with default frame parameters. Both channels are aligned with
// the same frame offsets, preserving the stereo image.
func StretchStereo(left, right []float64, speed float64, proc Procedure) ([]float64, []float64, error) {
	out, err := Stretch(Config{
		Channels:  stereoChannels,
		Procedure: proc,
		Speed:     speed,
	}, [][]float64{left, right})
	if err != nil {
		return nil, nil, err
	}
	return out[0], out[1], nil
}

// OutputCapacity returns an upper bound on the number of output samples per
// channel that processing inputLen input samples can produce under cfg,
// including the flush tail. Useful for pre-sizing output buffers. Returns 0
// for an invalid configuration.
func OutputCapacity(cfg Config, inputLen int) int {
	if cfg.Validate() != nil || inputLen <= 0 {
		return 0
	}
	cfg = cfg.withDefaults()

	hop := analysisHop(cfg.SynthesisHop, cfg.Speed)
	frames := inputLen/hop + 1

	// One extra frame covers the zero-padded flush at end of stream.
	return (frames + 1) * cfg.SynthesisHop
}
