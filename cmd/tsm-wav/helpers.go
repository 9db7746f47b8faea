package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	monoChannels   = 1
	stereoChannels = 2

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	// Full-scale values per PCM bit depth
	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	// WAV audio format tag for PCM
	wavFormatPCM = 1
)

// sampleScale returns the full-scale value for the given bit depth.
func sampleScale(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file     *os.File
	decoder  *wav.Decoder
	rate     int
	channels int
	bitDepth int
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit",
			format.SampleRate, format.NumChannels, decoder.BitDepth)
	}

	return &wavInputInfo{
		file:     inputFile,
		decoder:  decoder,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: int(decoder.BitDepth),
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// wavOutputWriter wraps the output file and its WAV encoder.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
}

// createWAVOutput creates the output file and its encoder.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutputWriter, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	encoder := wav.NewEncoder(outputFile, sampleRate, bitDepth, channels, wavFormatPCM)

	return &wavOutputWriter{
		file:    outputFile,
		encoder: encoder,
	}, nil
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// wavReader adapts a WAV decoder to the session's Reader interface. It
// decodes interleaved PCM chunks lazily and serves them as planar float64
// in [-1, 1].
type wavReader struct {
	input  *wavInputInfo
	intBuf *audio.IntBuffer
	planar [][]float64
	avail  int
	pos    int
	eof    bool
	scale  float64
	total  int64
}

func newWAVReader(input *wavInputInfo, chunk int) *wavReader {
	planar := make([][]float64, input.channels)
	for ch := range planar {
		planar[ch] = make([]float64, chunk)
	}

	return &wavReader{
		input: input,
		intBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: input.channels,
				SampleRate:  input.rate,
			},
			Data:           make([]int, chunk*input.channels),
			SourceBitDepth: input.bitDepth,
		},
		planar: planar,
		scale:  1 / sampleScale(input.bitDepth),
	}
}

// Read serves up to len(dst[ch]) samples per channel, decoding the next
// chunk when the current one is exhausted.
func (r *wavReader) Read(dst [][]float64) (int, error) {
	if r.pos >= r.avail && !r.eof {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}

	n := r.avail - r.pos
	if n <= 0 {
		return 0, nil
	}
	if len(dst) > 0 && len(dst[0]) < n {
		n = len(dst[0])
	}

	for ch := range dst {
		copy(dst[ch][:n], r.planar[ch][r.pos:r.pos+n])
	}
	r.pos += n

	return n, nil
}

// Empty reports whether the decoder is exhausted and every decoded sample
// has been served.
func (r *wavReader) Empty() bool {
	return r.eof && r.pos >= r.avail
}

func (r *wavReader) fill() error {
	r.intBuf.Data = r.intBuf.Data[:cap(r.intBuf.Data)]

	n, err := r.input.decoder.PCMBuffer(r.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read audio data: %w", err)
	}

	frames := n / r.input.channels
	if frames == 0 {
		r.eof = true
		r.avail = 0
		r.pos = 0
		return nil
	}

	deinterleaveInto(r.intBuf.Data, r.planar, r.input.channels, frames, r.scale)
	r.avail = frames
	r.pos = 0
	r.total += int64(frames)

	return nil
}

// wavWriter adapts a WAV encoder to the session's Writer interface,
// interleaving planar float64 back to PCM with clamping to full scale.
type wavWriter struct {
	output   *wavOutputWriter
	intBuf   *audio.IntBuffer
	channels int
	scale    float64
	total    int64
}

func newWAVWriter(output *wavOutputWriter, channels, bitDepth, chunk int) *wavWriter {
	return &wavWriter{
		output: output,
		intBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  output.encoder.SampleRate,
			},
			Data:           make([]int, chunk*channels),
			SourceBitDepth: bitDepth,
		},
		channels: channels,
		scale:    sampleScale(bitDepth),
	}
}

// Write encodes all offered samples. Oversized offers are written in
// chunk-size pieces, so the session never sees backpressure from this
// writer.
func (w *wavWriter) Write(src [][]float64) (int, error) {
	if len(src) != w.channels {
		return 0, fmt.Errorf("expected %d channels, got %d", w.channels, len(src))
	}

	frames := len(src[0])
	chunk := cap(w.intBuf.Data) / w.channels

	written := 0
	for written < frames {
		n := frames - written
		if n > chunk {
			n = chunk
		}

		w.intBuf.Data = w.intBuf.Data[:n*w.channels]
		interleaveInto(src, written, n, w.intBuf.Data, w.scale)

		if err := w.output.encoder.Write(w.intBuf); err != nil {
			return written, fmt.Errorf("failed to write audio data: %w", err)
		}
		written += n
	}

	w.total += int64(frames)
	return frames, nil
}

// deinterleaveInto converts interleaved int samples into preallocated
// per-channel buffers normalized to [-1, 1].
func deinterleaveInto(data []int, planar [][]float64, channels, frames int, scale float64) {
	// Fast path for mono
	if channels == monoChannels {
		buf := planar[0]
		for i := 0; i < frames; i++ {
			buf[i] = float64(data[i]) * scale
		}
		return
	}

	// Fast path for stereo
	if channels == stereoChannels {
		buf0, buf1 := planar[0], planar[1]
		for i := 0; i < frames; i++ {
			idx := i * stereoChannels
			buf0[i] = float64(data[idx]) * scale
			buf1[i] = float64(data[idx+1]) * scale
		}
		return
	}

	for i := 0; i < frames; i++ {
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			planar[ch][i] = float64(data[base+ch]) * scale
		}
	}
}

// interleaveInto converts n planar frames starting at offset into
// interleaved int samples, clamping to [-1, 1] before scaling.
func interleaveInto(src [][]float64, offset, n int, dst []int, scale float64) {
	channels := len(src)
	for i := 0; i < n; i++ {
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			sample := src[ch][offset+i]
			if sample > 1 {
				sample = 1
			} else if sample < -1 {
				sample = -1
			}
			dst[base+ch] = int(sample * scale)
		}
	}
}
