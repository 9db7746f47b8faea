// Command tsm-wav changes the playback speed of WAV audio files without
// changing their pitch.
//
// Usage:
//
//	tsm-wav -speed 0.5 input.wav output.wav            # Half speed, twice as long
//	tsm-wav -speed 1.5 -procedure ola in.wav out.wav   # 1.5x speed with plain OLA
//	tsm-wav -speed 0.8 -frame 2048 -v in.wav out.wav   # Custom frame length, verbose
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	tsm "github.com/tphakala/go-audio-tsm"
)

const (
	// Samples per channel moved per chunk between the WAV decoder and the
	// session. Larger chunks reduce I/O overhead.
	chunkSize = 16384

	// CLI defaults
	defaultSpeed    = 1.0
	minRequiredArgs = 2
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	speed := flag.Float64("speed", defaultSpeed, "Speed ratio: 0.5 = half speed, 2.0 = double speed")
	procedure := flag.String("procedure", "wsola", "Procedure: ola, wsola")
	frame := flag.Int("frame", 0, "Analysis frame length in samples (0 = procedure default)")
	hop := flag.Int("hop", 0, "Synthesis hop in samples (0 = frame/2)")
	tolerance := flag.Int("tolerance", 0, "WSOLA search radius in samples (0 = hop/2)")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file (for PGO)")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -speed 0.5 music.wav slow.wav      # Stretch to double length\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -speed 1.3 podcast.wav fast.wav    # Faster speech, same pitch\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	inputPath := args[0]
	outputPath := args[1]

	proc, err := parseProcedure(*procedure)
	if err != nil {
		return err
	}

	cfg := tsm.Config{
		Procedure:    proc,
		FrameLength:  *frame,
		SynthesisHop: *hop,
		Speed:        *speed,
		Tolerance:    *tolerance,
	}

	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		log.Printf("Speed: %.3fx", *speed)
		log.Printf("Procedure: %s", proc)
	}

	start := time.Now()
	stats, err := stretchWAV(inputPath, outputPath, cfg, *verbose)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Stretched %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %.3fx speed (%s, %d channels, %d-bit, %d Hz)\n",
		*speed, proc, stats.channels, stats.bitDepth, stats.rate)
	fmt.Printf("  %d samples -> %d samples\n", stats.inputSamples, stats.outputSamples)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(),
		float64(stats.inputSamples)/float64(stats.rate)/elapsed.Seconds())

	return nil
}

func parseProcedure(name string) (tsm.Procedure, error) {
	switch strings.ToLower(name) {
	case "ola":
		return tsm.OLA, nil
	case "wsola":
		return tsm.WSOLA, nil
	default:
		return 0, fmt.Errorf("unknown procedure %q (want ola or wsola)", name)
	}
}

type stretchStats struct {
	rate          int
	channels      int
	bitDepth      int
	inputSamples  int64
	outputSamples int64
}

// stretchWAV streams the input file through a session into the output file.
func stretchWAV(inputPath, outputPath string, cfg tsm.Config, verbose bool) (stats *stretchStats, err error) {
	input, err := openWAVInput(inputPath, verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	cfg.Channels = input.channels
	session, err := tsm.New(cfg)
	if err != nil {
		return nil, err
	}

	output, err := createWAVOutput(outputPath, input.rate, input.bitDepth, input.channels)
	if err != nil {
		return nil, err
	}
	// Close finalizes the WAV header, so its error matters on the success
	// path.
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	reader := newWAVReader(input, chunkSize)
	writer := newWAVWriter(output, input.channels, input.bitDepth, chunkSize)

	if err := session.Run(reader, writer); err != nil {
		return nil, fmt.Errorf("time-scale modification failed: %w", err)
	}

	return &stretchStats{
		rate:          input.rate,
		channels:      input.channels,
		bitDepth:      input.bitDepth,
		inputSamples:  reader.total,
		outputSamples: writer.total,
	}, nil
}
