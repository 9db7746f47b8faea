package tsm

// Default frame lengths per procedure. OLA tolerates short frames because it
// never searches; WSOLA needs longer frames for the similarity search to
// find periodic structure.
const (
	// DefaultOLAFrameLength is the frame length used by OLA when the
	// configuration leaves it unset.
	DefaultOLAFrameLength = 256

	// DefaultWSOLAFrameLength is the frame length used by WSOLA when the
	// configuration leaves it unset.
	DefaultWSOLAFrameLength = 1024
)

// Derived defaults
const (
	// synthesisHopDivisor derives the default synthesis hop from the frame
	// length (half-overlapping frames).
	synthesisHopDivisor = 2

	// toleranceDivisor derives the default WSOLA search radius from the
	// synthesis hop.
	toleranceDivisor = 2
)

// Channel limits
const (
	maxChannels = 256 // Maximum supported channel count
)

// DefaultSpeed is the speed used when the configuration leaves it unset.
const DefaultSpeed = 1.0
