package engine

const (
	// normalizeEpsilon is the threshold below which an accumulated window
	// divisor is treated as one. Overlap-add coverage thinner than this
	// carries no usable signal.
	normalizeEpsilon = 1e-4

	// minAnalysisHop is the smallest permitted nominal hop. A hop below one
	// sample would stall the analysis cursor.
	minAnalysisHop = 1

	// energyFloor keeps cross-correlation normalization finite on silent
	// candidate segments.
	energyFloor = 1e-12
)
