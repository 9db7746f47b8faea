package engine

// OLA is the fixed-hop overlap-add procedure. Every frame is taken exactly
// where the analysis cursor stands and the cursor advances by the nominal
// analysis hop. It needs no history and no lookahead beyond the frame.
type OLA struct {
	analysisHop int
}

// NewOLA returns an OLA procedure with the given nominal analysis hop.
func NewOLA(analysisHop int) *OLA {
	o := &OLA{}
	o.SetAnalysisHop(analysisHop)
	return o
}

// AnalysisHop returns the current nominal analysis hop.
func (o *OLA) AnalysisHop() int { return o.analysisHop }

// SetAnalysisHop updates the nominal hop, clamping it to at least one
// sample.
func (o *OLA) SetAnalysisHop(hop int) {
	if hop < minAnalysisHop {
		hop = minAnalysisHop
	}
	o.analysisHop = hop
}

// Margins reports that OLA needs no retained history and no lookahead.
func (o *OLA) Margins() (back, front int) { return 0, 0 }

// ProcessFrame takes the frame exactly at the nominal position and advances
// by the nominal hop.
func (o *OLA) ProcessFrame(span [][]float64, origin, n int) (start, advance int) {
	return origin, o.analysisHop
}

// Clear is a no-op; OLA carries no per-stream state.
func (o *OLA) Clear() {}
