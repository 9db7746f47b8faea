package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOLAHopClamping(t *testing.T) {
	o := NewOLA(0)
	assert.Equal(t, 1, o.AnalysisHop())

	o.SetAnalysisHop(-5)
	assert.Equal(t, 1, o.AnalysisHop())

	o.SetAnalysisHop(64)
	assert.Equal(t, 64, o.AnalysisHop())
}

func TestOLAMargins(t *testing.T) {
	back, front := NewOLA(128).Margins()
	assert.Equal(t, 0, back)
	assert.Equal(t, 0, front)
}

func TestOLAProcessFrameIsNominal(t *testing.T) {
	o := NewOLA(96)
	span := [][]float64{make([]float64, 512)}

	start, advance := o.ProcessFrame(span, 0, 512)
	assert.Equal(t, 0, start)
	assert.Equal(t, 96, advance)

	start, advance = o.ProcessFrame(span, 32, 512)
	assert.Equal(t, 32, start)
	assert.Equal(t, 96, advance)
}
