package offset_elevation_corrector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectElevation(t *testing.T) {
	c := NewOffsetElevationCorrector(-12.5)
	assert.Equal(t, 87.5, c.CorrectElevation(1, 2, 100))
	assert.Equal(t, 0.0, NewOffsetElevationCorrector(0).CorrectElevation(1, 2, 0))
}
