package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox(t *testing.T) {
	b := EmptyBoundingBox()
	assert.True(t, b.IsEmpty())
	assert.Equal(t, BoundingBox{}, b.OrZero())

	b.Extend(Coordinate{1, 2, 3})
	b.Extend(Coordinate{-1, 5, 0})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, *NewBoundingBox(-1, 1, 2, 5, 0, 3), b)

	assert.True(t, b.Contains(Coordinate{0, 3, 1}, 0))
	assert.False(t, b.Contains(Coordinate{1.1, 3, 1}, 0))
	assert.True(t, b.Contains(Coordinate{1.1, 3, 1}, 0.2))
}
