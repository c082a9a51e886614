package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNear(t *testing.T) {
	p := NewPoint(1, 2, 3, 4, 0)
	assert.True(t, p.Near(NewPoint(1, 2, 3, 4, 1), 0))
	assert.False(t, p.Near(NewPoint(1, 2, 3.001, 4, 1), 0))
	assert.True(t, p.Near(NewPoint(1, 2, 3.001, 4, 1), 0.01))
	assert.False(t, p.Near(NewPoint(1, 2, 3, 4.5, 1), 0.01))
}

func TestLess(t *testing.T) {
	assert.True(t, NewPoint(1, 9, 9, 9, 0).Less(NewPoint(2, 0, 0, 0, 1)))
	assert.True(t, NewPoint(1, 1, 1, 1, 0).Less(NewPoint(1, 1, 1, 2, 1)))
	assert.False(t, NewPoint(1, 1, 1, 1, 0).Less(NewPoint(1, 1, 1, 1, 1)))
}
