package fixedstr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	b, err := Encode("lascloud", 32)
	require.NoError(t, err)
	assert.Len(t, b, 32)
	assert.Equal(t, "lascloud", Decode(b))

	b, err = Encode("Höhe", 8)
	require.NoError(t, err)
	assert.Equal(t, "Höhe", Decode(b))
}

func TestRejects(t *testing.T) {
	_, err := Encode("this name is far too long for the field", 8)
	assert.Error(t, err)
	assert.False(t, Fits("日本", 32))
	assert.True(t, Fits("abc", 3))
}
