package column

import (
	"errors"
	"testing"

	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorTypes(t *testing.T) {
	assert.Equal(t, Int32, Int32s{1}.Type())
	assert.Equal(t, Float64, Float64s{1}.Type())
	assert.Equal(t, String, Strings{"a"}.Type())
	assert.Equal(t, Bool, Bools{true}.Type())
	assert.True(t, Uint16.Numeric())
	assert.False(t, String.Numeric())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, 2, Int16.Size())
	assert.Equal(t, 0, Bool.Size())
}

func TestGatherAndConcat(t *testing.T) {
	v := Int32s{10, 20, 30, 40}
	assert.Equal(t, Int32s{40, 20}, v.Gather([]int{3, 1}))

	out, ok := v.Concat(Int32s{50})
	require.True(t, ok)
	assert.Equal(t, Int32s{10, 20, 30, 40, 50}, out)

	_, ok = v.Concat(Float64s{1})
	assert.False(t, ok)
}

func TestCopyOnWrite(t *testing.T) {
	a := New(Int32s{1, 2, 3})
	b := a.Share()
	assert.True(t, a.SameStorage(b))
	assert.True(t, a.Shared())

	require.NoError(t, SetAt(b, 0, int32(9)))
	assert.False(t, a.SameStorage(b))
	assert.Equal(t, Int32s{1, 2, 3}, a.Values())
	assert.Equal(t, Int32s{9, 2, 3}, b.Values())
	assert.False(t, a.Shared())
	assert.False(t, b.Shared())

	// sole owner writes in place
	before := b.Values().(Int32s)
	require.NoError(t, SetAt(b, 1, int32(8)))
	assert.Equal(t, int32(8), before[1])
}

func TestSetAtRejectsWrongType(t *testing.T) {
	c := New(Int32s{1})
	err := SetAt(c, 0, 1.5)
	assert.True(t, errors.Is(err, laserr.ErrTypeMismatch))
	err = SetAt(c, 3, int32(1))
	assert.True(t, errors.Is(err, laserr.ErrLengthMismatch))
}

func TestReleaseFreesSharing(t *testing.T) {
	a := New(Float64s{1})
	b := a.Share()
	b.Release()
	assert.False(t, a.Shared())
}

func TestHelpers(t *testing.T) {
	lo, hi, ok := MinMax(Float64s{3, -1, 7})
	require.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	_, _, ok = MinMax(Int32s{})
	assert.False(t, ok)

	assert.Equal(t, Uint8s{5, 5}, Fill(2, uint8(5)))
	assert.Equal(t, Float64s{1, 2}, Convert[float64](Int32s{1, 2}))

	f, ok := Float64At(Uint16s{7}, 0)
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)
	_, ok = Float64At(Strings{"x"}, 0)
	assert.False(t, ok)

	v, err := Make(Int16, 3)
	require.NoError(t, err)
	assert.True(t, SetFloat64At(v, 1, 12))
	assert.Equal(t, Int16s{0, 12, 0}, v)
}
