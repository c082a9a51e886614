package schema

import (
	"errors"
	"testing"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservedTypes(t *testing.T) {
	for _, name := range []string{X, Y, Z, GPSTime} {
		d, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, column.Float64, d.Storage(), name)
	}
	for _, name := range []string{Intensity, ReturnNumber, Classification, KeypointFlag, R, NIR, ScanAngle} {
		d, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, column.Int32, d.Storage(), name)
	}
	assert.False(t, IsReserved("Amplitude"))
	assert.Equal(t, -1, Order("Amplitude"))
}

func TestFormatAttributes(t *testing.T) {
	f0, _ := LookupFormat(0)
	assert.False(t, f0.Has(GPSTime))
	assert.False(t, f0.Has(R))
	assert.True(t, f0.Has(Intensity))

	f3, _ := LookupFormat(3)
	assert.True(t, f3.Has(GPSTime))
	assert.True(t, f3.Has(B))
	assert.False(t, f3.Has(NIR))
	assert.False(t, f3.Extended())

	f8, _ := LookupFormat(8)
	assert.True(t, f8.Has(NIR))
	assert.True(t, f8.Has(OverlapFlag))
	assert.True(t, f8.Extended())

	_, ok := LookupFormat(11)
	assert.False(t, ok)

	d, _ := Lookup(R)
	assert.Equal(t, []uint8{2, 3, 5, 7, 8, 10}, d.AllowedPointFormats())
}

func TestPromote(t *testing.T) {
	cases := []struct {
		current  uint8
		required Capabilities
		expected uint8
	}{
		{0, CapColor, 2},
		{1, CapColor, 3},
		{3, CapColor, 3},
		{0, CapNIR, 8},
		{6, CapColor, 7},
		{1, CapExtended, 6},
		{4, CapColor, 5},
		{2, CapExtraBytes, 2},
		{9, CapNIR, 10},
	}
	for _, c := range cases {
		got, err := Promote(c.current, c.required)
		require.NoError(t, err)
		assert.Equal(t, c.expected, got, "promote %d with %s", c.current, c.required)
	}

	_, err := Promote(12, CapColor)
	assert.True(t, errors.Is(err, laserr.ErrUnsupportedVersion))

	_, err = Minimal(Capability(1 << 7))
	assert.True(t, errors.Is(err, laserr.ErrNoCompatibleFormat))
}

func TestRangesByFamily(t *testing.T) {
	d, _ := Lookup(Classification)
	_, max := d.LegalRange(1)
	assert.Equal(t, 31.0, max)
	_, max = d.LegalRange(6)
	assert.Equal(t, 255.0, max)

	d, _ = Lookup(ScanAngle)
	min, max := d.StorableRange(0)
	assert.Equal(t, -128.0, min)
	assert.Equal(t, 127.0, max)
	min, _ = d.LegalRange(7)
	assert.Equal(t, -30000.0, min)
}

func TestCapabilitiesFor(t *testing.T) {
	assert.Equal(t, CapColor|CapNIR, CapabilitiesFor(R, G, NIR, "unknown"))
	assert.Equal(t, "{gpstime,color}", (CapGPSTime | CapColor).String())
}
