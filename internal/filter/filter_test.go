package filter

import (
	"errors"
	"testing"

	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row map[string]float64

func (r row) Value(attribute string) (float64, bool) {
	v, ok := r[attribute]
	return v, ok
}

func TestProjection(t *testing.T) {
	all := All()
	assert.True(t, all.IsAll())
	assert.True(t, all.Includes(schema.Intensity, false))
	assert.True(t, all.Includes("height", true))

	p := Attributes(schema.X, schema.Y, schema.Z, schema.Classification)
	assert.False(t, p.IsAll())
	assert.True(t, p.Includes(schema.Classification, false))
	assert.False(t, p.Includes(schema.Intensity, false))
	assert.False(t, p.Includes("height", true))
	assert.True(t, p.WithExtras().Includes("height", true))

	q := all.Without(schema.GPSTime)
	assert.False(t, q.IsAll())
	assert.False(t, q.Includes(schema.GPSTime, false))
	assert.True(t, all.Includes(schema.GPSTime, false), "Without must not modify the receiver")
	assert.True(t, q.With(schema.GPSTime).Includes(schema.GPSTime, false))

	assert.Equal(t, []string{schema.X, schema.Y, schema.Z, schema.Classification}, p.Names())
}

func TestComparisonMatch(t *testing.T) {
	r := row{schema.Z: 10, schema.ReturnNumber: 2, schema.NumberOfReturns: 2, schema.Classification: 6}

	assert.True(t, Where(schema.Z, Ge, 10).Match(r))
	assert.False(t, Where(schema.Z, Lt, 10).Match(r))
	assert.True(t, Where(schema.Z, Ne, 3).Match(r))
	assert.True(t, Where(schema.Z, Gt, 9.5).And(Where(schema.Z, Le, 10)).Match(r))
	assert.True(t, Predicate{{Attribute: schema.ReturnNumber, Op: Eq, Other: schema.NumberOfReturns}}.Match(r))
	assert.True(t, Predicate{{Attribute: schema.Classification, Op: In, Values: []float64{2, 6}}}.Match(r))
	assert.False(t, Predicate{{Attribute: schema.Classification, Op: NotIn, Values: []float64{2, 6}}}.Match(r))

	// missing attributes never match, whatever the operator
	assert.False(t, Where(schema.GPSTime, Ne, 0).Match(r))
	assert.False(t, Predicate{{Attribute: schema.Z, Op: Eq, Other: schema.GPSTime}}.Match(r))

	assert.True(t, True().Match(r))
	assert.True(t, True().IsTrue())
}

func TestPredicateAttributesAndValidate(t *testing.T) {
	p := Where(schema.Z, Ge, 1).
		And(Predicate{{Attribute: schema.ReturnNumber, Op: Eq, Other: schema.NumberOfReturns}}).
		And(Where(schema.Z, Lt, 5))
	assert.Equal(t, []string{schema.Z, schema.ReturnNumber, schema.NumberOfReturns}, p.Attributes())
	assert.NoError(t, p.Validate())
	assert.Equal(t, "Z >= 1 && ReturnNumber == NumberOfReturns && Z < 5", p.String())

	err := Where("height", Gt, 2).Validate()
	assert.True(t, errors.Is(err, laserr.ErrUnknownAttribute))
	var attrErr *laserr.AttributeError
	require.True(t, errors.As(err, &attrErr))
	assert.Equal(t, "height", attrErr.Attribute)
}

func TestParseSelect(t *testing.T) {
	p, err := ParseSelect("xyzic")
	require.NoError(t, err)
	assert.Equal(t, []string{schema.X, schema.Y, schema.Z, schema.Intensity, schema.Classification}, p.Names())
	assert.False(t, p.Includes("height", true))

	p, err = ParseSelect("c")
	require.NoError(t, err)
	assert.True(t, p.Includes(schema.X, false), "coordinates are always selected")

	p, err = ParseSelect("* -tRGB")
	require.NoError(t, err)
	assert.True(t, p.Includes(schema.Intensity, false))
	assert.True(t, p.Includes("height", true))
	assert.False(t, p.Includes(schema.GPSTime, false))
	assert.False(t, p.Includes(schema.G, false))

	p, err = ParseSelect("* -xyz0")
	require.NoError(t, err)
	assert.True(t, p.Includes(schema.X, false))
	assert.False(t, p.Includes("height", true))

	p, err = ParseSelect("xyz0")
	require.NoError(t, err)
	assert.True(t, p.Includes("height", true))

	_, err = ParseSelect("xyq")
	assert.Error(t, err)
	_, err = ParseSelect("-*")
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	p, err := ParseFilter("")
	require.NoError(t, err)
	assert.True(t, p.IsTrue())

	p, err = ParseFilter("-keep_first -drop_z_below 5 -keep_class 2 9")
	require.NoError(t, err)
	require.Len(t, p, 3)

	assert.True(t, p.Match(row{schema.ReturnNumber: 1, schema.Z: 5, schema.Classification: 9}))
	assert.False(t, p.Match(row{schema.ReturnNumber: 2, schema.Z: 5, schema.Classification: 9}))
	assert.False(t, p.Match(row{schema.ReturnNumber: 1, schema.Z: 4.9, schema.Classification: 9}))
	assert.False(t, p.Match(row{schema.ReturnNumber: 1, schema.Z: 6, schema.Classification: 3}))

	p, err = ParseFilter("-keep_xy 0 0 10 10")
	require.NoError(t, err)
	assert.True(t, p.Match(row{schema.X: 0, schema.Y: 9.99}))
	assert.False(t, p.Match(row{schema.X: 10, schema.Y: 5}))

	p, err = ParseFilter("-keep_last")
	require.NoError(t, err)
	assert.True(t, p.Match(row{schema.ReturnNumber: 3, schema.NumberOfReturns: 3}))
	assert.False(t, p.Match(row{schema.ReturnNumber: 1, schema.NumberOfReturns: 3}))

	_, err = ParseFilter("-keep_class")
	assert.Error(t, err)
	_, err = ParseFilter("-keep_z 1")
	assert.Error(t, err)
	_, err = ParseFilter("-keep_first 3")
	assert.Error(t, err)
	_, err = ParseFilter("-thin_with_grid 1")
	assert.Error(t, err)
}
