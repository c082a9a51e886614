// Package validator inspects a header and its point table for conformance
// errors and practical-use warnings. It never mutates what it inspects.
package validator

import (
	"fmt"
	"math"
	"sort"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/data"
	"github.com/ecopia-map/lascloud/internal/geometry"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/las"
	"github.com/golang/glog"
	"github.com/shopspring/decimal"
)

type Options struct {
	// DuplicateTolerance is the largest difference on X, Y, Z and gpstime
	// under which two points are duplicates. Zero means exact equality.
	DuplicateTolerance float64

	// QuantizationTolerance is the distance, in scale steps, a coordinate
	// may stray from the scale/offset grid.
	QuantizationTolerance float64

	// MaxRows bounds the row indices listed per finding, 0 lists them all.
	MaxRows int
}

func DefaultOptions() Options {
	return Options{
		DuplicateTolerance:    0,
		QuantizationTolerance: 1e-3,
		MaxRows:               100,
	}
}

type check func(c *checker)

var checks = []check{
	checkPointCount,
	checkPointFormat,
	checkExtraBytes,
	checkCRSMirror,
	checkScale,
	checkRanges,
	checkFinite,
	checkQuantization,
	checkReturns,
	checkDuplicates,
	checkBoundingBox,
	checkIntensity,
	checkGPSTime,
	checkMissingCRS,
	checkAdHoc,
}

type checker struct {
	h      *las.Header
	t      *las.PointTable
	opts   Options
	report Report
}

// Check runs every check on h and t. Checks are independent: the outcome
// does not depend on their order.
func Check(h *las.Header, t *las.PointTable, opts Options) Report {
	c := &checker{h: h, t: t, opts: opts, report: Report{Findings: []Finding{}}}
	for _, fn := range checks {
		fn(c)
	}
	glog.V(1).Infof("validation found %d errors and %d warnings", len(c.report.Errors()), len(c.report.Warnings()))
	return c.report
}

func (c *checker) add(s Severity, code, format string, args ...interface{}) {
	c.report.Findings = append(c.report.Findings, Finding{Severity: s, Code: code, Message: fmt.Sprintf(format, args...)})
}

// addRows records a finding tied to rows, doing nothing when rows is empty.
func (c *checker) addRows(s Severity, code string, rows []int, format string, args ...interface{}) {
	if len(rows) == 0 {
		return
	}
	msg := fmt.Sprintf("%d points: %s", len(rows), fmt.Sprintf(format, args...))
	if c.opts.MaxRows > 0 && len(rows) > c.opts.MaxRows {
		rows = rows[:c.opts.MaxRows]
	}
	c.report.Findings = append(c.report.Findings, Finding{Severity: s, Code: code, Message: msg, Rows: rows})
}

// values returns a column of the table, nil when absent or not numeric.
func (c *checker) values(name string) column.Values {
	v, err := c.t.Get(name)
	if err != nil || !v.Type().Numeric() {
		return nil
	}
	return v
}

func (c *checker) rowsWhere(v column.Values, fn func(float64) bool) []int {
	rows := []int{}
	for i := 0; i < v.Len(); i++ {
		f, _ := column.Float64At(v, i)
		if fn(f) {
			rows = append(rows, i)
		}
	}
	return rows
}

func checkPointCount(c *checker) {
	if c.h.PointCount() != int64(c.t.Len()) {
		c.add(Error, CodePointCount, "header counts %d points, table holds %d", c.h.PointCount(), c.t.Len())
	}
}

func checkPointFormat(c *checker) {
	f := c.h.Format()
	for _, name := range c.t.Names() {
		if schema.IsReserved(name) && !f.Has(name) {
			c.add(Error, CodePointFormat, "point format %d does not carry %s", c.h.PointFormat(), name)
		}
	}
}

func checkExtraBytes(c *checker) {
	descriptors := c.h.ExtraBytes()
	adhoc := map[string]bool{}
	for _, name := range c.t.AdHoc() {
		adhoc[name] = true
	}
	columns := 0
	for _, name := range c.t.Names() {
		if !schema.IsReserved(name) && !adhoc[name] {
			columns++
		}
	}
	if columns != len(descriptors) {
		c.add(Error, CodeExtraBytesCount, "%d extra bytes descriptors for %d extra columns", len(descriptors), columns)
	}
	for _, d := range descriptors {
		v, err := c.t.Get(d.Name)
		if err != nil {
			c.add(Error, CodeExtraBytesCount, "extra attribute %s has no column", d.Name)
			continue
		}
		if v.Type() != d.Type {
			c.add(Error, CodeExtraBytesType, "extra attribute %s stored as %s, descriptor declares %s", d.Name, v.Type(), d.Type)
		}
	}
}

func checkCRSMirror(c *checker) {
	if err := c.h.CheckCRS(); err != nil {
		c.add(Error, CodeCRSMirror, "%v", err)
	}
}

func validScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}

func checkScale(c *checker) {
	for i, s := range c.h.Scale() {
		if !validScale(s) {
			c.add(Error, CodeScale, "%s scale factor %g is not positive", []string{"X", "Y", "Z"}[i], s)
		}
	}
}

func checkRanges(c *checker) {
	id := c.h.PointFormat()
	for _, d := range c.h.Format().Attributes() {
		v := c.values(d.Name)
		if v == nil {
			continue
		}
		min, max := d.LegalRange(id)
		if math.IsInf(min, -1) && math.IsInf(max, 1) {
			continue
		}
		rows := c.rowsWhere(v, func(f float64) bool { return f < min || f > max })
		c.addRows(Error, CodeOutOfRange, rows, "%s outside [%g, %g] in point format %d", d.Name, min, max, id)
	}
}

func checkFinite(c *checker) {
	for _, name := range []string{schema.X, schema.Y, schema.Z} {
		v := c.values(name)
		if v == nil {
			continue
		}
		rows := c.rowsWhere(v, func(f float64) bool { return math.IsNaN(f) || math.IsInf(f, 0) })
		c.addRows(Error, CodeNonFinite, rows, "%s is not finite", name)
	}
}

// checkQuantization reports coordinates the encoder cannot store exactly:
// (value - offset) / scale must be an integer.
func checkQuantization(c *checker) {
	scale, offset := c.h.Scale(), c.h.Offset()
	tolerance := decimal.NewFromFloat(c.opts.QuantizationTolerance)
	for axis, name := range []string{schema.X, schema.Y, schema.Z} {
		v := c.values(name)
		if v == nil || !validScale(scale[axis]) {
			continue
		}
		s := decimal.NewFromFloat(scale[axis])
		o := decimal.NewFromFloat(offset[axis])
		rows := c.rowsWhere(v, func(f float64) bool {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
			steps := decimal.NewFromFloat(f).Sub(o).Div(s)
			return steps.Sub(steps.Round(0)).Abs().GreaterThan(tolerance)
		})
		c.addRows(Error, CodeQuantization, rows, "%s off the grid of scale %g and offset %g", name, scale[axis], offset[axis])
	}
}

func checkReturns(c *checker) {
	rn := c.values(schema.ReturnNumber)
	if rn == nil {
		return
	}
	c.addRows(Warning, CodeZeroReturnNumber, c.rowsWhere(rn, func(f float64) bool { return f == 0 }), "ReturnNumber is 0")

	nr := c.values(schema.NumberOfReturns)
	if nr == nil {
		return
	}
	rows := []int{}
	for i := 0; i < rn.Len(); i++ {
		r, _ := column.Float64At(rn, i)
		n, _ := column.Float64At(nr, i)
		if r > n {
			rows = append(rows, i)
		}
	}
	c.addRows(Warning, CodeDegenerateReturn, rows, "ReturnNumber greater than NumberOfReturns")
}

// checkDuplicates sorts the points by X and compares each point with the
// following ones while their X stays within tolerance. The later row of
// a duplicated pair is reported.
func checkDuplicates(c *checker) {
	x, y, z := c.values(schema.X), c.values(schema.Y), c.values(schema.Z)
	if x == nil || y == nil || z == nil {
		return
	}
	gps := c.values(schema.GPSTime)
	at := func(v column.Values, i int) float64 {
		if v == nil {
			return 0
		}
		f, _ := column.Float64At(v, i)
		return f
	}

	points := make([]data.Point, c.t.Len())
	for i := range points {
		points[i] = data.NewPoint(at(x, i), at(y, i), at(z, i), at(gps, i), i)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Less(points[j]) })

	tol := c.opts.DuplicateTolerance
	duplicated := map[int]bool{}
	for i := range points {
		for j := i + 1; j < len(points) && points[j].X-points[i].X <= tol; j++ {
			if !points[i].Near(points[j], tol) {
				continue
			}
			later := points[i].Index
			if points[j].Index > later {
				later = points[j].Index
			}
			duplicated[later] = true
		}
	}
	rows := make([]int, 0, len(duplicated))
	for i := range duplicated {
		rows = append(rows, i)
	}
	sort.Ints(rows)
	c.addRows(Warning, CodeDuplicate, rows, "same X, Y, Z and gpstime as another point within %g", tol)
}

func checkBoundingBox(c *checker) {
	x, y, z := c.values(schema.X), c.values(schema.Y), c.values(schema.Z)
	if x == nil || y == nil || z == nil || c.t.Len() == 0 {
		return
	}
	box := c.h.BoundingBox()
	// a stored coordinate may round by half a scale step
	s := c.h.Scale()
	tol := math.Max(s[0], math.Max(s[1], s[2])) / 2
	rows := []int{}
	for i := 0; i < c.t.Len(); i++ {
		p := geometry.Coordinate{}
		p.X, _ = column.Float64At(x, i)
		p.Y, _ = column.Float64At(y, i)
		p.Z, _ = column.Float64At(z, i)
		if !box.Contains(p, tol) {
			rows = append(rows, i)
		}
	}
	c.addRows(Warning, CodeBoundingBox, rows, "outside the header bounding box")
}

func checkIntensity(c *checker) {
	v := c.values(schema.Intensity)
	if v == nil {
		return
	}
	c.addRows(Warning, CodeZeroIntensity, c.rowsWhere(v, func(f float64) bool { return f <= 0 }), "Intensity is 0")
}

func checkGPSTime(c *checker) {
	v := c.values(schema.GPSTime)
	if v == nil || v.Len() == 0 {
		return
	}
	if len(c.rowsWhere(v, func(f float64) bool { return f != 0 })) == 0 {
		c.add(Warning, CodeZeroGPSTime, "every gpstime is 0 in point format %d", c.h.PointFormat())
	}
}

func checkMissingCRS(c *checker) {
	if c.h.EPSG() == 0 {
		c.add(Warning, CodeMissingCRS, "no coordinate reference system")
	}
}

func checkAdHoc(c *checker) {
	for _, name := range c.t.AdHoc() {
		c.add(Warning, CodeUnregisteredColumn, "column %s is not registered and will not be written", name)
	}
}
