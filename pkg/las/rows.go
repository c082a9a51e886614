package las

import (
	"fmt"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/filter"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/google/uuid"
)

// Clone returns a table sharing the storage of every column with t, on a
// copy of its header. Writes to either table copy the written column
// first, so the other never observes them.
func (t *PointTable) Clone() *PointTable {
	out := &PointTable{
		header:  t.header.Clone(),
		n:       t.n,
		order:   append([]string(nil), t.order...),
		columns: make(map[string]*column.Column, len(t.columns)),
		adhoc:   make(map[string]struct{}, len(t.adhoc)),
	}
	for name, c := range t.columns {
		out.columns[name] = c.Share()
	}
	for name := range t.adhoc {
		out.adhoc[name] = struct{}{}
	}
	return out
}

// WithColumn returns a clone of t where the column name holds values.
// Every other column keeps sharing storage with t.
func (t *PointTable) WithColumn(name string, values column.Values) (*PointTable, error) {
	out := t.Clone()
	if err := out.Set(name, values); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// SameStorage reports whether the column name of t and o share storage.
func (t *PointTable) SameStorage(o *PointTable, name string) bool {
	a, ok := t.columns[name]
	if !ok {
		return false
	}
	return a.SameStorage(o.columns[name])
}

// Release drops the table's handles on its column storage. The table must
// not be used afterwards.
func (t *PointTable) Release() {
	for _, c := range t.columns {
		c.Release()
	}
	t.columns = nil
	t.order = nil
}

// Filter returns a table holding the points matching p. The result never
// shares storage with t, even when every point matches. A comparison on an
// attribute absent from the table matches no point.
func (t *PointTable) Filter(p filter.Predicate) (*PointTable, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	idx := make([]int, 0, t.n)
	for i := 0; i < t.n; i++ {
		if p.Match(t.Row(i)) {
			idx = append(idx, i)
		}
	}
	return t.SelectRows(idx)
}

// SelectRows returns a table holding copies of the given rows, in the
// given order. Point count, bounding box and return counts of the new
// header are recomputed.
func (t *PointTable) SelectRows(idx []int) (*PointTable, error) {
	for _, i := range idx {
		if i < 0 || i >= t.n {
			return nil, fmt.Errorf("%w: row %d outside [0,%d)", laserr.ErrLengthMismatch, i, t.n)
		}
	}
	out := &PointTable{
		header:  t.header.Clone(),
		n:       len(idx),
		order:   append([]string(nil), t.order...),
		columns: make(map[string]*column.Column, len(t.columns)),
		adhoc:   make(map[string]struct{}, len(t.adhoc)),
	}
	for name, c := range t.columns {
		out.columns[name] = column.New(c.Values().Gather(idx))
	}
	for name := range t.adhoc {
		out.adhoc[name] = struct{}{}
	}
	out.header.syncRows(out)
	return out, nil
}

// Merge concatenates the points of a and b into a new table. Both must
// share point format, CRS, column set and extra attribute descriptors.
// The result takes the header of a with a new project id.
func Merge(a, b *PointTable) (*PointTable, error) {
	ha, hb := a.header, b.header
	if ha.pointFormat != hb.pointFormat {
		return nil, fmt.Errorf("%w: point formats %d and %d differ", laserr.ErrInconsistentState, ha.pointFormat, hb.pointFormat)
	}
	if ha.epsg != hb.epsg {
		return nil, fmt.Errorf("%w: CRS %s and %s differ", laserr.ErrInconsistentState, ha.srs, hb.srs)
	}
	da, db := ha.extra.Descriptors(), hb.extra.Descriptors()
	if len(da) != len(db) {
		return nil, fmt.Errorf("%w: %d and %d extra attributes", laserr.ErrInconsistentState, len(da), len(db))
	}
	for _, d := range da {
		o, ok := hb.extra.Lookup(d.Name)
		if !ok || o.Type != d.Type || o.Scale != d.Scale || o.Offset != d.Offset {
			return nil, laserr.Attribute(d.Name, laserr.ErrInconsistentState, "extra attribute descriptors differ")
		}
	}
	if len(a.columns) != len(b.columns) {
		return nil, fmt.Errorf("%w: column sets %v and %v differ", laserr.ErrInconsistentState, a.order, b.order)
	}

	out := &PointTable{
		header:  ha.Clone(),
		n:       a.n + b.n,
		order:   append([]string(nil), a.order...),
		columns: make(map[string]*column.Column, len(a.columns)),
		adhoc:   make(map[string]struct{}, len(a.adhoc)),
	}
	for name, ca := range a.columns {
		cb, ok := b.columns[name]
		if !ok {
			return nil, laserr.Attribute(name, laserr.ErrInconsistentState, "missing from the second table")
		}
		v, ok := ca.Values().Concat(cb.Values())
		if !ok {
			return nil, laserr.Attribute(name, laserr.ErrTypeMismatch, "%s and %s columns", ca.Type(), cb.Type())
		}
		out.columns[name] = column.New(v)
	}
	for name := range a.adhoc {
		out.adhoc[name] = struct{}{}
	}
	out.header.projectID = uuid.New()
	out.header.syncRows(out)
	return out, nil
}
