package las

import (
	"fmt"
	"sort"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/extrabytes"
	"github.com/ecopia-map/lascloud/internal/filter"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
)

// PointTable stores the points of a cloud column by column. It holds one
// column per present reserved attribute, one per registered extra
// attribute and one per ad hoc attribute. All columns have the same
// length, mirrored as the point count of the header.
type PointTable struct {
	header  *Header
	n       int
	order   []string
	columns map[string]*column.Column
	adhoc   map[string]struct{}
}

// NewPointTable builds a table of n points on h, taking ownership of the
// given vectors. Reserved attributes must be carried by the point format
// of h and stored in their semantic type; any other name must be a
// registered extra attribute of the descriptor's type. Every registered
// extra attribute needs a column. The point count of h is set to n.
func NewPointTable(h *Header, n int, values map[string]column.Values) (*PointTable, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative point count %d", laserr.ErrLengthMismatch, n)
	}
	t := &PointTable{
		header:  h,
		n:       n,
		columns: make(map[string]*column.Column, len(values)),
		adhoc:   map[string]struct{}{},
	}
	for name, v := range values {
		if err := t.checkLength(name, v); err != nil {
			return nil, err
		}
		if d, ok := schema.Lookup(name); ok {
			if !h.Format().Has(name) {
				return nil, laserr.Attribute(name, laserr.ErrNoCompatibleFormat, "not carried by point format %d", h.pointFormat)
			}
			if err := checkReservedType(d, v); err != nil {
				return nil, err
			}
		} else if err := t.checkExtraType(name, v); err != nil {
			return nil, err
		}
		t.columns[name] = column.New(v)
	}
	for _, name := range h.extra.Names() {
		if _, ok := t.columns[name]; !ok {
			return nil, laserr.Attribute(name, laserr.ErrInconsistentState, "registered extra attribute without column")
		}
	}
	t.reorder()
	h.pointCount = int64(n)
	return t, nil
}

// Header returns the header the table is synchronized with.
func (t *PointTable) Header() *Header { return t.header }

// Len returns the number of points.
func (t *PointTable) Len() int { return t.n }

// Names lists the columns: reserved attributes in canonical order, then
// extra attributes in slot order, then ad hoc attributes by name.
func (t *PointTable) Names() []string {
	return append([]string(nil), t.order...)
}

// Has reports whether the table holds a column called name.
func (t *PointTable) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// IsExtra reports whether name is a registered extra attribute.
func (t *PointTable) IsExtra(name string) bool {
	_, ok := t.header.extra.Lookup(name)
	return ok
}

// AdHoc lists the unregistered columns, which are lost on write.
func (t *PointTable) AdHoc() []string {
	out := make([]string, 0, len(t.adhoc))
	for name := range t.adhoc {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Get returns a copy of the values of a column. Writing to it leaves the
// table unchanged; write through Set, SetAt or Update.
func (t *PointTable) Get(name string) (column.Values, error) {
	c, ok := t.columns[name]
	if !ok {
		if schema.IsReserved(name) {
			return nil, laserr.Attribute(name, laserr.ErrUnknownAttribute, "not present in the table")
		}
		return nil, laserr.Attribute(name, laserr.ErrUnknownAttribute, "neither reserved nor registered")
	}
	return c.Copy(), nil
}

// Set replaces the values of an existing reserved or registered extra
// attribute with a copy of values. Values of a reserved
// attribute must have its semantic type; nothing is converted.
func (t *PointTable) Set(name string, values column.Values) error {
	c, err := t.writable(name)
	if err != nil {
		return err
	}
	if d, ok := schema.Lookup(name); ok {
		if err := checkReservedType(d, values); err != nil {
			return err
		}
	} else if err := t.checkExtraType(name, values); err != nil {
		return err
	}
	if err := t.checkLength(name, values); err != nil {
		return err
	}
	c.Release()
	t.columns[name] = column.New(values.Clone())
	return nil
}

// SetAt writes x at row i of a reserved or registered extra attribute.
// Storage shared with another table is copied first.
func SetAt[T column.Element](t *PointTable, name string, i int, x T) error {
	c, err := t.writable(name)
	if err != nil {
		return err
	}
	if err := column.SetAt(c, i, x); err != nil {
		return laserr.Attribute(name, err, "")
	}
	return nil
}

// Update runs fn on values of name owned exclusively by t. fn may change
// elements but not the length.
func (t *PointTable) Update(name string, fn func(column.Values)) error {
	c, err := t.writable(name)
	if err != nil {
		return err
	}
	c.Update(fn)
	return nil
}

func (t *PointTable) writable(name string) (*column.Column, error) {
	if _, ok := t.adhoc[name]; ok {
		return nil, laserr.Attribute(name, laserr.ErrNotRegistered, "ad hoc attributes are read only, register it with AddExtraColumn")
	}
	c, ok := t.columns[name]
	if ok {
		return c, nil
	}
	if schema.IsReserved(name) {
		return nil, laserr.Attribute(name, laserr.ErrUnknownAttribute, "not present in the table, use AddReservedColumn")
	}
	return nil, laserr.Attribute(name, laserr.ErrNotRegistered, "use AddExtraColumn")
}

// AddExtraColumn registers d and appends values as its column. A d.Type
// left Invalid is taken from values.
func (t *PointTable) AddExtraColumn(d extrabytes.Descriptor, values column.Values) error {
	if values == nil {
		return laserr.Attribute(d.Name, laserr.ErrTypeMismatch, "nil values")
	}
	if !values.Type().Numeric() {
		return laserr.Attribute(d.Name, laserr.ErrUnsupportedType, "%s values cannot be stored as extra bytes", values.Type())
	}
	if schema.IsReserved(d.Name) {
		return laserr.Attribute(d.Name, laserr.ErrNameCollision, "name of a reserved attribute")
	}
	if _, ok := t.columns[d.Name]; ok {
		return laserr.Attribute(d.Name, laserr.ErrNameCollision, "column already present")
	}
	if d.Type == column.Invalid {
		d.Type = values.Type()
	}
	if d.Type != values.Type() {
		return laserr.Attribute(d.Name, laserr.ErrTypeMismatch, "descriptor declares %s, values are %s", d.Type, values.Type())
	}
	if err := t.checkLength(d.Name, values); err != nil {
		return err
	}
	if _, err := t.header.extra.Register(d); err != nil {
		return err
	}
	t.columns[d.Name] = column.New(values.Clone())
	t.reorder()
	return nil
}

// RemoveExtraColumn unregisters an extra attribute, freeing its slot, and
// drops its column.
func (t *PointTable) RemoveExtraColumn(name string) error {
	if _, err := t.header.extra.Unregister(name); err != nil {
		return err
	}
	t.columns[name].Release()
	delete(t.columns, name)
	t.reorder()
	return nil
}

// AddReservedColumn appends the column of a reserved attribute absent from
// the table, promoting the point format when it does not carry the
// attribute.
func (t *PointTable) AddReservedColumn(name string, values column.Values) error {
	d, ok := schema.Lookup(name)
	if !ok {
		return laserr.Attribute(name, laserr.ErrUnknownAttribute, "not a reserved attribute")
	}
	if _, ok := t.columns[name]; ok {
		return laserr.Attribute(name, laserr.ErrNameCollision, "column already present, use Set")
	}
	if err := checkReservedType(d, values); err != nil {
		return err
	}
	if err := t.checkLength(name, values); err != nil {
		return err
	}
	if err := t.PromotePointFormat(d.Requires); err != nil {
		return laserr.Attribute(name, err, "")
	}
	t.columns[name] = column.New(values.Clone())
	t.reorder()
	if name == schema.ReturnNumber {
		t.header.RecomputeReturnCounts(t)
	}
	return nil
}

// AddAttribute appends an unregistered column of any type. It can be read
// but not modified, and it is not written to files.
func (t *PointTable) AddAttribute(name string, values column.Values) error {
	if schema.IsReserved(name) {
		return laserr.Attribute(name, laserr.ErrNameCollision, "name of a reserved attribute")
	}
	if _, ok := t.columns[name]; ok {
		return laserr.Attribute(name, laserr.ErrNameCollision, "column already present")
	}
	if err := t.checkLength(name, values); err != nil {
		return err
	}
	t.columns[name] = column.New(values.Clone())
	t.adhoc[name] = struct{}{}
	t.reorder()
	return nil
}

// Scaled returns the physical values of an extra attribute, applying the
// scale and offset of its descriptor.
func (t *PointTable) Scaled(name string) (column.Float64s, error) {
	d, ok := t.header.extra.Lookup(name)
	if !ok {
		return nil, laserr.Attribute(name, laserr.ErrNotRegistered, "not an extra attribute")
	}
	c := t.columns[name]
	out := make(column.Float64s, t.n)
	for i := range out {
		out[i] = d.Scaled(c.Float64(i))
	}
	return out, nil
}

// Consistent verifies the table and its header agree: equal column
// lengths mirrored in the point count, reserved columns carried by the
// point format in their semantic type, one column per registered extra
// attribute of the declared type and an agreeing CRS mirror.
func (t *PointTable) Consistent() error {
	h := t.header
	if h.pointCount != int64(t.n) {
		return fmt.Errorf("%w: header counts %d points, table holds %d", laserr.ErrInconsistentState, h.pointCount, t.n)
	}
	if err := h.CheckCRS(); err != nil {
		return err
	}
	for name, c := range t.columns {
		if c.Len() != t.n {
			return laserr.Attribute(name, laserr.ErrInconsistentState, "%d values for %d points", c.Len(), t.n)
		}
		if _, ok := t.adhoc[name]; ok {
			continue
		}
		if d, ok := schema.Lookup(name); ok {
			if !h.Format().Has(name) {
				return laserr.Attribute(name, laserr.ErrInconsistentState, "not carried by point format %d", h.pointFormat)
			}
			if c.Type() != d.Storage() {
				return laserr.Attribute(name, laserr.ErrInconsistentState, "stored as %s instead of %s", c.Type(), d.Storage())
			}
			continue
		}
		d, ok := h.extra.Lookup(name)
		if !ok {
			return laserr.Attribute(name, laserr.ErrInconsistentState, "column neither reserved nor registered")
		}
		if c.Type() != d.Type {
			return laserr.Attribute(name, laserr.ErrInconsistentState, "stored as %s, descriptor declares %s", c.Type(), d.Type)
		}
	}
	for _, name := range h.extra.Names() {
		if _, ok := t.columns[name]; !ok {
			return laserr.Attribute(name, laserr.ErrInconsistentState, "registered extra attribute without column")
		}
	}
	return nil
}

// Row returns a view on point i for predicate evaluation.
func (t *PointTable) Row(i int) filter.Row {
	return row{t: t, i: i}
}

type row struct {
	t *PointTable
	i int
}

func (r row) Value(attribute string) (float64, bool) {
	c, ok := r.t.columns[attribute]
	if !ok {
		return 0, false
	}
	return column.Float64At(c.Values(), r.i)
}

func (t *PointTable) float64s(name string) (column.Float64s, bool) {
	c, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	v, ok := c.Values().(column.Float64s)
	return v, ok
}

func (t *PointTable) checkLength(name string, v column.Values) error {
	if v == nil {
		return laserr.Attribute(name, laserr.ErrTypeMismatch, "nil values")
	}
	if v.Len() != t.n {
		return laserr.Attribute(name, laserr.ErrLengthMismatch, "%d values for %d points", v.Len(), t.n)
	}
	return nil
}

func (t *PointTable) checkExtraType(name string, v column.Values) error {
	d, ok := t.header.extra.Lookup(name)
	if !ok {
		return laserr.Attribute(name, laserr.ErrNotRegistered, "use AddExtraColumn")
	}
	if v == nil {
		return laserr.Attribute(name, laserr.ErrTypeMismatch, "nil values")
	}
	if v.Type() != d.Type {
		return laserr.Attribute(name, laserr.ErrTypeMismatch, "descriptor declares %s, got %s", d.Type, v.Type())
	}
	return nil
}

func checkReservedType(d schema.Descriptor, v column.Values) error {
	if v == nil {
		return laserr.Attribute(d.Name, laserr.ErrTypeMismatch, "nil values")
	}
	if v.Type() != d.Storage() {
		return laserr.Attribute(d.Name, laserr.ErrTypeMismatch, "%s attribute stored as %s, got %s", d.Semantic, d.Storage(), v.Type())
	}
	return nil
}

// reorder rebuilds the column order after the column set changed.
func (t *PointTable) reorder() {
	t.order = t.order[:0]
	for _, d := range schema.All() {
		if _, ok := t.columns[d.Name]; ok {
			t.order = append(t.order, d.Name)
		}
	}
	for _, name := range t.header.extra.Names() {
		if _, ok := t.columns[name]; ok {
			t.order = append(t.order, name)
		}
	}
	t.order = append(t.order, t.AdHoc()...)
}
