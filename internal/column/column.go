package column

import (
	"fmt"
	"sync/atomic"

	"github.com/ecopia-map/lascloud/pkg/laserr"
)

// buffer is the storage one or more columns point at.
type buffer struct {
	values Values
	refs   atomic.Int32
}

// Column is one table's handle on a shared buffer. A buffer is written in
// place only while exactly one handle references it; otherwise the writer
// copies it first.
type Column struct {
	buf *buffer
}

// New wraps values in a column owning them. The caller must not keep
// writing to values afterwards.
func New(values Values) *Column {
	b := &buffer{values: values}
	b.refs.Store(1)
	return &Column{buf: b}
}

// Share returns a second handle on the same storage.
func (c *Column) Share() *Column {
	c.buf.refs.Add(1)
	return &Column{buf: c.buf}
}

// Release drops the handle. The column must not be used afterwards.
func (c *Column) Release() {
	if c.buf == nil {
		return
	}
	c.buf.refs.Add(-1)
	c.buf = nil
}

// Shared reports whether another handle references the same storage.
func (c *Column) Shared() bool {
	return c.buf.refs.Load() > 1
}

// SameStorage reports whether c and o point at the same buffer.
func (c *Column) SameStorage(o *Column) bool {
	return c != nil && o != nil && c.buf == o.buf
}

func (c *Column) Type() Type {
	return c.buf.values.Type()
}

func (c *Column) Len() int {
	return c.buf.values.Len()
}

// Values returns the underlying vector. It must be treated as read only.
func (c *Column) Values() Values {
	return c.buf.values
}

// Copy returns an independent copy of the stored values.
func (c *Column) Copy() Values {
	return c.buf.values.Clone()
}

// Float64 returns row i as float64, NaN for non numeric columns.
func (c *Column) Float64(i int) float64 {
	f, _ := Float64At(c.buf.values, i)
	return f
}

// mutable makes the handle the sole owner of its storage and returns it.
func (c *Column) mutable() Values {
	if c.buf.refs.Load() > 1 {
		nb := &buffer{values: c.buf.values.Clone()}
		nb.refs.Store(1)
		c.buf.refs.Add(-1)
		c.buf = nb
	}
	return c.buf.values
}

// Update runs fn on storage owned exclusively by c.
func (c *Column) Update(fn func(Values)) {
	fn(c.mutable())
}

// SetAt writes x at row i, copying the storage first when it is shared.
func SetAt[T Element](c *Column, i int, x T) error {
	if _, ok := c.buf.values.(Vector[T]); !ok {
		return fmt.Errorf("%w: cannot store %s in %s column", laserr.ErrTypeMismatch, typeOf[T](), c.Type())
	}
	if i < 0 || i >= c.Len() {
		return fmt.Errorf("%w: row %d outside [0,%d)", laserr.ErrLengthMismatch, i, c.Len())
	}
	v := c.mutable().(Vector[T])
	v[i] = x
	return nil
}
