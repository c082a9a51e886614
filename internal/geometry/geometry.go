package geometry

import "math"

// Coordinate is a 3D position.
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

// BoundingBox is an axis aligned box. An empty box has min > max.
type BoundingBox struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
	Zmin, Zmax float64
}

// NewBoundingBox builds a box from its extents.
func NewBoundingBox(Xmin, Xmax, Ymin, Ymax, Zmin, Zmax float64) *BoundingBox {
	return &BoundingBox{
		Xmin: Xmin, Xmax: Xmax,
		Ymin: Ymin, Ymax: Ymax,
		Zmin: Zmin, Zmax: Zmax,
	}
}

// EmptyBoundingBox returns a box that any Extend call replaces.
func EmptyBoundingBox() BoundingBox {
	return BoundingBox{
		Xmin: math.Inf(1), Xmax: math.Inf(-1),
		Ymin: math.Inf(1), Ymax: math.Inf(-1),
		Zmin: math.Inf(1), Zmax: math.Inf(-1),
	}
}

// IsEmpty reports whether no point was added to the box.
func (b BoundingBox) IsEmpty() bool {
	return b.Xmin > b.Xmax || b.Ymin > b.Ymax || b.Zmin > b.Zmax
}

// Extend grows the box to include c.
func (b *BoundingBox) Extend(c Coordinate) {
	b.Xmin = math.Min(b.Xmin, c.X)
	b.Xmax = math.Max(b.Xmax, c.X)
	b.Ymin = math.Min(b.Ymin, c.Y)
	b.Ymax = math.Max(b.Ymax, c.Y)
	b.Zmin = math.Min(b.Zmin, c.Z)
	b.Zmax = math.Max(b.Zmax, c.Z)
}

// Contains reports whether c lies in the box grown by tolerance on every side.
func (b BoundingBox) Contains(c Coordinate, tolerance float64) bool {
	return c.X >= b.Xmin-tolerance && c.X <= b.Xmax+tolerance &&
		c.Y >= b.Ymin-tolerance && c.Y <= b.Ymax+tolerance &&
		c.Z >= b.Zmin-tolerance && c.Z <= b.Zmax+tolerance
}

// OrZero returns the box, or a zero box when it is empty.
func (b BoundingBox) OrZero() BoundingBox {
	if b.IsEmpty() {
		return BoundingBox{}
	}
	return b
}
