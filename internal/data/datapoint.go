package data

import "math"

// Point is the identity of a point cloud point: its coordinates and
// acquisition time, plus the row it was read from.
type Point struct {
	X       float64
	Y       float64
	Z       float64
	GPSTime float64

	// row of the point in its table
	Index int
}

// Builds a new Point from the given coordinates, time and row index
func NewPoint(X, Y, Z, GPSTime float64, index int) Point {
	return Point{
		X:       X,
		Y:       Y,
		Z:       Z,
		GPSTime: GPSTime,
		Index:   index,
	}
}

// Near reports whether every component of p and o differs by at most tolerance.
func (p Point) Near(o Point, tolerance float64) bool {
	return math.Abs(p.X-o.X) <= tolerance &&
		math.Abs(p.Y-o.Y) <= tolerance &&
		math.Abs(p.Z-o.Z) <= tolerance &&
		math.Abs(p.GPSTime-o.GPSTime) <= tolerance
}

// Less orders points by X, then Y, Z and GPSTime.
func (p Point) Less(o Point) bool {
	switch {
	case p.X != o.X:
		return p.X < o.X
	case p.Y != o.Y:
		return p.Y < o.Y
	case p.Z != o.Z:
		return p.Z < o.Z
	}
	return p.GPSTime < o.GPSTime
}
