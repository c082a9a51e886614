// Package crs holds coordinate reference system definitions and the spatial
// reference object a LAS header mirrors its EPSG code into.
package crs

import (
	"fmt"
	"sync"

	"github.com/ecopia-map/lascloud/pkg/laserr"
)

// Definition is a resolved coordinate reference system.
type Definition struct {
	EPSG       int
	Name       string
	WKT        string
	Proj4      string
	Geographic bool
}

// Resolver looks up the definition of an EPSG code.
type Resolver interface {
	Resolve(epsg int) (Definition, error)
}

// SpatialReference is the convenience object mirroring a header's EPSG
// code. It is a value: changing a copy never affects the header it came
// from, so headers stay consistent with their mirror.
type SpatialReference struct {
	def      Definition
	resolved bool
}

// NewSpatialReference builds a mirror from a resolved definition.
func NewSpatialReference(def Definition) SpatialReference {
	return SpatialReference{def: def, resolved: true}
}

// Unresolved builds a mirror that only knows its EPSG code. Used when a
// file names a code no resolver could define.
func Unresolved(epsg int) SpatialReference {
	return SpatialReference{def: Definition{EPSG: epsg}}
}

// EPSG returns the code, 0 when no CRS is set.
func (s SpatialReference) EPSG() int { return s.def.EPSG }

func (s SpatialReference) IsEmpty() bool { return s.def.EPSG == 0 }

func (s SpatialReference) Resolved() bool { return s.resolved }

func (s SpatialReference) Definition() Definition { return s.def }

func (s SpatialReference) Name() string { return s.def.Name }

func (s SpatialReference) WKT() string { return s.def.WKT }

func (s SpatialReference) Proj4() string { return s.def.Proj4 }

func (s SpatialReference) Geographic() bool { return s.def.Geographic }

func (s SpatialReference) String() string {
	if s.IsEmpty() {
		return "NA"
	}
	if s.def.Name == "" {
		return fmt.Sprintf("EPSG:%d", s.def.EPSG)
	}
	return fmt.Sprintf("EPSG:%d (%s)", s.def.EPSG, s.def.Name)
}

// StaticResolver resolves codes from a fixed table.
type StaticResolver map[int]Definition

func (r StaticResolver) Resolve(epsg int) (Definition, error) {
	def, ok := r[epsg]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %d", laserr.ErrUnknownEPSG, epsg)
	}
	def.EPSG = epsg
	return def, nil
}

type cachedResolver struct {
	next  Resolver
	cache map[int]Definition
	sync.Mutex
}

// Cached memoizes successful resolutions of next.
func Cached(next Resolver) Resolver {
	return &cachedResolver{next: next, cache: map[int]Definition{}}
}

func (c *cachedResolver) Resolve(epsg int) (Definition, error) {
	c.Lock()
	defer c.Unlock()
	if def, ok := c.cache[epsg]; ok {
		return def, nil
	}
	def, err := c.next.Resolve(epsg)
	if err != nil {
		return Definition{}, err
	}
	c.cache[epsg] = def
	return def, nil
}

// Chain tries each resolver in turn and returns the first success.
type Chain []Resolver

func (c Chain) Resolve(epsg int) (Definition, error) {
	var lastErr error = fmt.Errorf("%w: %d", laserr.ErrUnknownEPSG, epsg)
	for _, r := range c {
		def, err := r.Resolve(epsg)
		if err == nil {
			return def, nil
		}
		lastErr = err
	}
	return Definition{}, lastErr
}
