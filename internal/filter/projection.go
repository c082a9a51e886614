// Package filter describes which attributes and which points a read
// materializes.
package filter

import (
	"sort"

	"github.com/ecopia-map/lascloud/internal/schema"
)

type void struct{}

// Projection selects the attributes a read materializes.
type Projection struct {
	all      bool
	extras   bool
	names    map[string]void
	excluded map[string]void
}

// All selects every reserved attribute of the point format and every
// extra attribute.
func All() Projection {
	return Projection{all: true, extras: true}
}

// Attributes selects exactly the given attributes.
func Attributes(names ...string) Projection {
	p := Projection{names: make(map[string]void, len(names))}
	for _, n := range names {
		p.names[n] = void{}
	}
	return p
}

// IsZero reports whether p is the zero Projection, which readers treat
// as All.
func (p Projection) IsZero() bool {
	return !p.all && !p.extras && len(p.names) == 0 && len(p.excluded) == 0
}

// IsAll reports whether the projection selects everything.
func (p Projection) IsAll() bool {
	return p.all && len(p.excluded) == 0
}

// Includes reports whether the attribute name is selected. extra tells
// whether name is an extra bytes attribute.
func (p Projection) Includes(name string, extra bool) bool {
	if _, ok := p.excluded[name]; ok {
		return false
	}
	if extra && p.extras {
		return true
	}
	if p.all && !extra {
		return true
	}
	_, ok := p.names[name]
	return ok
}

// Without returns a copy of p excluding the given attributes.
func (p Projection) Without(names ...string) Projection {
	out := p.clone()
	if out.excluded == nil {
		out.excluded = map[string]void{}
	}
	for _, n := range names {
		out.excluded[n] = void{}
		delete(out.names, n)
	}
	return out
}

// With returns a copy of p also selecting the given attributes.
func (p Projection) With(names ...string) Projection {
	out := p.clone()
	if out.names == nil {
		out.names = map[string]void{}
	}
	for _, n := range names {
		out.names[n] = void{}
		delete(out.excluded, n)
	}
	return out
}

// WithExtras returns a copy of p selecting every extra attribute.
func (p Projection) WithExtras() Projection {
	out := p.clone()
	out.extras = true
	return out
}

// Names returns the explicitly selected names in canonical order.
func (p Projection) Names() []string {
	out := make([]string, 0, len(p.names))
	for n := range p.names {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := schema.Order(out[i]), schema.Order(out[j])
		if oi == oj {
			return out[i] < out[j]
		}
		if oi < 0 {
			return false
		}
		if oj < 0 {
			return true
		}
		return oi < oj
	})
	return out
}

func (p Projection) clone() Projection {
	out := Projection{all: p.all, extras: p.extras}
	if p.names != nil {
		out.names = make(map[string]void, len(p.names))
		for n := range p.names {
			out.names[n] = void{}
		}
	}
	if p.excluded != nil {
		out.excluded = make(map[string]void, len(p.excluded))
		for n := range p.excluded {
			out.excluded[n] = void{}
		}
	}
	return out
}
