package extrabytes

import (
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"golang.org/x/exp/slices"
)

// MaxSlots is the number of extra attributes an object may register.
const MaxSlots = 10

// Registry is a fixed slot table of extra attribute descriptors. Slots keep
// their index until unregistered; freed slots are handed out lowest first.
type Registry struct {
	slots [MaxSlots]*Descriptor
	free  []int
}

func NewRegistry() *Registry {
	r := &Registry{free: make([]int, MaxSlots)}
	for i := range r.free {
		r.free[i] = i
	}
	return r
}

// Register validates d, assigns it the next free slot and returns the slot.
func (r *Registry) Register(d Descriptor) (int, error) {
	if err := d.Validate(); err != nil {
		return -1, err
	}
	if _, ok := r.Lookup(d.Name); ok {
		return -1, laserr.Attribute(d.Name, laserr.ErrNameCollision, "already registered")
	}
	if len(r.free) == 0 {
		return -1, laserr.Attribute(d.Name, laserr.ErrTooManyExtraAttributes, "all %d slots in use", MaxSlots)
	}
	idx := r.free[0]
	r.free = r.free[1:]
	d.Index = idx
	r.slots[idx] = &d
	return idx, nil
}

// Unregister removes the descriptor called name and frees its slot.
func (r *Registry) Unregister(name string) (Descriptor, error) {
	for i, d := range r.slots {
		if d != nil && d.Name == name {
			r.slots[i] = nil
			r.free = append(r.free, i)
			slices.Sort(r.free)
			return *d, nil
		}
	}
	return Descriptor{}, laserr.Attribute(name, laserr.ErrNotRegistered, "no extra attribute of that name")
}

// Lookup returns the descriptor called name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	for _, d := range r.slots {
		if d != nil && d.Name == name {
			return *d, true
		}
	}
	return Descriptor{}, false
}

// Descriptors returns the registered descriptors in slot order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, r.Len())
	for _, d := range r.slots {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// Names returns the registered names in slot order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	for _, d := range r.Descriptors() {
		names = append(names, d.Name)
	}
	return names
}

func (r *Registry) Len() int {
	return MaxSlots - len(r.free)
}

func (r *Registry) Full() bool {
	return len(r.free) == 0
}

// RecordSize is the number of bytes the registered attributes add to a
// point record.
func (r *Registry) RecordSize() int {
	n := 0
	for _, d := range r.Descriptors() {
		n += d.Size()
	}
	return n
}

func (r *Registry) Clone() *Registry {
	c := &Registry{free: slices.Clone(r.free)}
	for i, d := range r.slots {
		if d != nil {
			cp := *d
			c.slots[i] = &cp
		}
	}
	return c
}
