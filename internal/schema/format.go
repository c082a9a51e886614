package schema

import (
	"fmt"
	"strings"

	"github.com/ecopia-map/lascloud/pkg/laserr"
)

// Capability is a group of optional fields a point format may include.
type Capability uint8

const (
	CapGPSTime Capability = 1 << iota
	CapColor
	CapNIR
	CapWaveform
	CapExtended
	// CapExtraBytes is carried by every format: extra bytes trail the record.
	CapExtraBytes
)

// Capabilities is a set of Capability flags.
type Capabilities = Capability

// Has reports whether every capability of want is in c.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

func (c Capability) String() string {
	names := []string{}
	for _, p := range []struct {
		c    Capability
		name string
	}{
		{CapGPSTime, "gpstime"},
		{CapColor, "color"},
		{CapNIR, "nir"},
		{CapWaveform, "waveform"},
		{CapExtended, "extended"},
		{CapExtraBytes, "extrabytes"},
	} {
		if c&p.c != 0 {
			names = append(names, p.name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Format is one point data record format of the LAS specification.
type Format struct {
	ID           uint8
	Capabilities Capabilities
	// RecordLength is the size of the record without extra bytes.
	RecordLength int
	// MinorVersion is the lowest LAS 1.x minor version defining the format.
	MinorVersion uint8
}

const base = CapExtraBytes

var formats = [...]Format{
	{ID: 0, Capabilities: base, RecordLength: 20, MinorVersion: 0},
	{ID: 1, Capabilities: base | CapGPSTime, RecordLength: 28, MinorVersion: 0},
	{ID: 2, Capabilities: base | CapColor, RecordLength: 26, MinorVersion: 2},
	{ID: 3, Capabilities: base | CapGPSTime | CapColor, RecordLength: 34, MinorVersion: 2},
	{ID: 4, Capabilities: base | CapGPSTime | CapWaveform, RecordLength: 57, MinorVersion: 3},
	{ID: 5, Capabilities: base | CapGPSTime | CapColor | CapWaveform, RecordLength: 63, MinorVersion: 3},
	{ID: 6, Capabilities: base | CapGPSTime | CapExtended, RecordLength: 30, MinorVersion: 4},
	{ID: 7, Capabilities: base | CapGPSTime | CapColor | CapExtended, RecordLength: 36, MinorVersion: 4},
	{ID: 8, Capabilities: base | CapGPSTime | CapColor | CapNIR | CapExtended, RecordLength: 38, MinorVersion: 4},
	{ID: 9, Capabilities: base | CapGPSTime | CapWaveform | CapExtended, RecordLength: 59, MinorVersion: 4},
	{ID: 10, Capabilities: base | CapGPSTime | CapColor | CapNIR | CapWaveform | CapExtended, RecordLength: 67, MinorVersion: 4},
}

// MaxFormat is the highest point format id.
const MaxFormat = uint8(len(formats) - 1)

// LookupFormat returns the format with the given id.
func LookupFormat(id uint8) (Format, bool) {
	if id > MaxFormat {
		return Format{}, false
	}
	return formats[id], true
}

// Extended reports whether the format uses the LAS 1.4 record layout.
func (f Format) Extended() bool {
	return f.Capabilities.Has(CapExtended)
}

// Attributes returns the reserved attributes the format carries, in
// canonical order.
func (f Format) Attributes() []Descriptor {
	out := make([]Descriptor, 0, len(reserved))
	for _, d := range reserved {
		if f.Capabilities.Has(d.Requires) {
			out = append(out, d)
		}
	}
	return out
}

// Has reports whether the format carries the reserved attribute name.
func (f Format) Has(name string) bool {
	d, ok := Lookup(name)
	return ok && f.Capabilities.Has(d.Requires)
}

// Promote returns the lowest format id carrying everything format current
// carries plus required. current itself is returned when it suffices.
func Promote(current uint8, required Capabilities) (uint8, error) {
	f, ok := LookupFormat(current)
	if !ok {
		return 0, fmt.Errorf("%w: point format %d", laserr.ErrUnsupportedVersion, current)
	}
	want := f.Capabilities | required
	if f.Capabilities.Has(want) {
		return current, nil
	}
	return Minimal(want)
}

// Minimal returns the lowest format id carrying required.
func Minimal(required Capabilities) (uint8, error) {
	for _, f := range formats {
		if f.Capabilities.Has(required) {
			return f.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: capabilities %s", laserr.ErrNoCompatibleFormat, required)
}

// CapabilitiesFor returns the capabilities needed to carry the named
// reserved attributes. Unknown names are ignored.
func CapabilitiesFor(names ...string) Capabilities {
	var c Capabilities
	for _, n := range names {
		if d, ok := Lookup(n); ok {
			c |= d.Requires
		}
	}
	return c
}
