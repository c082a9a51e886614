// Package las holds the in-memory model of a LAS point cloud: the public
// header with its variable length records and the columnar point table.
//
// Header fields are only changed through the operations of this package,
// which keep them consistent with the point data.
package las

import (
	"fmt"
	"math"

	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/extrabytes"
	"github.com/ecopia-map/lascloud/internal/fixedstr"
	"github.com/ecopia-map/lascloud/internal/geometry"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/google/uuid"
)

const (
	VersionMajor = 1
	// MaxVersionMinor is the newest LAS 1.x revision supported.
	MaxVersionMinor = 4
	// MaxReturns is the number of points-by-return slots of a LAS 1.4 header.
	MaxReturns = 15

	identifierSize = 32
)

// Global encoding bits.
const (
	GPSTimeStandard  uint16 = 1 << 0
	WaveformInternal uint16 = 1 << 1
	WaveformExternal uint16 = 1 << 2
	SyntheticReturns uint16 = 1 << 3
	WKT              uint16 = 1 << 4
)

// VLR is a variable length record the model does not interpret. Records
// describing the extra bytes and the CRS are generated from the header
// state and never appear here.
type VLR struct {
	UserID      string
	RecordID    uint16
	Description string
	Data        []byte
	// Extended marks records stored after the point data (EVLR).
	Extended bool
}

// HeaderSpec carries the values a Header is created with.
type HeaderSpec struct {
	PointFormat  uint8
	VersionMinor uint8 // zero selects the lowest version defining PointFormat

	Scale  [3]float64
	Offset [3]float64

	// BoundingBox as stored in the file. Recomputed by row changing
	// operations.
	BoundingBox geometry.BoundingBox
	// PointCount as stored in the file. Overwritten when a table is built.
	PointCount     int64
	PointsByReturn [MaxReturns]uint64

	CRS        crs.SpatialReference
	ExtraBytes []extrabytes.Descriptor

	FileSourceID       uint16
	GlobalEncoding     uint16
	ProjectID          uuid.UUID
	SystemID           string
	GeneratingSoftware string
	CreationDay        uint16
	CreationYear       uint16

	VLRs []VLR
}

// Header is the public header block of a cloud.
type Header struct {
	versionMinor uint8
	pointFormat  uint8

	scale  [3]float64
	offset [3]float64

	bbox           geometry.BoundingBox
	pointCount     int64
	pointsByReturn [MaxReturns]uint64

	// epsg is authoritative, srs mirrors it.
	epsg int
	srs  crs.SpatialReference

	extra *extrabytes.Registry

	fileSourceID       uint16
	globalEncoding     uint16
	projectID          uuid.UUID
	systemID           string
	generatingSoftware string
	creationDay        uint16
	creationYear       uint16

	vlrs []VLR
}

// NewHeader validates spec and builds a header from it. Extra bytes
// descriptors are registered in order, taking slots 0, 1, ...
func NewHeader(spec HeaderSpec) (*Header, error) {
	f, ok := schema.LookupFormat(spec.PointFormat)
	if !ok {
		return nil, fmt.Errorf("%w: point format %d", laserr.ErrUnsupportedVersion, spec.PointFormat)
	}
	minor := spec.VersionMinor
	if minor == 0 && f.MinorVersion > 0 {
		minor = f.MinorVersion
	}
	if minor > MaxVersionMinor {
		return nil, fmt.Errorf("%w: LAS 1.%d", laserr.ErrUnsupportedVersion, minor)
	}
	if minor < f.MinorVersion {
		return nil, fmt.Errorf("%w: point format %d needs LAS 1.%d, header is 1.%d", laserr.ErrUnsupportedVersion, f.ID, f.MinorVersion, minor)
	}
	if err := checkScale(spec.Scale); err != nil {
		return nil, err
	}
	if err := checkIdentifier("system identifier", spec.SystemID); err != nil {
		return nil, err
	}
	if err := checkIdentifier("generating software", spec.GeneratingSoftware); err != nil {
		return nil, err
	}

	h := &Header{
		versionMinor:       minor,
		pointFormat:        f.ID,
		scale:              spec.Scale,
		offset:             spec.Offset,
		bbox:               spec.BoundingBox,
		pointCount:         spec.PointCount,
		pointsByReturn:     spec.PointsByReturn,
		epsg:               spec.CRS.EPSG(),
		srs:                spec.CRS,
		extra:              extrabytes.NewRegistry(),
		fileSourceID:       spec.FileSourceID,
		globalEncoding:     spec.GlobalEncoding,
		projectID:          spec.ProjectID,
		systemID:           spec.SystemID,
		generatingSoftware: spec.GeneratingSoftware,
		creationDay:        spec.CreationDay,
		creationYear:       spec.CreationYear,
		vlrs:               cloneVLRs(spec.VLRs),
	}
	for _, d := range spec.ExtraBytes {
		if _, err := h.extra.Register(d); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Spec returns the values the header would be recreated with.
func (h *Header) Spec() HeaderSpec {
	return HeaderSpec{
		PointFormat:        h.pointFormat,
		VersionMinor:       h.versionMinor,
		Scale:              h.scale,
		Offset:             h.offset,
		BoundingBox:        h.bbox,
		PointCount:         h.pointCount,
		PointsByReturn:     h.pointsByReturn,
		CRS:                h.srs,
		ExtraBytes:         h.extra.Descriptors(),
		FileSourceID:       h.fileSourceID,
		GlobalEncoding:     h.globalEncoding,
		ProjectID:          h.projectID,
		SystemID:           h.systemID,
		GeneratingSoftware: h.generatingSoftware,
		CreationDay:        h.creationDay,
		CreationYear:       h.creationYear,
		VLRs:               cloneVLRs(h.vlrs),
	}
}

// Clone returns an independent copy of the header.
func (h *Header) Clone() *Header {
	out := *h
	out.extra = h.extra.Clone()
	out.vlrs = cloneVLRs(h.vlrs)
	return &out
}

func (h *Header) Version() (major, minor uint8) { return VersionMajor, h.versionMinor }

func (h *Header) PointFormat() uint8 { return h.pointFormat }

// Format returns the point format table entry of the header.
func (h *Header) Format() schema.Format {
	f, _ := schema.LookupFormat(h.pointFormat)
	return f
}

// RecordLength is the size of a point record including extra bytes.
func (h *Header) RecordLength() int {
	return h.Format().RecordLength + h.extra.RecordSize()
}

func (h *Header) PointCount() int64 { return h.pointCount }

func (h *Header) Scale() [3]float64 { return h.scale }

func (h *Header) Offset() [3]float64 { return h.offset }

func (h *Header) BoundingBox() geometry.BoundingBox { return h.bbox }

func (h *Header) PointsByReturn() [MaxReturns]uint64 { return h.pointsByReturn }

// EPSG returns the CRS code, 0 when the cloud has no CRS.
func (h *Header) EPSG() int { return h.epsg }

// SpatialReference returns a copy of the CRS mirror.
func (h *Header) SpatialReference() crs.SpatialReference { return h.srs }

// ExtraBytes returns the registered extra bytes descriptors in slot order.
func (h *Header) ExtraBytes() []extrabytes.Descriptor { return h.extra.Descriptors() }

// ExtraByte returns the descriptor of a registered extra attribute.
func (h *Header) ExtraByte(name string) (extrabytes.Descriptor, bool) { return h.extra.Lookup(name) }

func (h *Header) FileSourceID() uint16 { return h.fileSourceID }

func (h *Header) GlobalEncoding() uint16 { return h.globalEncoding }

func (h *Header) ProjectID() uuid.UUID { return h.projectID }

func (h *Header) SystemID() string { return h.systemID }

func (h *Header) GeneratingSoftware() string { return h.generatingSoftware }

func (h *Header) CreationDate() (day, year uint16) { return h.creationDay, h.creationYear }

// VLRs returns a copy of the uninterpreted variable length records.
func (h *Header) VLRs() []VLR { return cloneVLRs(h.vlrs) }

func (h *Header) SetFileSourceID(id uint16) { h.fileSourceID = id }

func (h *Header) SetProjectID(id uuid.UUID) { h.projectID = id }

func (h *Header) SetCreationDate(day, year uint16) {
	h.creationDay, h.creationYear = day, year
}

func (h *Header) SetSystemID(s string) error {
	if err := checkIdentifier("system identifier", s); err != nil {
		return err
	}
	h.systemID = s
	return nil
}

func (h *Header) SetGeneratingSoftware(s string) error {
	if err := checkIdentifier("generating software", s); err != nil {
		return err
	}
	h.generatingSoftware = s
	return nil
}

// AddVLR appends an uninterpreted record. Records the header generates
// itself are refused.
func (h *Header) AddVLR(v VLR) error {
	if Managed(v.UserID, v.RecordID) {
		return fmt.Errorf("%w: VLR %s/%d is generated from the header", laserr.ErrInconsistentState, v.UserID, v.RecordID)
	}
	if !fixedstr.Fits(v.UserID, 16) || !fixedstr.Fits(v.Description, identifierSize) {
		return fmt.Errorf("%w: VLR %s/%d identifiers too long", laserr.ErrFileFormat, v.UserID, v.RecordID)
	}
	if !v.Extended && len(v.Data) > math.MaxUint16 {
		return fmt.Errorf("%w: VLR %s/%d payload of %d bytes needs an extended record", laserr.ErrFileFormat, v.UserID, v.RecordID, len(v.Data))
	}
	v.Data = append([]byte(nil), v.Data...)
	h.vlrs = append(h.vlrs, v)
	return nil
}

// RemoveVLRs drops every uninterpreted record with the given identifiers
// and reports how many were removed.
func (h *Header) RemoveVLRs(userID string, recordID uint16) int {
	kept := h.vlrs[:0]
	for _, v := range h.vlrs {
		if v.UserID != userID || v.RecordID != recordID {
			kept = append(kept, v)
		}
	}
	n := len(h.vlrs) - len(kept)
	h.vlrs = kept
	return n
}

// Managed reports whether a record is generated from header state: the
// extra bytes descriptors and the CRS records.
func Managed(userID string, recordID uint16) bool {
	switch userID {
	case extrabytes.UserID:
		return recordID == extrabytes.RecordID
	case ProjectionUserID:
		return true
	}
	return false
}

func checkScale(s [3]float64) error {
	for i, v := range s {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: scale factor %c must be positive, got %g", laserr.ErrInconsistentState, "xyz"[i], v)
		}
	}
	return nil
}

func checkIdentifier(field, s string) error {
	if !fixedstr.Fits(s, identifierSize) {
		return fmt.Errorf("%w: %s %q must be ISO-8859-1 and at most %d bytes", laserr.ErrFileFormat, field, s, identifierSize)
	}
	return nil
}

func cloneVLRs(in []VLR) []VLR {
	if in == nil {
		return nil
	}
	out := make([]VLR, len(in))
	for i, v := range in {
		v.Data = append([]byte(nil), v.Data...)
		out[i] = v
	}
	return out
}
