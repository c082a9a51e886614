package lasio

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/extrabytes"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/las"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/golang/glog"
)

// Write encodes h and t as an uncompressed LAS file. t must be the table
// of h and satisfy its invariants; nothing is repaired. Reserved attributes
// of the point format missing from t are written as zero. Ad hoc columns
// are not written.
func Write(path string, h *las.Header, t *las.PointTable) (err error) {
	if t.Header() != h {
		return fmt.Errorf("%w: table belongs to another header", laserr.ErrInconsistentState)
	}
	if err := t.Consistent(); err != nil {
		return err
	}
	for _, name := range []string{schema.X, schema.Y, schema.Z} {
		if !t.Has(name) {
			return laserr.Attribute(name, laserr.ErrInconsistentState, "coordinates are required to write a file")
		}
	}
	for _, name := range t.AdHoc() {
		glog.Warningf("%s: attribute %q is not registered as extra bytes and is not written", path, name)
	}

	ph, vlrs, evlrs, err := prepare(h, t)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	w := bufio.NewWriterSize(f, 1<<20)

	b, err := ph.marshal()
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	for _, v := range vlrs {
		if _, err := w.Write(v); err != nil {
			return err
		}
	}
	if err := writePoints(w, h, t); err != nil {
		return err
	}
	for _, v := range evlrs {
		if _, err := w.Write(v); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	glog.V(1).Infof("%s: wrote %d points in format %d", path, t.Len(), h.PointFormat())
	return nil
}

// prepare builds the public header and the encoded records of a file.
func prepare(h *las.Header, t *las.PointTable) (*publicHeader, [][]byte, [][]byte, error) {
	_, minor := h.Version()
	f := h.Format()
	n := uint64(t.Len())

	var records, extended []las.VLR
	if ds := h.ExtraBytes(); len(ds) > 0 {
		v, err := extraBytesVLR(ds)
		if err != nil {
			return nil, nil, nil, err
		}
		records = append(records, v)
	}
	encoding := h.GlobalEncoding() &^ (las.WKT | las.WaveformInternal | las.WaveformExternal)
	if epsg := h.EPSG(); epsg != 0 {
		srs := h.SpatialReference()
		if f.Extended() && srs.WKT() != "" {
			records = append(records, las.VLR{
				UserID:      las.ProjectionUserID,
				RecordID:    WKTRecordID,
				Description: "OGC WKT",
				Data:        append([]byte(srs.WKT()), 0),
			})
			encoding |= las.WKT
		} else {
			geographic := srs.Geographic()
			if !srs.Resolved() {
				geographic = guessGeographic(epsg)
			}
			records = append(records, las.VLR{
				UserID:      las.ProjectionUserID,
				RecordID:    GeoKeyDirectoryID,
				Description: "GeoKeyDirectoryTag",
				Data:        geoKeys(epsg, geographic),
			})
		}
	}
	for _, v := range h.VLRs() {
		switch {
		case v.Extended && minor >= 4:
			extended = append(extended, v)
		case v.Extended && len(v.Data) > math.MaxUint16:
			return nil, nil, nil, fmt.Errorf("%w: VLR %s/%d needs LAS 1.4", laserr.ErrInconsistentState, v.UserID, v.RecordID)
		default:
			v.Extended = false
			records = append(records, v)
		}
	}

	ph := &publicHeader{
		FileSourceID:       h.FileSourceID(),
		GlobalEncoding:     encoding,
		GUID:               h.ProjectID(),
		VersionMajor:       las.VersionMajor,
		VersionMinor:       minor,
		SystemID:           h.SystemID(),
		GeneratingSoftware: h.GeneratingSoftware(),
		NumVLRs:            uint32(len(records)),
		PointFormat:        f.ID,
		RecordLength:       uint16(h.RecordLength()),
		Scale:              h.Scale(),
		Offset:             h.Offset(),
		PointCount:         n,
		ByReturn:           h.PointsByReturn(),
		NumEVLRs:           uint32(len(extended)),
	}
	ph.CreationDay, ph.CreationYear = h.CreationDate()
	b := h.BoundingBox()
	ph.Min = [3]float64{b.Xmin, b.Ymin, b.Zmin}
	ph.Max = [3]float64{b.Xmax, b.Ymax, b.Zmax}

	if !f.Extended() && n <= math.MaxUint32 {
		ph.LegacyPointCount = uint32(n)
		for i := range ph.LegacyByReturn {
			ph.LegacyByReturn[i] = uint32(min64(ph.ByReturn[i], math.MaxUint32))
		}
	} else if minor < 4 {
		return nil, nil, nil, fmt.Errorf("%w: %d points need LAS 1.4", laserr.ErrInconsistentState, n)
	}

	vlrs := make([][]byte, len(records))
	offset := headerSize(minor)
	for i, v := range records {
		b, err := marshalVLR(v)
		if err != nil {
			return nil, nil, nil, err
		}
		vlrs[i] = b
		offset += len(b)
	}
	ph.OffsetToPoints = uint32(offset)

	evlrs := make([][]byte, len(extended))
	for i, v := range extended {
		b, err := marshalVLR(v)
		if err != nil {
			return nil, nil, nil, err
		}
		evlrs[i] = b
	}
	if len(evlrs) > 0 {
		ph.FirstEVLR = uint64(offset) + n*uint64(ph.RecordLength)
	}
	return ph, vlrs, evlrs, nil
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

type reservedSource struct {
	index  int
	values column.Values
}

type extraSource struct {
	offset int
	values column.Values
}

func writePoints(w *bufio.Writer, h *las.Header, t *las.PointTable) error {
	f := h.Format()
	enc := &encoder{layout: newLayout(f), scale: h.Scale(), offset: h.Offset()}

	var reserved []reservedSource
	for _, d := range f.Attributes() {
		if v, err := t.Get(d.Name); err == nil {
			reserved = append(reserved, reservedSource{index: schema.Order(d.Name), values: v})
		}
	}
	var extras []extraSource
	offset := enc.extra
	for _, d := range h.ExtraBytes() {
		v, err := t.Get(d.Name)
		if err != nil {
			return err
		}
		extras = append(extras, extraSource{offset: offset, values: v})
		offset += d.Size()
	}

	rec := newRecord(f)
	buf := make([]byte, h.RecordLength())
	for i := 0; i < t.Len(); i++ {
		for j := range buf {
			buf[j] = 0
		}
		for _, s := range reserved {
			rec.values[s.index], _ = column.Float64At(s.values, i)
		}
		enc.row = i
		if err := enc.encode(rec, buf); err != nil {
			return err
		}
		for _, s := range extras {
			extrabytes.PutValue(buf[s.offset:], s.values, i)
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
