// Package lasio reads and writes uncompressed LAS 1.0 to 1.4 files.
//
// Reads apply a column projection and a row predicate while decoding: the
// columns of unselected attributes are never allocated and rejected
// points are never stored.
package lasio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/internal/extrabytes"
	"github.com/ecopia-map/lascloud/internal/filter"
	"github.com/ecopia-map/lascloud/internal/geometry"
	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/las"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/golang/glog"
)

// maxPrealloc caps the rows reserved up front; larger clouds grow their
// columns while decoding.
const maxPrealloc = 1 << 24

// ReadOptions selects what a read materializes.
type ReadOptions struct {
	// Select is the column projection. The zero value selects everything.
	Select filter.Projection
	// Filter admits points. The empty predicate admits every point.
	Filter filter.Predicate
	// Resolver defines the EPSG code of the file. Nil uses crs.Builtin.
	Resolver crs.Resolver
}

// source is an opened file whose header and records have been read.
type source struct {
	path   string
	file   *os.File
	ph     *publicHeader
	format schema.Format
	layout layout
	vlrs   []las.VLR
	extras []extrabytes.Descriptor
	crs    crsInfo
}

func open(path string) (*source, error) {
	if strings.EqualFold(filepath.Ext(path), ".laz") {
		return nil, fmt.Errorf("%w: %s: compressed LAZ files are not supported", laserr.ErrFileFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s := &source{path: path, file: f}
	if err := s.readHeader(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *source) Close() error {
	return s.file.Close()
}

func (s *source) readHeader() error {
	r := bufio.NewReader(s.file)
	ph, err := readPublicHeader(r)
	if err != nil {
		return err
	}
	s.ph = ph
	if ph.PointFormat&compressedBits != 0 {
		return fmt.Errorf("%w: compressed point data", laserr.ErrFileFormat)
	}
	if s.format, err = checkFormat(ph.PointFormat); err != nil {
		return err
	}
	s.layout = newLayout(s.format)
	if int(ph.RecordLength) < s.layout.extra {
		return fmt.Errorf("%w: records of %d bytes, point format %d needs %d", laserr.ErrFileFormat, ph.RecordLength, s.format.ID, s.layout.extra)
	}
	if err := s.checkPointCount(); err != nil {
		return err
	}
	for i := uint32(0); i < ph.NumVLRs; i++ {
		v, err := readVLR(r, false)
		if err != nil {
			return err
		}
		s.vlrs = append(s.vlrs, v)
	}
	if ph.NumEVLRs > 0 && ph.FirstEVLR > 0 {
		if _, err := s.file.Seek(int64(ph.FirstEVLR), io.SeekStart); err != nil {
			return err
		}
		r = bufio.NewReader(s.file)
		for i := uint32(0); i < ph.NumEVLRs; i++ {
			v, err := readVLR(r, true)
			if err != nil {
				return err
			}
			s.vlrs = append(s.vlrs, v)
		}
	}
	for _, v := range s.vlrs {
		if v.UserID == extrabytes.UserID && v.RecordID == extrabytes.RecordID {
			if s.extras, err = extrabytes.Unmarshal(v.Data); err != nil {
				return err
			}
		}
	}
	size := 0
	for _, d := range s.extras {
		size += extraSize(d)
	}
	if s.layout.extra+size > int(ph.RecordLength) {
		return fmt.Errorf("%w: extra bytes of %d bytes do not fit records of %d bytes", laserr.ErrFileFormat, size, ph.RecordLength)
	}
	s.crs, err = readCRS(s.vlrs)
	return err
}

// checkPointCount rejects a header counting more points than the file
// can hold after the point data offset.
func (s *source) checkPointCount() error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	size := uint64(info.Size())
	offset := uint64(s.ph.OffsetToPoints)
	if offset > size {
		return fmt.Errorf("%w: point data offset %d beyond the end of the file (%d bytes)", laserr.ErrFileFormat, offset, size)
	}
	if fits := (size - offset) / uint64(s.ph.RecordLength); s.ph.PointCount > fits {
		return fmt.Errorf("%w: header counts %d points, the file holds at most %d", laserr.ErrFileFormat, s.ph.PointCount, fits)
	}
	return nil
}

// extraSize is the record width of a descriptor. Undocumented extra bytes
// carry their width in Scale.
func extraSize(d extrabytes.Descriptor) int {
	if d.Type == column.Invalid {
		return int(d.Scale)
	}
	return d.Size()
}

// spec builds the header values of the file keeping the extra
// attributes keep selects.
func (s *source) spec(r crs.Resolver, keep func(extrabytes.Descriptor) bool) las.HeaderSpec {
	ph := s.ph
	spec := las.HeaderSpec{
		PointFormat:        s.format.ID,
		VersionMinor:       ph.VersionMinor,
		Scale:              ph.Scale,
		Offset:             ph.Offset,
		BoundingBox:        geometry.BoundingBox{Xmin: ph.Min[0], Xmax: ph.Max[0], Ymin: ph.Min[1], Ymax: ph.Max[1], Zmin: ph.Min[2], Zmax: ph.Max[2]},
		PointCount:         int64(ph.PointCount),
		PointsByReturn:     ph.ByReturn,
		CRS:                spatialReference(s.crs, r),
		FileSourceID:       ph.FileSourceID,
		GlobalEncoding:     ph.GlobalEncoding,
		ProjectID:          ph.GUID,
		SystemID:           ph.SystemID,
		GeneratingSoftware: ph.GeneratingSoftware,
		CreationDay:        ph.CreationDay,
		CreationYear:       ph.CreationYear,
	}
	for _, d := range s.extras {
		if d.Type == column.Invalid {
			glog.Warningf("%s: skipping %d undocumented extra bytes %q", s.path, int(d.Scale), d.Name)
			continue
		}
		if keep(d) {
			spec.ExtraBytes = append(spec.ExtraBytes, d)
		}
	}
	for _, v := range s.vlrs {
		if !las.Managed(v.UserID, v.RecordID) {
			spec.VLRs = append(spec.VLRs, v)
		}
	}
	return spec
}

// spatialReference resolves the code the file names. A code no resolver
// defines is kept unresolved.
func spatialReference(info crsInfo, r crs.Resolver) crs.SpatialReference {
	if info.epsg == 0 {
		if info.wkt != "" {
			glog.Warningf("WKT CRS without EPSG authority ignored")
		}
		return crs.SpatialReference{}
	}
	def, err := r.Resolve(info.epsg)
	if err != nil {
		glog.Warningf("cannot resolve EPSG:%d: %v", info.epsg, err)
		return crs.Unresolved(info.epsg)
	}
	def.EPSG = info.epsg
	if def.WKT == "" {
		def.WKT = info.wkt
	}
	return crs.NewSpatialReference(def)
}

// ReadHeader reads the header of a file without its points.
func ReadHeader(path string, r crs.Resolver) (*las.Header, error) {
	if r == nil {
		r = crs.Builtin()
	}
	s, err := open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()
	h, err := las.NewHeader(s.spec(r, func(extrabytes.Descriptor) bool { return true }))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// reservedColumn accumulates one selected reserved attribute.
type reservedColumn struct {
	name  string
	index int
	f64   column.Float64s
	i32   column.Int32s
}

func (c *reservedColumn) append(r *record) {
	if c.f64 != nil {
		c.f64 = append(c.f64, r.values[c.index])
		return
	}
	c.i32 = append(c.i32, int32(r.values[c.index]))
}

func (c *reservedColumn) values() column.Values {
	if c.f64 != nil {
		return c.f64
	}
	return c.i32
}

// extraColumn accumulates one selected extra attribute.
type extraColumn struct {
	name   string
	offset int
	values column.Values
}

// Read decodes the file at path. Only attributes opts.Select includes are
// materialized and only points opts.Filter admits are kept. When points
// are rejected, the bounding box and return counts of the header describe
// the kept points; otherwise they are the file's.
func Read(path string, opts ReadOptions) (*las.Header, *las.PointTable, error) {
	if opts.Select.IsZero() {
		opts.Select = filter.All()
	}
	if opts.Resolver == nil {
		opts.Resolver = crs.Builtin()
	}
	if err := opts.Filter.Validate(); err != nil {
		return nil, nil, err
	}
	s, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = s.Close() }()

	spec := s.spec(opts.Resolver, func(d extrabytes.Descriptor) bool {
		return opts.Select.Includes(d.Name, true)
	})
	count := s.ph.PointCount
	capacity := int(count)
	if !opts.Filter.IsTrue() || capacity > maxPrealloc {
		capacity = 0
	}

	var reserved []*reservedColumn
	for _, d := range s.format.Attributes() {
		if !opts.Select.Includes(d.Name, false) {
			continue
		}
		c := &reservedColumn{name: d.Name, index: schema.Order(d.Name)}
		if d.Storage() == column.Float64 {
			c.f64 = make(column.Float64s, 0, capacity)
		} else {
			c.i32 = make(column.Int32s, 0, capacity)
		}
		reserved = append(reserved, c)
	}
	var extras []*extraColumn
	offset := s.layout.extra
	for _, d := range s.extras {
		if d.Type != column.Invalid && opts.Select.Includes(d.Name, true) {
			v, err := column.Make(d.Type, 0)
			if err != nil {
				return nil, nil, err
			}
			extras = append(extras, &extraColumn{name: d.Name, offset: offset, values: v})
		}
		offset += extraSize(d)
	}

	if _, err := s.file.Seek(int64(s.ph.OffsetToPoints), io.SeekStart); err != nil {
		return nil, nil, err
	}
	r := bufio.NewReaderSize(s.file, 1<<20)
	buf := make([]byte, s.ph.RecordLength)
	rec := newRecord(s.format)
	bbox := geometry.EmptyBoundingBox()
	var byReturn [las.MaxReturns]uint64
	n := 0
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: point %d of %d: %v", laserr.ErrFileFormat, path, i, count, err)
		}
		s.layout.decode(buf, s.ph.Scale, s.ph.Offset, rec)
		if !opts.Filter.Match(rec) {
			continue
		}
		n++
		bbox.Extend(geometry.Coordinate{X: rec.values[iX], Y: rec.values[iY], Z: rec.values[iZ]})
		if rn := int(rec.values[iReturnNumber]); rn >= 1 && rn <= las.MaxReturns {
			byReturn[rn-1]++
		}
		for _, c := range reserved {
			c.append(rec)
		}
		for _, c := range extras {
			c.values = extrabytes.AppendValue(c.values, buf[c.offset:])
		}
	}
	if uint64(n) != count {
		spec.BoundingBox = bbox.OrZero()
		spec.PointsByReturn = byReturn
	}
	glog.V(1).Infof("%s: kept %d of %d points, %d columns", path, n, count, len(reserved)+len(extras))

	h, err := las.NewHeader(spec)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	values := make(map[string]column.Values, len(reserved)+len(extras))
	for _, c := range reserved {
		values[c.name] = c.values()
	}
	for _, c := range extras {
		values[c.name] = c.values
	}
	t, err := las.NewPointTable(h, n, values)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, t, nil
}
