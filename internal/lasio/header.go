package lasio

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/ecopia-map/lascloud/internal/fixedstr"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/google/uuid"
)

const signature = "LASF"

// Public header block sizes by minor version.
const (
	headerSize12 = 227
	headerSize13 = 235
	headerSize14 = 375

	vlrHeaderSize  = 54
	evlrHeaderSize = 60
)

// compressed marks a LAZ point format byte.
const compressedBits = 0xc0

// publicHeader is the public header block as stored in the file.
type publicHeader struct {
	FileSourceID       uint16
	GlobalEncoding     uint16
	GUID               uuid.UUID
	VersionMajor       uint8
	VersionMinor       uint8
	SystemID           string
	GeneratingSoftware string
	CreationDay        uint16
	CreationYear       uint16
	HeaderSize         uint16
	OffsetToPoints     uint32
	NumVLRs            uint32
	PointFormat        uint8
	RecordLength       uint16
	LegacyPointCount   uint32
	LegacyByReturn     [5]uint32
	Scale              [3]float64
	Offset             [3]float64
	Max                [3]float64
	Min                [3]float64
	WaveformStart      uint64
	FirstEVLR          uint64
	NumEVLRs           uint32
	PointCount         uint64
	ByReturn           [15]uint64
}

func headerSize(minor uint8) int {
	switch {
	case minor >= 4:
		return headerSize14
	case minor == 3:
		return headerSize13
	}
	return headerSize12
}

// guidFromFile converts the mixed endian GUID layout of the header.
func guidFromFile(b []byte) uuid.UUID {
	var id uuid.UUID
	id[0], id[1], id[2], id[3] = b[3], b[2], b[1], b[0]
	id[4], id[5] = b[5], b[4]
	id[6], id[7] = b[7], b[6]
	copy(id[8:], b[8:16])
	return id
}

func guidToFile(id uuid.UUID, b []byte) {
	b[0], b[1], b[2], b[3] = id[3], id[2], id[1], id[0]
	b[4], b[5] = id[5], id[4]
	b[6], b[7] = id[7], id[6]
	copy(b[8:16], id[8:])
}

// readPublicHeader reads and checks the public header block at the start of r.
func readPublicHeader(r io.Reader) (*publicHeader, error) {
	b := make([]byte, headerSize12)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: truncated public header: %v", laserr.ErrFileFormat, err)
	}
	if string(b[0:4]) != signature {
		return nil, fmt.Errorf("%w: missing %s signature", laserr.ErrFileFormat, signature)
	}
	h := &publicHeader{
		FileSourceID:       le.Uint16(b[4:]),
		GlobalEncoding:     le.Uint16(b[6:]),
		GUID:               guidFromFile(b[8:24]),
		VersionMajor:       b[24],
		VersionMinor:       b[25],
		SystemID:           fixedstr.Decode(b[26:58]),
		GeneratingSoftware: fixedstr.Decode(b[58:90]),
		CreationDay:        le.Uint16(b[90:]),
		CreationYear:       le.Uint16(b[92:]),
		HeaderSize:         le.Uint16(b[94:]),
		OffsetToPoints:     le.Uint32(b[96:]),
		NumVLRs:            le.Uint32(b[100:]),
		PointFormat:        b[104],
		RecordLength:       le.Uint16(b[105:]),
		LegacyPointCount:   le.Uint32(b[107:]),
	}
	for i := range h.LegacyByReturn {
		h.LegacyByReturn[i] = le.Uint32(b[111+4*i:])
	}
	for i := 0; i < 3; i++ {
		h.Scale[i] = math.Float64frombits(le.Uint64(b[131+8*i:]))
		h.Offset[i] = math.Float64frombits(le.Uint64(b[155+8*i:]))
		h.Max[i] = math.Float64frombits(le.Uint64(b[179+16*i:]))
		h.Min[i] = math.Float64frombits(le.Uint64(b[187+16*i:]))
	}
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return nil, fmt.Errorf("%w: LAS %d.%d", laserr.ErrUnsupportedVersion, h.VersionMajor, h.VersionMinor)
	}
	want := headerSize(h.VersionMinor)
	if int(h.HeaderSize) < want {
		return nil, fmt.Errorf("%w: header of %d bytes, LAS 1.%d needs %d", laserr.ErrFileFormat, h.HeaderSize, h.VersionMinor, want)
	}
	rest := make([]byte, int(h.HeaderSize)-headerSize12)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("%w: truncated public header: %v", laserr.ErrFileFormat, err)
	}
	if h.VersionMinor >= 3 {
		h.WaveformStart = le.Uint64(rest[0:])
	}
	if h.VersionMinor >= 4 {
		h.FirstEVLR = le.Uint64(rest[8:])
		h.NumEVLRs = le.Uint32(rest[16:])
		h.PointCount = le.Uint64(rest[20:])
		for i := range h.ByReturn {
			h.ByReturn[i] = le.Uint64(rest[28+8*i:])
		}
	}
	if h.PointCount == 0 {
		h.PointCount = uint64(h.LegacyPointCount)
		for i, n := range h.LegacyByReturn {
			h.ByReturn[i] = uint64(n)
		}
	}
	if h.OffsetToPoints < uint32(h.HeaderSize) {
		return nil, fmt.Errorf("%w: point data offset %d inside the header", laserr.ErrFileFormat, h.OffsetToPoints)
	}
	return h, nil
}

// marshal encodes the header for its version.
func (h *publicHeader) marshal() ([]byte, error) {
	b := make([]byte, headerSize(h.VersionMinor))
	copy(b, signature)
	le.PutUint16(b[4:], h.FileSourceID)
	le.PutUint16(b[6:], h.GlobalEncoding)
	guidToFile(h.GUID, b[8:24])
	b[24], b[25] = h.VersionMajor, h.VersionMinor
	for _, f := range []struct {
		s   string
		off int
	}{{h.SystemID, 26}, {h.GeneratingSoftware, 58}} {
		enc, err := fixedstr.Encode(f.s, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", laserr.ErrInconsistentState, err)
		}
		copy(b[f.off:], enc)
	}
	le.PutUint16(b[90:], h.CreationDay)
	le.PutUint16(b[92:], h.CreationYear)
	le.PutUint16(b[94:], uint16(len(b)))
	le.PutUint32(b[96:], h.OffsetToPoints)
	le.PutUint32(b[100:], h.NumVLRs)
	b[104] = h.PointFormat
	le.PutUint16(b[105:], h.RecordLength)
	le.PutUint32(b[107:], h.LegacyPointCount)
	for i, n := range h.LegacyByReturn {
		le.PutUint32(b[111+4*i:], n)
	}
	for i := 0; i < 3; i++ {
		le.PutUint64(b[131+8*i:], math.Float64bits(h.Scale[i]))
		le.PutUint64(b[155+8*i:], math.Float64bits(h.Offset[i]))
		le.PutUint64(b[179+16*i:], math.Float64bits(h.Max[i]))
		le.PutUint64(b[187+16*i:], math.Float64bits(h.Min[i]))
	}
	if h.VersionMinor >= 3 {
		le.PutUint64(b[227:], h.WaveformStart)
	}
	if h.VersionMinor >= 4 {
		le.PutUint64(b[235:], h.FirstEVLR)
		le.PutUint32(b[243:], h.NumEVLRs)
		le.PutUint64(b[247:], h.PointCount)
		for i, n := range h.ByReturn {
			le.PutUint64(b[255+8*i:], n)
		}
	}
	return b, nil
}

// isSignature reports whether b starts with the LAS file signature.
func isSignature(b []byte) bool {
	return bytes.HasPrefix(b, []byte(signature))
}
