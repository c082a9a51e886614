package lasio

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ecopia-map/lascloud/internal/extrabytes"
	"github.com/ecopia-map/lascloud/internal/fixedstr"
	"github.com/ecopia-map/lascloud/pkg/las"
	"github.com/ecopia-map/lascloud/pkg/laserr"
)

// CRS record ids under las.ProjectionUserID.
const (
	GeoKeyDirectoryID = 34735
	WKTRecordID       = 2112
)

// GeoTIFF keys.
const (
	keyModelType      = 1024
	keyRasterType     = 1025
	keyGeographicType = 2048
	keyProjectedType  = 3072
	keyUserDefined    = 32767

	modelProjected  = 1
	modelGeographic = 2
	rasterIsArea    = 1
)

// readVLR reads one record. extended selects the EVLR header layout.
func readVLR(r io.Reader, extended bool) (las.VLR, error) {
	size := vlrHeaderSize
	if extended {
		size = evlrHeaderSize
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return las.VLR{}, fmt.Errorf("%w: truncated VLR header: %v", laserr.ErrFileFormat, err)
	}
	v := las.VLR{
		UserID:   fixedstr.Decode(b[2:18]),
		RecordID: le.Uint16(b[18:]),
		Extended: extended,
	}
	var length uint64
	if extended {
		length = le.Uint64(b[20:])
		v.Description = fixedstr.Decode(b[28:60])
	} else {
		length = uint64(le.Uint16(b[20:]))
		v.Description = fixedstr.Decode(b[22:54])
	}
	v.Data = make([]byte, length)
	if _, err := io.ReadFull(r, v.Data); err != nil {
		return las.VLR{}, fmt.Errorf("%w: truncated VLR %s/%d: %v", laserr.ErrFileFormat, v.UserID, v.RecordID, err)
	}
	return v, nil
}

// marshalVLR encodes a record with its header.
func marshalVLR(v las.VLR) ([]byte, error) {
	size := vlrHeaderSize
	if v.Extended {
		size = evlrHeaderSize
	}
	b := make([]byte, size, size+len(v.Data))
	user, err := fixedstr.Encode(v.UserID, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: VLR user id: %v", laserr.ErrInconsistentState, err)
	}
	desc, err := fixedstr.Encode(v.Description, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: VLR description: %v", laserr.ErrInconsistentState, err)
	}
	copy(b[2:18], user)
	le.PutUint16(b[18:], v.RecordID)
	if v.Extended {
		le.PutUint64(b[20:], uint64(len(v.Data)))
		copy(b[28:60], desc)
	} else {
		if len(v.Data) > 0xffff {
			return nil, fmt.Errorf("%w: VLR %s/%d payload of %d bytes", laserr.ErrInconsistentState, v.UserID, v.RecordID, len(v.Data))
		}
		le.PutUint16(b[20:], uint16(len(v.Data)))
		copy(b[22:54], desc)
	}
	return append(b, v.Data...), nil
}

// crsInfo is what the CRS records of a file say.
type crsInfo struct {
	epsg int
	wkt  string
}

// parseGeoKeys returns the EPSG code of a GeoKeyDirectory payload, 0 when
// it names none. A projected code wins over a geographic one.
func parseGeoKeys(data []byte) (int, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("%w: GeoKeyDirectory of %d bytes", laserr.ErrFileFormat, len(data))
	}
	n := int(le.Uint16(data[6:]))
	if len(data) < 8+8*n {
		return 0, fmt.Errorf("%w: GeoKeyDirectory declares %d keys in %d bytes", laserr.ErrFileFormat, n, len(data))
	}
	projected, geographic := 0, 0
	for i := 0; i < n; i++ {
		e := data[8+8*i:]
		key, location, value := le.Uint16(e[0:]), le.Uint16(e[2:]), le.Uint16(e[6:])
		if location != 0 || value == 0 || value == keyUserDefined {
			continue
		}
		switch key {
		case keyProjectedType:
			projected = int(value)
		case keyGeographicType:
			geographic = int(value)
		}
	}
	if projected != 0 {
		return projected, nil
	}
	return geographic, nil
}

// geoKeys builds a GeoKeyDirectory payload naming epsg.
func geoKeys(epsg int, geographic bool) []byte {
	model, key := uint16(modelProjected), uint16(keyProjectedType)
	if geographic {
		model, key = modelGeographic, keyGeographicType
	}
	entries := [][4]uint16{
		{1, 1, 0, 3}, // directory version, revision, minor revision, key count
		{keyModelType, 0, 1, model},
		{keyRasterType, 0, 1, rasterIsArea},
		{key, 0, 1, uint16(epsg)},
	}
	b := make([]byte, 8*len(entries))
	for i, e := range entries {
		for j, v := range e {
			le.PutUint16(b[8*i+2*j:], v)
		}
	}
	return b
}

var wktAuthority = regexp.MustCompile(`(?:AUTHORITY|ID)\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)

// wktEPSG extracts the EPSG code of the outermost object of a WKT string,
// which is declared last.
func wktEPSG(wkt string) int {
	m := wktAuthority.FindAllStringSubmatch(wkt, -1)
	if len(m) == 0 {
		return 0
	}
	code, err := strconv.Atoi(m[len(m)-1][1])
	if err != nil {
		return 0
	}
	return code
}

// guessGeographic is used for codes no resolver knows.
func guessGeographic(epsg int) bool {
	return epsg >= 4000 && epsg < 5000
}

// readCRS extracts the CRS of the file from its records. A WKT record is
// preferred over the GeoKeyDirectory when both name a code.
func readCRS(vlrs []las.VLR) (crsInfo, error) {
	var info crsInfo
	geo := 0
	for _, v := range vlrs {
		if v.UserID != las.ProjectionUserID {
			continue
		}
		switch v.RecordID {
		case GeoKeyDirectoryID:
			code, err := parseGeoKeys(v.Data)
			if err != nil {
				return info, err
			}
			geo = code
		case WKTRecordID:
			info.wkt = strings.TrimRight(string(v.Data), "\x00")
			info.epsg = wktEPSG(info.wkt)
		}
	}
	if info.epsg == 0 {
		info.epsg = geo
	}
	return info, nil
}

// extraBytesVLR builds the descriptor record of the registered extra
// attributes, in slot order.
func extraBytesVLR(ds []extrabytes.Descriptor) (las.VLR, error) {
	payload, err := extrabytes.Marshal(ds)
	if err != nil {
		return las.VLR{}, err
	}
	return las.VLR{
		UserID:      extrabytes.UserID,
		RecordID:    extrabytes.RecordID,
		Description: "Extra bytes",
		Data:        payload,
	}, nil
}
