package crs

import "fmt"

// Builtin returns a resolver knowing the systems LAS files most often use:
// common geographic systems, web and world mercator, Lambert-93 and the
// WGS84, NAD83 and ETRS89 UTM zones.
func Builtin() StaticResolver {
	r := StaticResolver{
		4326: {Name: "WGS 84", Proj4: "+proj=longlat +datum=WGS84 +no_defs", Geographic: true},
		4269: {Name: "NAD83", Proj4: "+proj=longlat +datum=NAD83 +no_defs", Geographic: true},
		4258: {Name: "ETRS89", Proj4: "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs", Geographic: true},
		4490: {Name: "China Geodetic Coordinate System 2000", Proj4: "+proj=longlat +ellps=GRS80 +no_defs", Geographic: true},
		3857: {Name: "WGS 84 / Pseudo-Mercator", Proj4: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +wktext +no_defs"},
		3395: {Name: "WGS 84 / World Mercator", Proj4: "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs"},
		2154: {Name: "RGF93 v1 / Lambert-93", Proj4: "+proj=lcc +lat_0=46.5 +lon_0=3 +lat_1=49 +lat_2=44 +x_0=700000 +y_0=6600000 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"},
	}
	for zone := 1; zone <= 60; zone++ {
		r[32600+zone] = Definition{
			Name:  fmt.Sprintf("WGS 84 / UTM zone %dN", zone),
			Proj4: fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", zone),
		}
		r[32700+zone] = Definition{
			Name:  fmt.Sprintf("WGS 84 / UTM zone %dS", zone),
			Proj4: fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", zone),
		}
	}
	for zone := 1; zone <= 23; zone++ {
		r[26900+zone] = Definition{
			Name:  fmt.Sprintf("NAD83 / UTM zone %dN", zone),
			Proj4: fmt.Sprintf("+proj=utm +zone=%d +datum=NAD83 +units=m +no_defs", zone),
		}
	}
	for zone := 28; zone <= 38; zone++ {
		r[25800+zone] = Definition{
			Name:  fmt.Sprintf("ETRS89 / UTM zone %dN", zone),
			Proj4: fmt.Sprintf("+proj=utm +zone=%d +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs", zone),
		}
	}
	return r
}
