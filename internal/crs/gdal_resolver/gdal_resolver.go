package gdal_resolver

import (
	"fmt"
	"sync"

	"github.com/ecopia-map/lascloud/internal/crs"
	"github.com/ecopia-map/lascloud/pkg/laserr"
	"github.com/golang/glog"
	"github.com/lukeroth/gdal"
)

// GdalResolver resolves EPSG codes through the GDAL/OGR database.
type GdalResolver struct {
	defs map[int]crs.Definition
	sync.Mutex
}

func NewGdalResolver() crs.Resolver {
	return &GdalResolver{
		defs: map[int]crs.Definition{},
	}
}

func (g *GdalResolver) Resolve(epsg int) (def crs.Definition, err error) {
	g.Lock()
	defer g.Unlock()
	if def, ok := g.defs[epsg]; ok {
		return def, nil
	}

	ref := gdal.CreateSpatialReference("")
	defer ref.Destroy()
	if err = ref.FromEPSG(epsg); err != nil {
		glog.V(1).Infof("gdal cannot resolve EPSG:%d: %v", epsg, err)
		return crs.Definition{}, fmt.Errorf("%w: %d", laserr.ErrUnknownEPSG, epsg)
	}

	wkt, err := ref.ToWKT()
	if err != nil {
		return crs.Definition{}, fmt.Errorf("%w: %d: %v", laserr.ErrUnknownEPSG, epsg, err)
	}
	proj4, err := ref.ToProj4()
	if err != nil {
		return crs.Definition{}, fmt.Errorf("%w: %d: %v", laserr.ErrUnknownEPSG, epsg, err)
	}

	def = crs.Definition{
		EPSG:       epsg,
		WKT:        wkt,
		Proj4:      proj4,
		Geographic: ref.IsGeographic(),
	}
	nameKey := "PROJCS"
	if def.Geographic {
		nameKey = "GEOGCS"
	}
	if name, ok := ref.AttrValue(nameKey, 0); ok {
		def.Name = name
	}

	g.defs[epsg] = def
	return def, nil
}
