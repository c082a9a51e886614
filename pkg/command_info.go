package pkg

import (
	"fmt"
	"strings"

	"github.com/ecopia-map/lascloud/internal/column"
	"github.com/ecopia-map/lascloud/internal/geometry"
	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/pkg/algorithm_manager"
	"github.com/ecopia-map/lascloud/pkg/las"
	"github.com/ecopia-map/lascloud/tools"
)

type CloudInfo struct {
	Version            string               `json:"version"`
	PointFormat        uint8                `json:"point_format"`
	PointCount         int64                `json:"point_count"`
	PointsByReturn     []uint64             `json:"points_by_return"`
	Scale              [3]float64           `json:"scale"`
	Offset             [3]float64           `json:"offset"`
	BoundingBox        geometry.BoundingBox `json:"bounding_box"`
	CRS                string               `json:"crs"`
	ProjectID          string               `json:"project_id"`
	SystemID           string               `json:"system_id"`
	GeneratingSoftware string               `json:"generating_software"`
	VLRs               []string             `json:"vlrs"`
	Columns            []ColumnInfo         `json:"columns"`
}

type ColumnInfo struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Kind  string  `json:"kind"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Valid bool    `json:"-"`
}

type Info struct {
	algorithmManager algorithm_manager.AlgorithmManager
	JSON             bool
}

func NewInfo(algorithmManager algorithm_manager.AlgorithmManager, json bool) ICommand {
	return &Info{
		algorithmManager: algorithmManager,
		JSON:             json,
	}
}

func (info *Info) RunCommand(opts *options.Options) error {
	h, table, err := readInput(opts, info.algorithmManager.GetCRSResolver())
	if err != nil {
		return err
	}
	defer table.Release()

	summary := Summarize(h, table)
	if info.JSON {
		fmt.Println(tools.FmtJSONIndent(summary))
	} else {
		fmt.Print(summary.String())
	}
	return nil
}

// Summarize describes the header and the columns of a cloud
func Summarize(h *las.Header, table *las.PointTable) CloudInfo {
	major, minor := h.Version()
	byReturn := h.PointsByReturn()
	info := CloudInfo{
		Version:            fmt.Sprintf("%d.%d", major, minor),
		PointFormat:        h.PointFormat(),
		PointCount:         h.PointCount(),
		PointsByReturn:     byReturn[:],
		Scale:              h.Scale(),
		Offset:             h.Offset(),
		BoundingBox:        h.BoundingBox(),
		CRS:                h.SpatialReference().String(),
		ProjectID:          h.ProjectID().String(),
		SystemID:           h.SystemID(),
		GeneratingSoftware: h.GeneratingSoftware(),
		VLRs:               []string{},
	}
	for _, v := range h.VLRs() {
		info.VLRs = append(info.VLRs, fmt.Sprintf("%s/%d (%d bytes) %s", v.UserID, v.RecordID, len(v.Data), v.Description))
	}

	adhoc := map[string]bool{}
	for _, name := range table.AdHoc() {
		adhoc[name] = true
	}
	for _, name := range table.Names() {
		v, err := table.Get(name)
		if err != nil {
			continue
		}
		c := ColumnInfo{Name: name, Type: v.Type().String(), Kind: "reserved"}
		switch {
		case table.IsExtra(name):
			c.Kind = "extra"
		case adhoc[name]:
			c.Kind = "ad hoc"
		}
		for i := 0; i < v.Len(); i++ {
			f, ok := column.Float64At(v, i)
			if !ok {
				break
			}
			if !c.Valid || f < c.Min {
				c.Min = f
			}
			if !c.Valid || f > c.Max {
				c.Max = f
			}
			c.Valid = true
		}
		info.Columns = append(info.Columns, c)
	}
	return info
}

func (info CloudInfo) String() string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "version:             %s\n", info.Version)
	fmt.Fprintf(&sb, "point format:        %d\n", info.PointFormat)
	fmt.Fprintf(&sb, "point count:         %d\n", info.PointCount)
	fmt.Fprintf(&sb, "points by return:    %v\n", info.PointsByReturn)
	fmt.Fprintf(&sb, "scale:               %g %g %g\n", info.Scale[0], info.Scale[1], info.Scale[2])
	fmt.Fprintf(&sb, "offset:              %g %g %g\n", info.Offset[0], info.Offset[1], info.Offset[2])
	b := info.BoundingBox
	fmt.Fprintf(&sb, "min:                 %g %g %g\n", b.Xmin, b.Ymin, b.Zmin)
	fmt.Fprintf(&sb, "max:                 %g %g %g\n", b.Xmax, b.Ymax, b.Zmax)
	fmt.Fprintf(&sb, "crs:                 %s\n", info.CRS)
	fmt.Fprintf(&sb, "project id:          %s\n", info.ProjectID)
	fmt.Fprintf(&sb, "system id:           %s\n", info.SystemID)
	fmt.Fprintf(&sb, "generating software: %s\n", info.GeneratingSoftware)
	for _, v := range info.VLRs {
		fmt.Fprintf(&sb, "vlr:                 %s\n", v)
	}
	for _, c := range info.Columns {
		if c.Valid {
			fmt.Fprintf(&sb, "  %-20s %-8s %-8s [%g, %g]\n", c.Name, c.Type, c.Kind, c.Min, c.Max)
		} else {
			fmt.Fprintf(&sb, "  %-20s %-8s %-8s\n", c.Name, c.Type, c.Kind)
		}
	}
	return sb.String()
}
