package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ecopia-map/lascloud/internal/schema"
)

var selectLetters = map[rune]string{
	'x': schema.X,
	'y': schema.Y,
	'z': schema.Z,
	'i': schema.Intensity,
	't': schema.GPSTime,
	'r': schema.ReturnNumber,
	'n': schema.NumberOfReturns,
	'd': schema.ScanDirectionFlag,
	'e': schema.EdgeOfFlightline,
	'c': schema.Classification,
	's': schema.SyntheticFlag,
	'k': schema.KeypointFlag,
	'w': schema.WithheldFlag,
	'o': schema.OverlapFlag,
	'a': schema.ScanAngle,
	'u': schema.UserData,
	'p': schema.PointSourceID,
	'R': schema.R,
	'G': schema.G,
	'B': schema.B,
	'N': schema.NIR,
}

// ParseSelect parses a select string such as "xyzic" or "* -t". Letters
// after '-' are excluded until the next space. '*' selects everything and
// '0' every extra attribute. X, Y and Z are always selected.
func ParseSelect(s string) (Projection, error) {
	p := Attributes(schema.X, schema.Y, schema.Z)
	exclude := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == ',':
			exclude = false
		case r == '-':
			exclude = true
		case r == '*':
			if exclude {
				return Projection{}, fmt.Errorf("cannot exclude '*' in select %q", s)
			}
			p.all = true
			p.extras = true
		case r == '0':
			if exclude {
				p.extras = false
			} else {
				p.extras = true
			}
		default:
			name, ok := selectLetters[r]
			if !ok {
				return Projection{}, fmt.Errorf("unknown letter %q in select %q", r, s)
			}
			if exclude {
				if name == schema.X || name == schema.Y || name == schema.Z {
					continue
				}
				p = p.Without(name)
			} else {
				p = p.With(name)
			}
		}
	}
	return p, nil
}

type filterRule struct {
	args  int // -1 for one or more
	build func(args []float64) Predicate
}

func cmp(attribute string, op Op) func([]float64) Predicate {
	return func(a []float64) Predicate {
		return Where(attribute, op, a[0])
	}
}

func set(attribute string, op Op) func([]float64) Predicate {
	return func(a []float64) Predicate {
		return Predicate{{Attribute: attribute, Op: op, Values: a}}
	}
}

func fixed(p Predicate) func([]float64) Predicate {
	return func([]float64) Predicate { return p }
}

var filterRules = map[string]filterRule{
	"-keep_first":   {0, fixed(Where(schema.ReturnNumber, Eq, 1))},
	"-drop_first":   {0, fixed(Where(schema.ReturnNumber, Ne, 1))},
	"-keep_last":    {0, fixed(Predicate{{Attribute: schema.ReturnNumber, Op: Eq, Other: schema.NumberOfReturns}})},
	"-drop_last":    {0, fixed(Predicate{{Attribute: schema.ReturnNumber, Op: Ne, Other: schema.NumberOfReturns}})},
	"-keep_single":  {0, fixed(Where(schema.NumberOfReturns, Eq, 1))},
	"-drop_single":  {0, fixed(Where(schema.NumberOfReturns, Ne, 1))},
	"-keep_return":  {-1, set(schema.ReturnNumber, In)},
	"-drop_return":  {-1, set(schema.ReturnNumber, NotIn)},
	"-keep_class":   {-1, set(schema.Classification, In)},
	"-drop_class":   {-1, set(schema.Classification, NotIn)},
	"-drop_z_below": {1, cmp(schema.Z, Ge)},
	"-drop_z_above": {1, cmp(schema.Z, Le)},
	"-keep_z": {2, func(a []float64) Predicate {
		return Where(schema.Z, Ge, a[0]).And(Where(schema.Z, Lt, a[1]))
	}},
	"-drop_x_below": {1, cmp(schema.X, Ge)},
	"-drop_x_above": {1, cmp(schema.X, Le)},
	"-drop_y_below": {1, cmp(schema.Y, Ge)},
	"-drop_y_above": {1, cmp(schema.Y, Le)},
	"-keep_xy": {4, func(a []float64) Predicate {
		return Where(schema.X, Ge, a[0]).
			And(Where(schema.Y, Ge, a[1])).
			And(Where(schema.X, Lt, a[2])).
			And(Where(schema.Y, Lt, a[3]))
	}},
	"-drop_intensity_below": {1, cmp(schema.Intensity, Ge)},
	"-drop_intensity_above": {1, cmp(schema.Intensity, Le)},
	"-drop_gps_time_below":  {1, cmp(schema.GPSTime, Ge)},
	"-drop_gps_time_above":  {1, cmp(schema.GPSTime, Le)},
	"-drop_withheld":        {0, fixed(Where(schema.WithheldFlag, Eq, 0))},
	"-drop_synthetic":       {0, fixed(Where(schema.SyntheticFlag, Eq, 0))},
	"-drop_keypoint":        {0, fixed(Where(schema.KeypointFlag, Eq, 0))},
	"-drop_overlap":         {0, fixed(Where(schema.OverlapFlag, Eq, 0))},
	"-keep_user_data":       {-1, set(schema.UserData, In)},
	"-keep_point_source":    {-1, set(schema.PointSourceID, In)},
	"-drop_point_source":    {-1, set(schema.PointSourceID, NotIn)},
}

// ParseFilter parses a LAStools style filter string such as
// "-keep_first -drop_z_below 5 -keep_class 2 9" into a predicate.
func ParseFilter(s string) (Predicate, error) {
	tokens := strings.Fields(s)
	var p Predicate
	for i := 0; i < len(tokens); {
		name := tokens[i]
		rule, ok := filterRules[name]
		if !ok {
			return nil, fmt.Errorf("unsupported filter %q", name)
		}
		i++
		var args []float64
		for i < len(tokens) && (rule.args < 0 || len(args) < rule.args) {
			v, err := strconv.ParseFloat(tokens[i], 64)
			if err != nil {
				break
			}
			args = append(args, v)
			i++
		}
		if (rule.args < 0 && len(args) == 0) || (rule.args >= 0 && len(args) != rule.args) {
			return nil, fmt.Errorf("filter %s expects %s", name, arity(rule.args))
		}
		p = p.And(rule.build(args))
	}
	return p, nil
}

func arity(n int) string {
	switch n {
	case -1:
		return "one or more values"
	case 0:
		return "no value"
	case 1:
		return "one value"
	}
	return strconv.Itoa(n) + " values"
}
