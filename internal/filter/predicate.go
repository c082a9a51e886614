package filter

import (
	"fmt"
	"strings"

	"github.com/ecopia-map/lascloud/internal/schema"
	"github.com/ecopia-map/lascloud/pkg/laserr"
)

// Op is a comparison operator.
type Op uint8

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
	In
	NotIn
)

var opNames = [...]string{Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=", In: "in", NotIn: "not in"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "?"
}

// Comparison compares a reserved attribute with a constant, a set of
// constants (In, NotIn) or another reserved attribute (Other).
type Comparison struct {
	Attribute string
	Op        Op
	Value     float64
	Values    []float64
	Other     string
}

func (c Comparison) String() string {
	switch {
	case c.Other != "":
		return fmt.Sprintf("%s %s %s", c.Attribute, c.Op, c.Other)
	case c.Op == In || c.Op == NotIn:
		return fmt.Sprintf("%s %s %v", c.Attribute, c.Op, c.Values)
	}
	return fmt.Sprintf("%s %s %g", c.Attribute, c.Op, c.Value)
}

// Row gives access to one point's attribute values.
type Row interface {
	Value(attribute string) (float64, bool)
}

// Match evaluates the comparison. Rows lacking an attribute never match.
func (c Comparison) Match(r Row) bool {
	v, ok := r.Value(c.Attribute)
	if !ok {
		return false
	}
	rhs := c.Value
	if c.Other != "" {
		if rhs, ok = r.Value(c.Other); !ok {
			return false
		}
	}
	switch c.Op {
	case Eq:
		return v == rhs
	case Ne:
		return v != rhs
	case Lt:
		return v < rhs
	case Le:
		return v <= rhs
	case Gt:
		return v > rhs
	case Ge:
		return v >= rhs
	case In:
		return contains(c.Values, v)
	case NotIn:
		return !contains(c.Values, v)
	}
	return false
}

func contains(values []float64, v float64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// Predicate is a conjunction of comparisons. The empty predicate admits
// every row.
type Predicate []Comparison

// True admits every row.
func True() Predicate {
	return nil
}

// Where builds a single comparison predicate.
func Where(attribute string, op Op, value float64) Predicate {
	return Predicate{{Attribute: attribute, Op: op, Value: value}}
}

// And returns the conjunction of p and q.
func (p Predicate) And(q Predicate) Predicate {
	out := make(Predicate, 0, len(p)+len(q))
	out = append(out, p...)
	return append(out, q...)
}

// IsTrue reports whether p admits every row without looking at it.
func (p Predicate) IsTrue() bool {
	return len(p) == 0
}

// Match reports whether every comparison holds for r.
func (p Predicate) Match(r Row) bool {
	for _, c := range p {
		if !c.Match(r) {
			return false
		}
	}
	return true
}

// Attributes lists the attributes the predicate reads.
func (p Predicate) Attributes() []string {
	seen := map[string]void{}
	out := []string{}
	add := func(n string) {
		if _, ok := seen[n]; !ok && n != "" {
			seen[n] = void{}
			out = append(out, n)
		}
	}
	for _, c := range p {
		add(c.Attribute)
		add(c.Other)
	}
	return out
}

// Validate checks every comparison names a reserved attribute.
func (p Predicate) Validate() error {
	for _, name := range p.Attributes() {
		if !schema.IsReserved(name) {
			return laserr.Attribute(name, laserr.ErrUnknownAttribute, "predicates compare reserved attributes only")
		}
	}
	return nil
}

func (p Predicate) String() string {
	if p.IsTrue() {
		return "true"
	}
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}
