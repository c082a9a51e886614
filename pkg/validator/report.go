package validator

import (
	"fmt"
	"strings"
)

// Severity of a finding.
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Finding codes.
const (
	CodePointCount         = "point-count"
	CodePointFormat        = "point-format"
	CodeExtraBytesCount    = "extra-bytes-count"
	CodeExtraBytesType     = "extra-bytes-type"
	CodeCRSMirror          = "crs-mirror"
	CodeScale              = "scale"
	CodeOutOfRange         = "out-of-range"
	CodeNonFinite          = "non-finite-coordinate"
	CodeQuantization       = "quantization"
	CodeDuplicate          = "duplicate"
	CodeDegenerateReturn   = "degenerate-return"
	CodeZeroReturnNumber   = "zero-return-number"
	CodeBoundingBox        = "bounding-box"
	CodeZeroIntensity      = "zero-intensity"
	CodeZeroGPSTime        = "zero-gpstime"
	CodeMissingCRS         = "missing-crs"
	CodeUnregisteredColumn = "unregistered-column"
)

// Finding is one problem found in a cloud.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	// Rows lists offending rows when the problem is tied to points.
	Rows []int `json:"rows,omitempty"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %s", f.Severity, f.Code, f.Message)
}

// Report is the outcome of Check.
type Report struct {
	Findings []Finding `json:"findings"`
}

// OK reports whether no error was found. Warnings do not count.
func (r Report) OK() bool {
	for _, f := range r.Findings {
		if f.Severity == Error {
			return false
		}
	}
	return true
}

// Errors returns the error findings.
func (r Report) Errors() []Finding {
	return r.bySeverity(Error)
}

// Warnings returns the warning findings.
func (r Report) Warnings() []Finding {
	return r.bySeverity(Warning)
}

func (r Report) bySeverity(s Severity) []Finding {
	out := []Finding{}
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// Find returns the findings with the given code.
func (r Report) Find(code string) []Finding {
	out := []Finding{}
	for _, f := range r.Findings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

func (r Report) String() string {
	if len(r.Findings) == 0 {
		return "no problem found"
	}
	lines := make([]string, len(r.Findings))
	for i, f := range r.Findings {
		lines[i] = f.String()
	}
	return strings.Join(lines, "\n")
}
