package io

import (
	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/pkg/validator"
)

// Contains the data needed to check a single LAS file
type WorkUnit struct {
	Path string
	Opts *options.Options
}

// Outcome of a WorkUnit. Err is set when the file could not be decoded,
// Report is meaningful otherwise.
type Result struct {
	Path   string           `json:"path"`
	Points int              `json:"points"`
	Report validator.Report `json:"report"`
	Error  string           `json:"error,omitempty"`
	Err    error            `json:"-"`
}
