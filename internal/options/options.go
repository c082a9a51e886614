package options

import "strings"

type Command string
type ResolverKind string

const (
	CommandInfo      Command = "info"
	CommandCheck     Command = "check"
	CommandFilter    Command = "filter"
	CommandReproject Command = "reproject"
	CommandSetCRS    Command = "set-crs"
)

const (
	// Resolves EPSG codes from the table compiled into the binary
	ResolverBuiltin ResolverKind = "BUILTIN"

	// Resolves EPSG codes through the GDAL/PROJ database, falling back to the builtin table
	ResolverGdal ResolverKind = "GDAL"
)

func (c Command) String() string {
	return string(c)
}

func ParseCommand(value string) Command {
	normalizedValue := Command(strings.Trim(strings.ToLower(value), " "))
	switch normalizedValue {
	case CommandInfo, CommandCheck, CommandFilter, CommandReproject, CommandSetCRS:
		return normalizedValue
	}
	return ""
}

func ParseResolverKind(useGdal bool) ResolverKind {
	if useGdal {
		return ResolverGdal
	}
	return ResolverBuiltin
}

// Contains the options shared by every command
type Options struct {
	Input            string       // Input LAS file/folder
	Output           string       // Output LAS file
	EPSG             int          // EPSG code of the target CRS (reproject, set-crs)
	ZOffset          float64      // Z offset in meters applied while reprojecting
	FolderProcessing bool         // Enables the processing of all LAS files in folder
	Recursive        bool         // Recursive lookup of LAS files in subfolders
	Resolver         ResolverKind // How EPSG codes are resolved
	Select           string       // Attributes to decode, select string syntax
	Filter           string       // Rows to decode, filter string syntax

	Command      Command
	CheckOptions *CheckOptions
}

type CheckOptions struct {
	DuplicateTolerance float64 // Largest coordinate difference between duplicate points
	MaxRows            int     // Rows listed per finding
	Workers            int     // Files checked concurrently
	JSON               bool    // Prints reports as JSON
}

func (opt *Options) Copy() *Options {
	newOpt := *opt
	newOpt.CheckOptions = nil

	if opt.CheckOptions != nil {
		checkOpt := *opt.CheckOptions
		newOpt.CheckOptions = &checkOpt
	}

	return &newOpt
}
