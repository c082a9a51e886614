package tools

import (
	"flag"
	"runtime"

	"github.com/golang/glog"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type CommonFlags struct {
	Input        *string `json:"input"`
	Silent       *bool   `json:"silent"`
	LogTimestamp *bool   `json:"timestamp"`
	Help         *bool   `json:"help"`
}

type ReadFlags struct {
	Select *string `json:"select"`
	Filter *string `json:"filter"`
}

type FlagsForCommandInfo struct {
	CommonFlags
	ReadFlags
	JSON *bool `json:"json"`
}

type FlagsForCommandCheck struct {
	CommonFlags
	FolderProcessing          *bool    `json:"folder"`
	RecursiveFolderProcessing *bool    `json:"recursive"`
	DuplicateTolerance        *float64 `json:"tolerance"`
	MaxRows                   *int     `json:"max_rows"`
	Workers                   *int     `json:"workers"`
	JSON                      *bool    `json:"json"`
}

type FlagsForCommandFilter struct {
	CommonFlags
	ReadFlags
	Output *string `json:"output"`
}

// Used by both reproject and set-crs, ZOffset is ignored by set-crs
type FlagsForCommandCRS struct {
	CommonFlags
	Output  *string  `json:"output"`
	Srid    *int     `json:"srid"`
	ZOffset *float64 `json:"zoffset"`
	Gdal    *bool    `json:"gdal"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "", false, "Displays the version of lascloud.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func defineCommonFlags(flagCommand *flag.FlagSet) CommonFlags {
	return CommonFlags{
		Input:        defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input las file/folder."),
		Silent:       defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		LogTimestamp: defineBoolFlagCommand(flagCommand, "timestamp", "", false, "Adds timestamp to log messages."),
		Help:         defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
	}
}

func defineReadFlags(flagCommand *flag.FlagSet) ReadFlags {
	return ReadFlags{
		Select: defineStringFlagCommand(flagCommand, "select", "", "*", "Attributes to load, e.g. 'xyzic' or '* -RGB'. X, Y and Z are always loaded."),
		Filter: defineStringFlagCommand(flagCommand, "filter", "", "", "Points to keep, e.g. '-keep_first -drop_z_below 10'."),
	}
}

func ParseFlagsForCommandInfo(args []string) FlagsForCommandInfo {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-info", flag.ExitOnError)
	flags := FlagsForCommandInfo{
		CommonFlags: defineCommonFlags(flagCommand),
		ReadFlags:   defineReadFlags(flagCommand),
		JSON:        defineBoolFlagCommand(flagCommand, "json", "", false, "Prints the header as JSON."),
	}

	flagCommand.Parse(args)

	return flags
}

func ParseFlagsForCommandCheck(args []string) FlagsForCommandCheck {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-check", flag.ExitOnError)
	flags := FlagsForCommandCheck{
		CommonFlags:               defineCommonFlags(flagCommand),
		FolderProcessing:          defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all las files from input folder. Input must be a folder if specified"),
		RecursiveFolderProcessing: defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all .las files inside the subfolders"),
		DuplicateTolerance:        defineFloat64FlagCommand(flagCommand, "tolerance", "", 0, "Largest X, Y, Z and gpstime difference under which two points are duplicates."),
		MaxRows:                   defineIntFlagCommand(flagCommand, "max-rows", "", 20, "Maximum number of offending rows listed per finding, 0 lists all of them."),
		Workers:                   defineIntFlagCommand(flagCommand, "workers", "w", runtime.NumCPU(), "Number of files checked concurrently."),
		JSON:                      defineBoolFlagCommand(flagCommand, "json", "", false, "Prints the reports as JSON."),
	}

	flagCommand.Parse(args)

	return flags
}

func ParseFlagsForCommandFilter(args []string) FlagsForCommandFilter {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-filter", flag.ExitOnError)
	flags := FlagsForCommandFilter{
		CommonFlags: defineCommonFlags(flagCommand),
		ReadFlags:   defineReadFlags(flagCommand),
		Output:      defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output las file. Defaults to <input>_<command>.las next to the input."),
	}

	flagCommand.Parse(args)

	return flags
}

func ParseFlagsForCommandCRS(name string, args []string) FlagsForCommandCRS {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-"+name, flag.ExitOnError)
	flags := FlagsForCommandCRS{
		CommonFlags: defineCommonFlags(flagCommand),
		Output:      defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output las file. Defaults to <input>_<command>.las next to the input."),
		Srid:        defineIntFlagCommand(flagCommand, "srid", "e", 0, "EPSG srid code of the target CRS."),
		ZOffset:     defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to points, in meters."),
		Gdal:        defineBoolFlagCommand(flagCommand, "gdal", "g", false, "Resolves EPSG codes with GDAL instead of the builtin table."),
	}

	flagCommand.Parse(args)

	return flags
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
