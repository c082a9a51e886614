package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecopia-map/lascloud/internal/options"
	"github.com/ecopia-map/lascloud/pkg"
	"github.com/ecopia-map/lascloud/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/lascloud/tools"
	"github.com/golang/glog"
)

const VERSION = "0.4.0"

const logo = `
 _                 _                 _
| | __ _ ___   ___| | ___  _   _  __| |
| |/ _' / __| / __| |/ _ \| | | |/ _' |
| | (_| \__ \| (__| | (_) | |_| | (_| |
|_|\__,_|___/ \___|_|\___/ \__,_|\__,_|
  LAS point cloud inspection and editing
  Copyright YYYY - Ecopia Map
`

const commands = "[info|check|filter|reproject|set-crs]"

func main() {
	flagsGlobal := tools.ParseFlagsGlobal()
	defer glog.Flush()
	glog.V(1).Infoln(tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		glog.Fatal("Please specify a subcommand " + commands + ".")
	}
	cmd, args := args[0], args[1:]

	var err error
	switch options.ParseCommand(cmd) {
	case options.CommandInfo:
		err = mainCommandInfo(args)
	case options.CommandCheck:
		err = mainCommandCheck(args)
	case options.CommandFilter:
		err = mainCommandFilter(args)
	case options.CommandReproject:
		err = mainCommandCRS(options.CommandReproject, args)
	case options.CommandSetCRS:
		err = mainCommandCRS(options.CommandSetCRS, args)
	default:
		glog.Fatalf("Unrecognized command [%q]. Command must be one of %s", cmd, commands)
	}

	if err != nil {
		glog.Fatalf("Error while running %s: %v", cmd, err)
	}
}

// set logging and timestamp logging
func setupLogger(flags tools.CommonFlags) {
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}
}

func mainCommandInfo(args []string) error {
	flags := tools.ParseFlagsForCommandInfo(args)
	if *flags.Help {
		showHelp()
		return nil
	}
	// info prints its result on stdout, progress messages would mix with it
	tools.DisableLogger()

	opts := options.Options{
		Input:   *flags.Input,
		Select:  *flags.Select,
		Filter:  *flags.Filter,
		Command: options.CommandInfo,
	}
	if msg, res := validateInput(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	return pkg.NewInfo(std_algorithm_manager.NewAlgorithmManager(&opts), *flags.JSON).RunCommand(&opts)
}

func mainCommandCheck(args []string) error {
	flags := tools.ParseFlagsForCommandCheck(args)
	if *flags.Help {
		showHelp()
		return nil
	}
	setupLogger(flags.CommonFlags)
	if *flags.JSON {
		tools.DisableLogger()
	}

	opts := options.Options{
		Input:            *flags.Input,
		FolderProcessing: *flags.FolderProcessing,
		Recursive:        *flags.RecursiveFolderProcessing,
		Command:          options.CommandCheck,
		CheckOptions: &options.CheckOptions{
			DuplicateTolerance: *flags.DuplicateTolerance,
			MaxRows:            *flags.MaxRows,
			Workers:            *flags.Workers,
			JSON:               *flags.JSON,
		},
	}
	if msg, res := validateInput(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}
	if opts.CheckOptions.DuplicateTolerance < 0 {
		glog.Fatal("Error parsing input parameters: tolerance cannot be negative")
	}

	defer timeTrack(time.Now(), "check")
	return pkg.NewCheck(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(&opts)).RunCommand(&opts)
}

func mainCommandFilter(args []string) error {
	flags := tools.ParseFlagsForCommandFilter(args)
	if *flags.Help {
		showHelp()
		return nil
	}
	setupLogger(flags.CommonFlags)

	opts := options.Options{
		Input:   *flags.Input,
		Output:  *flags.Output,
		Select:  *flags.Select,
		Filter:  *flags.Filter,
		Command: options.CommandFilter,
	}
	if msg, res := validateOutput(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	defer timeTrack(time.Now(), "filter")
	return pkg.NewFilter(std_algorithm_manager.NewAlgorithmManager(&opts)).RunCommand(&opts)
}

func mainCommandCRS(command options.Command, args []string) error {
	flags := tools.ParseFlagsForCommandCRS(command.String(), args)
	if *flags.Help {
		showHelp()
		return nil
	}
	setupLogger(flags.CommonFlags)

	opts := options.Options{
		Input:    *flags.Input,
		Output:   *flags.Output,
		EPSG:     *flags.Srid,
		Resolver: options.ParseResolverKind(*flags.Gdal),
		Command:  command,
	}
	if command == options.CommandReproject {
		opts.ZOffset = *flags.ZOffset
	}
	if msg, res := validateOutput(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}
	if opts.EPSG <= 0 {
		glog.Fatal("Error parsing input parameters: srid is required")
	}

	algorithmManager := std_algorithm_manager.NewAlgorithmManager(&opts)
	defer timeTrack(time.Now(), command.String())
	if command == options.CommandReproject {
		return pkg.NewReproject(algorithmManager).RunCommand(&opts)
	}
	return pkg.NewSetCRS(algorithmManager).RunCommand(&opts)
}

// Validates that the input file/folder exists
func validateInput(opts *options.Options) (string, bool) {
	if opts.Input == "" {
		return "input is required", false
	}
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	return "", true
}

// Validates the input, defaults the output and checks it differs from the input
func validateOutput(opts *options.Options) (string, bool) {
	if msg, res := validateInput(opts); !res {
		return msg, res
	}
	if opts.Output == "" {
		opts.Output = tools.DefaultOutputFile(opts.Input, opts.Command.String())
	}
	if opts.Output == opts.Input {
		return "output cannot overwrite the input file", false
	}
	return "", true
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("lascloud inspects, validates, filters and reprojects LAS point clouds")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: lascloud [global flags] " + commands + " [command flags]")
	fmt.Println("Run a command with -help to list its flags.")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
