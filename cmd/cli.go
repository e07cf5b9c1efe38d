package cmd

import (
	"flag"
	"fmt"
	"os"
)

// Config holds the CLI configuration parsed from arguments.
type Config struct {
	InputPath             string  // Source video/audio file
	OutputPath            string  // Destination path; derived from InputPath if empty
	ThresholdDB           float64 // Silence threshold in dBFS
	MinSilenceDurationSec float64 // Minimum silence run to excise, in seconds
	SampleRate            int     // Analysis sample rate

	Serve bool   // Run the HTTP server instead of a one-shot job
	Addr  string // Listen address when Serve is set
}

// ParseArgs parses command line arguments and returns a Config.
// Single Responsibility: Only handles CLI argument parsing.
func ParseArgs() (*Config, error) {
	config := &Config{}

	flag.StringVar(&config.InputPath, "input", "", "Input video/audio file path")
	flag.StringVar(&config.OutputPath, "output", "", "Output file path (default: <input>_excised<ext>)")
	flag.Float64Var(&config.ThresholdDB, "threshold-db", -40, "Silence threshold in dBFS")
	flag.Float64Var(&config.MinSilenceDurationSec, "min-silence-duration", 0.5, "Minimum silence duration to remove, in seconds")
	flag.IntVar(&config.SampleRate, "sample-rate", 16000, "Analysis sample rate")
	flag.BoolVar(&config.Serve, "serve", false, "Run the HTTP server instead of a one-shot job")
	flag.StringVar(&config.Addr, "addr", ":8080", "Listen address when -serve is set")

	flag.Usage = printUsage
	flag.Parse()

	if config.Serve {
		return config, nil
	}

	// If no flag provided, try positional argument (backward compatibility)
	if config.InputPath == "" && flag.NArg() > 0 {
		config.InputPath = flag.Arg(0)
	}

	if config.InputPath == "" {
		return nil, fmt.Errorf("input path is required")
	}

	return config, nil
}

// printUsage prints the usage information.
func printUsage() {
	fmt.Println("\nUsage:")
	fmt.Println("  silence-excise -input <path> [-output <path>] [flags]")
	fmt.Println("  silence-excise -serve [-addr :8080]")
	fmt.Println("\nFlags:")
	fmt.Println("  -input                 Input video/audio file path")
	fmt.Println("  -output                Output file path (default: <input>_excised<ext>)")
	fmt.Println("  -threshold-db          Silence threshold in dBFS (default -40)")
	fmt.Println("  -min-silence-duration  Minimum silence duration to remove, in seconds (default 0.5)")
	fmt.Println("  -sample-rate           Analysis sample rate (default 16000)")
	fmt.Println("  -serve                 Run the HTTP server instead of a one-shot job")
	fmt.Println("  -addr                  Listen address when -serve is set (default :8080)")
	fmt.Println("\nExamples:")
	fmt.Println("  silence-excise -input lecture.mp4")
	fmt.Println("  silence-excise -input lecture.mp4 -threshold-db -35 -min-silence-duration 0.75")
	fmt.Println("  silence-excise -serve -addr :9090")
	fmt.Println()
}

// PrintUsageAndExit prints usage and exits with code 1.
func PrintUsageAndExit() {
	printUsage()
	os.Exit(1)
}
