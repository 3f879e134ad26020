// bytepacker packs records into fixed-capacity buffers described by a layout
// file and seals them as snapshots.
//
// Usage:
//
//	bytepacker pack --layout L.yaml --in record.yaml --out buf.bpk [--compress zstd] [--strict]
//	bytepacker unpack --layout L.yaml --in buf.bpk [--strict]
//	bytepacker inspect --in buf.bpk
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("BYTEPACKER_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		printUsage(stdout)
		return fmt.Errorf("no command given")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "pack":
		return packCmd(rest, logger)
	case "unpack":
		return unpackCmd(rest, stdout, logger)
	case "inspect":
		return inspectCmd(rest, stdout, logger)
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `bytepacker - pack records into fixed-capacity big-endian buffers

USAGE
    bytepacker <command> [flags]

COMMANDS
    pack      Encode a YAML record with a layout and write a snapshot
    unpack    Open a snapshot and print the record as YAML
    inspect   Print a snapshot header and a hex dump of its buffer

ENVIRONMENT
    BYTEPACKER_DEBUG   Enable debug logging
`)
}
