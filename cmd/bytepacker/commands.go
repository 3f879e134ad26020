package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/bytepacker"
	"github.com/rawbytedev/bytepacker/pkg/layout"
	"github.com/rawbytedev/bytepacker/pkg/snapshot"
)

func packCmd(args []string, logger *slog.Logger) error {
	flags := pflag.NewFlagSet("pack", pflag.ContinueOnError)
	layoutPath := flags.String("layout", "", "layout file (YAML)")
	inPath := flags.String("in", "", "record file (YAML)")
	outPath := flags.String("out", "", "snapshot file to write")
	compression := flags.String("compress", "none", "payload compression: none, zstd or lz4")
	strict := flags.Bool("strict", false, "fail instead of clipping fields at capacity")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *layoutPath == "" || *inPath == "" || *outPath == "" {
		return fmt.Errorf("pack: --layout, --in and --out are required")
	}
	c, err := snapshot.ParseCompression(*compression)
	if err != nil {
		return err
	}

	l, err := layout.Load(*layoutPath)
	if err != nil {
		return err
	}
	for _, pair := range l.Overlaps() {
		logger.Warn("overlapping fields", "layout", l.Name, "first", pair[0], "second", pair[1])
	}
	data, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	var rec layout.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parse record: %w", err)
	}

	buf, err := l.Encode(rec, bytepacker.Options{Strict: *strict})
	if err != nil {
		return err
	}
	sealed, err := snapshot.Seal(buf, c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*outPath, sealed, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	logger.Info("packed record",
		"layout", l.Name,
		"fields", len(rec),
		"capacity", l.Capacity,
		"snapshot_bytes", len(sealed),
		"out", *outPath,
	)
	return nil
}

func unpackCmd(args []string, stdout io.Writer, logger *slog.Logger) error {
	flags := pflag.NewFlagSet("unpack", pflag.ContinueOnError)
	layoutPath := flags.String("layout", "", "layout file (YAML)")
	inPath := flags.String("in", "", "snapshot file to read")
	strict := flags.Bool("strict", false, "fail when the buffer is shorter than the layout")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *layoutPath == "" || *inPath == "" {
		return fmt.Errorf("unpack: --layout and --in are required")
	}

	l, err := layout.Load(*layoutPath)
	if err != nil {
		return err
	}
	buf, err := readSnapshot(*inPath)
	if err != nil {
		return err
	}
	if len(buf) != l.Capacity {
		logger.Warn("capacity mismatch", "layout", l.Name, "layout_capacity", l.Capacity, "buffer_capacity", len(buf))
	}
	rec, err := l.Decode(buf, bytepacker.Options{Strict: *strict})
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(stdout)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return enc.Close()
}

func inspectCmd(args []string, stdout io.Writer, logger *slog.Logger) error {
	flags := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	inPath := flags.String("in", "", "snapshot file to read")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return fmt.Errorf("inspect: --in is required")
	}
	data, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	h, err := snapshot.ParseHeader(data)
	if err != nil {
		return err
	}
	buf, err := snapshot.Open(data)
	if err != nil {
		return err
	}
	logger.Debug("opened snapshot", "path", *inPath, "bytes", len(data))
	fmt.Fprintf(stdout, "version:     %d\n", h.Version)
	fmt.Fprintf(stdout, "compression: %s\n", h.Compression)
	fmt.Fprintf(stdout, "capacity:    %d\n", h.Capacity)
	fmt.Fprintf(stdout, "payload:     %d\n", h.PayloadLen)
	fmt.Fprintf(stdout, "crc32:       %08x\n", h.CRC32)
	fmt.Fprint(stdout, hex.Dump(buf))
	return nil
}

func readSnapshot(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return snapshot.Read(f)
}
