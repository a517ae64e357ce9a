// Command scape-extract extracts and converts assets from a pack archive.
//
// Usage:
//
//	scape-extract extract [options] <pack>     Walk the archive and write every leaf to -out
//	scape-extract scsp [-out path] <input.scsp> Convert a skeleton container to Spine-shaped JSON
//	scape-extract table [-out path] <input.db>  Convert a table container to JSON
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/packhound/scape/extract"
	"github.com/packhound/scape/pack"
	"github.com/packhound/scape/skeleton"
	"github.com/packhound/scape/table"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "extract":
		err = runExtract(os.Args[2:])
	case "scsp":
		err = runSkeleton(os.Args[2:])
	case "table":
		err = runTable(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "scape-extract: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "scape-extract: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  scape-extract extract [options] <pack>      Walk the archive and write every leaf
  scape-extract scsp [-out path] <input.scsp> Convert a skeleton container to JSON
  scape-extract table [-out path] <input.db>  Convert a table container to JSON

Run "scape-extract <command> -h" for command-specific options.
`)
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	outDir := fs.String("out", "", "output directory (required)")
	convertTextures := fs.Bool("textures", true, "convert .sct/.sct2 to .png")
	convertTables := fs.Bool("tables", true, "convert .db to .json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("extract: missing pack path\nUsage: scape-extract extract [options] <pack>")
	}
	if *outDir == "" {
		return fmt.Errorf("extract: -out is required")
	}

	packPath := fs.Arg(0)

	a, err := pack.Open(packPath)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	defer a.Close()

	if a.Kind() == pack.Unknown {
		return fmt.Errorf("extract: %s is not a recognized pack", packPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Scanning %s (%s)...\n", packPath, a.Kind())
	if err := a.Scan(ctx, func(p float64) {
		fmt.Fprintf(os.Stderr, "\rScanning... %5.1f%%", p*100)
	}); err != nil {
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("extract: scan: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	var progress extract.Progress
	done := make(chan struct{})
	go reportProgress(&progress, done)

	opts := extract.Options{ConvertTextures: *convertTextures, ConvertTables: *convertTables}
	err = extract.Run(ctx, a, *outDir, opts, &progress)
	close(done)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Extracted to %s\n", *outDir)
	return nil
}

// reportProgress polls Progress and prints a line until done fires; the
// driver only ever writes the scalar, this only ever reads it.
func reportProgress(p *extract.Progress, done <-chan struct{}) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			fmt.Fprintf(os.Stderr, "\rExtracting... 100.0%%")
			return
		case <-ticker.C:
			fmt.Fprintf(os.Stderr, "\rExtracting... %5.1f%%", p.Value()*100)
		}
	}
}

func runSkeleton(args []string) error {
	fs := flag.NewFlagSet("scsp", flag.ContinueOnError)
	out := fs.String("out", "", "output path (default: <input name>.json in the current directory)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("scsp: missing input file\nUsage: scape-extract scsp [-out path] <input.scsp>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("scsp: %w", err)
	}

	doc, err := skeleton.Decode(data)
	if err != nil {
		return fmt.Errorf("scsp: %w", err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("scsp: %w", err)
	}

	return writeOutput(*out, fs.Arg(0), ".json", body)
}

func runTable(args []string) error {
	fs := flag.NewFlagSet("table", flag.ContinueOnError)
	out := fs.String("out", "", "output path (default: <input name>.json in the current directory)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("table: missing input file\nUsage: scape-extract table [-out path] <input.db>")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("table: %w", err)
	}

	return writeOutput(*out, fs.Arg(0), ".json", []byte(table.Decode(data)))
}

func writeOutput(outPath, inputPath, defaultExt string, body []byte) error {
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outPath = base + defaultExt
	}
	if err := os.WriteFile(outPath, body, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", outPath)
	return nil
}
