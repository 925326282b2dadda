// uvwrap — UV unwrap orchestration CLI
//
// Subcommands:
//
//	unwrap   <input.obj> <output.obj>   unwrap a single mesh
//	batch    <input_dir> <output_dir>   unwrap every OBJ in a directory
//	optimize <input.obj>                grid-search unwrap parameters
//	cache    clear                      drop all cached unwrap results
//
// The unwrap solver backend is selected at build time; build with
// -tags uvnative to link the native LSCM library.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/astitvaaryan/uvwrap/internal/batch"
	"github.com/astitvaaryan/uvwrap/internal/cache"
	"github.com/astitvaaryan/uvwrap/internal/export"
	"github.com/astitvaaryan/uvwrap/internal/model"
	"github.com/astitvaaryan/uvwrap/internal/search"
	"github.com/astitvaaryan/uvwrap/internal/solver"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 1
	}

	var err error
	switch args[0] {
	case "unwrap":
		err = cmdUnwrap(args[1:])
	case "batch":
		err = cmdBatch(args[1:])
	case "optimize":
		err = cmdOptimize(args[1:])
	case "cache":
		err = cmdCache(args[1:])
	case "-h", "--help", "help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		return 1
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: uvwrap <command> [arguments]

commands:
  unwrap   <input.obj> <output.obj> [--angle N] [--min-faces N] [--margin N] [--no-pack]
  batch    <input_dir> <output_dir> [--threads N] [--angle N] [--min-faces N] [--report F] [--xlsx F]
  optimize <input.obj> [--metric stretch|coverage]
  cache    clear`)
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func cmdUnwrap(args []string) error {
	fs := flag.NewFlagSet("unwrap", flag.ExitOnError)
	angle := fs.Float64("angle", 30.0, "seam angle threshold in degrees")
	minFaces := fs.Int("min-faces", 5, "minimum island face count")
	margin := fs.Float64("margin", 0.02, "island packing margin")
	noPack := fs.Bool("no-pack", false, "disable island packing")
	verbose := fs.Bool("verbose", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("unwrap needs <input.obj> <output.obj>")
	}
	input, output := fs.Arg(0), fs.Arg(1)

	logger := newLogger(*verbose)
	defer logger.Sync()

	engine, err := solver.Default()
	if err != nil {
		return err
	}

	params := model.UnwrapParameters{
		AngleThreshold: *angle,
		MinIslandFaces: *minFaces,
		PackIslands:    !*noPack,
		IslandMargin:   *margin,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	fmt.Printf("Loading %s...\n", input)
	mesh, err := engine.Load(input)
	if err != nil {
		return err
	}
	fmt.Printf("  %d vertices, %d triangles\n", mesh.NumVertices(), mesh.NumTriangles())

	fmt.Println("Unwrapping...")
	uvs, metrics, err := engine.Unwrap(mesh, params)
	if err != nil {
		return err
	}

	fmt.Printf("Saving to %s...\n", output)
	if err := engine.Save(mesh, uvs, output); err != nil {
		return err
	}

	fmt.Println("\nResults:")
	fmt.Printf("  Islands: %d\n", metrics.NumIslands)
	fmt.Printf("  Avg stretch: %.2f\n", metrics.AvgStretch)
	fmt.Printf("  Max stretch: %.2f\n", metrics.MaxStretch)
	fmt.Printf("  Coverage: %.1f%%\n", metrics.Coverage*100)
	return nil
}

func cmdBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	threads := fs.Int("threads", 0, "worker count (0 = all CPUs)")
	angle := fs.Float64("angle", 30.0, "seam angle threshold in degrees")
	minFaces := fs.Int("min-faces", 5, "minimum island face count")
	reportPDF := fs.String("report", "", "write a PDF report to this path")
	reportXLSX := fs.String("xlsx", "", "write an XLSX report to this path")
	cacheDir := fs.String("cache-dir", "", "cache directory (default: user cache dir)")
	verbose := fs.Bool("verbose", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("batch needs <input_dir> <output_dir>")
	}
	inputDir, outputDir := fs.Arg(0), fs.Arg(1)

	logger := newLogger(*verbose)
	defer logger.Sync()

	engine, err := solver.Default()
	if err != nil {
		return err
	}
	store, err := cache.Open(*cacheDir, logger)
	if err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(inputDir, "*.obj"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	fmt.Printf("Found %d OBJ files in %s\n", len(files), inputDir)

	params := model.UnwrapParameters{
		AngleThreshold: *angle,
		MinIslandFaces: *minFaces,
		PackIslands:    true,
		IslandMargin:   0.02,
	}

	proc := batch.New(engine, store, batch.Options{Workers: *threads, Logger: logger})
	report, err := proc.ProcessBatch(context.Background(), files, outputDir, params,
		func(completed, total int, name string) {
			pct := 0
			if total > 0 {
				pct = 100 * completed / total
			}
			fmt.Printf("\r[%d/%d] %d%% - %s", completed, total, pct, name)
		})
	if err != nil {
		return err
	}

	s := report.Summary
	fmt.Printf("\n\nBatch complete:\n")
	fmt.Printf("  Total: %d\n", s.Total)
	fmt.Printf("  Success: %d\n", s.Success)
	fmt.Printf("  Failed: %d\n", s.Failed)
	fmt.Printf("  Total time: %.1fs\n", s.TotalTime.Seconds())
	fmt.Printf("  Avg time: %.2fs\n", s.AvgTime.Seconds())
	fmt.Printf("  Avg stretch: %.2f\n", s.AvgStretch)
	fmt.Printf("  Avg coverage: %.1f%%\n", s.AvgCoverage*100)

	for _, r := range report.Results {
		if r.Failed() {
			fmt.Printf("  FAILED %s: %s\n", r.Job.InputPath, r.Error)
		}
	}

	if *reportPDF != "" {
		if err := export.WritePDF(*reportPDF, report); err != nil {
			return fmt.Errorf("write PDF report: %w", err)
		}
		fmt.Printf("Report written to %s\n", *reportPDF)
	}
	if *reportXLSX != "" {
		if err := export.WriteXLSX(*reportXLSX, report); err != nil {
			return fmt.Errorf("write XLSX report: %w", err)
		}
		fmt.Printf("Workbook written to %s\n", *reportXLSX)
	}
	return nil
}

func cmdOptimize(args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	metricName := fs.String("metric", "stretch", "metric to optimize: stretch or coverage")
	verbose := fs.Bool("verbose", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("optimize needs <input.obj>")
	}
	input := fs.Arg(0)

	metric, err := search.ParseMetric(*metricName)
	if err != nil {
		return err
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	engine, err := solver.Default()
	if err != nil {
		return err
	}

	fmt.Printf("Loading %s...\n", input)
	mesh, err := engine.Load(input)
	if err != nil {
		return err
	}

	fmt.Println("Optimizing parameters...")
	opt := search.New(engine, logger)
	ranges := search.Ranges{
		AngleThreshold: []float64{20.0, 30.0, 40.0},
		MinIslandFaces: []int{3, 5, 10},
	}
	result, err := opt.Optimize(mesh, ranges, metric)
	if err != nil {
		return err
	}

	fmt.Printf("\nBest parameters (optimize %s):\n", metric)
	fmt.Printf("  angle_threshold = %.1f\n", result.BestParams.AngleThreshold)
	fmt.Printf("  min_island_faces = %d\n", result.BestParams.MinIslandFaces)
	fmt.Printf("  %s = %.4f\n", metric, result.BestValue)
	return nil
}

func cmdCache(args []string) error {
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	cacheDir := fs.String("cache-dir", "", "cache directory (default: user cache dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || fs.Arg(0) != "clear" {
		return fmt.Errorf("cache supports exactly one action: clear")
	}

	store, err := cache.Open(*cacheDir, nil)
	if err != nil {
		return err
	}
	keys, err := store.Keys()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Printf("Removed %d cache entries from %s\n", len(keys), store.Dir())
	return nil
}
