package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mesh-seam-merge/internal/batch"
	"mesh-seam-merge/internal/config"
	"mesh-seam-merge/internal/preview"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a config file (.json, .toml or .yaml)")
	baseDir := flag.String("base", "", "Base directory for relative paths (default: working dir)")
	outputDir := flag.String("out", "", "Output directory (default: <base>/merged)")
	face := flag.String("face", "", "Face glTF/GLB file; with -body replaces the config's jobs")
	faceMesh := flag.String("face-mesh", "", "Face mesh name (default: first skinned mesh)")
	body := flag.String("body", "", "Body glTF/GLB file")
	bodyMesh := flag.String("body-mesh", "", "Body mesh name (default: first skinned mesh)")
	ops := flag.String("ops", "", "Operation log to replay (.json, .toml or .yaml)")
	name := flag.String("name", "", "Job name for -face/-body (default: derived from file names)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	format := flag.String("format", "", "Preview format: webp or tga (default: webp)")
	noPreview := flag.Bool("no-preview", false, "Skip preview images")
	noSymmetry := flag.Bool("no-symmetry", false, "Disable mirrored splits and pairs")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		BaseDir:    *baseDir,
		OutputDir:  *outputDir,
		Workers:    *workers,
		Format:     *format,
		NoPreview:  *noPreview,
		NoSymmetry: *noSymmetry,
		Name:       *name,
		Face:       *face,
		FaceMesh:   *faceMesh,
		Body:       *body,
		BodyMesh:   *bodyMesh,
		Ops:        *ops,
	})

	if len(cfg.Jobs) == 0 {
		fmt.Println("No jobs to merge. Use -face/-body or a config file with jobs.")
		os.Exit(0)
	}

	settings := cfg.Settings()
	fmt.Println("Seam merge: face + body skinned meshes")
	fmt.Printf("Jobs: %d, Workers: %d\n", len(cfg.Jobs), cfg.Workers)
	fmt.Printf("Symmetry: %v (tolerance %g), Smoothing: depth %d strength %.2f\n",
		settings.Symmetry, settings.SymmetryTolerance, settings.SmoothDepth, settings.SmoothStrength)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	opts := preview.DefaultOptions()
	opts.Size = cfg.PreviewSize
	opts.Supersample = cfg.Supersample

	// Run batch
	batchCfg := batch.Config{
		OutputDir:     cfg.OutputDir,
		Settings:      settings,
		Preview:       opts,
		PreviewFormat: cfg.PreviewFormat,
		NoPreview:     cfg.NoPreview,
		Workers:       cfg.Workers,
		Logger:        logger,
		Progress:      2 * time.Second,
	}

	results := batch.Run(batchCfg, cfg.Jobs)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
			fmt.Printf("  %s: %d pairs, %d splits, face %d verts, body %d verts\n",
				r.Name, r.Pairs, r.Splits, r.FaceVertices, r.BodyVertices)
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Merged: %d/%d\n", success, len(results))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
