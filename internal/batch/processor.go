package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"mesh-seam-merge/internal/config"
	"mesh-seam-merge/internal/gltfio"
	"mesh-seam-merge/internal/oplog"
	"mesh-seam-merge/internal/preview"
	"mesh-seam-merge/internal/session"
)

// Config holds all shared settings for a batch run.
type Config struct {
	OutputDir     string
	Settings      session.Settings
	Preview       preview.Options
	PreviewFormat string
	NoPreview     bool
	Workers       int
	Logger        *slog.Logger
	// Progress is the interval between progress lines; zero disables them.
	Progress time.Duration
}

// Result holds the outcome of one merge job.
type Result struct {
	Name    string
	Success bool
	Error   string

	Face    string // written files, relative to the output dir
	Body    string
	Ops     string
	Preview string

	Pairs        int
	Splits       int
	FaceVertices int
	BodyVertices int
}

// Run processes all jobs using a worker pool.
func Run(cfg Config, jobs []config.Job) []Result {
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						elapsed := time.Since(start).Seconds()
						rate := float64(p) / elapsed
						fmt.Printf("  [%d/%d] %.1f jobs/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	// Worker pool
	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(cfg Config, job config.Job) Result {
	res := Result{Name: job.Name}
	fail := func(err error) Result {
		res.Error = err.Error()
		cfg.Logger.Warn("merge failed", "job", job.Name, "err", err)
		return res
	}

	face, err := gltfio.Load(job.Face, job.FaceMesh)
	if err != nil {
		return fail(err)
	}
	body, err := gltfio.Load(job.Body, job.BodyMesh)
	if err != nil {
		return fail(err)
	}

	ops := oplog.New()
	if job.Ops != "" {
		if ops, err = oplog.Load(job.Ops); err != nil {
			return fail(err)
		}
	}

	s := session.New(
		session.NewMeshWorkspace(face.Mesh, face.Rig, nil),
		session.NewMeshWorkspace(body.Mesh, body.Rig, nil),
		session.WithLog(ops),
		session.WithSettings(cfg.Settings),
		session.WithLogger(cfg.Logger.With("job", job.Name)),
	)
	if !s.Update() {
		return fail(fmt.Errorf("batch: %s: nothing to merge", job.Name))
	}
	res.Pairs = len(ops.Pairs())
	res.Splits = len(ops.Splits(oplog.FaceSplit)) + len(ops.Splits(oplog.BodySplit))

	outDir := filepath.Join(cfg.OutputDir, job.Name)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fail(err)
	}

	for _, out := range []struct {
		model *gltfio.Model
		side  session.Side
		name  string
		rel   *string
		count *int
	}{
		{face, session.Face, "face.glb", &res.Face, &res.FaceVertices},
		{body, session.Body, "body.glb", &res.Body, &res.BodyVertices},
	} {
		m := s.Final(out.side)
		if err := out.model.Replace(m); err != nil {
			return fail(err)
		}
		if err := out.model.Save(filepath.Join(outDir, out.name)); err != nil {
			return fail(err)
		}
		*out.rel = filepath.Join(job.Name, out.name)
		*out.count = m.VertexCount()
	}

	if err := ops.Save(filepath.Join(outDir, "ops.json")); err != nil {
		return fail(err)
	}
	res.Ops = filepath.Join(job.Name, "ops.json")

	if !cfg.NoPreview {
		format := cfg.PreviewFormat
		if format == "" {
			format = "webp"
		}
		layers, markers := preview.SessionScene(s)
		img := preview.Render(layers, markers, cfg.Preview)
		name := "seam." + format
		if err := preview.WriteFile(filepath.Join(outDir, name), img); err != nil {
			return fail(err)
		}
		res.Preview = filepath.Join(job.Name, name)
	}

	res.Success = true
	cfg.Logger.Debug("merged", "job", job.Name, "pairs", res.Pairs, "splits", res.Splits)
	return res
}
