package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"mesh-seam-merge/internal/fileformat"
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/seam"
	"mesh-seam-merge/internal/session"
	"mesh-seam-merge/internal/symmetry"
)

// Job is one face/body merge.
type Job struct {
	Name     string `json:"name" toml:"name" yaml:"name"`
	Face     string `json:"face" toml:"face" yaml:"face"`
	FaceMesh string `json:"face_mesh,omitempty" toml:"face_mesh,omitempty" yaml:"face_mesh,omitempty"`
	Body     string `json:"body" toml:"body" yaml:"body"`
	BodyMesh string `json:"body_mesh,omitempty" toml:"body_mesh,omitempty" yaml:"body_mesh,omitempty"`
	Ops      string `json:"ops" toml:"ops" yaml:"ops"`
}

// Config holds all configurable paths and merge settings.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir" toml:"base_dir" yaml:"base_dir"`
	OutputDir string `json:"output_dir" toml:"output_dir" yaml:"output_dir"`
	Jobs      []Job  `json:"jobs" toml:"jobs" yaml:"jobs"`

	// Merge settings
	Symmetry          *bool    `json:"symmetry,omitempty" toml:"symmetry,omitempty" yaml:"symmetry,omitempty"`
	SymmetryTolerance float64  `json:"symmetry_tolerance" toml:"symmetry_tolerance" yaml:"symmetry_tolerance"`
	SmoothDepth       *int     `json:"smooth_depth,omitempty" toml:"smooth_depth,omitempty" yaml:"smooth_depth,omitempty"`
	SmoothStrength    *float64 `json:"smooth_strength,omitempty" toml:"smooth_strength,omitempty" yaml:"smooth_strength,omitempty"`

	// Preview settings
	PreviewSize   int    `json:"preview_size" toml:"preview_size" yaml:"preview_size"`
	Supersample   int    `json:"supersample" toml:"supersample" yaml:"supersample"`
	PreviewFormat string `json:"preview_format" toml:"preview_format" yaml:"preview_format"`
	NoPreview     bool   `json:"no_preview" toml:"no_preview" yaml:"no_preview"`
	Workers       int    `json:"workers" toml:"workers" yaml:"workers"`
}

// Load reads a config file in any format fileformat understands.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	var cfg Config
	if err := fileformat.ReadFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Resolve applies CLI overrides and fills in defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Format != "" {
		c.PreviewFormat = flags.Format
	}
	if flags.NoPreview {
		c.NoPreview = true
	}
	if flags.NoSymmetry {
		off := false
		c.Symmetry = &off
	}
	if flags.Face != "" || flags.Body != "" {
		c.Jobs = []Job{{
			Name:     flags.Name,
			Face:     flags.Face,
			FaceMesh: flags.FaceMesh,
			Body:     flags.Body,
			BodyMesh: flags.BodyMesh,
			Ops:      flags.Ops,
		}}
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.BaseDir, "merged")
	} else if !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(c.BaseDir, c.OutputDir)
	}

	// Resolve relative job paths against base dir
	for i := range c.Jobs {
		j := &c.Jobs[i]
		j.Face = c.abs(j.Face)
		j.Body = c.abs(j.Body)
		j.Ops = c.abs(j.Ops)
		if j.Name == "" {
			j.Name = jobName(*j, i)
		}
	}

	// Defaults for merge settings
	if c.Symmetry == nil {
		on := true
		c.Symmetry = &on
	}
	if c.SymmetryTolerance <= 0 {
		c.SymmetryTolerance = symmetry.DefaultTolerance
	}
	if c.SmoothDepth == nil {
		d := session.DefaultSettings().SmoothDepth
		c.SmoothDepth = &d
	}
	*c.SmoothDepth = max(0, min(*c.SmoothDepth, seam.MaxDepth))
	if c.SmoothStrength == nil {
		s := session.DefaultSettings().SmoothStrength
		c.SmoothStrength = &s
	}
	*c.SmoothStrength = mathutil.Clamp01(*c.SmoothStrength)

	// Defaults for preview settings
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	c.PreviewFormat = strings.ToLower(strings.TrimPrefix(c.PreviewFormat, "."))
	if c.PreviewFormat == "" {
		c.PreviewFormat = "webp"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Settings returns the session settings described by a resolved config.
func (c *Config) Settings() session.Settings {
	st := session.DefaultSettings()
	if c.Symmetry != nil {
		st.Symmetry = *c.Symmetry
	}
	if c.SymmetryTolerance > 0 {
		st.SymmetryTolerance = c.SymmetryTolerance
	}
	if c.SmoothDepth != nil {
		st.SmoothDepth = *c.SmoothDepth
	}
	if c.SmoothStrength != nil {
		st.SmoothStrength = *c.SmoothStrength
	}
	return st.Clamped()
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir    string
	OutputDir  string
	Workers    int
	Format     string
	NoPreview  bool
	NoSymmetry bool

	// A face or body path replaces the config's job list with one job.
	Name     string
	Face     string
	FaceMesh string
	Body     string
	BodyMesh string
	Ops      string
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func jobName(j Job, i int) string {
	for _, p := range []string{j.Ops, j.Face} {
		if p != "" {
			return strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		}
	}
	return fmt.Sprintf("job%d", i+1)
}
