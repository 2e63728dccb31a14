package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestEntry represents one job in the output manifest.
type ManifestEntry struct {
	Name         string `json:"name"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	Face         string `json:"face,omitempty"`
	Body         string `json:"body,omitempty"`
	Ops          string `json:"ops,omitempty"`
	Preview      string `json:"preview,omitempty"`
	Pairs        int    `json:"pairs"`
	Splits       int    `json:"splits"`
	FaceVertices int    `json:"face_vertices"`
	BodyVertices int    `json:"body_vertices"`
}

// WriteManifest writes manifest.json describing every result, creating its
// directory if needed. Paths use forward slashes.
func WriteManifest(path string, results []Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Name:         r.Name,
			Success:      r.Success,
			Error:        r.Error,
			Face:         filepath.ToSlash(r.Face),
			Body:         filepath.ToSlash(r.Body),
			Ops:          filepath.ToSlash(r.Ops),
			Preview:      filepath.ToSlash(r.Preview),
			Pairs:        r.Pairs,
			Splits:       r.Splits,
			FaceVertices: r.FaceVertices,
			BodyVertices: r.BodyVertices,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: manifest: %w", err)
	}
	return nil
}
