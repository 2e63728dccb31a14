package session

import (
	"mesh-seam-merge/internal/mesh"
	"mesh-seam-merge/internal/skin"
)

// Workspace gives the session access to one side's source mesh, holds the
// working mesh it derives, and evaluates meshes under the current pose.
type Workspace interface {
	// Name identifies the side in logs.
	Name() string
	// Source returns the unmodified input mesh. It must not be mutated.
	Source() *mesh.Mesh
	// Rig returns the posed skeleton the mesh is bound to.
	Rig() skin.Rig
	// SetWorking stores the latest rebuilt, aligned mesh.
	SetWorking(m *mesh.Mesh)
	// Working returns the mesh last passed to SetWorking.
	Working() *mesh.Mesh
	// Bake returns m evaluated under the current pose, in renderer space.
	Bake(m *mesh.Mesh) *mesh.Mesh
}

// Baker evaluates a mesh under a rig and blend-shape weights.
type Baker interface {
	Bake(m *mesh.Mesh, rig skin.Rig, weights map[string]float64) *mesh.Mesh
}

// BakerFunc adapts a function to Baker.
type BakerFunc func(m *mesh.Mesh, rig skin.Rig, weights map[string]float64) *mesh.Mesh

func (f BakerFunc) Bake(m *mesh.Mesh, rig skin.Rig, weights map[string]float64) *mesh.Mesh {
	return f(m, rig, weights)
}

// LinearBlend bakes with linear blend skinning.
var LinearBlend Baker = BakerFunc(skin.Bake)

// MeshWorkspace is an in-memory Workspace.
type MeshWorkspace struct {
	source  *mesh.Mesh
	rig     skin.Rig
	weights map[string]float64
	baker   Baker
	working *mesh.Mesh
}

// NewMeshWorkspace wraps source and rig. A nil baker selects LinearBlend.
func NewMeshWorkspace(source *mesh.Mesh, rig skin.Rig, baker Baker) *MeshWorkspace {
	if baker == nil {
		baker = LinearBlend
	}
	return &MeshWorkspace{source: source, rig: rig, baker: baker}
}

// SetBlendWeights sets the blend-shape weights used when baking.
func (w *MeshWorkspace) SetBlendWeights(weights map[string]float64) {
	w.weights = weights
}

func (w *MeshWorkspace) Name() string {
	if w.source == nil {
		return ""
	}
	return w.source.Name
}

func (w *MeshWorkspace) Source() *mesh.Mesh      { return w.source }
func (w *MeshWorkspace) Rig() skin.Rig           { return w.rig }
func (w *MeshWorkspace) SetWorking(m *mesh.Mesh) { w.working = m }
func (w *MeshWorkspace) Working() *mesh.Mesh     { return w.working }

func (w *MeshWorkspace) Bake(m *mesh.Mesh) *mesh.Mesh {
	return w.baker.Bake(m, w.rig, w.weights)
}
