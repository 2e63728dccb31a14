package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"mesh-seam-merge/internal/gltfio"
	"mesh-seam-merge/internal/skin"
	"mesh-seam-merge/internal/symmetry"
)

func main() {
	meshName := flag.String("mesh", "", "Mesh name (default: first skinned mesh)")
	tol := flag.Float64("tol", symmetry.DefaultTolerance, "Mirror matching tolerance")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-mesh name] [-tol t] file.glb ...")
		os.Exit(2)
	}

	status := 0
	for _, path := range flag.Args() {
		md, err := gltfio.Load(path, *meshName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			status = 1
			continue
		}
		m := md.Mesh
		fmt.Printf("%s: mesh %q\n", path, m.Name)
		fmt.Printf("  Vertices: %d, Triangles: %d, Submeshes: %d\n", m.VertexCount(), m.TriangleCount(), len(m.SubMeshes))
		fmt.Printf("  Skinned: %v, Bones: %d, Bind poses: %d\n", md.Skin >= 0, len(md.Rig.Bones), len(m.BindPoses))

		minX, minY, minZ := math.Inf(1), math.Inf(1), math.Inf(1)
		maxX, maxY, maxZ := math.Inf(-1), math.Inf(-1), math.Inf(-1)
		for _, v := range m.Vertices {
			minX, maxX = math.Min(minX, v[0]), math.Max(maxX, v[0])
			minY, maxY = math.Min(minY, v[1]), math.Max(maxY, v[1])
			minZ, maxZ = math.Min(minZ, v[2]), math.Max(maxZ, v[2])
		}
		if m.VertexCount() > 0 {
			fmt.Printf("  BBox: X[%.4f, %.4f] Y[%.4f, %.4f] Z[%.4f, %.4f]\n", minX, maxX, minY, maxY, minZ, maxZ)
		}

		for _, bs := range m.BlendShapes {
			fmt.Printf("  Blend shape %q: %d frames\n", bs.Name, len(bs.Frames))
		}

		space := skin.NewSpace(m, md.Rig)
		groups := space.Coincident(m.Vertices)
		fmt.Printf("  Coincident groups: %d\n", groups.Count())

		lookup := symmetry.BuildLookup(m.Vertices, *tol)
		pct := 0.0
		if n := m.VertexCount(); n > 0 {
			pct = 100 * float64(len(lookup)) / float64(n)
		}
		fmt.Printf("  Mirrored vertices: %d (%.1f%%) at tolerance %g\n", len(lookup), pct, *tol)
	}
	os.Exit(status)
}
