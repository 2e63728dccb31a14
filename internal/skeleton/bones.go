package skeleton

import (
	"mesh-seam-merge/internal/mathutil"
)

// Node is one transform in a scene hierarchy. Parent is -1 for roots.
// When Matrix is set it replaces the TRS components.
type Node struct {
	Name        string
	Parent      int
	Translation mathutil.Vec3
	Rotation    mathutil.Quat
	Scale       mathutil.Vec3
	Matrix      *mathutil.Mat4
}

// Local returns the node's transform relative to its parent.
func (n Node) Local() mathutil.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	return mathutil.TRS(n.Translation, n.Rotation, n.Scale)
}

// BuildWorldMatrices computes the world transform of every node by chaining
// local transforms up to the root. Parents may appear after their children.
// Nodes with an invalid parent or on a parent cycle are treated as roots.
func BuildWorldMatrices(nodes []Node) []mathutil.Mat4 {
	worlds := make([]mathutil.Mat4, len(nodes))
	state := make([]uint8, len(nodes)) // 0 pending, 1 visiting, 2 done

	var resolve func(i int) mathutil.Mat4
	resolve = func(i int) mathutil.Mat4 {
		switch state[i] {
		case 2:
			return worlds[i]
		case 1:
			return mathutil.Mat4Identity()
		}
		state[i] = 1
		local := nodes[i].Local()

		// Chain with parent
		p := nodes[i].Parent
		if p >= 0 && p < len(nodes) && p != i && state[p] != 1 {
			worlds[i] = mathutil.Mat4Mul(resolve(p), local)
		} else {
			worlds[i] = local
		}
		state[i] = 2
		return worlds[i]
	}

	for i := range nodes {
		resolve(i)
	}
	return worlds
}

// SelectJoints picks the world matrices of the given joint nodes in order.
// Out-of-range joints yield a zero matrix, which marks a missing bone.
func SelectJoints(worlds []mathutil.Mat4, joints []int) []mathutil.Mat4 {
	out := make([]mathutil.Mat4, len(joints))
	for i, j := range joints {
		if j >= 0 && j < len(worlds) {
			out[i] = worlds[j]
		}
	}
	return out
}
