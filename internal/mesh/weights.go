package mesh

import "sort"

// MaxInfluences is the number of bone influences stored per vertex.
const MaxInfluences = 4

// BoneWeight holds up to four bone influences. Unused slots have zero weight.
// Weights need not sum to one.
type BoneWeight struct {
	Bones   [MaxInfluences]int
	Weights [MaxInfluences]float64
}

// Sum returns the total influence weight.
func (w BoneWeight) Sum() float64 {
	var s float64
	for _, v := range w.Weights {
		s += v
	}
	return s
}

type influence struct {
	bone   int
	weight float64
}

// BlendBoneWeights merges the influences of a and b: weights of the same bone
// are summed, the four heaviest bones are kept and renormalized to sum to 1.
// Negative bone indices and non-positive weights are ignored. If nothing
// remains, the zero BoneWeight is returned.
func BlendBoneWeights(a, b BoneWeight) BoneWeight {
	var acc []influence
	add := func(bone int, weight float64) {
		if bone < 0 || weight <= 0 {
			return
		}
		for i := range acc {
			if acc[i].bone == bone {
				acc[i].weight += weight
				return
			}
		}
		acc = append(acc, influence{bone, weight})
	}
	for i := 0; i < MaxInfluences; i++ {
		add(a.Bones[i], a.Weights[i])
	}
	for i := 0; i < MaxInfluences; i++ {
		add(b.Bones[i], b.Weights[i])
	}

	// Heaviest first; ties keep first-seen order.
	sort.SliceStable(acc, func(i, j int) bool { return acc[i].weight > acc[j].weight })
	if len(acc) > MaxInfluences {
		acc = acc[:MaxInfluences]
	}

	var total float64
	for _, in := range acc {
		total += in.weight
	}
	var out BoneWeight
	if total <= 0 {
		return out
	}
	for i, in := range acc {
		out.Bones[i] = in.bone
		out.Weights[i] = in.weight / total
	}
	return out
}
