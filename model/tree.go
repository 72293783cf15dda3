package model

import (
	"errors"
	"sort"
)

// treeNode 是扁平化存储的树节点；Left < 0 表示叶子。
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// Tree 是 CART 回归树，节点 0 为根。
type Tree struct {
	Nodes []treeNode `json:"nodes"`
}

var errCorruptTree = errors.New("model: corrupt regression tree")

// Predict 沿树走到叶子；节点引用越界视为产物损坏。
func (t *Tree) Predict(x []float64) (float64, error) {
	if t == nil || len(t.Nodes) == 0 {
		return 0, errCorruptTree
	}
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value, nil
		}
		if n.Feature < 0 || n.Feature >= len(x) {
			return 0, errCorruptTree
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
		if i < 0 || i >= len(t.Nodes) {
			return 0, errCorruptTree
		}
	}
	return 0, errCorruptTree
}

type treeBuilder struct {
	x          [][]float64
	y          []float64
	maxDepth   int
	minLeaf    int
	nodes      []treeNode
	importance []float64
}

func newTreeBuilder(x [][]float64, y []float64, maxDepth, minLeaf int) *treeBuilder {
	dim := 0
	if len(x) > 0 {
		dim = len(x[0])
	}
	if minLeaf < 1 {
		minLeaf = 1
	}
	return &treeBuilder{
		x:          x,
		y:          y,
		maxDepth:   maxDepth,
		minLeaf:    minLeaf,
		importance: make([]float64, dim),
	}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	id := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Left: -1, Right: -1, Value: sum / float64(len(idx))})

	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf {
		return id
	}
	feat, thr, gain, ok := b.bestSplit(idx, sum)
	if !ok || gain <= 1e-12 {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.importance[feat] += gain

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id] = treeNode{Feature: feat, Threshold: thr, Left: l, Right: r, Value: b.nodes[id].Value}
	return id
}

// bestSplit 在所有特征上寻找平方误差下降最大的切分点。
func (b *treeBuilder) bestSplit(idx []int, total float64) (feat int, thr, gain float64, ok bool) {
	n := float64(len(idx))
	base := total * total / n
	sorted := make([]int, len(idx))

	for f := range b.importance {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		leftSum := 0.0
		for k := 1; k < len(sorted); k++ {
			leftSum += b.y[sorted[k-1]]
			lo, hi := b.x[sorted[k-1]][f], b.x[sorted[k]][f]
			if lo == hi || k < b.minLeaf || len(sorted)-k < b.minLeaf {
				continue
			}
			nl, nr := float64(k), n-float64(k)
			rightSum := total - leftSum
			g := leftSum*leftSum/nl + rightSum*rightSum/nr - base
			if !ok || g > gain {
				feat, thr, gain, ok = f, (lo+hi)/2, g, true
			}
		}
	}
	return feat, thr, gain, ok
}
