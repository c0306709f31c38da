// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package algorithms

import (
	"context"
	"fmt"
	"sort"
)

// LeafFeature marks a TreeNode as a leaf.
const LeafFeature = -1

// TreeConfig configures FitTree.
type TreeConfig struct {
	// MaxDepth is the maximum depth of any leaf; the root has depth 0.
	MaxDepth int

	// MinSamplesSplit is the minimum number of samples a node needs before
	// a split is attempted.
	MinSamplesSplit int
}

// DefaultTreeConfig returns depth 8 and 30 samples per split.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{MaxDepth: 8, MinSamplesSplit: 30}
}

// TreeNode is one node of the arena. Internal nodes route x[Feature] <=
// Threshold to Left and everything else to Right. Leaves have Feature ==
// LeafFeature. Distribution and Class are set on every node so a truncated
// walk still has an answer.
type TreeNode struct {
	Feature      int
	Threshold    float64
	Left         int
	Right        int
	Class        int
	Distribution []float64
	Samples      int
	Impurity     float64
}

// IsLeaf reports whether the node is terminal.
func (n *TreeNode) IsLeaf() bool { return n.Feature == LeafFeature }

// Tree is a fitted CART classifier stored as a flat arena. Nodes[0] is the root.
type Tree struct {
	Nodes    []TreeNode
	Features int
	Classes  int
}

// treeBuilder carries the training set through the recursive build.
type treeBuilder struct {
	ctx     context.Context
	rows    [][]float64
	labels  []int
	classes int
	cfg     TreeConfig
	nodes   []TreeNode
}

// FitTree grows a classification tree on rows with class indices labels in
// [0, numClasses). Splits minimize the weighted Gini impurity of the two
// children over thresholds at midpoints between consecutive distinct values.
func FitTree(ctx context.Context, rows [][]float64, labels []int, numClasses int, cfg TreeConfig) (*Tree, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit tree: %w: no rows", ErrInsufficientData)
	}
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("fit tree: %d rows but %d labels", len(rows), len(labels))
	}
	if numClasses < 1 {
		return nil, fmt.Errorf("fit tree: numClasses must be positive, got %d", numClasses)
	}
	dim := len(rows[0])
	if err := checkDim(rows, dim); err != nil {
		return nil, fmt.Errorf("fit tree: %w", err)
	}
	for i, l := range labels {
		if l < 0 || l >= numClasses {
			return nil, fmt.Errorf("fit tree: label %d at row %d outside [0,%d)", l, i, numClasses)
		}
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}

	b := &treeBuilder{ctx: ctx, rows: rows, labels: labels, classes: numClasses, cfg: cfg}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	if _, err := b.build(idx, 0); err != nil {
		return nil, err
	}
	return &Tree{Nodes: b.nodes, Features: dim, Classes: numClasses}, nil
}

// build appends the subtree for samples idx and returns its node id.
func (b *treeBuilder) build(idx []int, depth int) (int, error) {
	if ContextCancelled(b.ctx) {
		return 0, b.ctx.Err()
	}

	counts := make([]int, b.classes)
	for _, i := range idx {
		counts[b.labels[i]]++
	}
	impurity := gini(counts, len(idx))

	id := len(b.nodes)
	b.nodes = append(b.nodes, leafNode(counts, len(idx), impurity))

	if depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit || impurity == 0 {
		return id, nil
	}

	feature, threshold, score, ok := b.bestSplit(idx)
	if !ok || score >= impurity {
		return id, nil
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	leftID, err := b.build(left, depth+1)
	if err != nil {
		return 0, err
	}
	rightID, err := b.build(right, depth+1)
	if err != nil {
		return 0, err
	}

	n := &b.nodes[id]
	n.Feature = feature
	n.Threshold = threshold
	n.Left = leftID
	n.Right = rightID
	return id, nil
}

// bestSplit scans every feature in order and every midpoint threshold in
// ascending order, keeping the first split with the lowest weighted Gini.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold, score float64, ok bool) {
	n := len(idx)
	sorted := make([]int, n)
	leftCounts := make([]int, b.classes)
	rightCounts := make([]int, b.classes)
	score = 2 // above any Gini value

	for f := 0; f < len(b.rows[idx[0]]); f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.rows[sorted[i]][f] < b.rows[sorted[j]][f]
		})

		for c := range leftCounts {
			leftCounts[c] = 0
			rightCounts[c] = 0
		}
		for _, i := range sorted {
			rightCounts[b.labels[i]]++
		}

		for pos := 0; pos < n-1; pos++ {
			i := sorted[pos]
			leftCounts[b.labels[i]]++
			rightCounts[b.labels[i]]--

			lo := b.rows[i][f]
			hi := b.rows[sorted[pos+1]][f]
			if lo == hi {
				continue
			}

			nl := pos + 1
			nr := n - nl
			s := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(n)
			if s < score {
				thr := lo + (hi-lo)/2
				if thr >= hi {
					thr = lo
				}
				feature, threshold, score, ok = f, thr, s, true
			}
		}
	}
	return feature, threshold, score, ok
}

// leafNode builds a terminal node holding the class-frequency distribution.
// The majority class breaks ties by lowest class index.
func leafNode(counts []int, n int, impurity float64) TreeNode {
	dist := make([]float64, len(counts))
	class := 0
	for c, cnt := range counts {
		if n > 0 {
			dist[c] = float64(cnt) / float64(n)
		}
		if cnt > counts[class] {
			class = c
		}
	}
	return TreeNode{
		Feature:      LeafFeature,
		Left:         -1,
		Right:        -1,
		Class:        class,
		Distribution: dist,
		Samples:      n,
		Impurity:     impurity,
	}
}

// gini returns 1 - sum(p_c^2) for the given class counts.
func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

// NumClasses returns the number of classes.
func (t *Tree) NumClasses() int { return t.Classes }

// NumFeatures returns the expected input dimension.
func (t *Tree) NumFeatures() int { return t.Features }

// Predict walks from the root to a leaf and returns the leaf's majority class
// and a copy of its class distribution.
func (t *Tree) Predict(x []float64) (int, []float64, error) {
	if len(t.Nodes) == 0 {
		return 0, nil, fmt.Errorf("%w: tree has no nodes", ErrInsufficientData)
	}
	if len(x) != t.Features {
		return 0, nil, fmt.Errorf("%w: tree trained on %d features, got %d", ErrDimensionMismatch, t.Features, len(x))
	}

	id := 0
	// a well-formed tree reaches a leaf in at most len(Nodes) steps
	for steps := 0; steps < len(t.Nodes); steps++ {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			break
		}
		if x[n.Feature] <= n.Threshold {
			id = n.Left
		} else {
			id = n.Right
		}
		if id < 0 || id >= len(t.Nodes) {
			return 0, nil, fmt.Errorf("corrupt tree: node %d points outside the arena", id)
		}
	}

	leaf := &t.Nodes[id]
	dist := make([]float64, len(leaf.Distribution))
	copy(dist, leaf.Distribution)
	return leaf.Class, dist, nil
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(id, d int) int
	walk = func(id, d int) int {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			return d
		}
		return max(walk(n.Left, d+1), walk(n.Right, d+1))
	}
	return walk(0, 0)
}

// Leaves returns the number of terminal nodes.
func (t *Tree) Leaves() int {
	count := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			count++
		}
	}
	return count
}
