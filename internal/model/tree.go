package model

import (
	"context"
	"fmt"
)

// Node is one entry of a flattened binary decision tree. Leaves have a
// negative Feature; Value holds class counts or class probabilities.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

func (n Node) isLeaf() bool {
	return n.Feature < 0
}

type decisionTree struct {
	nodes []Node
}

func newDecisionTree(raw map[string]any, env envelope) (*decisionTree, error) {
	var spec struct {
		Nodes []Node `json:"nodes"`
	}
	if err := decode(raw, &spec); err != nil {
		return nil, err
	}

	return buildTree(spec.Nodes, env)
}

func buildTree(nodes []Node, env envelope) (*decisionTree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: tree has no nodes", ErrMalformed)
	}

	for i, n := range nodes {
		if n.isLeaf() {
			if err := checkLeaf(i, n.Value, len(env.Classes)); err != nil {
				return nil, err
			}
			continue
		}

		if n.Feature >= env.NumFeatures {
			return nil, fmt.Errorf("%w: node %d splits on feature %d of %d", ErrMalformed, i, n.Feature, env.NumFeatures)
		}
		// Children always follow their parent, so traversal cannot loop.
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("%w: node %d has invalid child %d", ErrMalformed, i, child)
			}
		}
	}

	return &decisionTree{nodes: nodes}, nil
}

func checkLeaf(idx int, value []float64, classes int) error {
	if len(value) != classes {
		return fmt.Errorf("%w: leaf %d has %d values for %d classes", ErrMalformed, idx, len(value), classes)
	}

	var sum float64
	for _, v := range value {
		if v < 0 {
			return fmt.Errorf("%w: leaf %d has negative value %v", ErrMalformed, idx, v)
		}
		sum += v
	}
	if sum <= 0 {
		return fmt.Errorf("%w: leaf %d has no samples", ErrMalformed, idx)
	}

	return nil
}

func (t *decisionTree) PredictProba(_ context.Context, features []float64) ([]float64, error) {
	return t.proba(features), nil
}

func (t *decisionTree) proba(features []float64) []float64 {
	n := t.nodes[0]
	for !n.isLeaf() {
		if features[n.Feature] <= n.Threshold {
			n = t.nodes[n.Left]
		} else {
			n = t.nodes[n.Right]
		}
	}

	return normalize(n.Value)
}

func normalize(value []float64) []float64 {
	var sum float64
	for _, v := range value {
		sum += v
	}

	out := make([]float64, len(value))
	for i, v := range value {
		out[i] = v / sum
	}

	return out
}

type randomForest struct {
	trees []*decisionTree
}

func newRandomForest(raw map[string]any, env envelope) (*randomForest, error) {
	var spec struct {
		Trees [][]Node `json:"trees"`
	}
	if err := decode(raw, &spec); err != nil {
		return nil, err
	}

	if len(spec.Trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrMalformed)
	}

	forest := &randomForest{trees: make([]*decisionTree, 0, len(spec.Trees))}
	for i, nodes := range spec.Trees {
		tree, err := buildTree(nodes, env)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		forest.trees = append(forest.trees, tree)
	}

	return forest, nil
}

// PredictProba averages the per-tree class probabilities.
func (f *randomForest) PredictProba(_ context.Context, features []float64) ([]float64, error) {
	var out []float64
	for _, tree := range f.trees {
		p := tree.proba(features)
		if out == nil {
			out = make([]float64, len(p))
		}
		for i, v := range p {
			out[i] += v
		}
	}

	for i := range out {
		out[i] /= float64(len(f.trees))
	}

	return out, nil
}
