package model

import (
	"errors"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestParams 是回归树集成的超参数。
type ForestParams struct {
	Trees    int    `yaml:"trees" json:"trees"`
	MaxDepth int    `yaml:"max_depth" json:"max_depth"`
	MinLeaf  int    `yaml:"min_leaf" json:"min_leaf"`
	Seed     uint64 `yaml:"seed" json:"seed"`
}

// DefaultForestParams 返回默认超参数：30 棵树、深度 8、叶子最少 5 个样本、种子 42。
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 30, MaxDepth: 8, MinLeaf: 5, Seed: 42}
}

func (p ForestParams) withDefaults() ForestParams {
	d := DefaultForestParams()
	if p.Trees <= 0 {
		p.Trees = d.Trees
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinLeaf <= 0 {
		p.MinLeaf = d.MinLeaf
	}
	return p
}

// Forest 是 bagging 的回归树集成，预测取所有树的平均。
type Forest struct {
	Trees []*Tree `json:"trees"`
	Dim   int     `json:"dim"`
	// Importances 是各特征的归一化方差下降，和为 1（没有任何切分时全为 0）
	Importances []float64 `json:"importances"`
}

// FitForest 训练回归树集成。每棵树使用由 Seed 与树序号派生的独立随机源做 bootstrap，
// 因此结果与并发度无关，相同输入与种子得到相同模型。
func FitForest(x [][]float64, y []float64, params ForestParams) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errors.New("model: training set is empty or mismatched")
	}
	params = params.withDefaults()
	dim := len(x[0])
	for _, row := range x {
		if len(row) != dim {
			return nil, errors.New("model: ragged training set")
		}
	}

	trees := make([]*Tree, params.Trees)
	importances := make([][]float64, params.Trees)

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for t := range params.Trees {
		eg.Go(func() error {
			rng := rand.New(rand.NewPCG(params.Seed, uint64(t)))
			idx := make([]int, len(x))
			for i := range idx {
				idx[i] = rng.IntN(len(x))
			}
			b := newTreeBuilder(x, y, params.MaxDepth, params.MinLeaf)
			b.build(idx, 0)
			trees[t] = &Tree{Nodes: b.nodes}
			importances[t] = b.importance
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := make([]float64, dim)
	sum := 0.0
	for _, imp := range importances {
		for j, v := range imp {
			total[j] += v
			sum += v
		}
	}
	if sum > 0 {
		for j := range total {
			total[j] /= sum
		}
	}
	return &Forest{Trees: trees, Dim: dim, Importances: total}, nil
}

// Predict 返回所有树预测的平均值。
func (f *Forest) Predict(x []float64) (float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return 0, errCorruptTree
	}
	if len(x) != f.Dim {
		return 0, errors.New("model: feature dimension mismatch")
	}
	sum := 0.0
	for _, t := range f.Trees {
		v, err := t.Predict(x)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(f.Trees)), nil
}
