package feature

import (
	"errors"
	"math"
)

// StandardScaler 做 Z-score 标准化：z = (x - μ) / σ。
// 只在训练集上 Fit，之后对训练集、验证集与线上请求使用同一组参数。
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// ErrEmptyDataset Fit 时没有样本。
var ErrEmptyDataset = errors.New("feature: empty dataset")

// FitStandardScaler 按列计算均值与标准差（总体标准差）。
func FitStandardScaler(rows [][]float64) (*StandardScaler, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	dim := len(rows[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)
	for _, r := range rows {
		if len(r) != dim {
			return nil, errors.New("feature: ragged dataset")
		}
		for j, v := range r {
			mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}
	for _, r := range rows {
		for j, v := range r {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
	}
	return &StandardScaler{Mean: mean, Std: std}, nil
}

// Dim 返回特征维度。
func (s *StandardScaler) Dim() int {
	return len(s.Mean)
}

// Transform 标准化单行；标准差为 0 的列只做去均值。
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) || len(s.Std) != len(s.Mean) {
		return nil, errors.New("feature: scaler dimension mismatch")
	}
	out := make([]float64, len(row))
	for j, v := range row {
		if s.Std[j] > 0 {
			out[j] = (v - s.Mean[j]) / s.Std[j]
		} else {
			out[j] = v - s.Mean[j]
		}
	}
	return out, nil
}

// TransformAll 标准化多行。
func (s *StandardScaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		t, err := s.Transform(r)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
