// Package stats 提供特征统计与标准化所需的数值工具。
package stats

import (
	"math"
	"sort"
)

// Statistics 是一组数值的统计信息。
type Statistics struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
	P25    float64
	P75    float64
}

// Compute 计算统计信息；空输入返回零值。
func Compute(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	st := Statistics{
		Count: len(values),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	st.Mean = Mean(values)

	variance := 0.0
	for _, v := range values {
		variance += (v - st.Mean) * (v - st.Mean)
	}
	st.Std = math.Sqrt(variance / float64(len(values)))

	st.Median = Percentile(sorted, 0.5)
	st.P25 = Percentile(sorted, 0.25)
	st.P75 = Percentile(sorted, 0.75)
	return st
}

// Mean 计算均值；空输入返回 0。
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Percentile 在已排序的 slice 上做线性插值分位数。
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Clamp01 将值截断到 [0,1]；NaN 视为 0。
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// MSE 计算均方误差。
func MSE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0
	}
	sum := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}

// R2 计算决定系数；目标方差为 0 时返回 0。
func R2(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0
	}
	mean := Mean(actual)
	ssTot, ssRes := 0.0, 0.0
	for i := range actual {
		ssTot += (actual[i] - mean) * (actual[i] - mean)
		ssRes += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
