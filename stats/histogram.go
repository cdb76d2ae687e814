package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins 是切片面積分布的預設分組數
const DefaultBins int = 10

// Histogram 切片面積的等寬分組
//
//   - 分組區間: [e0,e1), [e1,e2), ..., [e(n-1), en]，最後一組含右端點
type Histogram struct {
	Edges  []float64 `json:"Edges"  yaml:"Edges"`
	Labels []string  `json:"Labels" yaml:"Labels"`
	Counts []float64 `json:"Counts" yaml:"Counts"`
}

// NewHistogram 以 bins 個等寬分組統計 xs；xs 為空、含 NaN/Inf 或 bins < 1 時回傳 nil。
// 所有值都相同時只有一組。
func NewHistogram(xs []float64, bins int) *Histogram {
	if len(xs) == 0 || bins < 1 || floats.HasNaN(xs) {
		return nil
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil
	}
	if lo == hi {
		return &Histogram{
			Edges:  []float64{lo, hi},
			Labels: []string{fmt.Sprintf("[%.6g,%.6g]", lo, hi)},
			Counts: []float64{float64(len(xs))},
		}
	}

	// stat.Histogram 要求 dividers 嚴格遞增、資料已排序且落在 [d0, dn)
	edges := make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = nextUp(hi)

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sortFloats(sorted)

	counts := stat.Histogram(nil, dividers, sorted, nil)

	labels := make([]string, bins)
	for i := 0; i < bins; i++ {
		if i == bins-1 {
			labels[i] = fmt.Sprintf("[%.6g,%.6g]", edges[i], edges[i+1])
			continue
		}
		labels[i] = fmt.Sprintf("[%.6g,%.6g)", edges[i], edges[i+1])
	}
	return &Histogram{Edges: edges, Labels: labels, Counts: counts}
}

// Total 回傳所有分組的筆數
func (h *Histogram) Total() int {
	if h == nil {
		return 0
	}
	return int(floats.Sum(h.Counts))
}
