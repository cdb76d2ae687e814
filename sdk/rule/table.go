package rule

import (
	"math"
	"sort"

	"github.com/zintix-labs/quadlab/errs"
)

// Table 是由取樣點構成的分段線性被積函數（lookup table）。
// 區間外取最近端點的值。
type Table struct {
	xs []float64
	ys []float64
}

// NewTable 驗證並複製取樣點：長度一致、至少兩點、x 嚴格遞增且全部有限。
func NewTable(xs, ys []float64) (*Table, error) {
	if len(xs) != len(ys) {
		return nil, errs.InvalidArgument("table", "xs (%d) and ys (%d) length mismatch", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, errs.InvalidArgument("table", "at least 2 points required, got %d", len(xs))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, errs.InvalidArgument("table", "point %d is not finite", i)
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return nil, errs.InvalidArgument("table", "xs must be strictly increasing (index %d)", i)
		}
	}
	return &Table{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}, nil
}

// Eval 線性內插
func (t *Table) Eval(x float64) float64 {
	n := len(t.xs)
	if x <= t.xs[0] {
		return t.ys[0]
	}
	if x >= t.xs[n-1] {
		return t.ys[n-1]
	}
	// 第一個 > x 的位置，必在 [1, n-1]
	i := sort.SearchFloat64s(t.xs, x)
	if t.xs[i] == x {
		return t.ys[i]
	}
	x0, x1 := t.xs[i-1], t.xs[i]
	y0, y1 := t.ys[i-1], t.ys[i]
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// Func 讓 Table 可直接交給 Rule / Driver。
func (t *Table) Func() Func {
	return t.Eval
}

// Domain 回傳取樣範圍。
func (t *Table) Domain() (float64, float64) {
	return t.xs[0], t.xs[len(t.xs)-1]
}
