// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/zintix-labs/quadlab/errs"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// ConvergencePoint 單一切片數下的結果
type ConvergencePoint struct {
	N     int      `json:"N"     yaml:"N"`
	H     float64  `json:"H"     yaml:"H"`
	Area  float64  `json:"Area"  yaml:"Area"`
	Error *float64 `json:"Error,omitempty" yaml:"Error,omitempty"` // 有 exact 時為 |Area-Exact|，否則為與下一列的差
}

// ConvergenceReport 收斂階數估計
//
// 以 log(err) 對 log(h) 做最小平方，斜率即觀測到的階數（中點/梯形約為 2，Simpson 約為 4）
type ConvergenceReport struct {
	JobName    string             `json:"JobName"    yaml:"JobName"`
	Rule       string             `json:"Rule"       yaml:"Rule"`
	Exact      *float64           `json:"Exact,omitempty" yaml:"Exact,omitempty"`
	Points     []ConvergencePoint `json:"Points"     yaml:"Points"`
	Order      float64            `json:"Order"      yaml:"Order"`
	OrderCI    *CI                `json:"OrderCI,omitempty" yaml:"OrderCI,omitempty"`
	Richardson float64            `json:"Richardson" yaml:"Richardson"`
	Fitted     int                `json:"Fitted"     yaml:"Fitted"` // 實際參與擬合的點數
}

// ============================================================
// ** 對外 : 收斂估計 **
// ============================================================

// EstimateConvergence 由一組 (n, area) 估計收斂階數與 Richardson 外插值。
//
// span 為區間長度 |b-a|，ns 需嚴格遞增且與 areas 等長。
// exact 為 nil 時以相鄰兩列的差當作誤差。
// 誤差為 0 的點（公式對該函數精確）不參與擬合；可用點少於 2 時 Order 為 NaN。
func EstimateConvergence(span float64, ns []int, areas []float64, exact *float64) (*ConvergenceReport, error) {
	if len(ns) != len(areas) {
		return nil, errs.InvalidArgument("areas", "len(ns)=%d != len(areas)=%d", len(ns), len(areas))
	}
	if len(ns) < 2 {
		return nil, errs.InvalidArgument("ns", "need at least 2 slice counts, got %d", len(ns))
	}
	if !(span > 0) || math.IsInf(span, 0) {
		return nil, errs.InvalidArgument("span", "span (%v) must be positive and finite", span)
	}
	for i, n := range ns {
		if n < 1 {
			return nil, errs.InvalidArgument("ns", "ns[%d] (%d) has to be bigger than 0", i, n)
		}
		if i > 0 && n <= ns[i-1] {
			return nil, errs.InvalidArgument("ns", "ns must be strictly increasing")
		}
	}

	out := &ConvergenceReport{Exact: exact, Points: make([]ConvergencePoint, len(ns))}
	var xs, ys []float64
	for i, n := range ns {
		h := span / float64(n)
		p := ConvergencePoint{N: n, H: h, Area: areas[i]}
		var e float64
		switch {
		case exact != nil:
			e = math.Abs(areas[i] - *exact)
		case i+1 < len(ns):
			e = math.Abs(areas[i] - areas[i+1])
		default:
			out.Points[i] = p
			continue
		}
		p.Error = &e
		out.Points[i] = p
		if e > 0 && !math.IsNaN(e) && !math.IsInf(e, 0) {
			xs = append(xs, math.Log(h))
			ys = append(ys, math.Log(e))
		}
	}

	out.Fitted = len(xs)
	out.Order = math.NaN()
	if len(xs) >= 2 {
		_, beta := stat.LinearRegression(xs, ys, nil, false)
		out.Order = beta
		out.OrderCI = slopeCI(xs, ys, 0.95)
	}
	out.Richardson = richardson(ns, areas, out.Order)
	return out, nil
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// slopeCI 斜率的 t 分布信賴區間，點數 < 3 時無自由度可用，回傳 nil
func slopeCI(xs, ys []float64, confidence float64) *CI {
	n := len(xs)
	if n < 3 {
		return nil
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	mx := stat.Mean(xs, nil)
	var sse, sxx float64
	for i := range xs {
		r := ys[i] - (alpha + beta*xs[i])
		sse += r * r
		d := xs[i] - mx
		sxx += d * d
	}
	if sxx == 0 {
		return nil
	}
	se := math.Sqrt(sse / float64(n-2) / sxx)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}.Quantile(1 - (1-confidence)/2)
	return &CI{Lo: beta - t*se, Hi: beta + t*se}
}

// richardson 以最後兩列與觀測階數外插；階數不可用時回傳最後一列
func richardson(ns []int, areas []float64, order float64) float64 {
	k := len(areas) - 1
	last := areas[k]
	if math.IsNaN(order) || order <= 0 {
		return last
	}
	r := float64(ns[k]) / float64(ns[k-1])
	den := math.Pow(r, order) - 1
	if den == 0 {
		return last
	}
	return last + (last-areas[k-1])/den
}

// ============================================================
// ** 輸出函數 **
// ============================================================

// Out 以表格輸出
func (cr *ConvergenceReport) Out(w io.Writer) {
	title := fmt.Sprintf("%s (%s)", cr.JobName, cr.Rule)
	keys := make([]string, 0, len(cr.Points)+3)
	msg := make(map[string]string, len(cr.Points)+3)
	for _, p := range cr.Points {
		k := fmt.Sprintf("n=%d", p.N)
		v := fmt.Sprintf("%.12g", p.Area)
		if p.Error != nil {
			v += fmt.Sprintf("  err=%.3e", *p.Error)
		}
		keys = append(keys, k)
		msg[k] = v
	}
	keys = append(keys, "Order", "Richardson")
	msg["Order"] = fmt.Sprintf("%.3f", cr.Order)
	if cr.OrderCI != nil {
		msg["Order"] += fmt.Sprintf(" [%.3f, %.3f]", cr.OrderCI.Lo, cr.OrderCI.Hi)
	}
	msg["Richardson"] = fmt.Sprintf("%.12g", cr.Richardson)
	fmt.Fprintln(w, fmtTable(title, keys, msg))
}
