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

package rule

import (
	"errors"
	"math"

	"github.com/zintix-labs/quadlab/errs"
	"gonum.org/v1/gonum/mat"
)

// MaxNewtonCotesDegree 是 NewtonCotes 接受的最高階數。
// 等距節點的高階 Newton–Cotes 權重會出現負值且條件數急遽變差，超過此值不再提供。
const MaxNewtonCotesDegree = 10

// NewtonCotes 建立 d 階的閉型 Newton–Cotes 公式。
//
// 在 [0,1] 上取 d+1 個等距節點 t_k = k/d，要求插值多項式的積分等於 Σ w_k f(t_k)，
// 即解 moment 方程 Σ_k w_k t_k^j = 1/(j+1)（j = 0..d）。權重在建立時解一次，之後每次呼叫只做加權和：
//
//	area = (b-a) * Σ w_k f(a + k(b-a)/d)
//
// d = 0 只有一個節點，取切片中點（即 RectangleMid）。
// d = 1、2、3 分別與 Trapezoid、Simpson13、Simpson38 相同（至捨入誤差）。
//
// 已知限制：d 越大數值越不穩定，這是公式本身的性質。
func NewtonCotes(d int) (Rule, error) {
	w, err := NewtonCotesWeights(d)
	if err != nil {
		return nil, err
	}
	if d == 0 {
		return func(f Func, a, b float64) float64 {
			return (b - a) * w[0] * f((a+b)/2)
		}, nil
	}
	return func(f Func, a, b float64) float64 {
		h := b - a
		sum := 0.0
		for k, wk := range w {
			x := b
			if k < d {
				x = a + float64(k)*h/float64(d)
			}
			sum += wk * f(x)
		}
		return h * sum
	}, nil
}

// NewtonCotesWeights 回傳 d 階公式在 [0,1] 上的權重（總和為 1）。
func NewtonCotesWeights(d int) ([]float64, error) {
	if d < 0 || d > MaxNewtonCotesDegree {
		return nil, errs.InvalidArgument("degree", "newton-cotes degree (%d) must be in [0, %d]", d, MaxNewtonCotesDegree)
	}
	if d == 0 {
		return []float64{1}, nil
	}

	n := d + 1
	v := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		for k := 0; k < n; k++ {
			v.Set(j, k, math.Pow(float64(k)/float64(d), float64(j)))
		}
	}
	moments := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		moments.SetVec(j, 1/float64(j+1))
	}

	var w mat.VecDense
	if err := w.SolveVec(v, moments); err != nil {
		// 病態但仍有解時 gonum 回傳 mat.Condition，結果依然可用
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, errs.Wrap(err, "solve newton-cotes weights failed")
		}
	}

	out := make([]float64, n)
	for k := range out {
		out[k] = w.AtVec(k)
	}
	return out, nil
}
