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

import "math"

// MaxKeptAreas 是不要求逐片面積時，為了中位數與分組仍保留面積的切片數上限
const MaxKeptAreas int = 100_000

// SliceAccumulator 逐片累積切片面積的統計量（Welford），記憶體與切片數無關。
//
// keep 為 true 時保留全部面積；否則只在切片數不超過 MaxKeptAreas 時保留，
// 超過後丟棄，報告不含 Median / Hist。
type SliceAccumulator struct {
	keep    bool
	n       int
	sum     float64
	min     float64
	max     float64
	mean    float64
	m2      float64
	areas   []float64
	dropped bool
}

func NewSliceAccumulator(keep bool) *SliceAccumulator {
	return &SliceAccumulator{keep: keep, min: math.Inf(1), max: math.Inf(-1)}
}

// Add 累積一片面積
func (a *SliceAccumulator) Add(x float64) {
	a.n++
	a.sum += x
	a.min = math.Min(a.min, x)
	a.max = math.Max(a.max, x)
	d := x - a.mean
	a.mean += d / float64(a.n)
	a.m2 += d * (x - a.mean)

	if a.dropped {
		return
	}
	if !a.keep && a.n > MaxKeptAreas {
		a.areas, a.dropped = nil, true
		return
	}
	a.areas = append(a.areas, x)
}

// Len 已累積的切片數
func (a *SliceAccumulator) Len() int { return a.n }

// Report 產生切片報告；keepAreas 為 false 時不輸出逐片面積
func (a *SliceAccumulator) Report(width float64, keepAreas bool) *SliceReport {
	sl := &SliceReport{Width: width, ready: true}
	if a.n == 0 {
		return sl
	}
	sl.RawSum = a.sum
	sl.Min, sl.Max = a.min, a.max
	sl.Mean = a.mean
	if a.n > 1 {
		sl.Std = math.Sqrt(a.m2 / float64(a.n-1))
	}
	if len(a.areas) > 0 {
		med := median(a.areas)
		sl.Median = &med
		sl.Hist = NewHistogram(a.areas, DefaultBins)
		if keepAreas {
			sl.Areas = a.areas
		}
	}
	sl.finite()
	return sl
}

// finite 把溢位成 ±Inf/NaN 的統計量歸零，報表需要能序列化成 JSON
func (sl *SliceReport) finite() {
	for _, p := range []*float64{&sl.RawSum, &sl.Min, &sl.Max, &sl.Mean, &sl.Std} {
		if math.IsNaN(*p) || math.IsInf(*p, 0) {
			*p = 0
		}
	}
}
