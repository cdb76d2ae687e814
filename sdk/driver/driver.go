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

// Package driver 把區間切成等寬切片，逐片呼叫同一條 rule.Rule 並加總。
//
// Driver 建立後只讀：綁定的 Rule、區間方向策略與捨入位數都不能再改。
// 只要 Rule 與被積函數可重入，同一個 Driver 可以被多個 goroutine 同時使用。
//
// 區間方向策略（Policy）：
//   - Permissive（預設）：a > b 時交換端點並把結果取負，a == b 直接回傳 0。
//   - Strict：a > b 視為參數錯誤。
//
// 一個 Driver 只會套用一種策略。
package driver

import (
	"math"
	"strings"

	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

// Policy 決定 a > b 時的行為
type Policy uint8

const (
	Permissive Policy = iota
	Strict
)

func (p Policy) String() string {
	switch p {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParsePolicy 接受 "permissive" / "strict"（大小寫不敏感），空字串視為 Permissive。
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, errs.InvalidArgument("policy", "unknown ordering policy %q (permissive|strict)", s)
	}
}

const (
	DefaultDigits = 6
	MaxDigits     = 12
)

// Driver 綁定一條 Rule 的積分器
type Driver struct {
	rl     rule.Rule
	policy Policy
	digits int
}

type Option func(*Driver)

// WithPolicy 設定區間方向策略
func WithPolicy(p Policy) Option {
	return func(d *Driver) { d.policy = p }
}

// WithDigits 設定結果捨入的小數位數（0..MaxDigits）
func WithDigits(n int) Option {
	return func(d *Driver) { d.digits = n }
}

// New 建立 Driver。r 為 nil 或選項不合法時回傳 InvalidArgument。
func New(r rule.Rule, opts ...Option) (*Driver, error) {
	if r == nil {
		return nil, errs.InvalidArgument("integration_rule", "integration rule is nil")
	}
	d := &Driver{
		rl:     r,
		policy: Permissive,
		digits: DefaultDigits,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.policy != Permissive && d.policy != Strict {
		return nil, errs.InvalidArgument("policy", "unknown ordering policy %d", d.policy)
	}
	if d.digits < 0 || d.digits > MaxDigits {
		return nil, errs.InvalidArgument("digits", "digits (%d) must be in [0, %d]", d.digits, MaxDigits)
	}
	return d, nil
}

func (d *Driver) Policy() Policy { return d.policy }

func (d *Driver) Digits() int { return d.digits }

// Rule 回傳綁定的公式，給需要逐片繪圖的呼叫端直接使用。
func (d *Driver) Rule() rule.Rule { return d.rl }

// Approximate 以 n 個等寬切片近似 ∫ₐᵇ f(x)dx。
//
// 參數錯誤在呼叫 f 之前就回傳 InvalidArgument。f 若 panic，會直接往上傳遞。
func (d *Driver) Approximate(f rule.Func, a, b float64, n int) (float64, error) {
	if f == nil {
		return 0, errs.InvalidArgument("f", "f is not a valid one dimensional function")
	}
	iv, err := d.interval(a, b, n)
	if err != nil {
		return 0, err
	}
	if iv.empty() {
		return 0, nil
	}
	sum := 0.0
	iv.each(func(_ int, lo, hi float64) bool {
		sum += d.rl(f, lo, hi)
		return true
	})
	return d.finish(sum, iv.reversed), nil
}

// ApproximateE 與 Approximate 相同，但被積函數可以回傳 error。
//
// 第一個錯誤會中止整個積分並原封不動回傳（不包裝、不重試）；
// 之後該切片剩下的取樣不再呼叫 f。
func (d *Driver) ApproximateE(f rule.FallibleFunc, a, b float64, n int) (float64, error) {
	v, _, err := d.EachE(f, a, b, n, nil)
	return v, err
}

// Validate 只做參數檢查（與 Approximate 相同的規則），不呼叫任何函數。
func (d *Driver) Validate(a, b float64, n int) error {
	_, err := d.interval(a, b, n)
	return err
}

// EachE 逐片積分，每算完一片就交給 visit（可為 nil），不保留切片。
//
// 回傳值與 ApproximateE 相同，另外回報區間是否反向。visit 收到的 Slice 與 SlicesE 一致；
// 大量切片時用它取代 SlicesE 以免配置 n 個 Slice。
func (d *Driver) EachE(f rule.FallibleFunc, a, b float64, n int, visit func(Slice)) (float64, bool, error) {
	if f == nil {
		return 0, false, errs.InvalidArgument("f", "f is not a valid one dimensional function")
	}
	iv, err := d.interval(a, b, n)
	if err != nil {
		return 0, false, err
	}
	if iv.empty() {
		return 0, iv.reversed, nil
	}

	g, ferr := guard(f)
	sum := 0.0
	iv.each(func(i int, lo, hi float64) bool {
		area := d.rl(g, lo, hi)
		if *ferr != nil {
			return false
		}
		sum += area
		if visit != nil {
			visit(Slice{Index: i - 1, Lo: lo, Hi: hi, Area: area})
		}
		return true
	})
	if *ferr != nil {
		return 0, false, *ferr
	}
	return d.finish(sum, iv.reversed), iv.reversed, nil
}

// guard 把 FallibleFunc 包成 rule.Func：記下第一個錯誤，之後的取樣不再呼叫 f。
func guard(f rule.FallibleFunc) (rule.Func, *error) {
	ferr := new(error)
	g := func(x float64) float64 {
		if *ferr != nil {
			return math.NaN()
		}
		y, err := f(x)
		if err != nil {
			*ferr = err
			return math.NaN()
		}
		return y
	}
	return g, ferr
}

// finish 處理方向與捨入：取負、四捨五入到 digits 位、-0 轉 +0。
func (d *Driver) finish(sum float64, reversed bool) float64 {
	if reversed {
		sum = -sum
	}
	sum = Round(sum, d.digits)
	if sum == 0 {
		// 同時吃掉 -0
		return 0
	}
	return sum
}

// Round 四捨五入到 digits 位小數（遠離零）。
// 放大後超出 float64 精確整數範圍時，數值本身已無更細的小數，直接回傳。
func Round(x float64, digits int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow10(digits)
	scaled := x * p
	if math.Abs(scaled) >= 1<<52 {
		return x
	}
	return math.Round(scaled) / p
}
