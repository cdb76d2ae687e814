package driver

import (
	"math"

	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

// interval 是一次積分呼叫的有效區間（lo <= hi）
type interval struct {
	lo, hi   float64
	n        int
	width    float64
	reversed bool
}

// interval 驗證 a、b、n 並依 Policy 決定方向。
func (d *Driver) interval(a, b float64, n int) (interval, error) {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return interval{}, errs.InvalidArgument("a", "a (%v) is not a finite number", a)
	}
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return interval{}, errs.InvalidArgument("b", "b (%v) is not a finite number", b)
	}
	if n < 1 {
		return interval{}, errs.InvalidArgument("n_slices", "n_slices (%d) has to be bigger than 0", n)
	}
	iv := interval{lo: a, hi: b, n: n}
	if a > b {
		if d.policy == Strict {
			return interval{}, errs.InvalidArgument("b", "a (%v) is greater than b (%v)", a, b)
		}
		iv.lo, iv.hi, iv.reversed = b, a, true
	}
	// 先除再減：hi-lo 可能超出 float64，但每片寬度仍可表示
	iv.width = iv.hi/float64(n) - iv.lo/float64(n)
	if math.IsInf(iv.width, 0) {
		return interval{}, errs.InvalidArgument("n_slices", "b-a overflows float64 with n_slices (%d); use at least 2 slices", n)
	}
	return iv, nil
}

func (iv interval) empty() bool {
	return iv.lo == iv.hi
}

// bound 回傳第 i 個切片邊界 x_i = lo + i*w。
// 每個邊界都由 i 直接算出，不累加 w，誤差不隨切片數累積；最後一個邊界固定為 hi。
func (iv interval) bound(i int) float64 {
	if i >= iv.n {
		return iv.hi
	}
	return iv.lo + float64(i)*iv.width
}

// each 依序走訪切片 [x_{i-1}, x_i]，i = 1..n；fn 回傳 false 時提前結束。
func (iv interval) each(fn func(i int, lo, hi float64) bool) {
	prev := iv.lo
	for i := 1; i <= iv.n; i++ {
		x := iv.bound(i)
		if !fn(i, prev, x) {
			return
		}
		prev = x
	}
}

// Slice 是單一切片的積分結果（未捨入）
type Slice struct {
	Index int     `json:"index" yaml:"index"`
	Lo    float64 `json:"lo" yaml:"lo"`
	Hi    float64 `json:"hi" yaml:"hi"`
	Area  float64 `json:"area" yaml:"area"`
}

// Slices 回傳每個切片的面積，給繪圖端或報表使用。
//
// 切片一律落在有效區間（lo <= hi）上，Area 不含方向符號也不捨入；
// 反向區間時第二個回傳值為 true，與 Approximate 的結果關係為
// Approximate = ±round(Σ Area)。a == b 時回傳空切片。
func (d *Driver) Slices(f rule.Func, a, b float64, n int) ([]Slice, bool, error) {
	if f == nil {
		return nil, false, errs.InvalidArgument("f", "f is not a valid one dimensional function")
	}
	iv, err := d.interval(a, b, n)
	if err != nil {
		return nil, false, err
	}
	if iv.empty() {
		return []Slice{}, iv.reversed, nil
	}
	out := make([]Slice, 0, n)
	iv.each(func(i int, lo, hi float64) bool {
		out = append(out, Slice{Index: i - 1, Lo: lo, Hi: hi, Area: d.rl(f, lo, hi)})
		return true
	})
	return out, iv.reversed, nil
}

// SlicesE 與 Slices 相同，但被積函數可以回傳 error；第一個錯誤原封不動回傳。
func (d *Driver) SlicesE(f rule.FallibleFunc, a, b float64, n int) ([]Slice, bool, error) {
	out := []Slice{}
	_, reversed, err := d.EachE(f, a, b, n, func(s Slice) { out = append(out, s) })
	if err != nil {
		return nil, false, err
	}
	return out, reversed, nil
}

// Sum 把 Slices 的結果依 Driver 的規則收斂成最終值（方向、捨入、-0）。
func (d *Driver) Sum(slices []Slice, reversed bool) float64 {
	sum := 0.0
	for _, s := range slices {
		sum += s.Area
	}
	return d.finish(sum, reversed)
}
