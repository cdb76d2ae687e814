package expr

import (
	"math"
	"sort"

	"github.com/zintix-labs/quadlab/errs"
)

// unaryFunc 的 v 是引數值，x 是當前取樣點（只用於錯誤訊息）
type unaryFunc func(name string, v, x float64) (float64, error)

func plain(fn func(float64) float64) unaryFunc {
	return func(_ string, v, _ float64) (float64, error) { return fn(v), nil }
}

// domain 在 ok(v) 為 false 時回報定義域錯誤
func domain(fn func(float64) float64, ok func(float64) bool, want string) unaryFunc {
	return func(name string, v, x float64) (float64, error) {
		if !ok(v) {
			return 0, errs.Warnf("%s(%v) is undefined (want %s) at x=%v", name, v, want, x)
		}
		return fn(v), nil
	}
}

func positive(v float64) bool    { return v > 0 }
func nonNegative(v float64) bool { return v >= 0 }
func unit(v float64) bool        { return v >= -1 && v <= 1 }

var functions = map[string]unaryFunc{
	"sin":   plain(math.Sin),
	"cos":   plain(math.Cos),
	"tan":   plain(math.Tan),
	"asin":  domain(math.Asin, unit, "-1 <= v <= 1"),
	"acos":  domain(math.Acos, unit, "-1 <= v <= 1"),
	"atan":  plain(math.Atan),
	"sinh":  plain(math.Sinh),
	"cosh":  plain(math.Cosh),
	"tanh":  plain(math.Tanh),
	"exp":   plain(math.Exp),
	"log":   domain(math.Log, positive, "v > 0"),
	"ln":    domain(math.Log, positive, "v > 0"),
	"log10": domain(math.Log10, positive, "v > 0"),
	"log2":  domain(math.Log2, positive, "v > 0"),
	"sqrt":  domain(math.Sqrt, nonNegative, "v >= 0"),
	"abs":   plain(math.Abs),
	"floor": plain(math.Floor),
	"ceil":  plain(math.Ceil),
}

// Functions 回傳支援的函數名稱（已排序）
func Functions() []string {
	out := make([]string, 0, len(functions))
	for k := range functions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
