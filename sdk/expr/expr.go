package expr

import (
	"math"
	"sort"
	"strings"

	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

// Expr 是編譯好的單變數函數，編譯後不可變，可以同時被多個 goroutine 求值。
type Expr struct {
	src  string
	root node
}

// Compile 解析 src；語法錯誤回傳 InvalidArgument（param = "expr"）。
func Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Expr{src: src, root: root}, nil
}

// MustCompile 給測試與內建函數表使用，失敗時 panic。
func MustCompile(src string) *Expr {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Eval 在 x 求值；除以零、超出定義域、結果溢位或不是數字時回傳 Warn 等級錯誤。
func (e *Expr) Eval(x float64) (float64, error) {
	v, err := e.root.eval(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errs.Warnf("%s is not a finite number at x=%v (got %v)", e.src, x, v)
	}
	return v, nil
}

// Fallible 轉成 rule.FallibleFunc，給 driver.ApproximateE 使用。
func (e *Expr) Fallible() rule.FallibleFunc {
	return e.Eval
}

// Func 轉成 rule.Func；求值錯誤時回傳 NaN。
func (e *Expr) Func() rule.Func {
	return func(x float64) float64 {
		v, err := e.Eval(x)
		if err != nil {
			return math.NaN()
		}
		return v
	}
}

// Source 回傳原始輸入（去掉前後空白）
func (e *Expr) Source() string { return e.src }

// String 回傳完整加括號的正規形式
func (e *Expr) String() string { return e.root.String() }

// named 是內建的具名被積函數
var named = map[string]string{
	"cubic":      "14*x^3",
	"square":     "x^2",
	"identity":   "x",
	"constant":   "1",
	"sine":       "sin(x)",
	"cosine":     "cos(x)",
	"exp":        "exp(x)",
	"gaussian":   "exp(-x^2)",
	"reciprocal": "1/x",
	"sqrt":       "sqrt(x)",
	"log":        "ln(x)",
	"runge":      "1/(1+25*x^2)",
}

// Named 依名稱取出內建被積函數，名稱不存在時回傳 InvalidArgument。
func Named(name string) (*Expr, error) {
	src, ok := named[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errs.InvalidArgument("expr", "unknown named function %q", name)
	}
	return Compile(src)
}

// Builtins 回傳 name -> 原始式子 的複本
func Builtins() map[string]string {
	out := make(map[string]string, len(named))
	for k, v := range named {
		out[k] = v
	}
	return out
}

// BuiltinNames 回傳排序後的內建名稱
func BuiltinNames() []string {
	out := make([]string, 0, len(named))
	for k := range named {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve 先找內建名稱，找不到再當成式子編譯。
func Resolve(s string) (*Expr, error) {
	if e, err := Named(s); err == nil {
		return e, nil
	}
	return Compile(s)
}
