package expr_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/expr"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

func TestCompile_Eval(t *testing.T) {
	cases := []struct {
		src  string
		x    float64
		want float64
	}{
		{"1", 7, 1},
		{"x", 3, 3},
		{"14*x^3", 2, 112},
		{"14*x**3", 2, 112},
		{"2+3*4", 0, 14},
		{"(2+3)*4", 0, 20},
		{"10-4-3", 0, 3},
		{"16/4/2", 0, 2},
		{"2^3^2", 0, 512},
		{"-x^2", 3, -9},
		{"(-x)^2", 3, 9},
		{"2^-1", 0, 0.5},
		{"--x", 4, 4},
		{"+x", 4, 4},
		{".5*x", 4, 2},
		{"1e-3*x", 1000, 1},
		{"2.5E+1", 0, 25},
		{"pi", 0, math.Pi},
		{"e", 0, math.E},
		{"SIN(x)", math.Pi / 2, 1},
		{"sqrt(x) + abs(-x)", 4, 6},
		{"ln(e)", 0, 1},
		{"log10(x)", 1000, 3},
		{"log2(8)", 0, 3},
		{"floor(x) + ceil(x)", 1.5, 3},
		{"exp(0)", 0, 1},
		{"x ^ 0.5", 9, 3},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := expr.Compile(c.src)
			require.NoError(t, err)
			got, err := e.Eval(c.x)
			require.NoError(t, err)
			assert.InDelta(t, c.want, got, 1e-12)
		})
	}
}

func TestCompile_SyntaxErrors(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"x +",
		"(x",
		"x)",
		"2 x",
		"foo(x)",
		"y",
		"sin x",
		"sin()",
		"x $ 2",
		"import os",
		"*x",
		strings.Repeat("(", 300) + "x" + strings.Repeat(")", 300),
		strings.Repeat("x+", 3000) + "x",
	}
	for _, src := range bad {
		_, err := expr.Compile(src)
		require.Error(t, err, "src=%q", src)
		assert.True(t, errs.IsInvalidArgument(err), "src=%q err=%v", src, err)

		var e *errs.E
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "expr", e.Param)
	}
}

func TestEval_DomainErrors(t *testing.T) {
	cases := []struct {
		src string
		x   float64
	}{
		{"1/x", 0},
		{"ln(x)", 0},
		{"log(x)", -1},
		{"sqrt(x)", -4},
		{"asin(x)", 2},
		{"acos(x)", -2},
		{"x^0.5", -1},
		{"x^-1", 0},
		{"exp(x)", 1000},
		{"exp(x)-exp(x)", 1000},
	}
	for _, c := range cases {
		e := expr.MustCompile(c.src)
		_, err := e.Eval(c.x)
		require.Error(t, err, "src=%q", c.src)

		var ee *errs.E
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, errs.Warn, ee.ErrLv)

		assert.True(t, math.IsNaN(e.Func()(c.x)), "src=%q", c.src)
	}
}

func TestString_Canonical(t *testing.T) {
	e := expr.MustCompile("  14*x^3 - sin(x)  ")
	assert.Equal(t, "14*x^3 - sin(x)", e.Source())
	assert.Equal(t, "((14 * (x ^ 3)) - sin(x))", e.String())

	// 正規形式重新編譯後語意不變
	again := expr.MustCompile(e.String())
	for _, x := range []float64{-2, 0, 0.5, 3} {
		a, _ := e.Eval(x)
		b, _ := again.Eval(x)
		assert.Equal(t, a, b)
	}
}

func TestNamed(t *testing.T) {
	names := expr.BuiltinNames()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)
	for _, n := range names {
		_, err := expr.Named(n)
		require.NoError(t, err, n)
	}

	cubic, err := expr.Named(" Cubic ")
	require.NoError(t, err)
	v, err := cubic.Eval(2)
	require.NoError(t, err)
	assert.Equal(t, 112.0, v)

	_, err = expr.Named("nope")
	assert.True(t, errs.IsInvalidArgument(err))

	b := expr.Builtins()
	b["cubic"] = "x"
	assert.Equal(t, "14*x^3", expr.Builtins()["cubic"])
}

func TestResolve(t *testing.T) {
	e, err := expr.Resolve("square")
	require.NoError(t, err)
	assert.Equal(t, "x^2", e.Source())

	e, err = expr.Resolve("x+1")
	require.NoError(t, err)
	v, _ := e.Eval(1)
	assert.Equal(t, 2.0, v)

	_, err = expr.Resolve("nope(")
	assert.Error(t, err)
}

func TestFunctions_Sorted(t *testing.T) {
	fns := expr.Functions()
	assert.IsIncreasing(t, fns)
	assert.Contains(t, fns, "sin")
	assert.Contains(t, fns, "ln")
}

func TestWithDriver(t *testing.T) {
	d, err := driver.New(rule.RectangleMid)
	require.NoError(t, err)

	e := expr.MustCompile("14*x^3")
	got, err := d.ApproximateE(e.Fallible(), 0, 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, 55.999972, got)

	// 1/x 在 0 沒有定義：rectangle_start 的第一個取樣點就失敗
	ds, err := driver.New(rule.RectangleStart)
	require.NoError(t, err)
	_, err = ds.ApproximateE(expr.MustCompile("1/x").Fallible(), 0, 1, 10)
	require.Error(t, err)
	assert.False(t, errs.IsInvalidArgument(err))
}

func TestEval_Concurrent(t *testing.T) {
	e := expr.MustCompile("sin(x)^2 + cos(x)^2")
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 1000; i++ {
				v, err := e.Eval(float64(g*1000 + i))
				if err != nil || math.Abs(v-1) > 1e-12 {
					t.Errorf("eval failed: v=%v err=%v", v, err)
					return
				}
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
