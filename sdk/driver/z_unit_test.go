package driver_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

func square(x float64) float64 { return x * x }

func cubic14(x float64) float64 { return 14 * x * x * x }

func mustDriver(t *testing.T, r rule.Rule, opts ...driver.Option) *driver.Driver {
	t.Helper()
	d, err := driver.New(r, opts...)
	require.NoError(t, err)
	return d
}

func allRules(t *testing.T) map[string]rule.Rule {
	t.Helper()
	out := map[string]rule.Rule{}
	reg := rule.Default()
	for _, k := range reg.Keys() {
		rl, _ := reg.Get(k)
		out[string(k)] = rl
	}
	return out
}

// TestApproximate_SquareScenario: f(x)=x² on [0,2] with 1000 slices.
func TestApproximate_SquareScenario(t *testing.T) {
	mid, err := mustDriver(t, rule.RectangleMid).Approximate(square, 0, 2, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 2.666666, mid, 1e-9)

	trap, err := mustDriver(t, rule.Trapezoid).Approximate(square, 0, 2, 1000)
	require.NoError(t, err)
	assert.Greater(t, trap, 8.0/3.0)
	assert.InDelta(t, 2.666668, trap, 1e-9)

	for _, n := range []int{1, 2, 7, 1000} {
		simp, err := mustDriver(t, rule.Simpson13).Approximate(square, 0, 2, n)
		require.NoError(t, err)
		assert.InDelta(t, 2.666667, simp, 1e-9, "n=%d", n)
	}
}

// TestApproximate_CubicScenario: f(x)=14x³ on [0,2], exact value 56.
func TestApproximate_CubicScenario(t *testing.T) {
	cases := []struct {
		rl   rule.Rule
		want float64
	}{
		{rule.Simpson13, 56},
		{rule.Simpson38, 56},
		{rule.RectangleMid, 55.999972},
		{rule.Trapezoid, 56.000056},
		{rule.RectangleStart, 55.888056},
		{rule.RectangleEnd, 56.112056},
	}
	for i, c := range cases {
		got, err := mustDriver(t, c.rl).Approximate(cubic14, 0, 2, 1000)
		require.NoError(t, err)
		assert.InDelta(t, c.want, got, 1e-9, "case %d", i)
	}
}

// TestApproximate_ConvergesWithSlices: first-order and second-order rules approach 56.
func TestApproximate_ConvergesWithSlices(t *testing.T) {
	for _, rl := range []rule.Rule{rule.RectangleStart, rule.RectangleMid, rule.Trapezoid} {
		d := mustDriver(t, rl)
		prev := math.Inf(1)
		for _, n := range []int{10, 100, 1000} {
			got, err := d.Approximate(cubic14, 0, 2, n)
			require.NoError(t, err)
			diff := math.Abs(got - 56)
			assert.Less(t, diff, prev)
			prev = diff
		}
	}
}

func TestApproximate_EmptyIntervalIsZero(t *testing.T) {
	calls := 0
	f := func(x float64) float64 { calls++; return x }
	for name, rl := range allRules(t) {
		for _, p := range []driver.Policy{driver.Permissive, driver.Strict} {
			got, err := mustDriver(t, rl, driver.WithPolicy(p)).Approximate(f, 1.5, 1.5, 10)
			require.NoError(t, err, name)
			assert.Equal(t, 0.0, got, name)
			assert.False(t, math.Signbit(got), name)
		}
	}
	assert.Zero(t, calls, "f must not be evaluated on an empty interval")
}

// TestApproximate_Antisymmetry: approximate(f,a,b,n) == -approximate(f,b,a,n).
func TestApproximate_Antisymmetry(t *testing.T) {
	fs := []rule.Func{square, cubic14, math.Sin, math.Exp}
	for name, rl := range allRules(t) {
		d := mustDriver(t, rl)
		for _, f := range fs {
			fwd, err := d.Approximate(f, -0.75, 2.25, 37)
			require.NoError(t, err)
			bwd, err := d.Approximate(f, 2.25, -0.75, 37)
			require.NoError(t, err)
			if fwd == 0 {
				assert.Equal(t, 0.0, bwd, name)
				continue
			}
			assert.Equal(t, fwd, -bwd, name)
		}
	}
}

func TestApproximate_ConstantExactForEveryRule(t *testing.T) {
	k := 4.25
	f := func(float64) float64 { return k }
	for name, rl := range allRules(t) {
		for _, n := range []int{1, 3, 250} {
			got, err := mustDriver(t, rl).Approximate(f, -2, 3, n)
			require.NoError(t, err)
			assert.InDelta(t, k*5, got, 1e-6, "%s n=%d", name, n)
		}
	}
}

func TestApproximate_LinearExactForSymmetricRules(t *testing.T) {
	f := func(x float64) float64 { return x }
	a, b := -1.0, 3.0
	want := (b*b - a*a) / 2
	for _, rl := range []rule.Rule{rule.RectangleMid, rule.Trapezoid, rule.Simpson13, rule.Simpson38} {
		got, err := mustDriver(t, rl).Approximate(f, a, b, 9)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-6)
	}
	start, err := mustDriver(t, rule.RectangleStart).Approximate(f, a, b, 9)
	require.NoError(t, err)
	assert.NotEqual(t, want, start)
}

func TestApproximate_SimpsonExactForCubicAnySlicing(t *testing.T) {
	f := func(x float64) float64 { return x*x*x - 2*x + 1 }
	F := func(x float64) float64 { return x*x*x*x/4 - x*x + x }
	want := F(2.5) - F(-1)
	for _, rl := range []rule.Rule{rule.Simpson13, rule.Simpson38} {
		for _, n := range []int{1, 2, 5, 64} {
			got, err := mustDriver(t, rl).Approximate(f, -1, 2.5, n)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-6, "n=%d", n)
		}
	}
}

func TestApproximate_InvalidArguments(t *testing.T) {
	calls := 0
	f := func(x float64) float64 { calls++; return x }
	d := mustDriver(t, rule.Trapezoid)

	cases := []struct {
		name  string
		param string
		run   func() error
	}{
		{"nil f", "f", func() error { _, err := d.Approximate(nil, 0, 1, 1); return err }},
		{"zero slices", "n_slices", func() error { _, err := d.Approximate(f, 0, 1, 0); return err }},
		{"negative slices", "n_slices", func() error { _, err := d.Approximate(f, 0, 1, -4); return err }},
		{"nan a", "a", func() error { _, err := d.Approximate(f, math.NaN(), 1, 1); return err }},
		{"inf b", "b", func() error { _, err := d.Approximate(f, 0, math.Inf(1), 1); return err }},
		{"nil fallible", "f", func() error { _, err := d.ApproximateE(nil, 0, 1, 1); return err }},
	}
	for _, c := range cases {
		err := c.run()
		require.Error(t, err, c.name)
		assert.ErrorIs(t, err, errs.ErrInvalidArgument, c.name)
		e, ok := errs.AsErr(err)
		require.True(t, ok, c.name)
		assert.Equal(t, c.param, e.Param, c.name)
		assert.Contains(t, err.Error(), c.param, c.name)
	}
	assert.Zero(t, calls, "validation must happen before any evaluation")
}

func TestNew_Invalid(t *testing.T) {
	_, err := driver.New(nil)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = driver.New(rule.Trapezoid, driver.WithDigits(-1))
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = driver.New(rule.Trapezoid, driver.WithDigits(driver.MaxDigits+1))
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = driver.New(rule.Trapezoid, driver.WithPolicy(driver.Policy(9)))
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestStrictPolicyRejectsReversed(t *testing.T) {
	calls := 0
	f := func(x float64) float64 { calls++; return x }
	d := mustDriver(t, rule.Simpson13, driver.WithPolicy(driver.Strict))

	_, err := d.Approximate(f, 2, 1, 10)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	assert.Zero(t, calls)

	got, err := d.Approximate(f, 1, 2, 10)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-9)
}

func TestParsePolicy(t *testing.T) {
	p, err := driver.ParsePolicy(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, driver.Strict, p)

	p, err = driver.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, driver.Permissive, p)

	_, err = driver.ParsePolicy("lenient")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestApproximate_NoNegativeZero(t *testing.T) {
	f := func(x float64) float64 { return x }
	d := mustDriver(t, rule.RectangleMid)
	for _, iv := range [][2]float64{{-1, 1}, {1, -1}, {-3.3, 3.3}, {3.3, -3.3}} {
		got, err := d.Approximate(f, iv[0], iv[1], 7)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
		assert.False(t, math.Signbit(got), "interval %v", iv)
	}

	// a tiny negative area rounds to zero and must come out as +0
	tiny := func(float64) float64 { return -1e-9 }
	got, err := d.Approximate(tiny, 0, 1, 3)
	require.NoError(t, err)
	assert.False(t, math.Signbit(got))
}

func TestApproximate_Digits(t *testing.T) {
	got, err := mustDriver(t, rule.RectangleMid, driver.WithDigits(2)).Approximate(square, 0, 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2.67, got)

	got, err = mustDriver(t, rule.Simpson13, driver.WithDigits(0)).Approximate(square, 0, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 9.0, got)
}

func TestApproximate_ManySlicesStayOnInterval(t *testing.T) {
	one := func(float64) float64 { return 1 }
	got, err := mustDriver(t, rule.RectangleStart).Approximate(one, 0, 0.1, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, 0.1, got)
}

func TestSlices(t *testing.T) {
	d := mustDriver(t, rule.Trapezoid)
	slices, reversed, err := d.Slices(square, 0.1, 0.7, 3)
	require.NoError(t, err)
	assert.False(t, reversed)
	require.Len(t, slices, 3)

	assert.Equal(t, 0.1, slices[0].Lo)
	assert.Equal(t, 0.7, slices[2].Hi)
	for i := range slices {
		assert.Equal(t, i, slices[i].Index)
		assert.Less(t, slices[i].Lo, slices[i].Hi)
		if i > 0 {
			assert.Equal(t, slices[i-1].Hi, slices[i].Lo)
		}
	}

	want, err := d.Approximate(square, 0.1, 0.7, 3)
	require.NoError(t, err)
	assert.Equal(t, want, d.Sum(slices, reversed))

	// reversed interval: same slices, negative total
	rs, reversed, err := d.Slices(square, 0.7, 0.1, 3)
	require.NoError(t, err)
	assert.True(t, reversed)
	assert.Equal(t, slices, rs)
	assert.Equal(t, -want, d.Sum(rs, reversed))

	empty, _, err := d.Slices(square, 1, 1, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, _, err = d.Slices(square, 0, 1, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

var errDomain = errors.New("math domain error")

func TestApproximateE_IntegrandFailurePropagatesUnchanged(t *testing.T) {
	calls := 0
	f := func(x float64) (float64, error) {
		calls++
		if x > 1 {
			return 0, errDomain
		}
		return x, nil
	}
	d := mustDriver(t, rule.RectangleEnd)
	_, err := d.ApproximateE(f, 0, 2, 10)
	require.Error(t, err)
	assert.Same(t, errDomain, err)
	assert.False(t, errs.IsInvalidArgument(err))
	// right endpoints 0.2 .. 1.0 succeed, 1.2 fails, then stop
	assert.Equal(t, 6, calls)
}

func TestApproximateE_MatchesApproximate(t *testing.T) {
	d := mustDriver(t, rule.Simpson38)
	fe := func(x float64) (float64, error) { return math.Cos(x), nil }

	got, err := d.ApproximateE(fe, 3, -1, 50)
	require.NoError(t, err)
	want, err := d.Approximate(math.Cos, 3, -1, 50)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSlicesE(t *testing.T) {
	d := mustDriver(t, rule.Simpson13)
	fe := func(x float64) (float64, error) { return square(x), nil }

	slices, reversed, err := d.SlicesE(fe, 2, 0, 4)
	require.NoError(t, err)
	assert.True(t, reversed)
	require.Len(t, slices, 4)
	want, _, err := d.Slices(square, 2, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, want, slices)

	failing := func(x float64) (float64, error) {
		if x > 1 {
			return 0, errDomain
		}
		return x, nil
	}
	_, _, err = d.SlicesE(failing, 0, 2, 4)
	assert.Same(t, errDomain, err)

	_, _, err = d.SlicesE(nil, 0, 1, 1)
	assert.True(t, errs.IsInvalidArgument(err))
}

func TestEachE_StreamsSameSlices(t *testing.T) {
	d := mustDriver(t, rule.Simpson38)
	fe := func(x float64) (float64, error) { return cubic14(x), nil }

	var got []driver.Slice
	v, reversed, err := d.EachE(fe, 2, 0, 5, func(s driver.Slice) { got = append(got, s) })
	require.NoError(t, err)
	assert.True(t, reversed)

	want, _, err := d.SlicesE(fe, 2, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, d.Sum(want, true), v)

	approx, err := d.ApproximateE(fe, 2, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, approx, v)

	// visit 可為 nil
	_, _, err = d.EachE(fe, 0, 1, 3, nil)
	require.NoError(t, err)

	calls := 0
	_, _, err = d.EachE(func(x float64) (float64, error) {
		if x > 1 {
			return 0, errDomain
		}
		return x, nil
	}, 0, 2, 4, func(driver.Slice) { calls++ })
	assert.Same(t, errDomain, err)
	assert.Equal(t, 2, calls)
}

func TestApproximate_HugeFiniteInterval(t *testing.T) {
	zero := func(float64) float64 { return 0 }
	one := func(float64) float64 { return 1e-300 }
	for _, n := range []int{2, 3, 1000} {
		for name, rl := range allRules(t) {
			got, err := mustDriver(t, rl).Approximate(zero, -1e308, 1e308, n)
			require.NoError(t, err, name)
			assert.Equal(t, 0.0, got, name)
		}
		got, err := mustDriver(t, rule.RectangleMid, driver.WithDigits(12)).Approximate(one, -1e308, 1e308, n)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(got))
	}

	// 單一切片的寬度本身無法表示
	_, err := mustDriver(t, rule.RectangleMid).Approximate(zero, -1e308, 1e308, 1)
	var e *errs.E
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "n_slices", e.Param)
}

func TestApproximate_PanicPropagates(t *testing.T) {
	d := mustDriver(t, rule.Trapezoid)
	assert.Panics(t, func() {
		_, _ = d.Approximate(func(float64) float64 { panic("boom") }, 0, 1, 2)
	})
}

func TestApproximate_ConcurrentReuse(t *testing.T) {
	d := mustDriver(t, rule.Simpson13)
	want, err := d.Approximate(math.Sin, 0, math.Pi, 500)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, want, 1e-6)

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = d.Approximate(math.Sin, 0, math.Pi, 500)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, want, r)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.0, driver.Round(1.0000004, 6))
	assert.Equal(t, 1.000001, driver.Round(1.0000006, 6))
	assert.Equal(t, -2.5, driver.Round(-2.50000001, 6))
	assert.True(t, math.IsNaN(driver.Round(math.NaN(), 6)))
	assert.Equal(t, 1e300, driver.Round(1e300, 6))
}
