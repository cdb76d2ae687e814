package recorder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/quadlab/recorder"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

func meta(n int) recorder.Meta {
	exact := 56.0
	return recorder.Meta{
		JobName: "cubic",
		JobId:   1,
		Expr:    "14*x^3",
		Rule:    "rectangle_mid",
		Policy:  "permissive",
		From:    0,
		To:      2,
		Slices:  n,
		Digits:  6,
		Exact:   &exact,
	}
}

func TestSliceRecorder_Done(t *testing.T) {
	d, err := driver.New(rule.RectangleMid)
	require.NoError(t, err)
	f := func(x float64) float64 { return 14 * x * x * x }

	slices, reversed, err := d.Slices(f, 0, 2, 1000)
	require.NoError(t, err)

	rec, err := recorder.NewSliceRecorder(meta(1000), false, false)
	require.NoError(t, err)
	for _, sl := range slices {
		require.NoError(t, rec.Record(sl))
	}
	rec.AddEvals(1000)

	report := rec.Done(d.Sum(slices, reversed), reversed, time.Millisecond)
	assert.Equal(t, 55.999972, report.Summary.Area)
	assert.Equal(t, 1000, report.Summary.Evals)
	require.NotNil(t, report.Summary.AbsErr)
	assert.InDelta(t, 0.000028, *report.Summary.AbsErr, 1e-9)
	assert.InDelta(t, 0.002, report.Slices.Width, 1e-15)
	assert.InDelta(t, 55.999972, report.Slices.RawSum, 1e-6)
	assert.Less(t, report.Slices.Min, report.Slices.Max)
	assert.NotNil(t, report.Slices.Median)
	assert.Nil(t, report.Slices.Areas)
	assert.Empty(t, report.Points)
}

func TestSliceRecorder_Points(t *testing.T) {
	rec, err := recorder.NewSliceRecorder(meta(2), true, true)
	require.NoError(t, err)
	assert.True(t, rec.KeepPoints())

	f := func(x float64) float64 { return x }
	area, pts := rule.Trace(rule.Trapezoid, f, 0, 1)
	require.NoError(t, rec.Record(driver.Slice{Index: 0, Lo: 0, Hi: 1, Area: area}))
	rec.RecordTrace(0, pts)

	report := rec.Done(area, false, 0)
	require.Len(t, report.Points, 1)
	assert.Equal(t, []float64{0, 1}, report.Points[0].Xs)
	assert.Equal(t, []float64{0, 1}, report.Points[0].Ys)

	off, err := recorder.NewSliceRecorder(meta(2), false, false)
	require.NoError(t, err)
	off.RecordTrace(0, pts)
	assert.Empty(t, off.Done(0, false, 0).Points)
}

func TestSliceRecorder_Errors(t *testing.T) {
	_, err := recorder.NewSliceRecorder(meta(0), false, false)
	assert.Error(t, err)

	m := meta(3)
	m.Digits = 99
	_, err = recorder.NewSliceRecorder(m, false, false)
	assert.Error(t, err)

	rec, err := recorder.NewSliceRecorder(meta(3), false, false)
	require.NoError(t, err)
	assert.Error(t, rec.Record(driver.Slice{Index: 1, Lo: 0, Hi: 1}))
	require.NoError(t, rec.Record(driver.Slice{Index: 0, Lo: 0, Hi: 1}))
	assert.Error(t, rec.Record(driver.Slice{Index: 1, Lo: 2, Hi: 3}))
}
