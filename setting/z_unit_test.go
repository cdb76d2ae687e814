package setting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

const cubicYAML = `
job_name: " Cubic "
job_id: 1
expr: "14*x^3"
from: 0
to: 2
slices: 1000
rule: Rectangle-Mid
exact: 56
`

func TestGetJobSettingByYAML(t *testing.T) {
	js, err := GetJobSettingByYAML([]byte(cubicYAML))
	require.NoError(t, err)

	assert.Equal(t, "cubic", js.JobName)
	assert.Equal(t, JID(1), js.JobID)
	assert.Equal(t, rule.KeyRectangleMid, js.RuleKey())
	assert.Equal(t, driver.Permissive, js.OrderingPolicy())
	assert.Equal(t, "permissive", js.Policy)
	assert.Equal(t, driver.DefaultDigits, js.RoundDigits())
	require.NotNil(t, js.Exact)
	assert.Equal(t, 56.0, *js.Exact)

	v, err := js.Compiled().Eval(2)
	require.NoError(t, err)
	assert.Equal(t, 112.0, v)
	assert.Len(t, js.DriverOptions(), 2)
}

func TestGetJobSettingByJSON(t *testing.T) {
	raw := `{"job_name":"sine","job_id":2,"expr":"sine","from":0,"to":3.14159,"slices":10,"rule":"simpson_1_3","policy":"strict","digits":4}`
	js, err := GetJobSettingByJSON([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, rule.KeySimpson13, js.RuleKey())
	assert.Equal(t, driver.Strict, js.OrderingPolicy())
	assert.Equal(t, 4, js.RoundDigits())
	// 具名函數
	assert.Equal(t, "sin(x)", js.Compiled().Source())
}

func TestJobSetting_DefaultRule(t *testing.T) {
	js, err := GetJobSettingByYAML([]byte("job_name: a\nexpr: x\nfrom: 0\nto: 1\nslices: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, rule.KeyRectangleMid, js.RuleKey())
}

func TestJobSetting_Invalid(t *testing.T) {
	cases := map[string]string{
		"no name":        "expr: x\nfrom: 0\nto: 1\nslices: 1\n",
		"bad expr":       "job_name: a\nexpr: 'x +'\nfrom: 0\nto: 1\nslices: 1\n",
		"zero slices":    "job_name: a\nexpr: x\nfrom: 0\nto: 1\nslices: 0\n",
		"bad policy":     "job_name: a\nexpr: x\nfrom: 0\nto: 1\nslices: 1\npolicy: loose\n",
		"strict order":   "job_name: a\nexpr: x\nfrom: 2\nto: 1\nslices: 1\npolicy: strict\n",
		"digits range":   "job_name: a\nexpr: x\nfrom: 0\nto: 1\nslices: 1\ndigits: 13\n",
		"unknown field":  "job_name: a\nexpr: x\nfrom: 0\nto: 1\nslices: 1\nfoo: 1\n",
		"inf bound":      "job_name: a\nexpr: x\nfrom: .inf\nto: 1\nslices: 1\n",
		"bad rule":       "job_name: a\nexpr: x\nfrom: 0\nto: 1\nslices: 1\nrule: ' '\n",
		"expr and table": "job_name: a\nexpr: x\ntable: {xs: [0, 1], ys: [0, 1]}\nslices: 1\n",
		"bad table":      "job_name: a\ntable: {xs: [1, 0], ys: [0, 1]}\nslices: 1\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := GetJobSettingByYAML([]byte(raw))
			require.Error(t, err)
			_, ok := errs.AsErr(err)
			assert.True(t, ok)
		})
	}

	_, err := GetJobSettingByJSON([]byte(`{"job_name":"a","expr":"x","from":0,"to":1,"slices":1,"extra":true}`))
	assert.Error(t, err)
}

const tableYAML = `
job_name: measured
table:
  xs: [0, 1, 2, 4]
  ys: [0, 2, 2, 0]
slices: 4
rule: trapezoid
`

func TestJobSetting_Table(t *testing.T) {
	js, err := GetJobSettingByYAML([]byte(tableYAML))
	require.NoError(t, err)
	assert.Nil(t, js.Compiled())
	// 區間預設為取樣範圍
	assert.Equal(t, 0.0, js.From)
	assert.Equal(t, 4.0, js.To)
	assert.Equal(t, "table(4 points on [0, 4])", js.Source())

	f := js.Integrand()
	require.NotNil(t, f)
	v, err := f(1.5)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	d, err := driver.New(rule.Trapezoid, js.DriverOptions()...)
	require.NoError(t, err)
	area, err := d.ApproximateE(f, js.From, js.To, js.Slices)
	require.NoError(t, err)
	assert.Equal(t, 5.0, area)

	js, err = GetJobSettingByJSON([]byte(`{"job_name":"part","table":{"xs":[0,1],"ys":[1,3]},"from":0.5,"to":1,"slices":1}`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, js.From)
}
