package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/quadlab/demo/demo_configs"
	"github.com/zintix-labs/quadlab/setting"
)

func mapFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for k, v := range files {
		m[k] = &fstest.MapFile{Data: []byte(v)}
	}
	return m
}

func TestCatalog_RegisterAndLoad(t *testing.T) {
	c, err := New(demo_configs.FS)
	require.NoError(t, err)

	require.NoError(t, c.Register(
		Entry{JID: 2, Name: "Square", ConfigName: "square.yaml"},
		Entry{JID: 1, Name: "cubic", ConfigName: "cubic.yaml"},
	))
	assert.Equal(t, []setting.JID{1, 2}, c.IDs())

	e, ok := c.GetByName(" SQUARE ")
	require.True(t, ok)
	assert.Equal(t, setting.JID(2), e.JID)
	assert.Equal(t, "square", e.Name)
	// 另一批次只差大小寫仍是重複
	assert.ErrorIs(t, c.Register(Entry{JID: 3, Name: "square ", ConfigName: "sine.yaml"}), ErrDupName)

	js, err := c.JobSettingByID(1)
	require.NoError(t, err)
	assert.Equal(t, "cubic", js.JobName)
	assert.Equal(t, 1000, js.Slices)

	js, err = c.JobSettingByName("square")
	require.NoError(t, err)
	assert.Equal(t, "x^2", js.Expr)

	sums, err := c.Summaries()
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "cubic", sums[0].Name)
	assert.Equal(t, "trapezoid", sums[1].Rule)

	_, err = c.JobSettingByID(99)
	assert.Error(t, err)
	_, err = c.JobSettingByName("nope")
	assert.Error(t, err)
}

func TestCatalog_RegisterErrors(t *testing.T) {
	c, err := New(demo_configs.FS)
	require.NoError(t, err)
	require.NoError(t, c.Register(Entry{JID: 1, Name: "cubic", ConfigName: "cubic.yaml"}))

	assert.ErrorIs(t, c.Register(Entry{JID: 1, Name: "x", ConfigName: "sine.yaml"}), ErrDupID)
	assert.ErrorIs(t, c.Register(Entry{JID: 7, Name: "CUBIC", ConfigName: "sine.yaml"}), ErrDupName)
	assert.Error(t, c.Register(Entry{JID: 7, Name: "", ConfigName: "sine.yaml"}))
	assert.Error(t, c.Register(Entry{JID: 7, Name: "a", ConfigName: "missing.yaml"}))
	assert.Error(t, c.Register(Entry{JID: 7, Name: "a", ConfigName: "../sine.yaml"}))
	assert.Error(t, c.Register(Entry{JID: 7, Name: "a", ConfigName: "sine.txt"}))
	assert.Error(t, c.Register(Entry{JID: 7, Name: "a", ConfigName: "cubic.yaml"}))

	// 同一批內重複
	assert.ErrorIs(t, c.Register(
		Entry{JID: 8, Name: "a", ConfigName: "sine.yaml"},
		Entry{JID: 8, Name: "b", ConfigName: "runge.yaml"},
	), ErrDupID)
	assert.Equal(t, []setting.JID{1}, c.IDs())

	c.Freeze()
	assert.True(t, c.IsFrozen())
	assert.Error(t, c.Register(Entry{JID: 9, Name: "sine", ConfigName: "sine.yaml"}))
}

func TestMultiFS(t *testing.T) {
	a := mapFS(map[string]string{"a.yaml": "job_name: a\nexpr: x\nfrom: 0\nto: 1\nslices: 1\n", "readme.md": "ignored"})
	b := mapFS(map[string]string{"b.json": `{"job_name":"b","expr":"x","from":0,"to":1,"slices":1}`})

	c, err := New(a, b)
	require.NoError(t, err)
	require.NoError(t, c.Register(
		Entry{JID: 1, Name: "a", ConfigName: "a.yaml"},
		Entry{JID: 2, Name: "b", ConfigName: "b.json"},
	))
	js, err := c.JobSettingByName("b")
	require.NoError(t, err)
	assert.Equal(t, "b", js.JobName)
	assert.Len(t, c.Cfg().Sources(), 2)

	_, err = New(a, mapFS(map[string]string{"a.yaml": ""}))
	assert.Error(t, err, "duplicate across fs")

	_, err = New(mapFS(map[string]string{"sub/a.yaml": ""}))
	assert.Error(t, err, "nested dir")

	_, err = New()
	assert.Error(t, err)
}
