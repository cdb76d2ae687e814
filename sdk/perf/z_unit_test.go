package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/quadlab/errs"
)

func TestRunPProfModes(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	exe := func() error {
		calls++
		s := 0.0
		for i := 0; i < 1000; i++ {
			s += float64(i)
		}
		_ = s
		return nil
	}
	for _, m := range Modes {
		require.NoError(t, RunPProf(exe, m, dir), m)
	}
	assert.Equal(t, len(Modes), calls)
	for _, f := range []string{"cpu.pprof", "heap.pprof", "allocs.pprof"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}
}

func TestRunPProfErrors(t *testing.T) {
	boom := errors.New("boom")
	err := RunPProf(func() error { return boom }, "heap", t.TempDir())
	assert.ErrorIs(t, err, boom)

	err = RunPProf(func() error { return nil }, "block", t.TempDir())
	assert.True(t, errs.IsInvalidArgument(err))
}
