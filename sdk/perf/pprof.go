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

// Package perf 包住一次執行並依模式寫出 pprof 檔，給 cmd/run 做積分效能分析。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/quadlab/errs"
)

const DefaultDir = "build/profiling" // pprof檔案寫入路徑

// Modes 可用的 profiling 模式（空字串代表不開）
var Modes = []string{"", "cpu", "heap", "allocs"}

// RunPProf 依 mode 執行 exe 並寫出對應的 profile 到 dir（空值走 DefaultDir）。
// exe 的錯誤會原樣回傳；profile 寫檔失敗回傳 Fatal 錯誤。
//
// Usage like:
//
//	go run ./cmd/run -expr "14*x^3" -from 0 -to 2 -n 10000000 -p cpu
func RunPProf(exe func() error, mode string, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "":
		return exe()
	case "cpu":
		return pprofCPU(exe, dir)
	case "heap":
		return snapshot(exe, dir, "heap")
	case "allocs":
		return snapshot(exe, dir, "allocs")
	default:
		return errs.InvalidArgument("pprof", "unknown pprof mode %q (want cpu|heap|allocs)", mode)
	}
}

// pprofCPU 可作性能分析，也可拿來做構建時給pgo的優化blueprint
func pprofCPU(exe func() error, dir string) error {
	f, err := create(dir, "cpu.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "failed to start pprof")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// snapshot 先執行 exe 再寫出一次 heap / allocs profile。
// heap 是 in-use 視圖，寫出前先 GC；allocs 是累積配置，要搭配 -alloc_space 查看。
func snapshot(exe func() error, dir, name string) error {
	if err := exe(); err != nil {
		return err
	}
	if name == "heap" {
		runtime.GC()
	}
	f, err := create(dir, name+".pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.NewFatal("unknown profile " + name)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "failed to write "+name+" profile")
	}
	return nil
}

func create(dir, file string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "failed to create pprof dir")
	}
	f, err := os.Create(filepath.Join(dir, file))
	if err != nil {
		return nil, errs.Wrap(err, "failed to create "+file)
	}
	return f, nil
}
