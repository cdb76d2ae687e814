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

package quadlab

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/stats"
)

// BatchResult 批次中單一工作的結果；Err 與 Report 只會有一個非 nil
type BatchResult struct {
	Name   string        `json:"name"             yaml:"name"`
	Report *stats.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string        `json:"error,omitempty"  yaml:"error,omitempty"`
	Err    error         `json:"-"                yaml:"-"`
}

type batchJob struct {
	idx  int
	name string
}

// Batch 以 workers 個 goroutine 執行多個 catalog 工作，結果依 names 的順序回傳。
//
// 單一工作失敗只記錄在對應的 BatchResult，不影響其他工作；
// ctx 取消後尚未開始的工作直接記為取消錯誤，執行中的工作在下一個檢查點中止。names 為空時執行整個目錄。
func (q *Quadlab) Batch(ctx context.Context, names []string, workers int, showpb bool) ([]BatchResult, time.Duration, error) {
	if workers <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if len(names) == 0 {
		for _, e := range q.All() {
			names = append(names, e.Name)
		}
	}
	if len(names) == 0 {
		return nil, 0, errs.NewWarn("no jobs to run")
	}
	workers = min(workers, len(names))

	results := make([]BatchResult, len(names))
	// 作一個緩衝channel 使工作依序處理
	jobs := make(chan batchJob, len(names))

	wg := new(sync.WaitGroup)
	wg.Add(workers)

	bar := pb.StartNew(len(names))
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < workers; w++ {
		go q.batchWorker(ctx, wg, jobs, results, bar)
	}
	for i, n := range names {
		jobs <- batchJob{idx: i, name: n}
	}
	close(jobs) // 工作送完關閉通道 通知所有 worker 不會再有新資料
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	return results, used, nil
}

func (q *Quadlab) batchWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan batchJob, results []BatchResult, bar *pb.ProgressBar) {
	defer wg.Done()
	for j := range jobs {
		res := BatchResult{Name: j.name}
		if err := ctx.Err(); err != nil {
			res.Err = errs.Wrap(err, "batch canceled")
		} else {
			res.Report, res.Err = q.RunByNameContext(ctx, j.name, RunOptions{})
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		results[j.idx] = res
		bar.Increment()
	}
}

// Failed 回傳失敗的工作數
func Failed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
