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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/server/logger"
)

const (
	DefaultTimeout  = 5 * time.Second
	MaxTimeout      = 60 * time.Second
	DefaultWorkers  = 4
	MaxBatchWorkers = 64
)

type SvrCfg struct {
	Log       *slog.Logger
	Quadlab   *quadlab.Quadlab
	Addr      string        // 監聽位址，空值走預設 :5808
	Timeout   time.Duration // 單一請求的計算時限
	MaxSlices int           // 臨時積分的切片數上限
	Workers   int           // batch 預設 worker 數
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Quadlab == nil {
		return errs.NewFatal("quadlab is required")
	}

	// 0 < Timeout <= 60s
	if sc.Timeout <= 0 {
		sc.Timeout = DefaultTimeout
	}
	sc.Timeout = min(MaxTimeout, sc.Timeout)

	if sc.MaxSlices <= 0 {
		sc.MaxSlices = quadlab.DefaultMaxSlices
	}

	// 1 <= Workers <= 64
	if sc.Workers <= 0 {
		sc.Workers = DefaultWorkers
	}
	sc.Workers = min(MaxBatchWorkers, sc.Workers)
	return nil
}
