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
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/recorder"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/expr"
	"github.com/zintix-labs/quadlab/sdk/rule"
	"github.com/zintix-labs/quadlab/stats"
)

const (
	DefaultMaxSlices = 10_000_000
	DefaultMaxPoints = 2_000 // 要求取樣點時的切片數上限
	ctxCheckInterval = 1024
)

// IntegrateRequest 一次臨時積分（不經過 catalog）
type IntegrateRequest struct {
	Expr   string
	From   float64
	To     float64
	Slices int
	Rule   string
	Policy string
	Digits *int
	Exact  *float64
	Points bool
	Areas  bool
}

type driverKey struct {
	rule   rule.Key
	policy driver.Policy
	digits int
}

// Runtime 長駐服務用的執行期：Driver 依 (rule, policy, digits) 快取，可被多個 goroutine 同時使用。
type Runtime struct {
	q *Quadlab

	drivers sync.Map // driverKey -> *driver.Driver

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	maxSlices int
}

// BuildRuntime 進入執行期；catalog 會被 Freeze。maxSlices <= 0 時使用 DefaultMaxSlices。
func (q *Quadlab) BuildRuntime(maxSlices int) (*Runtime, error) {
	q.Freeze()
	if maxSlices <= 0 {
		maxSlices = DefaultMaxSlices
	}
	rt := &Runtime{
		q:         q,
		done:      make(chan struct{}),
		maxSlices: maxSlices,
	}
	rt.reason.Store("")

	// 摘要先算好快取，之後只讀
	if _, err := q.Summary(); err != nil {
		return nil, err
	}

	// 先把目錄內工作用到的 driver 建好（fail-fast）
	for _, id := range q.IDs() {
		js, err := q.cat.JobSettingByID(id)
		if err != nil {
			return nil, err
		}
		if _, err := rt.driver(js.RuleKey(), js.OrderingPolicy(), js.RoundDigits()); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func (rt *Runtime) Quadlab() *Quadlab { return rt.q }

func (rt *Runtime) MaxSlices() int { return rt.maxSlices }

// driver 取出或建立快取的 Driver
func (rt *Runtime) driver(key rule.Key, p driver.Policy, digits int) (*driver.Driver, error) {
	k := driverKey{rule: key, policy: p, digits: digits}
	if v, ok := rt.drivers.Load(k); ok {
		return v.(*driver.Driver), nil
	}
	d, err := rt.q.NewDriver(string(key), driver.WithPolicy(p), driver.WithDigits(digits))
	if err != nil {
		return nil, err
	}
	v, _ := rt.drivers.LoadOrStore(k, d)
	return v.(*driver.Driver), nil
}

func (rt *Runtime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "integrate canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return errs.NewFatal("quadlab runtime closed: " + rt.ClosedReason())
	default:
		return nil
	}
}

// Integrate 執行一次臨時積分。
//
// 參數錯誤回傳 InvalidArgument；被積函數求值錯誤（除以零、超出定義域）回傳 Warn 等級錯誤；
// ctx 取消時在下一次檢查點中止並回傳包著 ctx.Err() 的錯誤。
func (rt *Runtime) Integrate(ctx context.Context, req *IntegrateRequest) (*stats.Report, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errs.InvalidArgument("request", "request is nil")
	}
	if req.Exact != nil && (math.IsNaN(*req.Exact) || math.IsInf(*req.Exact, 0)) {
		return nil, errs.InvalidArgument("exact", "exact (%v) is not a finite number", *req.Exact)
	}
	if req.Slices > rt.maxSlices {
		return nil, errs.InvalidArgument("n_slices", "n_slices (%d) exceeds limit %d", req.Slices, rt.maxSlices)
	}
	e, err := expr.Resolve(req.Expr)
	if err != nil {
		return nil, err
	}
	key, err := rule.ParseKey(orDefault(req.Rule, string(rule.KeyRectangleMid)))
	if err != nil {
		return nil, errs.InvalidArgument("integration_rule", "%v", err)
	}
	p, err := driver.ParsePolicy(req.Policy)
	if err != nil {
		return nil, err
	}
	digits := driver.DefaultDigits
	if req.Digits != nil {
		digits = *req.Digits
	}
	d, err := rt.driver(key, p, digits)
	if err != nil {
		return nil, err
	}
	meta := recorder.Meta{
		JobName: "adhoc",
		Expr:    e.Source(),
		Rule:    string(key),
		Policy:  p.String(),
		From:    req.From,
		To:      req.To,
		Slices:  req.Slices,
		Digits:  digits,
		Exact:   req.Exact,
	}
	return integrate(d, withContext(ctx, e.Fallible()), meta, RunOptions{KeepPoints: req.Points, KeepAreas: req.Areas})
}

// RunJob 執行 catalog 內的工作
func (rt *Runtime) RunJob(ctx context.Context, name string, opt RunOptions) (*stats.Report, error) {
	if err := rt.check(ctx); err != nil {
		return nil, err
	}
	js, err := rt.q.JobSetting(name)
	if err != nil {
		return nil, err
	}
	d, err := rt.driver(js.RuleKey(), js.OrderingPolicy(), js.RoundDigits())
	if err != nil {
		return nil, err
	}
	return integrate(d, withContext(ctx, js.Integrand()), metaOf(js), opt)
}

// Run 阻塞直到 Runtime 被關閉，讓 Runtime 可以直接交給 server/app 管理生命週期。
func (rt *Runtime) Run() error {
	<-rt.done
	return nil
}

// Shutdown 關閉 Runtime；之後的 Integrate / RunJob 都會回傳錯誤。
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.closeWithReason("shutdown")
	return nil
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// withContext 每 ctxCheckInterval 次求值檢查一次 ctx，取消時以錯誤中止積分
func withContext(ctx context.Context, f rule.FallibleFunc) rule.FallibleFunc {
	if ctx.Done() == nil {
		return f
	}
	n := 0
	return func(x float64) (float64, error) {
		n++
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, errs.Wrap(err, fmt.Sprintf("integrate canceled after %d evals", n))
			}
		}
		return f(x)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
