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

// Package quadlab 提供數值積分引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Quadlab 把兩個地基組裝在一起：
//  1. Catalog：積分工作目錄，定義有哪些工作、各自對應的設定檔名稱（ConfigName）。
//  2. rule.Registry：公式註冊表，名稱 -> 單片積分公式（rectangle_mid、simpson_1_3、newton_cotes_4 ...）。
//
// 設定檔來源一律以 fs.FS 注入，Quadlab 本身不綁定任何檔案路徑。
//
// 典型使用情境：
//   - 命令列（cmd/run）：跑單一工作或整個目錄，輸出報表。
//   - 後端服務（cmd/svr）：由 BuildRuntime 取得 Runtime，對外提供積分 API。
package quadlab

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/zintix-labs/quadlab/catalog"
	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/recorder"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/rule"
	"github.com/zintix-labs/quadlab/setting"
	"github.com/zintix-labs/quadlab/stats"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把設定直接編進 binary，也可以用 os.DirFS 在本機讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Rules 用來把一或多個公式註冊表打包成 New() 需要的參數。
//
// New() 會把多個 registries 合併成單一 registry；重複名稱直接失敗。
func Rules(regs ...*rule.Registry) []*rule.Registry {
	return regs
}

// Quadlab 是組裝器：持有 Catalog 與合併後的公式註冊表。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、合併 registries、檢查重複與缺漏。
//   - 執行階段：Freeze 之後依工作編號或名稱執行積分。
type Quadlab struct {
	cat *catalog.Catalog
	reg *rule.Registry
	sum []catalog.Summary
}

// RunOptions 控制單次執行要保留多少細節
type RunOptions struct {
	KeepPoints bool // 保留每片的取樣點
	KeepAreas  bool // 保留每片面積（否則只留統計量）
}

// New 建立一個 Quadlab instance。regs 為空時使用 rule.Default()。
func New(cfgs []fs.FS, regs []*rule.Registry) (*Quadlab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	if len(regs) == 0 {
		regs = Rules(rule.Default())
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	reg, err := rule.MergeRegistry(regs...)
	if err != nil {
		return nil, err
	}
	return &Quadlab{cat: cata, reg: reg}, nil
}

// NewAuto 建立一個直接進入執行階段的 Quadlab instance（RegisterAll + Freeze）。
func NewAuto(cfgs []fs.FS, regs []*rule.Registry) (*Quadlab, error) {
	q, err := New(cfgs, regs)
	if err != nil {
		return nil, err
	}
	if err := q.RegisterAll(); err != nil {
		return nil, err
	}
	q.Freeze()
	return q, nil
}

func (q *Quadlab) Register(ents ...catalog.Entry) error {
	return q.cat.Register(ents...)
}

// RegisterAll
//
// 掃描所有設定檔來源，把可辨識的設定檔（.yaml/.yml/.json）解析成 *setting.JobSetting，
// 用檔案內宣告的 job_id / job_name 產生 catalog.Entry 後一次性註冊。
//
//  1. Fail-fast：任何一個檔案讀取/解析/檢查失敗都會立刻回傳 error。
//  2. 原子性：全部成功才呼叫一次 Register(...)。
//  3. 依檔名排序處理，結果可重現。
//  4. 設定檔指定的公式必須存在於 registry。
func (q *Quadlab) RegisterAll() error {
	sources := q.cat.Cfg().Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[setting.JID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("configs must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}
			js, perr := catalog.ParseJobSettingByExt(base, raw)
			if perr != nil {
				return errs.Wrap(perr, fmt.Sprintf("parse job setting failed: %s", base))
			}

			if prev, ok := seenID[js.JobID]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate job id: %d (config=%s and %s)", js.JobID, prev, base))
			}
			if _, ok := q.cat.GetByID(js.JobID); ok {
				return errs.NewFatal(fmt.Sprintf("job id already registered: %d (config=%s)", js.JobID, base))
			}
			seenID[js.JobID] = base

			if prev, ok := seenName[js.JobName]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate job name: %s (config=%s and %s)", js.JobName, prev, base))
			}
			if _, ok := q.cat.GetByName(js.JobName); ok {
				return errs.NewFatal(fmt.Sprintf("job name already registered: %s (config=%s)", js.JobName, base))
			}
			seenName[js.JobName] = base

			if !q.reg.IsExist(js.RuleKey()) {
				return errs.NewFatal(fmt.Sprintf("rule not registered: rule=%s (config=%s)", js.RuleKey(), base))
			}

			entries = append(entries, catalog.Entry{
				JID:        js.JobID,
				Name:       js.JobName,
				ConfigName: base,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	return q.cat.Register(entries...)
}

func (q *Quadlab) Freeze() {
	q.cat.Freeze()
}

func (q *Quadlab) EntryByID(id setting.JID) (catalog.Entry, bool) {
	return q.cat.GetByID(id)
}

func (q *Quadlab) EntryByName(name string) (catalog.Entry, bool) {
	return q.cat.GetByName(name)
}

func (q *Quadlab) IDs() []setting.JID {
	return q.cat.IDs()
}

func (q *Quadlab) All() []catalog.Entry {
	return q.cat.All()
}

// Summary 回傳所有工作的摘要，Freeze 之後才可用，結果會快取。
func (q *Quadlab) Summary() ([]catalog.Summary, error) {
	if !q.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if q.sum != nil {
		return q.sum, nil
	}
	sum, err := q.cat.Summaries()
	if err != nil {
		return nil, err
	}
	q.sum = sum
	return q.sum, nil
}

// Registry 回傳合併後的公式註冊表（只讀使用）
func (q *Quadlab) Registry() *rule.Registry {
	return q.reg
}

// RuleKeys 回傳所有可用的公式名稱（已排序）
func (q *Quadlab) RuleKeys() []rule.Key {
	return q.reg.Keys()
}

// NewDriver 依公式名稱建立 Driver；名稱不存在時回傳 InvalidArgument（param = "integration_rule"）。
func (q *Quadlab) NewDriver(key string, opts ...driver.Option) (*driver.Driver, error) {
	k, err := rule.ParseKey(key)
	if err != nil {
		return nil, errs.InvalidArgument("integration_rule", "%v", err)
	}
	rl, err := q.reg.Lookup(k)
	if err != nil {
		return nil, err
	}
	return driver.New(rl, opts...)
}

// JobSetting 依名稱取出工作設定
func (q *Quadlab) JobSetting(name string) (*setting.JobSetting, error) {
	if !q.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return q.cat.JobSettingByName(name)
}

// Run 依工作編號執行一次積分並回傳報表
func (q *Quadlab) Run(id setting.JID, opt RunOptions) (*stats.Report, error) {
	if !q.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	js, err := q.cat.JobSettingByID(id)
	if err != nil {
		return nil, err
	}
	return q.RunSetting(js, opt)
}

// RunByName 依工作名稱執行一次積分並回傳報表
func (q *Quadlab) RunByName(name string, opt RunOptions) (*stats.Report, error) {
	return q.RunByNameContext(context.Background(), name, opt)
}

// RunByNameContext 同 RunByName；ctx 取消時在下一個檢查點中止
func (q *Quadlab) RunByNameContext(ctx context.Context, name string, opt RunOptions) (*stats.Report, error) {
	js, err := q.JobSetting(name)
	if err != nil {
		return nil, err
	}
	return q.runSetting(ctx, js, opt)
}

// RunSetting 直接執行一份已初始化的設定（例如 cmd/run 由旗標組出來的工作）
func (q *Quadlab) RunSetting(js *setting.JobSetting, opt RunOptions) (*stats.Report, error) {
	return q.runSetting(context.Background(), js, opt)
}

func (q *Quadlab) runSetting(ctx context.Context, js *setting.JobSetting, opt RunOptions) (*stats.Report, error) {
	if js == nil || js.Integrand() == nil {
		return nil, errs.NewFatal("job setting is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "integrate canceled/timeout")
	}
	d, err := q.NewDriver(string(js.RuleKey()), js.DriverOptions()...)
	if err != nil {
		return nil, err
	}
	return integrate(d, withContext(ctx, js.Integrand()), metaOf(js), opt)
}

// Converge 以 ns 個切片數重跑同一工作（捨入位數固定為 driver.MaxDigits），估計收斂階數。
func (q *Quadlab) Converge(ctx context.Context, name string, ns []int) (*stats.ConvergenceReport, error) {
	js, err := q.JobSetting(name)
	if err != nil {
		return nil, err
	}
	d, err := q.NewDriver(string(js.RuleKey()),
		driver.WithPolicy(js.OrderingPolicy()),
		driver.WithDigits(driver.MaxDigits),
	)
	if err != nil {
		return nil, err
	}
	f := withContext(ctx, js.Integrand())
	areas := make([]float64, len(ns))
	for i, n := range ns {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(err, "converge canceled/timeout")
		}
		a, err := d.ApproximateE(f, js.From, js.To, n)
		if err != nil {
			return nil, err
		}
		if err := finite(a); err != nil {
			return nil, err
		}
		areas[i] = a
	}
	cr, err := stats.EstimateConvergence(math.Abs(js.To-js.From), ns, areas, js.Exact)
	if err != nil {
		return nil, err
	}
	cr.JobName = js.JobName
	cr.Rule = string(js.RuleKey())
	return cr, nil
}

// DoublingSlices 回傳 n, 2n, 4n, ...（共 k 個）
func DoublingSlices(n, k int) []int {
	out := make([]int, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, n)
		n *= 2
	}
	return out
}

func metaOf(js *setting.JobSetting) recorder.Meta {
	return recorder.Meta{
		JobName: js.JobName,
		JobId:   int(js.JobID),
		Expr:    js.Source(),
		Rule:    string(js.RuleKey()),
		Policy:  js.OrderingPolicy().String(),
		From:    js.From,
		To:      js.To,
		Slices:  js.Slices,
		Digits:  js.RoundDigits(),
		Exact:   js.Exact,
	}
}

// integrate 逐片積分、紀錄並產生報表。f 的第一個錯誤原封不動回傳。
//
// 切片以串流方式交給 recorder，不保留整批切片；記憶體只跟保留的面積與取樣點有關。
func integrate(d *driver.Driver, f rule.FallibleFunc, meta recorder.Meta, opt RunOptions) (*stats.Report, error) {
	if err := d.Validate(meta.From, meta.To, meta.Slices); err != nil {
		return nil, err
	}
	if opt.KeepPoints && meta.Slices > DefaultMaxPoints {
		return nil, errs.InvalidArgument("points", "points are limited to %d slices", DefaultMaxPoints)
	}
	rec, err := recorder.NewSliceRecorder(meta, opt.KeepPoints, opt.KeepAreas)
	if err != nil {
		return nil, err
	}

	evals := 0
	counted := func(x float64) (float64, error) {
		evals++
		return f(x)
	}
	// 取樣點另外求值一次，不算進 evals
	traced := func(x float64) float64 {
		y, _ := f(x)
		return y
	}

	var recErr error
	start := time.Now()
	area, reversed, err := d.EachE(counted, meta.From, meta.To, meta.Slices, func(sl driver.Slice) {
		if recErr != nil {
			return
		}
		if recErr = rec.Record(sl); recErr != nil {
			return
		}
		if rec.KeepPoints() {
			_, pts := rule.Trace(d.Rule(), traced, sl.Lo, sl.Hi)
			rec.RecordTrace(sl.Index, pts)
		}
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	if recErr != nil {
		return nil, recErr
	}
	if err := finite(area); err != nil {
		return nil, err
	}
	rec.AddEvals(evals)
	return rec.Done(area, reversed, elapsed), nil
}

// finite 積分結果溢位或為 NaN 時視為被積函數失敗（Warn）
func finite(area float64) error {
	if math.IsNaN(area) || math.IsInf(area, 0) {
		return errs.Warnf("integral is not a finite number (%v)", area)
	}
	return nil
}
