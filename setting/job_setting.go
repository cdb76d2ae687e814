package setting

import (
	"fmt"
	"math"
	"strings"

	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/expr"
	"github.com/zintix-labs/quadlab/sdk/rule"
)

// JID 是 catalog 內的積分工作編號
type JID int

// JobSetting 描述一次積分工作：被積函數、區間、切片數與公式。
//
// 被積函數二選一：Expr（算式或內建名稱）或 Table（取樣點，分段線性）。
type JobSetting struct {
	JobName string        `yaml:"job_name"  json:"job_name"`
	JobID   JID           `yaml:"job_id"    json:"job_id"`
	Expr    string        `yaml:"expr"      json:"expr,omitempty"`
	Table   *TableSetting `yaml:"table"     json:"table,omitempty"`
	From    float64       `yaml:"from"      json:"from"`
	To      float64       `yaml:"to"        json:"to"`
	Slices  int           `yaml:"slices"    json:"slices"`
	Rule    string        `yaml:"rule"      json:"rule"`
	Policy  string        `yaml:"policy"    json:"policy,omitempty"`
	Digits  *int          `yaml:"digits"    json:"digits,omitempty"`
	Exact   *float64      `yaml:"exact"     json:"exact,omitempty"`
	Note    string        `yaml:"note"      json:"note,omitempty"`

	// init 之後才有值
	compiled  *expr.Expr
	table     *rule.Table
	integrand rule.FallibleFunc
	key       rule.Key
	policy    driver.Policy
}

// TableSetting 查表型被積函數的取樣點
type TableSetting struct {
	Xs []float64 `yaml:"xs" json:"xs"`
	Ys []float64 `yaml:"ys" json:"ys"`
}

// init 正規化欄位、編譯 Expr 並做基本檢查
func (js *JobSetting) init() error {
	js.JobName = strings.ToLower(strings.TrimSpace(js.JobName))
	if js.JobName == "" {
		return errs.NewFatal("job_name required")
	}
	if js.JobID < 0 {
		return errs.NewFatal(fmt.Sprintf("job_name: %s err:negative job_id", js.JobName))
	}

	if err := js.initIntegrand(); err != nil {
		return err
	}

	if js.Rule == "" {
		js.Rule = string(rule.KeyRectangleMid)
	}
	key, err := rule.ParseKey(js.Rule)
	if err != nil {
		return errs.Wrap(err, fmt.Sprintf("job_name: %s err:bad rule", js.JobName))
	}
	js.key = key

	p, err := driver.ParsePolicy(js.Policy)
	if err != nil {
		return errs.Wrap(err, fmt.Sprintf("job_name: %s err:bad policy", js.JobName))
	}
	js.policy = p
	js.Policy = p.String()

	return js.valid()
}

func (js *JobSetting) valid() error {
	if math.IsNaN(js.From) || math.IsInf(js.From, 0) || math.IsNaN(js.To) || math.IsInf(js.To, 0) {
		return errs.NewFatal(fmt.Sprintf("job_name: %s err:from/to must be finite", js.JobName))
	}
	if js.Slices < 1 {
		return errs.NewFatal(fmt.Sprintf("job_name: %s err:slices (%d) has to be bigger than 0", js.JobName, js.Slices))
	}
	if js.policy == driver.Strict && js.From > js.To {
		return errs.NewFatal(fmt.Sprintf("job_name: %s err:from > to under strict policy", js.JobName))
	}
	if js.Digits != nil && (*js.Digits < 0 || *js.Digits > driver.MaxDigits) {
		return errs.NewFatal(fmt.Sprintf("job_name: %s err:digits (%d) must be in [0, %d]", js.JobName, *js.Digits, driver.MaxDigits))
	}
	if js.Exact != nil && (math.IsNaN(*js.Exact) || math.IsInf(*js.Exact, 0)) {
		return errs.NewFatal(fmt.Sprintf("job_name: %s err:exact must be finite", js.JobName))
	}
	return nil
}

func (js *JobSetting) initIntegrand() error {
	hasExpr := strings.TrimSpace(js.Expr) != ""
	switch {
	case hasExpr && js.Table != nil:
		return errs.NewFatal(fmt.Sprintf("job_name: %s err:expr and table are exclusive", js.JobName))
	case js.Table != nil:
		t, err := rule.NewTable(js.Table.Xs, js.Table.Ys)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("job_name: %s err:bad table", js.JobName))
		}
		js.table = t
		f := t.Func()
		js.integrand = func(x float64) (float64, error) { return f(x), nil }
		// 沒給區間時積整個取樣範圍
		if js.From == 0 && js.To == 0 {
			js.From, js.To = t.Domain()
		}
		return nil
	default:
		e, err := expr.Resolve(js.Expr)
		if err != nil {
			return errs.Wrap(err, fmt.Sprintf("job_name: %s err:bad expr", js.JobName))
		}
		js.compiled = e
		js.integrand = e.Fallible()
		return nil
	}
}

// Compiled 回傳編譯後的算式；查表型工作為 nil
func (js *JobSetting) Compiled() *expr.Expr { return js.compiled }

// Integrand 回傳被積函數（init 後才有值）
func (js *JobSetting) Integrand() rule.FallibleFunc { return js.integrand }

// Source 回傳報表用的被積函數描述
func (js *JobSetting) Source() string {
	if js.table != nil {
		lo, hi := js.table.Domain()
		return fmt.Sprintf("table(%d points on [%g, %g])", len(js.Table.Xs), lo, hi)
	}
	if js.compiled != nil {
		return js.compiled.Source()
	}
	return js.Expr
}

func (js *JobSetting) RuleKey() rule.Key { return js.key }

func (js *JobSetting) OrderingPolicy() driver.Policy { return js.policy }

// RoundDigits 未設定時回傳 driver.DefaultDigits
func (js *JobSetting) RoundDigits() int {
	if js.Digits == nil {
		return driver.DefaultDigits
	}
	return *js.Digits
}

// DriverOptions 依設定組出 driver.New 的選項
func (js *JobSetting) DriverOptions() []driver.Option {
	return []driver.Option{
		driver.WithPolicy(js.policy),
		driver.WithDigits(js.RoundDigits()),
	}
}
