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

package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var lang language.Tag = language.English

// Report 一次積分工作的報告
type Report struct {
	Summary *SummaryReport `json:"Summary" yaml:"Summary"`
	Slices  *SliceReport   `json:"Slices"  yaml:"Slices"`
	Points  []PointReport  `json:"Points,omitempty" yaml:"Points,omitempty"`
	isDone  bool
}

type SummaryReport struct {
	JobName  string   `json:"JobName"  yaml:"JobName"`
	JobId    int      `json:"JobId"    yaml:"JobId"`
	Expr     string   `json:"Expr"     yaml:"Expr"`
	Rule     string   `json:"Rule"     yaml:"Rule"`
	Policy   string   `json:"Policy"   yaml:"Policy"`
	From     float64  `json:"From"     yaml:"From"`
	To       float64  `json:"To"       yaml:"To"`
	Slices   int      `json:"Slices"   yaml:"Slices"`
	Digits   int      `json:"Digits"   yaml:"Digits"`
	Reversed bool     `json:"Reversed" yaml:"Reversed"`
	Area     float64  `json:"Area"     yaml:"Area"`
	Exact    *float64 `json:"Exact,omitempty"  yaml:"Exact,omitempty"`
	AbsErr   *float64 `json:"AbsErr,omitempty" yaml:"AbsErr,omitempty"`
	RelErr   *float64 `json:"RelErr,omitempty" yaml:"RelErr,omitempty"`
	Evals    int      `json:"Evals"    yaml:"Evals"`
	Elapsed  string   `json:"Elapsed"  yaml:"Elapsed"`
}

// SliceReport 切片面積的分布（未捨入、不含方向符號）
//
// 直接給 Areas 時由 Done() 一次算出統計量；逐片紀錄時由 SliceAccumulator 填好。
// Median 與 Hist 需要保留面積，切片太多時為空。
type SliceReport struct {
	Width  float64    `json:"Width"  yaml:"Width"`
	RawSum float64    `json:"RawSum" yaml:"RawSum"`
	Min    float64    `json:"Min"    yaml:"Min"`
	Max    float64    `json:"Max"    yaml:"Max"`
	Mean   float64    `json:"Mean"   yaml:"Mean"`
	Std    float64    `json:"Std"    yaml:"Std"`
	Median *float64   `json:"Median,omitempty" yaml:"Median,omitempty"`
	Hist   *Histogram `json:"Hist,omitempty"  yaml:"Hist,omitempty"`
	Areas  []float64  `json:"Areas,omitempty" yaml:"Areas,omitempty"`
	ready  bool
}

// PointReport 單一切片上公式實際取樣的點
type PointReport struct {
	Index int       `json:"Index" yaml:"Index"`
	Xs    []float64 `json:"Xs"    yaml:"Xs"`
	Ys    []float64 `json:"Ys"    yaml:"Ys"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 依 Areas 計算切片統計並填入誤差欄位，重複呼叫無作用。
func (r *Report) Done() {
	if r.isDone {
		return
	}
	if sl := r.Slices; sl != nil && !sl.ready && len(sl.Areas) > 0 {
		sl.RawSum = floats.Sum(sl.Areas)
		sl.Min = floats.Min(sl.Areas)
		sl.Max = floats.Max(sl.Areas)
		sl.Mean, sl.Std = stat.MeanStdDev(sl.Areas, nil)
		if len(sl.Areas) < 2 {
			sl.Std = 0
		}
		med := median(sl.Areas)
		sl.Median = &med
		sl.Hist = NewHistogram(sl.Areas, DefaultBins)
		sl.ready = true
	}
	if s := r.Summary; s != nil && s.Exact != nil && !math.IsInf(s.Area-*s.Exact, 0) {
		abs := math.Abs(s.Area - *s.Exact)
		s.AbsErr = &abs
		if *s.Exact != 0 {
			rel := abs / math.Abs(*s.Exact)
			s.RelErr = &rel
		}
	}
	r.isDone = true
}

// DropAreas 移除逐片面積（統計量保留），給只要摘要的輸出使用
func (r *Report) DropAreas() {
	r.Done()
	if r.Slices != nil {
		r.Slices.Areas = nil
	}
}

func (r *Report) WriteWith(w io.Writer, rep ReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 以表格輸出摘要
func (r *Report) StdOut(w io.Writer) {
	r.Done()
	sk, sm := r.fmtBasic()
	fmt.Fprintln(w, fmtTable(r.Summary.JobName, sk, sm))
}

// FormatDuration 輸出耗時與取樣速度
func FormatDuration(w io.Writer, d time.Duration, evals int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	eps := int(float64(evals) / sec)
	if sec < 60.0 {
		p.Fprintf(w, "used: %.4f seconds\neps : %d evals/sec\n", sec, eps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		p.Fprintf(w, "used: %dm %ds\neps : %d evals/sec\n", m, s, eps)
		return
	}
	p.Fprintf(w, "used: %dh:%dm:%ds\neps : %d evals/sec\n", h, m, s, eps)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func median(xs []float64) float64 {
	cp := make([]float64, len(xs))
	copy(cp, xs)
	sort.Float64s(cp)
	return stat.Quantile(0.5, stat.Empirical, cp, nil)
}

func (r *Report) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	digits := s.Digits
	basic := map[string]string{
		"Job Name": s.JobName,
		"Job ID":   fmt.Sprintf("%d", s.JobId),
		"Expr":     s.Expr,
		"Rule":     s.Rule,
		"Interval": p.Sprintf("[%g, %g]", s.From, s.To),
		"Slices":   p.Sprintf("%d", s.Slices),
		"Evals":    p.Sprintf("%d", s.Evals),
		"Area":     p.Sprintf("%.*f", digits, s.Area),
		"Exact":    "-",
		"Abs Err":  "-",
		"Rel Err":  "-",
		"Elapsed":  s.Elapsed,
	}
	if s.Exact != nil {
		basic["Exact"] = p.Sprintf("%.*f", digits, *s.Exact)
	}
	if s.AbsErr != nil {
		basic["Abs Err"] = p.Sprintf("%.3e", *s.AbsErr)
	}
	if s.RelErr != nil {
		basic["Rel Err"] = p.Sprintf("%.3e", *s.RelErr)
	}
	keys := []string{"Job Name", "Job ID", "Expr", "Rule", "Interval", "Slices", "Evals", "Area", "Exact", "Abs Err", "Rel Err", "Elapsed"}
	if sl := r.Slices; sl != nil && sl.Hist != nil {
		basic["Slice Min"] = p.Sprintf("%.6g", sl.Min)
		basic["Slice Max"] = p.Sprintf("%.6g", sl.Max)
		basic["Slice Mean"] = p.Sprintf("%.6g", sl.Mean)
		basic["Slice Std"] = p.Sprintf("%.6g", sl.Std)
		keys = append(keys, "Slice Min", "Slice Max", "Slice Mean", "Slice Std")
	}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}

func sortFloats(xs []float64) { sort.Float64s(xs) }

func nextUp(x float64) float64 { return math.Nextafter(x, math.Inf(1)) }
