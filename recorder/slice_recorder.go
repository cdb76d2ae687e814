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

package recorder

import (
	"fmt"
	"math"
	"time"

	"github.com/zintix-labs/quadlab/errs"
	"github.com/zintix-labs/quadlab/sdk/driver"
	"github.com/zintix-labs/quadlab/sdk/rule"
	"github.com/zintix-labs/quadlab/stats"
)

// Meta 一次積分的描述資料，原樣放進報告
type Meta struct {
	JobName string
	JobId   int
	Expr    string
	Rule    string
	Policy  string
	From    float64
	To      float64
	Slices  int
	Digits  int
	Exact   *float64
}

// SliceRecorder 積分紀錄員
//
// SliceRecorder 負責紀錄每個切片的結果，並透過Done輸出報表
type SliceRecorder struct {
	Meta       Meta
	Basic      *BasicRecord
	keepPoints bool
	keepAreas  bool
	acc        *stats.SliceAccumulator
	points     []stats.PointReport
}

// BasicRecord 基本紀錄
type BasicRecord struct {
	Slices int     // 已紀錄的切片數
	Evals  int     // 被積函數呼叫次數
	Width  float64 // 切片寬度（取第一片）
	Last   float64 // 最後一片的右端點，用於檢查切片連續
}

// NewSliceRecorder 建立紀錄員；keepAreas 為 false 時只保留統計量（切片多時不保留逐片面積）
func NewSliceRecorder(meta Meta, keepPoints, keepAreas bool) (*SliceRecorder, error) {
	s := new(SliceRecorder)
	if meta.Slices < 1 {
		return s, errs.NewFatal(fmt.Sprintf("slices err %d", meta.Slices))
	}
	if meta.Digits < 0 || meta.Digits > driver.MaxDigits {
		return s, errs.NewFatal(fmt.Sprintf("digits err %d", meta.Digits))
	}
	// 通過valid
	s.Meta = meta
	s.Basic = &BasicRecord{Last: math.NaN()}
	s.keepPoints = keepPoints
	s.keepAreas = keepAreas
	s.acc = stats.NewSliceAccumulator(keepAreas)
	return s, nil
}

// KeepPoints 回報是否需要逐片取樣點
func (s *SliceRecorder) KeepPoints() bool { return s.keepPoints }

// Record 紀錄單一切片；切片必須依序且首尾相接
func (s *SliceRecorder) Record(sl driver.Slice) error {
	if sl.Index != s.Basic.Slices {
		return errs.NewFatal(fmt.Sprintf("slice out of order: got %d, want %d", sl.Index, s.Basic.Slices))
	}
	if s.Basic.Slices > 0 && sl.Lo != s.Basic.Last {
		return errs.NewFatal(fmt.Sprintf("slice %d is not contiguous: lo=%v last=%v", sl.Index, sl.Lo, s.Basic.Last))
	}
	if s.Basic.Slices == 0 {
		s.Basic.Width = sl.Hi - sl.Lo
	}
	s.acc.Add(sl.Area)
	s.Basic.Last = sl.Hi
	s.Basic.Slices++
	return nil
}

// RecordTrace 紀錄單一切片上公式取樣的點；未開啟 keepPoints 時忽略
func (s *SliceRecorder) RecordTrace(index int, pts []rule.Point) {
	if !s.keepPoints {
		return
	}
	p := stats.PointReport{
		Index: index,
		Xs:    make([]float64, len(pts)),
		Ys:    make([]float64, len(pts)),
	}
	for i, pt := range pts {
		p.Xs[i] = pt.X
		p.Ys[i] = pt.Y
	}
	s.points = append(s.points, p)
}

// AddEvals 累加被積函數呼叫次數
func (s *SliceRecorder) AddEvals(n int) {
	s.Basic.Evals += n
}

// Done 產生報表。area 是 driver 捨入後的最終結果。
func (s *SliceRecorder) Done(area float64, reversed bool, elapsed time.Duration) *stats.Report {
	m := s.Meta
	report := &stats.Report{
		Summary: &stats.SummaryReport{
			JobName:  m.JobName,
			JobId:    m.JobId,
			Expr:     m.Expr,
			Rule:     m.Rule,
			Policy:   m.Policy,
			From:     m.From,
			To:       m.To,
			Slices:   m.Slices,
			Digits:   m.Digits,
			Reversed: reversed,
			Area:     area,
			Exact:    m.Exact,
			Evals:    s.Basic.Evals,
			Elapsed:  elapsed.String(),
		},
		Slices: s.acc.Report(s.Basic.Width, s.keepAreas),
		Points: s.points,
	}
	report.Done()
	return report
}
