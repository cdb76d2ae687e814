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

// Package dto 定義 HTTP 邊界層的請求/回應結構，與核心型別解耦。
package dto

import (
	"time"

	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/catalog"
	"github.com/zintix-labs/quadlab/sdk/expr"
	"github.com/zintix-labs/quadlab/sdk/rule"
	"github.com/zintix-labs/quadlab/stats"
)

type IntegrateResponse struct {
	Report   *stats.Report `json:"report"`
	UsedTime int64         `json:"used_ms"`
}

func NewIntegrateResponse(r *stats.Report, used time.Duration) *IntegrateResponse {
	return &IntegrateResponse{Report: r, UsedTime: used.Milliseconds()}
}

// RulesResponse 可用的積分法則與內建被積函數
type RulesResponse struct {
	Rules     []string `json:"rules"`
	Named     []string `json:"named"`
	Functions []string `json:"functions"`
}

func NewRulesResponse(keys []rule.Key) *RulesResponse {
	rules := make([]string, len(keys))
	for i, k := range keys {
		rules[i] = string(k)
	}
	return &RulesResponse{
		Rules:     rules,
		Named:     expr.BuiltinNames(),
		Functions: expr.Functions(),
	}
}

type JobsResponse struct {
	Jobs []catalog.Summary `json:"jobs"`
}

type BatchResponse struct {
	Results  []quadlab.BatchResult `json:"results"`
	Failed   int                   `json:"failed"`
	UsedTime int64                 `json:"used_ms"`
}

func NewBatchResponse(results []quadlab.BatchResult, used time.Duration) *BatchResponse {
	return &BatchResponse{
		Results:  results,
		Failed:   quadlab.Failed(results),
		UsedTime: used.Milliseconds(),
	}
}

type ConvergeResponse struct {
	Convergence *stats.ConvergenceReport `json:"convergence"`
	UsedTime    int64                    `json:"used_ms"`
}
