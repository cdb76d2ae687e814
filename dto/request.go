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

package dto

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zintix-labs/quadlab"
	"github.com/zintix-labs/quadlab/errs"
)

// maxBody POST body 上限（1MiB）
const maxBody = 1 << 20

type IntegrateRequest struct {
	Expr   string   `json:"expr"`             // 被積函數：表達式或內建名稱（cubic/sine/...）
	From   *float64 `json:"from"`             // 下限 a（必填）
	To     *float64 `json:"to"`               // 上限 b（必填）
	Slices int      `json:"slices"`           // 切片數 n
	Rule   string   `json:"rule,omitempty"`   // 積分法則，預設 rectangle_mid
	Policy string   `json:"policy,omitempty"` // permissive | strict
	Digits *int     `json:"digits,omitempty"` // 四捨五入位數，預設 6
	Exact  *float64 `json:"exact,omitempty"`  // 可選：已知解析解，用來算誤差
	Points bool     `json:"points,omitempty"` // 回傳每片取樣點
	Areas  bool     `json:"areas,omitempty"`  // 回傳每片面積
}

// DecodeIntegrateRequest 把 HTTP 請求解碼成 IntegrateRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（expr/from/to/slices|n/rule/policy/digits/exact/points/areas）。
//   - POST：從 JSON body 反序列化。
//
// 注意：
//   - 這裡只負責 decode 與型別轉換，from/to 是否為有限數、n 是否 >= 1 等交給 Runtime 判斷。
//   - POST 會限制 body 大小並開啟 DisallowUnknownFields()，未知欄位直接拒絕。
func DecodeIntegrateRequest(r *http.Request) (*IntegrateRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(IntegrateRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Expr = q.Get("expr")
		req.Rule = q.Get("rule")
		req.Policy = q.Get("policy")

		var err error
		if req.From, err = floatParam(q, "from"); err != nil {
			return nil, err
		}
		if req.To, err = floatParam(q, "to"); err != nil {
			return nil, err
		}
		if req.Exact, err = floatParam(q, "exact"); err != nil {
			return nil, err
		}

		s := q.Get("slices")
		if s == "" {
			s = q.Get("n")
		}
		if s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.InvalidArgument("n_slices", "invalid slices: %v", err)
			}
			req.Slices = v
		}

		if s := q.Get("digits"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.InvalidArgument("digits", "invalid digits: %v", err)
			}
			req.Digits = &v
		}

		if req.Points, err = boolParam(q, "points"); err != nil {
			return nil, err
		}
		if req.Areas, err = boolParam(q, "areas"); err != nil {
			return nil, err
		}
		return req, nil

	case http.MethodPost:
		if err := decodeJSON(r.Body, req); err != nil {
			return nil, err
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// Parse 轉成執行期請求；from/to 必填
func (ir *IntegrateRequest) Parse() (*quadlab.IntegrateRequest, error) {
	if strings.TrimSpace(ir.Expr) == "" {
		return nil, errs.InvalidArgument("expr", "expr is required")
	}
	if ir.From == nil {
		return nil, errs.InvalidArgument("a", "from is required")
	}
	if ir.To == nil {
		return nil, errs.InvalidArgument("b", "to is required")
	}
	return &quadlab.IntegrateRequest{
		Expr:   ir.Expr,
		From:   *ir.From,
		To:     *ir.To,
		Slices: ir.Slices,
		Rule:   ir.Rule,
		Policy: ir.Policy,
		Digits: ir.Digits,
		Exact:  ir.Exact,
		Points: ir.Points,
		Areas:  ir.Areas,
	}, nil
}

// BatchRequest 批次執行 catalog 工作；names 為空代表全部
type BatchRequest struct {
	Names   []string `json:"names,omitempty"`
	Workers int      `json:"workers,omitempty"`
}

// DecodeBatchRequest GET 用 ?name=a&name=b&workers=4；POST 用 JSON
func DecodeBatchRequest(r *http.Request) (*BatchRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := new(BatchRequest)
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		for _, n := range q["name"] {
			for _, part := range strings.Split(n, ",") {
				if part = strings.TrimSpace(part); part != "" {
					req.Names = append(req.Names, part)
				}
			}
		}
		if s := q.Get("workers"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.InvalidArgument("workers", "invalid workers: %v", err)
			}
			req.Workers = v
		}
	case http.MethodPost:
		if err := decodeJSON(r.Body, req); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	return req, nil
}

// ConvergeRequest 對 catalog 工作做切片數加倍的收斂分析
type ConvergeRequest struct {
	Name   string `json:"name"`
	Start  int    `json:"start"`  // 起始切片數
	Rounds int    `json:"rounds"` // 加倍次數
}

func DecodeConvergeRequest(r *http.Request) (*ConvergeRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	req := &ConvergeRequest{Start: 4, Rounds: 6}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Name = q.Get("name")
		for _, p := range []struct {
			key string
			dst *int
		}{{"start", &req.Start}, {"rounds", &req.Rounds}} {
			if s := q.Get(p.key); s != "" {
				v, err := strconv.Atoi(s)
				if err != nil {
					return nil, errs.InvalidArgument(p.key, "invalid %s: %v", p.key, err)
				}
				*p.dst = v
			}
		}
	case http.MethodPost:
		if err := decodeJSON(r.Body, req); err != nil {
			return nil, err
		}
	default:
		return nil, errs.NewWarn("method not allowed")
	}
	if req.Name == "" {
		return nil, errs.InvalidArgument("name", "name is required")
	}
	if req.Start < 1 {
		return nil, errs.InvalidArgument("start", "start must >= 1")
	}
	if req.Rounds < 2 || req.Rounds > 20 {
		return nil, errs.InvalidArgument("rounds", "rounds must be between 2 and 20")
	}
	return req, nil
}

func decodeJSON(body io.Reader, dst any) error {
	if body == nil {
		return errs.NewWarn("empty body")
	}
	// 防止 body 過大
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.WrapWarn(err, "invalid json")
	}
	return nil
}

func floatParam(q url.Values, key string) (*float64, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		param := key
		switch key {
		case "from":
			param = "a"
		case "to":
			param = "b"
		}
		return nil, errs.InvalidArgument(param, "invalid %s: %v", key, err)
	}
	return &v, nil
}

func boolParam(q url.Values, key string) (bool, error) {
	s := q.Get(key)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, errs.InvalidArgument(key, "invalid %s: %v", key, err)
	}
	return v, nil
}
