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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/quadlab/errs"
)

// Body 錯誤回應的 JSON 結構
type Body struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`  // invalid_argument 等
	Param  string `json:"param,omitempty"` // 出錯的參數名稱（n_slices / integration_rule / expr ...）
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則（邊界層最小映射、可預期）：
//   - ctx timeout/cancel      → 504/408（請求生命週期問題）
//   - errs.ErrInvalidArgument → 400（不論等級，參數錯誤一定是呼叫端問題）
//   - errs.Warn               → 400（被積函數求值失敗等請求內容問題）
//   - errs.Fatal / 其他       → 500
//
// 本函數屬於 HTTP 邊界層，放在 server/* 而不是 errs，避免核心錯誤包依賴 net/http。
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout // 504
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout // 408
	case errors.Is(err, errs.ErrInvalidArgument):
		return http.StatusBadRequest
	}
	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Warn {
		return http.StatusBadRequest // 400
	}
	return http.StatusInternalServerError
}

// NewBody 由錯誤建立回應內容
func NewBody(err error) *Body {
	b := &Body{Status: StatusCode(err), Error: err.Error()}
	if e, ok := errs.AsErr(err); ok {
		if e.Kind != errs.KindNone {
			b.Kind = e.Kind.String()
		}
		b.Param = e.Param
	}
	return b
}

// Errs 決定 status code 並寫回 JSON 錯誤內容；err 為 nil 時不做任何事。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	b := NewBody(err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(b.Status)
	_ = json.NewEncoder(w).Encode(b)
}

// Log 依 status 決定是否記錄：408/409/429 記 Warn，5xx 記 Error，其餘 4xx 屬呼叫端問題不記。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusConflict || status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Int("status", status), slog.Any("err", err))
	case status >= 500 && status < 600:
		log.Error(msg, slog.Int("status", status), slog.Any("err", err))
	}
}
