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

// Package errs 定義 quadlab 統一的錯誤型別。
//
// 錯誤分兩個維度：
//   - ErrLevel：嚴重度（Fatal / Warn / Log），給最上層（CLI / HTTP）決定如何回應。
//   - Kind：語意分類。目前只有 KindInvalidArgument（輸入參數不合法，尚未對積分函數求值）。
//
// 積分函數（integrand）自己回傳的錯誤不會被包裝，會原封不動交回呼叫端。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 錯誤語意分類
type Kind uint8

const (
	KindNone Kind = iota
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return ""
	}
}

// ErrInvalidArgument 供 errors.Is 比對使用：任何 Kind 為 KindInvalidArgument 的 *E 都會命中。
var ErrInvalidArgument = errors.New("invalid argument")

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；Cause 可串接下層錯誤（wrap）；
// Param 為出問題的參數名稱（只在 KindInvalidArgument 時有意義）。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
	Param   string
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s ", ErrLv(e.ErrLv))
	if e.Kind != KindNone {
		base += e.Kind.String() + ": "
	}
	if e.Param != "" {
		base += e.Param + ": "
	}
	base += e.Message
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 讓 errors.Is(err, ErrInvalidArgument) 可以命中任何參數錯誤。
func (e *E) Is(target error) bool {
	return target == ErrInvalidArgument && e.Kind == KindInvalidArgument
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

// InvalidArgument 建立參數錯誤：等級固定為 Warn（呼叫端輸入問題，不是系統問題）。
//
// param 為參數名稱，例如 "n_slices"；訊息會寫成 "invalid argument: n_slices: ..."。
func InvalidArgument(param string, format string, a ...any) *E {
	return &E{
		Message: fmt.Sprintf(format, a...),
		ErrLv:   Warn,
		Kind:    KindInvalidArgument,
		Param:   param,
	}
}

// IsInvalidArgument 回報 err 鏈上是否有參數錯誤。
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Kind（保持原本嚴重度與語意）。
//   - 若 cause 不是本包定義的 *E（標準庫、三方依賴或積分函數本身的錯誤），ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	var e *E
	r := New(Fatal, msg)
	if errors.As(cause, &e) {
		r.ErrLv = e.ErrLv
		r.Kind = e.Kind
		r.Param = e.Param
	}
	r.Cause = cause
	return r
}

// WrapWarn 與 Wrap 相同，但對外部錯誤強制使用 Warn 等級。
// 用在「已知是請求內容造成」的外部錯誤，例如 JSON 解碼失敗。
func WrapWarn(cause error, msg string) *E {
	r := Wrap(cause, msg)
	if _, ok := AsErr(cause); !ok {
		r.ErrLv = Warn
	}
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}
