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

// ErrKind : Error 分類，描述錯誤屬於哪一類合約違反。
//
// 與 ErrLevel（嚴重程度）正交：
//   - Config：建構期輸入不合法（空序列、非法 batch size、單一類別資料集…），
//     呼叫端該修的是「參數/設定」。
//   - State：執行期狀態不合法（對已失效的 pass 繼續迭代…），
//     呼叫端該做的是「重新開一個 pass」。
type ErrKind uint8

const (
	KindNone ErrKind = iota
	KindConfig
	KindState
)

var errKindMap = map[ErrKind]string{
	KindNone:   "",
	KindConfig: "config",
	KindState:  "state",
}

func Kind(k ErrKind) string {
	if str, ok := errKindMap[k]; ok {
		return str
	}
	return ""
}

// E 是統一的錯誤型別。
// Message 為經過樣板格式化後的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重程度；ErrKind 表示合約分類。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	ErrKind ErrKind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if k := Kind(e.ErrKind); k != "" {
		base = fmt.Sprintf("errlv=%s kind=%s %s", ErrLv(e.ErrLv), k, e.Message)
	}
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

// NewConfig 建立建構期設定錯誤（fail-fast 合約）。
//
// 取樣器的建構失敗一律走這裡：問題出在輸入，等級視為 Warn（呼叫端可修正後重試）。
func NewConfig(msg string) *E {
	return &E{Message: msg, ErrLv: Warn, ErrKind: KindConfig}
}

// NewState 建立執行期狀態錯誤。
//
// 對已失效/已耗盡的迭代 pass 繼續推進屬於程式邏輯錯誤，但重新開一個 pass 即可恢復。
func NewState(msg string) *E {
	return &E{Message: msg, ErrLv: Warn, ErrKind: KindState}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

func Configf(format string, a ...any) *E {
	return NewConfig(fmt.Sprintf(format, a...))
}

func Statef(format string, a ...any) *E {
	return NewState(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / ErrKind 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 ErrKind（保持原本嚴重度與分類）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），則 ErrLv 一律視為 Fatal。
//
// 建議使用方式：
//   - 若你已判斷該錯誤是「可預期且可處理」的情境，請直接建立一個 *E
//     （使用 New / NewConfig / NewState 並自行指定分級），而不要對其呼叫 Wrap。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	kind := KindNone
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		kind = e.ErrKind
	}
	r := New(errLv, msg)
	r.ErrKind = kind
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，但可附加額外上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// IsConfig 回報 err 是否（或其底層）為建構期設定錯誤。
func IsConfig(err error) bool {
	var e *E
	return errors.As(err, &e) && e.ErrKind == KindConfig
}

// IsState 回報 err 是否（或其底層）為執行期狀態錯誤。
func IsState(err error) bool {
	var e *E
	return errors.As(err, &e) && e.ErrKind == KindState
}
