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

// Package sampler 提供餵給訓練迴圈的「分層批次取樣（stratified batch sampling）」演算法與工具。
//
// 本檔案 (define.go) 定義 sampler 套件中通用的泛型約束與對外合約。
//
// 目的：
//   - 統一數值型別的定義，支援各類整數與浮點數權重。
//   - 定義 data loader 只需要的最小結構化合約（BatchSource）。

package sampler

import "iter"

// Integers 定義所有底層實現為整數型別的集合
type Integers interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Floaters 定義所有底層實現為浮點數型別的集合
type Floaters interface {
	~float32 | ~float64
}

// Numbers 定義所有底層實現為數值型別的集合（整數與浮點數）
type Numbers interface {
	Integers | Floaters
}

// BatchSource 是 data loader 對取樣器的最小合約：
// 「可產生一串索引批次的惰性序列，且批次總數可查詢」。
//
// 刻意定義成介面而不是基底型別：loader 端只需要結構化相容（structural
// conformance），不需要任何繼承機制。*Stratified 滿足此合約。
type BatchSource interface {
	// Len 回傳一個 epoch 會產出的批次數。
	Len() int
	// All 回傳一個新 epoch 的批次序列；每次呼叫都會重新洗牌。
	All() iter.Seq[[]int]
}
