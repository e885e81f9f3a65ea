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

// 本檔案 (weighted.go) 實作加權不放回排列，供取樣器的加權模式決定池內順序。
//
// 演算法：Efraimidis-Spirakis Algorithm A-ExpJ
// 參考文獻：2006, "Weighted random sampling with a reservoir"
//
// 核心邏輯：
//  1. 為每個元素 i 生成特徵分數 k_i = U_i^(1/w_i)。
//     實作上取 Log 轉換求數值穩定：Score_i = -ln(U_i) / w_i，
//     其中 -ln(U_i) 即標準指數分佈（core.ExpFloat64）。
//  2. 權重 w_i 越大，分母越大，Score_i 越小。
//  3. 所有元素按 Score 由小到大排序，即為加權隨機排列。
//
// 特殊處理：
//   - 權重 < 0：Panic（呼叫端合約錯誤；取樣器建構期已先驗證過）。
//   - 權重 == 0：分數設為 +Inf，保證排在排列最後面（傾向落入被丟棄的 cycle 尾巴）。
//
// 複雜度：時間 O(N log N)（瓶頸在排序）、空間 O(N)。

package sampler

import (
	"cmp"
	"math"
	"slices"

	"github.com/zintix-labs/batchlab/sdk/core"
)

// weightItem 是加權排序中的基本單元。
// 它封裝了原始數據的索引 (idx) 與計算出的隨機權重分數 (score)。
type weightItem struct {
	idx   int
	score float64
}

// WeightedPerm 依非負權重產生 [0,len(weights)) 的加權隨機排列。
//
// 權重型別走泛型（整數或浮點皆可）：訓練端的 sample weight 常是 float，
// 設定檔裡的先驗權重常是 int，兩邊都不該被迫轉型。
func WeightedPerm[W Numbers](c *core.Core, weights []W) []int {
	n := len(weights)
	if n == 0 {
		return []int{}
	}

	items := make([]weightItem, n)
	for i, w := range weights {
		fw := float64(w)
		if fw < 0 {
			panic("WeightedPerm: negative weight")
		}
		if fw == 0 {
			items[i] = weightItem{idx: i, score: math.Inf(1)}
			continue
		}

		// Score = ExpFloat64 / Weight：隨機「路程」除以「速度」＝跑完所需時間。
		// 時間越短排名越靠前。
		items[i] = weightItem{idx: i, score: c.ExpFloat64() / fw}
	}

	slices.SortFunc(items, func(a, b weightItem) int {
		return cmp.Compare(a.score, b.score)
	})

	result := make([]int, n)
	for i, item := range items {
		result[i] = item.idx
	}
	return result
}
