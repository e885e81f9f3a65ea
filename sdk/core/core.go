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

// Package core 提供 batchlab 的亂數核心（PRNG）。
//
// 取樣器（sampler）所有的隨機性都必須經過 Core 取得，理由：
//  1. 可重現（reproducible）：同一個 seed 必須產生同一串 epoch 排列。
//  2. 可審計（auditable）：Snapshot/Restore 允許在任意批次邊界保存/還原整條亂數流。
//  3. 可替換：訓練端若想注入自己的 PRNG（例如固定序列做測試），只要滿足 PRNG 介面。
package core

import "math"

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 合約要求同時提供 Uint64 / Float64 / UintN / IntN，而不是只要求 Uint64：
//   - bounded 生成（UintN/IntN）交由 PRNG 自己實作，32-bit 核心可以走 32-bit fast path，
//     不必被迫先產生 uint64 再裁切。
//   - Float64 的精度（32-bit vs 53-bit mantissa）與生成方式也應由 PRNG 自己決定。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// CoreFactory 產生 PRNG 實例。
//
// 合約（很重要）：在同一個實作與同一個版本下，New(seed) 必須是「決定性」的——
// 相同的 seed 必須產生相同的初始內部狀態與輸出序列。
//
// seed 的生命週期由上層（Lab/Simulator）統一管理：外部未提供時由上層產生並保存
// baseSeed，後續所有 Feeder 皆由 baseSeed 以固定算法派生子 seed。
// 因此本包永遠不需要「不帶 seed 的 New()」。
type CoreFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 CoreFactory（PCG64）。
type DefaultPRNG struct{}

// New 滿足 CoreFactory 合約。
func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
// 熱路徑中只使用哨兵值回傳
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	idx := c.IntN(len(src))
	return src[idx]
}

// ShuffleInts 使用 Fisher-Yates (亦稱 Knuth Shuffle) 演算法
// 對 []int 進行「就地 (In-place)」隨機重排。
//
// 演算法特性：
//
//  1. 公平性 (Unbiased)：
//     所有 N! 種排列出現的機率嚴格相等 (1/N!)。
//
//  2. 效能：
//     時間 O(N)、空間 O(1)，就地交換、零配置。
//
// 取樣器每個 epoch 邊界對各類別池各做一次 ShuffleInts，
// 批次即為排列的連續切片，天然保證批內索引唯一。
func (c *Core) ShuffleInts(src []int) {
	if len(src) <= 1 {
		return
	}

	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}

// Perm 回傳 [0,n) 的一個新隨機排列；n <= 0 回傳空 slice。
func (c *Core) Perm(n int) []int {
	if n <= 0 {
		return []int{}
	}
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	c.ShuffleInts(p)
	return p
}

// ExpFloat64 回傳標準指數分佈（rate = 1）的正值亂數。
//
// 以反函數法自 Float64 導出：-ln(1-U)，U ∈ (0,1)。
// 加權排列（Efraimidis-Spirakis）用它當作每個元素的「隨機路程」。
func (c *Core) ExpFloat64() float64 {
	for {
		u := c.Float64()
		if u > 0 {
			return -math.Log(1 - u)
		}
	}
}
