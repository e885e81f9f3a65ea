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

// 本檔案 (stratified.go) 實作二元不平衡資料集的分層批次取樣器。
//
// 問題背景：
//   - 訓練資料是一串二元事件標籤（0/1），索引位置即樣本 ID。
//   - 少數類別（通常是 label==1）若交給均勻抽樣，小 batch 內經常一個正樣本都沒有，
//     梯度訊號會被多數類別淹沒。
//   - 分層取樣讓「每個 batch 的類別組成」逼近全資料集的類別比例。
//
// 演算法：
//  1. 建構期把索引依標籤切成兩個池（pool0 / pool1），池不相交且聯集為全索引域。
//  2. 把 batchSize 依池的相對頻率拆成 batch0 + batch1（四捨五入、各類至少 1）。
//  3. 每個類別各自持有一個「排列進給器（classFeed）」：每個 epoch 重新洗牌一次，
//     批次即排列的連續切片；較小受限的池在 epoch 內耗盡時整池重洗（cycling），
//     避免少數類別餓死。
//  4. epoch 長度在建構期定死：Len = floor(多數池大小 / 多數池的每批份額)，
//     迭代中永不重算。
//
// 決策紀錄（原始宣告無法回推的政策，以下為本實作選定並固定的行為）：
//   - 拆分捨入：batch0 = round-half-up(batchSize * n0 / n)，batch1 取餘數；
//     若任一類被捨成 0，撥 1 給它（確保每批兩類都有成員）。
//   - Len 的基準：樣本數較多的池（平手取 class 0）。
//   - cycling 重洗時殘餘尾巴搬到新排列最前端（不丟棄）：批次仍是單一排列的
//     連續切片，批內唯一無條件成立，且 pass 內每個索引的抽取次數差至多 1。

package sampler

import (
	"iter"
	"slices"

	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/core"
)

// Stratified 是二元標籤資料集的分層批次取樣器。
//
// 建構完成後 pool0/pool1、batch0/batch1 與 length 均為唯讀；
// 唯一的可變狀態是「目前的迭代 pass」。同一個 Stratified 不允許
// 多個 consumer 同時迭代：開啟新 pass 會使舊 pass 失效（State error）。
type Stratified struct {
	c *core.Core

	pool0 []int // label==0 的樣本索引，建構期排序完成後唯讀
	pool1 []int // label==1 的樣本索引，唯讀
	total int   // len(events)

	batch0 int // 每批來自 pool0 的索引數
	batch1 int // 每批來自 pool1 的索引數

	length int // 一個 epoch 產出的批次數，建構期定死

	f0 *classFeed
	f1 *classFeed

	passSeq uint64 // 最新 pass 的序號；舊 pass 比對失敗即失效
}

// NewStratified 建立分層取樣器。
//
// 參數合約（fail-fast，全部在建構期檢查，不會拖到迭代期才爆）：
//   - events 非空，且每個值必須是 0 或 1。
//   - events 必須同時包含兩種標籤（單一類別無從分層）。
//   - 2 <= batchSize <= len(events)。下限取 2 是因為一個批次必須
//     同時容納兩個類別，batchSize=1 的「分層」沒有意義。
func NewStratified(c *core.Core, events []int, batchSize int) (*Stratified, error) {
	return newStratified(c, events, nil, batchSize)
}

// NewStratifiedWeighted 與 NewStratified 相同，但可為每個樣本附加非負權重，
// 權重高的樣本在每個 epoch 的排列中傾向排前面（Efraimidis-Spirakis 加權排列）。
//
// 權重只影響「池內順序」，不影響池的劃分、批次份額與 epoch 長度。
func NewStratifiedWeighted(c *core.Core, events []int, weights []float64, batchSize int) (*Stratified, error) {
	if len(weights) != len(events) {
		return nil, errs.Configf("weights length %d does not match events length %d", len(weights), len(events))
	}
	for i, w := range weights {
		if w < 0 {
			return nil, errs.Configf("negative weight at index %d", i)
		}
	}
	return newStratified(c, events, weights, batchSize)
}

func newStratified(c *core.Core, events []int, weights []float64, batchSize int) (*Stratified, error) {
	if c == nil {
		return nil, errs.NewConfig("core required")
	}
	n := len(events)
	if n == 0 {
		return nil, errs.NewConfig("events must not be empty")
	}
	if batchSize < 2 {
		return nil, errs.Configf("batch size must be at least 2, got %d", batchSize)
	}
	if batchSize > n {
		return nil, errs.Configf("batch size %d exceeds dataset size %d", batchSize, n)
	}

	// 1. 依標籤切池。兩池必然不相交，聯集 == [0,n)。
	pool0 := make([]int, 0, n)
	pool1 := make([]int, 0, n/4)
	for i, ev := range events {
		switch ev {
		case 0:
			pool0 = append(pool0, i)
		case 1:
			pool1 = append(pool1, i)
		default:
			return nil, errs.Configf("event label must be 0 or 1, got %d at index %d", ev, i)
		}
	}
	if len(pool0) == 0 || len(pool1) == 0 {
		return nil, errs.NewConfig("events must contain both labels: single-class dataset cannot be stratified")
	}

	// 2. 份額拆分：batch0 取 round-half-up(batchSize * n0 / n)，batch1 取餘數。
	//    整數算式 (2*a + b) / (2*b) 等價於 round(a/b)。
	batch0 := (2*batchSize*len(pool0) + n) / (2 * n)
	batch1 := batchSize - batch0
	// 捨入可能把某一類擠到 0：各撥 1 保底，維持 batch0+batch1 == batchSize。
	if batch0 == 0 {
		batch0, batch1 = 1, batchSize-1
	}
	if batch1 == 0 {
		batch0, batch1 = batchSize-1, 1
	}

	// 3. epoch 長度以「多數池」為基準（平手取 class 0），floor。
	//    少數受限池之後用 cycling 補齊，永不反過來縮短 epoch。
	length := len(pool0) / batch0
	if len(pool1) > len(pool0) {
		length = len(pool1) / batch1
	}
	if length < 1 {
		// batchK <= nK 在上面的拆分下恆成立，此分支理論上走不到；留著當合約護欄。
		return nil, errs.NewConfig("batch split leaves no full batch")
	}

	var w0, w1 []float64
	if weights != nil {
		w0 = make([]float64, len(pool0))
		w1 = make([]float64, len(pool1))
		for i, idx := range pool0 {
			w0[i] = weights[idx]
		}
		for i, idx := range pool1 {
			w1[i] = weights[idx]
		}
	}

	s := &Stratified{
		c:      c,
		pool0:  pool0,
		pool1:  pool1,
		total:  n,
		batch0: batch0,
		batch1: batch1,
		length: length,
		f0:     newClassFeed(c, pool0, w0, batch0),
		f1:     newClassFeed(c, pool1, w1, batch1),
	}
	return s, nil
}

// Len 回傳一個 epoch 會產出的批次數（建構期定死）。
func (s *Stratified) Len() int { return s.length }

// BatchSize 回傳每批索引總數（== Split 兩值之和）。
func (s *Stratified) BatchSize() int { return s.batch0 + s.batch1 }

// Split 回傳每批中 class 0 / class 1 的索引份額。
func (s *Stratified) Split() (batch0 int, batch1 int) { return s.batch0, s.batch1 }

// PoolSizes 回傳兩個類別池的大小。
func (s *Stratified) PoolSizes() (n0 int, n1 int) { return len(s.pool0), len(s.pool1) }

// Pools 回傳兩個類別池的複本（唯讀語意：修改回傳值不影響取樣器）。
func (s *Stratified) Pools() (pool0 []int, pool1 []int) {
	p0 := make([]int, len(s.pool0))
	p1 := make([]int, len(s.pool1))
	copy(p0, s.pool0)
	copy(p1, s.pool1)
	return p0, p1
}

// NewPass 開啟一個新的迭代 pass（= 一個 epoch）。
//
// 行為：
//   - 兩個類別進給器各自重新洗牌（彼此獨立）。
//   - 先前尚未耗盡的 pass 立即失效：對它呼叫 Next 會得到 State error。
//     這是刻意設計——重複使用已耗盡/已被取代的迭代狀態是程式錯誤，
//     必須顯式開新 pass，而不是默默吐出重複資料。
func (s *Stratified) NewPass() *Pass {
	s.passSeq++
	s.f0.restart()
	s.f1.restart()
	return &Pass{
		s:     s,
		seq:   s.passSeq,
		batch: make([]int, 0, s.batch0+s.batch1),
	}
}

// All 以 range-over-func 形式走完一個全新 epoch。
//
// 等價於 NewPass + 迭代到耗盡；提早 break 即丟棄剩餘狀態，無須清理。
// 注意：yield 收到的 slice 是 pass 內部重用的 buffer，跨批保留請自行 copy。
func (s *Stratified) All() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		p := s.NewPass()
		for {
			b, err := p.Next()
			if err != nil {
				return
			}
			if !yield(b) {
				return
			}
		}
	}
}

// Pass 是一次 epoch 的迭代狀態（單一 consumer、pull-based）。
type Pass struct {
	s        *Stratified
	seq      uint64
	produced int
	batch    []int // 重用的批次 buffer：每次 Next 覆寫內容
}

// Next 產出下一個批次：class 0 的份額在前、class 1 的份額在後（批批一致）。
//
// 回傳的 slice 是內部重用的 buffer，下一次 Next 會覆寫；需要保留請 copy。
//
// 錯誤（皆為 State）：
//   - pass 已被更新的 NewPass 取代；
//   - pass 已產滿 Len() 個批次（epoch 耗盡）。
func (p *Pass) Next() ([]int, error) {
	if p.seq != p.s.passSeq {
		return nil, errs.NewState("pass invalidated: a newer pass was started on this sampler")
	}
	if p.produced >= p.s.length {
		return nil, errs.NewState("pass exhausted: start a new pass for another epoch")
	}

	p.batch = p.batch[:0]
	p.batch = p.s.f0.next(p.batch)
	p.batch = p.s.f1.next(p.batch)
	p.produced++
	return p.batch, nil
}

// Remaining 回傳此 pass 還會產出的批次數。
func (p *Pass) Remaining() int {
	if p.seq != p.s.passSeq {
		return 0
	}
	return p.s.length - p.produced
}

// -----------------------------------------------------------------------------
// classFeed：單一類別的排列進給器
// -----------------------------------------------------------------------------

// classFeed 為單一類別池維護一個可重啟的排列消費狀態。
//
// 每次 restart（epoch 邊界）重新洗牌；next 取排列的下一段連續切片。
// 若剩餘長度不足一個份額，整池重洗後從頭消費（cycling）。
// 重洗時殘餘尾巴不丟棄：搬到新排列最前端（其餘維持新洗牌順序）。
// 結果仍是整池的一個排列，批次因此永遠是「單一排列的連續切片」，
// 批內唯一性無條件成立；同時 pass 內每個索引的抽取次數差至多 1——
// 丟尾巴的做法做不到這點（尾巴裡的索引可能整個 pass 都輪不到）。
type classFeed struct {
	c       *core.Core
	pool    []int     // 唯讀
	weights []float64 // 池內對應權重；nil 表示均勻洗牌
	share   int       // 每批份額
	perm    []int     // 目前的排列（pool 的重排複本）
	cursor  int
	carry   []int // cycling 殘尾暫存，只在 cycle 內使用
	scratch []int // cycle 重排暫存
}

func newClassFeed(c *core.Core, pool []int, weights []float64, share int) *classFeed {
	return &classFeed{
		c:       c,
		pool:    pool,
		weights: weights,
		share:   share,
		perm:    make([]int, len(pool)),
		cursor:  0,
	}
}

// restart 重新洗牌並重置游標（epoch 邊界）。
func (f *classFeed) restart() {
	if f.weights != nil {
		order := WeightedPerm(f.c, f.weights)
		for i, j := range order {
			f.perm[i] = f.pool[j]
		}
	} else {
		copy(f.perm, f.pool)
		f.c.ShuffleInts(f.perm)
	}
	f.cursor = 0
}

// cycle 在 pass 內耗盡時重洗整池，並把未消費的殘尾搬到新排列最前端。
// 殘尾長度恆小於 share，線性掃描即可。
func (f *classFeed) cycle() {
	f.carry = append(f.carry[:0], f.perm[f.cursor:]...)
	f.restart()
	if len(f.carry) == 0 {
		return
	}
	f.scratch = append(f.scratch[:0], f.carry...)
	for _, idx := range f.perm {
		if !slices.Contains(f.carry, idx) {
			f.scratch = append(f.scratch, idx)
		}
	}
	copy(f.perm, f.scratch)
}

// next 把本類別的下一個份額 append 到 dst。
func (f *classFeed) next(dst []int) []int {
	if f.cursor+f.share > len(f.perm) {
		f.cycle()
	}
	dst = append(dst, f.perm[f.cursor:f.cursor+f.share]...)
	f.cursor += f.share
	return dst
}
