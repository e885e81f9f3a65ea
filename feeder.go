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

package batchlab

import (
	"crypto/rand"
	"math"
	"math/big"
	"sync"

	"github.com/zintix-labs/batchlab/dto"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/buf"
	"github.com/zintix-labs/batchlab/sdk/core"
	"github.com/zintix-labs/batchlab/sdk/sampler"
	"github.com/zintix-labs/batchlab/spec"
)

// Feeder 封裝一台「可對外提供 Epoch」的取樣機台。
//
// 你可以把 Feeder 視為 Stratified 取樣器的「外殼（shell）」：
//   - 對外：提供 Epoch 入口（HTTP/模擬器通常只操作 Feeder）。
//   - 對內：持有 RNG（Core）與真正執行取樣的核心（sdk/sampler.Stratified）。
//
// 並發語意：
//   - Feeder 預設不是 lock-free 結構；它內含可重用的 result buffer（熱路徑），因此同一台 Feeder 不應被多 goroutine 同時 Epoch。
//   - 若要併發模擬，由更高層建立多台 Feeder 分散到不同 worker 並管理其生命週期。
//
// Buffer 語意（非常重要，影響 DX 與正確性）：
//   - EpochResult 會被重用（避免 GC），每次 Epoch 會覆寫內容。
//   - 你若需要在 Epoch 後保留結果，請在離開臨界區前轉成 DTO（或自行 copy 你需要的欄位）。
//
// initseed 用於記錄出生時的 seed（追溯/重現的基礎資訊）；完整審計仍以 Core 的 Snapshot/Restore 為準。
type Feeder struct {
	datasetName string           // 資料集名稱（來自 SamplerSetting.DatasetName，主要用於觀測/日誌）
	datasetId   spec.DSID        // 資料集 ID（Catalog 內唯一；用於路由與查表）
	core        *core.Core       // RNG 核心（PRNG + Snapshot/Restore 合約；熱路徑會頻繁取樣）
	smp         *sampler.Stratified // 取樣核心（由 SamplerSetting + labels 組裝）
	labels      []int            // 解析完成的標籤序列（唯讀；給 recorder/plan 重用）
	weighted    bool             // 是否使用加權排列（觀測用；取樣行為由 smp 決定）
	EpochResult *buf.EpochResult // 可重用的結果 buffer（熱路徑；每次 Epoch 會覆寫）
	mu          sync.Mutex       // 防併發鎖：保護可重用 buffer 與核心狀態一致性
	initseed    int64            // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
}

// newFeeder 以「隨機 seed」建立 Feeder。
//
// 這裡使用 crypto/rand 產生 seed 是為了：
//   - 在對外服務情境避免可預測 RNG
//   - 同時保留可追溯性（seed 會被記錄在 Feeder.initseed）
//
// 若 SamplerSetting 內宣告了 seed，則以設定檔為準（可重現的資料集設定）。
//
// seed 只保證了新建的 Feeder 起點，如果需要在任意段後將機台"重設"到任意 Core 節點，請利用 Snapshot Restore 來操作
func newFeeder(ss *spec.SamplerSetting, labels []int, cf core.CoreFactory) (*Feeder, error) {
	if ss.Seed != nil {
		return newFeederWithSeed(ss, labels, cf, *ss.Seed)
	}
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newFeederWithSeed(ss, labels, cf, seed.Int64())
}

// newFeederWithSeed 以指定 seed 建立 Feeder。
//
// 這是最常用的「可重現」入口：同一份 SamplerSetting + 同一批 labels + 同一個 seed，
// 應能得到一致的批次序列（取決於 Core 實作）。
//
// 建立流程（概念）：
//  1. core.New(cf.New(seed)) 建出 RNG 核心
//  2. sampler.NewStratified(Weighted) 依 labels + 設定建出取樣核心
//  3. 初始化 Feeder 需要的 buffer（EpochResult）
func newFeederWithSeed(ss *spec.SamplerSetting, labels []int, cf core.CoreFactory, seed int64) (*Feeder, error) {
	c := core.New(cf.New(seed))

	var (
		smp *sampler.Stratified
		err error
	)
	if len(ss.Weights) > 0 {
		smp, err = sampler.NewStratifiedWeighted(c, labels, ss.Weights, ss.BatchSize)
	} else {
		smp, err = sampler.NewStratified(c, labels, ss.BatchSize)
	}
	if err != nil {
		return nil, err
	}

	batch0, batch1 := smp.Split()
	f := &Feeder{
		datasetName: ss.DatasetName,
		datasetId:   ss.DatasetID,
		core:        c,
		smp:         smp,
		labels:      labels,
		weighted:    len(ss.Weights) > 0,
		EpochResult: buf.NewEpochResult(ss.DatasetName, ss.DatasetID, smp.BatchSize(), batch0, batch1, smp.Len()),
		initseed:    seed,
	}
	return f, nil
}

// Epoch 為主要公開入口，會驗證取樣請求，產出批次並回傳結果。
func (f *Feeder) Epoch(r *dto.EpochRequest) (dto.EpochResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// 1. 校驗請求合法性
	if err := f.valid(r); err != nil {
		return dto.EpochResult{}, err
	}
	// 2. parse dto to inner epoch request
	req, err := r.Parse()
	if err != nil {
		return dto.EpochResult{}, err
	}

	// 3. get start snapshot
	startsnap, err := f.SnapshotCore()
	if err != nil {
		return dto.EpochResult{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	rem := startsnap
	if req.StartState != nil && len(req.StartState.StartCoreSnap) != 0 {
		startsnap = req.StartState.StartCoreSnap
		if err := f.RestoreCore(req.StartState.StartCoreSnap); err != nil {
			return dto.EpochResult{}, errs.NewWarn("restore core err " + err.Error())
		}
	}

	// 4. 產出批次（寫入重用 buffer）
	er := f.feed(req.Epochs)

	// 5. get after snapshot
	aftersnap, err := f.SnapshotCore()
	if err != nil {
		if e := f.RestoreCore(rem); e != nil {
			return dto.EpochResult{}, errs.NewFatal("fall back err " + e.Error())
		}
		return dto.EpochResult{}, errs.NewWarn("after snapshot error " + err.Error())
	}
	er.State.StartCoreSnap = startsnap
	er.State.AfterCoreSnap = aftersnap

	// 6. restore if needed
	if req.StartState != nil && len(req.StartState.StartCoreSnap) != 0 {
		if err := f.RestoreCore(rem); err != nil {
			return dto.EpochResult{}, errs.NewFatal("restore core back err " + err.Error())
		}
	}

	// 7. dto
	return dto.NewEpochResultDTO(er)
}

// feed 連續跑 epochs 個完整 epoch，批次深拷貝進重用 buffer。
func (f *Feeder) feed(epochs int) *buf.EpochResult {
	er := f.EpochResult
	er.Reset()
	er.Reserve(epochs * f.smp.Len())
	for e := 0; e < epochs; e++ {
		for b := range f.smp.All() {
			er.AppendBatch(b)
		}
		er.EndEpoch()
	}
	return er
}

// EpochInternal 直接取得內部 EpochResult；常用於模擬器或測試
//
// 請勿在正式環境使用
//
// 此行為跳過所有檢查與快照，直接延續當前 RNG 流水產出一個 epoch
func (f *Feeder) EpochInternal() *buf.EpochResult {
	return f.feed(1)
}

// Plan 回傳取樣計畫（建構期常量；不推進 RNG）。
func (f *Feeder) Plan() dto.PlanResult {
	batch0, batch1 := f.smp.Split()
	n0, n1 := f.smp.PoolSizes()
	return dto.PlanResult{
		DatasetName: f.datasetName,
		DatasetID:   f.datasetId,
		DatasetSize: len(f.labels),
		Pool0:       n0,
		Pool1:       n1,
		BatchSize:   f.smp.BatchSize(),
		Batch0:      batch0,
		Batch1:      batch1,
		Len:         f.smp.Len(),
		Weighted:    f.weighted,
	}
}

func (f *Feeder) valid(req *dto.EpochRequest) error {
	if f.datasetId != req.DatasetId {
		return errs.NewWarn("dataset id is not matched")
	}
	if f.datasetName != req.DatasetName {
		return errs.NewWarn("dataset name is not matched")
	}
	return nil
}

// Labels 回傳標籤序列（唯讀引用；呼叫端不得修改）。
func (f *Feeder) Labels() []int {
	return f.labels
}

// Split 回傳每批的 class 0 / class 1 份額。
func (f *Feeder) Split() (batch0 int, batch1 int) {
	return f.smp.Split()
}

// Len 回傳單一 epoch 的批次數。
func (f *Feeder) Len() int {
	return f.smp.Len()
}

// SnapshotCore 取得Core狀態暫存 當前僅提供取得Core狀態
//
// 之後要實作斷線續跑時候提供checkpoint加入必要恢復資訊時實作
// SnapShot() <- 保留語意
func (f *Feeder) SnapshotCore() ([]byte, error) {
	return f.core.Snapshot()
}

// RestoreCore 恢復Core狀態暫存 當前僅提供恢復Core狀態
//
// 之後要實作斷線續跑時候提供checkpoint加入必要恢復資訊時實作
// Restore() <- 保留語意
func (f *Feeder) RestoreCore(src []byte) error {
	return f.core.Restore(src)
}
