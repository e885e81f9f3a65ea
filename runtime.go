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
	"context"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/batchlab/dto"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/spec"
)

type SamplerRuntime struct {
	// build-time 來源（只讀引用）
	lab *Batchlab // 方便取 catalog/corefactory 與共用一些 helper

	// data-plane：關鍵主池（每個資料集一個 pool）
	pools map[spec.DSID]*FeederPool
	ids   []spec.DSID // 固定順序，用於觀測/列舉（來自 cat.IDs()）

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	// runtime 行為設定（一期先簡單，之後可擴展）
	poolSize int // 每個資料集的池大小（BuildRuntime(n) 的 n）
}

func (rt *SamplerRuntime) Epoch(ctx context.Context, req *dto.EpochRequest) (dto.EpochResult, error) {
	select {
	case <-ctx.Done():
		// 如果通知取消
		return dto.EpochResult{}, errs.NewWarn("epoch canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return dto.EpochResult{}, errs.NewFatal("sampler runtime closed: " + rt.ClosedReason())
	default:
	}

	fp, ok := rt.pools[req.DatasetId]
	if !ok {
		return dto.EpochResult{}, errs.NewWarn("dataset id not found")
	}

	// pool 自己會處理 done / close / rebuild / metrics
	return fp.Epoch(ctx, req)
}

// Plan 回傳指定資料集的取樣計畫（不動任何 RNG）。
func (rt *SamplerRuntime) Plan(id spec.DSID) (dto.PlanResult, error) {
	fp, ok := rt.pools[id]
	if !ok {
		return dto.PlanResult{}, errs.NewWarn("dataset id not found")
	}
	// 借一台看建構期常量即可（Plan 不會推進 RNG）
	select {
	case <-rt.done:
		return dto.PlanResult{}, errs.NewFatal("sampler runtime closed: " + rt.ClosedReason())
	case f := <-fp.pool:
		plan := f.Plan()
		fp.pool <- f
		return plan, nil
	}
}

// Metrics 回傳所有 pool 的觀測快照（依 ids 固定順序）。
func (rt *SamplerRuntime) Metrics() []FeederPoolMetrics {
	ms := make([]FeederPoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		ms = append(ms, rt.pools[id].Metrics())
	}
	return ms
}

// Lab 回傳建出此 runtime 的 Batchlab（只讀用途：catalog 查詢等）。
func (rt *SamplerRuntime) Lab() *Batchlab {
	return rt.lab
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *SamplerRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *SamplerRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		for _, fp := range rt.pools {
			fp.Close()
		}
	})
}

// Closed reports whether the runtime has been closed.
func (rt *SamplerRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *SamplerRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
