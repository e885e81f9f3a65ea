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
	"github.com/zintix-labs/batchlab/corefmt"
	"github.com/zintix-labs/batchlab/dto"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/stats"
)

// Replayer
//
// 只提供給Dev模式使用的回放器，單線(不併發)，重點在可審計、可重現
type Replayer struct {
	sim      *Simulator // 只開放 Run 功能
	f        *Feeder    // 同步seed
	before   []byte
	after    []byte
	before64 string
	after64  string
}

// ReplayEpochReport 是每段逐 epoch 回放的完整輸出（含每段批次）。
type ReplayEpochReport struct {
	Before   string            `json:"start_b64u"`
	After    string            `json:"after_b64u"`
	Epochs   int               `json:"epochs"`
	Batches  int               `json:"batches"`
	Draws0   int               `json:"draws0"`
	Draws1   int               `json:"draws1"`
	Share    float64           `json:"share"` // class 1 在產出索引中的實際占比
	Segments []dto.EpochResult `json:"segments"`
}

func (d *Replayer) epochOne() (dto.EpochResult, error) {
	req := &dto.EpochRequest{
		UID:         "replayer",
		DatasetName: d.f.datasetName,
		DatasetId:   d.f.datasetId,
		Epochs:      1,
	}
	return d.f.Epoch(req)
}

func (d *Replayer) Epochs(epochs int) (ReplayEpochReport, error) {
	// 限制檢查
	if epochs < 1 || epochs > 5000 {
		return ReplayEpochReport{}, errs.NewWarn("epochs must be between 1 and 5,000")
	}

	// epoch by epoch（每段各自帶快照，逐段可回放）
	ds := make([]dto.EpochResult, 0, epochs)
	for range epochs {
		result, err := d.epochOne()
		if err != nil {
			return ReplayEpochReport{}, errs.Wrap(err, "epoch error")
		}
		ds = append(ds, result)
	}
	// 統計
	batches, draws0, draws1 := 0, 0, 0
	for _, r := range ds {
		batches += len(r.Batches)
		draws0 += len(r.Batches) * r.Batch0
		draws1 += len(r.Batches) * r.Batch1
	}

	de := ReplayEpochReport{
		Before:   ds[0].State.StartCoreSnapB64U,
		After:    ds[len(ds)-1].State.AfterCoreSnapB64U,
		Epochs:   len(ds),
		Batches:  batches,
		Draws0:   draws0,
		Draws1:   draws1,
		Share:    float64(draws1) / float64(draws0+draws1),
		Segments: ds,
	}
	return de, nil
}

func (d *Replayer) RestoreEpochs(be64 string, epochs int) (ReplayEpochReport, error) {
	// 限制檢查
	if epochs < 1 || epochs > 5000 {
		return ReplayEpochReport{}, errs.NewWarn("epochs must be between 1 and 5,000")
	}
	// 解析seed
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return ReplayEpochReport{}, errs.NewWarn("decode seed failed" + err.Error())
	}
	// restore
	if err := d.f.RestoreCore(be); err != nil {
		return ReplayEpochReport{}, errs.NewWarn("feeder restore failed")
	}
	return d.Epochs(epochs)
}

type ReplayRunReport struct {
	Before string             `json:"before"`
	After  string             `json:"after"`
	Stat   *stats.EpochReport `json:"statistic"`
}

func (d *Replayer) Run(epochs int) (ReplayRunReport, error) {
	// 先存 before 快照
	f := d.sim.fBuf[0]
	be, err := f.SnapshotCore()
	if err != nil {
		return ReplayRunReport{}, err
	}
	be64 := corefmt.EncodeBase64URL(be)
	d.before = be
	d.before64 = be64

	// Run
	if epochs < 1 || epochs > 3_000_000 {
		return ReplayRunReport{}, errs.NewWarn("epochs must be between 1 and 3,000,000")
	}
	stat, _, err := d.sim.Run(epochs, false)
	if err != nil {
		return ReplayRunReport{}, errs.Wrap(err, "run failed")
	}

	// 再存 after 快照
	af, err := f.SnapshotCore()
	if err != nil {
		return ReplayRunReport{}, err
	}
	af64 := corefmt.EncodeBase64URL(af)
	d.after = af
	d.after64 = af64

	return ReplayRunReport{
		Before: be64,
		After:  af64,
		Stat:   stat,
	}, nil
}

func (d *Replayer) RestoreRun(be64 string, epochs int) (ReplayRunReport, error) {
	// 反解析 string -> []byte
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return ReplayRunReport{}, errs.Wrap(err, "decode seed failed")
	}
	d.before = be
	d.before64 = be64

	// restore
	if err := d.sim.fBuf[0].RestoreCore(be); err != nil {
		return ReplayRunReport{}, errs.Wrap(err, "restore simulator failed")
	}

	return d.Run(epochs)
}
