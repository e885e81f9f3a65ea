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

package dto

import (
	"github.com/zintix-labs/batchlab/corefmt"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/buf"
	"github.com/zintix-labs/batchlab/spec"
)

// EpochResult 是對外輸出的一段取樣產出。
type EpochResult struct {
	DatasetName string    `json:"dataset"`           // 資料集名稱
	DatasetID   spec.DSID `json:"dsid"`              // 資料集編號
	BatchSize   int       `json:"batch_size"`        // 每批索引總數
	Batch0      int       `json:"batch0"`            // 每批 class 0 份額
	Batch1      int       `json:"batch1"`            // 每批 class 1 份額
	Len         int       `json:"len"`               // 單一 epoch 的批次數
	Epochs      int       `json:"epochs"`            // 本段實際跑完的 epoch 數
	Batches     [][]int   `json:"batches,omitempty"` // 依序送出的批次
	State       SnapState `json:"snap_state"`        // RNG 狀態
}

// PlanResult 是對外輸出的取樣計畫（不動 RNG，只看建構期常量）。
type PlanResult struct {
	DatasetName string    `json:"dataset"`
	DatasetID   spec.DSID `json:"dsid"`
	DatasetSize int       `json:"dataset_size"`
	Pool0       int       `json:"pool0"`
	Pool1       int       `json:"pool1"`
	BatchSize   int       `json:"batch_size"`
	Batch0      int       `json:"batch0"`
	Batch1      int       `json:"batch1"`
	Len         int       `json:"len"`
	Weighted    bool      `json:"weighted"`
}

type SnapState struct {
	StartCoreSnapB64U string `json:"start_b64u"` // 必回
	AfterCoreSnapB64U string `json:"after_b64u"` // 必回
}

func NewEpochResultDTO(er *buf.EpochResult) (EpochResult, error) {
	if er == nil {
		return EpochResult{}, errs.NewWarn("epoch result is nil")
	}

	dto := EpochResult{
		DatasetName: er.DatasetName,
		DatasetID:   er.DatasetId,
		BatchSize:   er.BatchSize,
		Batch0:      er.Batch0,
		Batch1:      er.Batch1,
		Len:         er.Len,
		Epochs:      er.EpochCount,
		State: SnapState{
			StartCoreSnapB64U: corefmt.EncodeBase64URL(er.State.StartCoreSnap),
			AfterCoreSnapB64U: corefmt.EncodeBase64URL(er.State.AfterCoreSnap),
		},
	}

	if len(er.Batches) > 0 {
		// 深拷貝：EpochResult buffer 會被重用，DTO 必須與它脫鉤
		dto.Batches = make([][]int, len(er.Batches))
		for i, b := range er.Batches {
			dto.Batches[i] = append([]int(nil), b...)
		}
	}

	return dto, nil
}
