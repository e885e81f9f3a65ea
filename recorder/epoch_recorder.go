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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/spec"
	"github.com/zintix-labs/batchlab/stats"
)

// EpochRecorder 取樣紀錄員
//
// EpochRecorder 負責紀錄送出的批次，並透過Done輸出統計報表。
// 熱路徑只維護 int 計數（每索引抽中次數、兩類別抽取總量），
// 比例、分布與信賴區間全部延後到 Done 一次性計算。
type EpochRecorder struct {
	DatasetName string
	DatasetId   spec.DSID
	BatchSize   int
	Batch0      int
	Batch1      int
	Labels      []int // 0/1 標籤，索引即樣本 ID；唯讀共享
	Basic       *BasicRecord
	Cov         *CoverageRecord
	pool0       int
	pool1       int
}

// BasicRecord 基本取樣資料紀錄
type BasicRecord struct {
	Epochs  int
	Batches int
	Draws0  int
	Draws1  int
}

// CoverageRecord 每索引抽中次數
type CoverageRecord struct {
	Counts []int
}

func NewEpochRecorder(name string, id spec.DSID, labels []int, batch0 int, batch1 int) (*EpochRecorder, error) {
	s := new(EpochRecorder)

	if len(labels) == 0 {
		return s, errs.NewFatal("labels err : empty labels")
	}

	pool0, pool1 := 0, 0
	for i, v := range labels {
		switch v {
		case 0:
			pool0++
		case 1:
			pool1++
		default:
			return s, errs.NewFatal(fmt.Sprintf("labels err : label must be 0 or 1, got %d at index %d", v, i))
		}
	}
	if pool0 == 0 || pool1 == 0 {
		return s, errs.NewFatal("labels err : single-class dataset")
	}

	if batch0 < 1 || batch1 < 1 {
		return s, errs.NewFatal(fmt.Sprintf("batch split err %d/%d", batch0, batch1))
	}

	// 通過valid
	s.DatasetName = name
	s.DatasetId = id
	s.BatchSize = batch0 + batch1
	s.Batch0 = batch0
	s.Batch1 = batch1
	s.Labels = labels
	s.Basic = new(BasicRecord)
	s.Cov = &CoverageRecord{Counts: make([]int, len(labels))}
	s.pool0 = pool0
	s.pool1 = pool1

	return s, nil
}

func MergeEpochRecorder(r []*EpochRecorder) (*EpochRecorder, error) {
	r0 := r[0]
	s, err := NewEpochRecorder(r0.DatasetName, r0.DatasetId, r0.Labels, r0.Batch0, r0.Batch1)
	if err != nil {
		return s, err
	}
	for _, v := range r {
		if v.DatasetName != r0.DatasetName {
			return s, errs.NewFatal("merge epoch record err : different dataset name")
		}
		if len(v.Labels) != len(r0.Labels) {
			return s, errs.NewFatal("merge epoch record err : different dataset size")
		}
		if v.Batch0 != r0.Batch0 || v.Batch1 != r0.Batch1 {
			return s, errs.NewFatal("merge epoch record err : different batch split")
		}
		s.Basic.Epochs += v.Basic.Epochs
		s.Basic.Batches += v.Basic.Batches
		s.Basic.Draws0 += v.Basic.Draws0
		s.Basic.Draws1 += v.Basic.Draws1

		// 整合Coverage
		for i := range v.Cov.Counts {
			s.Cov.Counts[i] += v.Cov.Counts[i]
		}
	}
	return s, nil
}

// RecordBatch 以單一批次更新統計。
//
// 熱路徑：不驗證 batch 內容——索引範圍與類別佈局由取樣器的合約保證。
func (s *EpochRecorder) RecordBatch(batch []int) {
	for _, idx := range batch {
		s.Cov.Counts[idx]++
		if s.Labels[idx] == 1 {
			s.Basic.Draws1++
		} else {
			s.Basic.Draws0++
		}
	}
	s.Basic.Batches++
}

// RecordEpoch 標記一個 epoch 完整結束（pass 已耗盡）。
func (s *EpochRecorder) RecordEpoch() {
	s.Basic.Epochs++
}

func (s *EpochRecorder) Done() *stats.EpochReport {
	bucket := stats.Buckets.GetBucket()
	labels := stats.Buckets.DrawBucketStr()
	L := len(labels)

	p0Collect := make([]int, L)
	p1Collect := make([]int, L)

	starved := 0
	min0, max0 := -1, 0
	min1, max1 := -1, 0
	for i, cnt := range s.Cov.Counts {
		if cnt == 0 {
			starved++
		}
		bi := bucket.Index(cnt)
		if s.Labels[i] == 1 {
			p1Collect[bi]++
			if min1 < 0 || cnt < min1 {
				min1 = cnt
			}
			if cnt > max1 {
				max1 = cnt
			}
		} else {
			p0Collect[bi]++
			if min0 < 0 || cnt < min0 {
				min0 = cnt
			}
			if cnt > max0 {
				max0 = cnt
			}
		}
	}
	if min0 < 0 {
		min0 = 0
	}
	if min1 < 0 {
		min1 = 0
	}

	report := &stats.EpochReport{
		Summary: &stats.SummaryReport{
			DatasetName: s.DatasetName,
			DatasetId:   s.DatasetId,
			BatchSize:   s.BatchSize,
			Batch0:      s.Batch0,
			Batch1:      s.Batch1,
			Pool0:       s.pool0,
			Pool1:       s.pool1,
			Epochs:      s.Basic.Epochs,
			Batches:     s.Basic.Batches,
			Draws0:      s.Basic.Draws0,
			Draws1:      s.Basic.Draws1,
			TargetShare: float64(s.pool1) / float64(len(s.Labels)),
			Starved:     starved,
			MinCycles:   min1, // 少數池內「最少被抽中次數」= 至少被完整用過的輪數
		},
		Coverage: &stats.CoverageReport{
			DrawBucket:   labels,
			Pool0Collect: p0Collect,
			Pool1Collect: p1Collect,
			MinDraws0:    min0,
			MaxDraws0:    max0,
			MinDraws1:    min1,
			MaxDraws1:    max1,
		},
	}

	return report
}
