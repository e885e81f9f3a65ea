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

package optimizer

import (
	"fmt"

	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/recorder"
	"github.com/zintix-labs/batchlab/sdk/core"
	"github.com/zintix-labs/batchlab/sdk/sampler"
)

// Fit 一個 batch size 候選的完整評估結果。
type Fit struct {
	BatchSize int
	Batch0    int
	Batch1    int
	Score     float64 // 切分品質（越小越好）
	Starved   int     // 探測後仍零覆蓋的樣本數
	MinCycles int     // 少數池最少完整輪數
}

// fit 對 [batch_min, batch_max] 逐一評分，對切分品質最好的前幾名
// 用真實取樣器跑 probe_epochs 個 epoch，以覆蓋統計決出最終 batch size。
//
// 純算式評分很便宜，但它看不到 cycling 與洗牌的實際行為；
// probe 是對合約的一次實測，避免挑到帳面漂亮、實跑飢餓的切分。
func (t *Tuner) fit(mined *Mined, c *core.Core) (*Fit, error) {
	opt := t.cfg
	n1 := 0
	for _, v := range mined.Labels {
		n1 += v
	}
	n0 := len(mined.Labels) - n1

	// 1. 算式初篩
	best := make([]*Fit, 0, fitProbes)
	for bs := opt.BatchMin; bs <= opt.BatchMax; bs++ {
		b0, b1 := splitOf(bs, n0, n0+n1)
		f := &Fit{
			BatchSize: bs,
			Batch0:    b0,
			Batch1:    b1,
			Score:     splitScore(bs, n0, n1),
		}
		best = insertFit(best, f, fitProbes)
	}
	if len(best) == 0 {
		return nil, errs.Warnf("fit %s failed: no batch size candidate", opt.DatasetName)
	}

	// 2. 實測探針
	var winner *Fit
	for _, f := range best {
		smp, err := t.newSampler(mined, f.BatchSize, c)
		if err != nil {
			return nil, err
		}
		rec, err := recorder.NewEpochRecorder(opt.DatasetName, opt.DatasetID, mined.Labels, f.Batch0, f.Batch1)
		if err != nil {
			return nil, err
		}
		for range opt.ProbeEpochs {
			for b := range smp.All() {
				rec.RecordBatch(b)
			}
			rec.RecordEpoch()
		}
		report := rec.Done()
		f.Starved = report.Summary.Starved
		f.MinCycles = report.Summary.MinCycles

		fmt.Printf("probe batch_size=%d split=%d/%d score=%.5f starved=%d cycles=%d\n",
			f.BatchSize, f.Batch0, f.Batch1, f.Score, f.Starved, f.MinCycles)

		if winner == nil || f.better(winner) {
			winner = f
		}
	}
	return winner, nil
}

func (t *Tuner) newSampler(mined *Mined, batchSize int, c *core.Core) (*sampler.Stratified, error) {
	if t.cfg.Weighted {
		return sampler.NewStratifiedWeighted(c, mined.Labels, mined.Weights, batchSize)
	}
	return sampler.NewStratified(c, mined.Labels, batchSize)
}

// better 比較兩個實測過的候選：先比飢餓，再比切分分數。
func (f *Fit) better(other *Fit) bool {
	if f.Starved != other.Starved {
		return f.Starved < other.Starved
	}
	return f.Score < other.Score
}

// insertFit 維護一個按 Score 升冪、長度受限的候選名單。
func insertFit(list []*Fit, f *Fit, limit int) []*Fit {
	pos := len(list)
	for i, v := range list {
		if f.Score < v.Score {
			pos = i
			break
		}
	}
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = f
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
