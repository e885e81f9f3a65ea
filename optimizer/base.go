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

// Package optimizer 提供離線的資料集開採與 batch size 調優工具。
//
// 工作流：
//  1. mine：以目標占比生成合成標籤序列（可附帶加權），rejection 式把關。
//  2. fit ：在 [batch_min, batch_max] 內先算式初篩，再用真實取樣器
//     實測覆蓋行為，決出最終 batch size。
//  3. emit：落地 labelbank 壓縮檔與可直接註冊進 catalog 的設定檔。
//
// 這是建模前的一次性工具，不進 server 的請求路徑。
package optimizer

import (
	"fmt"
	"io/fs"

	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/core"
)

// fitProbes 進入實測階段的候選數
const fitProbes = 5

// Tuner 調優器主體
type Tuner struct {
	cfg *OptimizerSetting
}

func New(cfg fs.FS, name string) (*Tuner, error) {
	raw, err := fs.ReadFile(cfg, name)
	if err != nil {
		return nil, errs.Wrap(err, "read optimizer setting failed")
	}
	opt, err := getOptimizerSettingByYaml(raw)
	if err != nil {
		return nil, err
	}
	return &Tuner{cfg: opt}, nil
}

// Run 執行一次完整的 mine → fit → emit。
//
// seed 固定整條流程：同一份設定 + 同一個 seed 產出完全相同的 bank。
func (t *Tuner) Run(cf core.CoreFactory, seed int64) error {
	if cf == nil {
		return errs.NewConfig("core factory required")
	}
	c := core.New(cf.New(seed))

	mined, err := t.mine(c)
	if err != nil {
		return err
	}
	fmt.Printf("mined %s: n=%d share=%.4f tries=%d\n",
		t.cfg.DatasetName, len(mined.Labels), mined.Share, mined.Tries)

	winner, err := t.fit(mined, c)
	if err != nil {
		return err
	}
	fmt.Printf("winner batch_size=%d split=%d/%d\n", winner.BatchSize, winner.Batch0, winner.Batch1)

	return t.cfg.emit(mined, winner.BatchSize)
}
