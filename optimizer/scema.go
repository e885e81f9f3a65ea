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
	"os"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/labelbank"
	"github.com/zintix-labs/batchlab/spec"
	"gopkg.in/yaml.v3"
)

// OptimizerSetting 是 bank 調優器的設定檔 schema。
//
// 一份設定對應一個要產出的資料集：礦出符合目標占比的標籤序列，
// 在 [batch_min, batch_max] 內挑出切分品質最好的 batch size，
// 最後落地 labelbank 壓縮檔 + 可直接註冊的 sampler 設定檔。
type OptimizerSetting struct {
	DatasetName string    `yaml:"dataset_name"`
	DatasetID   spec.DSID `yaml:"dataset_id"`
	Size        int       `yaml:"size"`
	TargetShare float64   `yaml:"target_share"`
	Tolerance   float64   `yaml:"tolerance"`
	BatchMin    int       `yaml:"batch_min"`
	BatchMax    int       `yaml:"batch_max"`
	ProbeEpochs int       `yaml:"probe_epochs"`
	Weighted    bool      `yaml:"weighted"`
	WeightSigma float64   `yaml:"weight_sigma"`
	OutDir      string    `yaml:"out_dir"`
}

func getOptimizerSettingByYaml(raw []byte) (*OptimizerSetting, error) {
	opt := new(OptimizerSetting)
	if err := yaml.Unmarshal(raw, opt); err != nil {
		return nil, errs.Wrap(err, "parse optimizer setting failed")
	}
	if err := opt.valid(); err != nil {
		return nil, err
	}
	return opt, nil
}

func (opt *OptimizerSetting) valid() error {
	if opt.DatasetName == "" {
		return errs.NewConfig("empty dataset_name")
	}
	if opt.Size < 4 {
		return errs.Configf("size must be at least 4, got %d", opt.Size)
	}
	if opt.TargetShare <= 0 || opt.TargetShare >= 1 {
		return errs.Configf("target_share must be in (0,1), got %g", opt.TargetShare)
	}
	if opt.Tolerance <= 0 {
		// 合理預設：半個樣本的占比
		opt.Tolerance = 0.5 / float64(opt.Size)
	}
	if opt.BatchMin < 2 {
		opt.BatchMin = 2
	}
	if opt.BatchMax < opt.BatchMin {
		return errs.Configf("batch_max %d < batch_min %d", opt.BatchMax, opt.BatchMin)
	}
	if opt.BatchMax > opt.Size {
		opt.BatchMax = opt.Size
	}
	if opt.ProbeEpochs < 1 {
		opt.ProbeEpochs = 32
	}
	if opt.Weighted && opt.WeightSigma <= 0 {
		opt.WeightSigma = 0.5
	}
	if opt.OutDir == "" {
		opt.OutDir = "."
	}
	return nil
}

// emit 落地礦出的資料集：
//   - <name>.bank：labelbank 壓縮標籤
//   - <name>.yaml：指向 bank 的 SamplerSetting，可直接丟進 catalog
func (opt *OptimizerSetting) emit(mined *Mined, batchSize int) error {
	if err := os.MkdirAll(opt.OutDir, 0o755); err != nil {
		return errs.Wrap(err, "create out_dir failed")
	}
	base := strings.ToLower(strings.ReplaceAll(opt.DatasetName, " ", "_"))

	bankPath := filepath.Join(opt.OutDir, base+".bank")
	bf, err := os.Create(bankPath)
	if err != nil {
		return errs.Wrap(err, "create bank file failed")
	}
	if err := labelbank.Write(bf, mined.Labels); err != nil {
		bf.Close()
		return err
	}
	if err := bf.Close(); err != nil {
		return errs.Wrap(err, "close bank file failed")
	}

	ss := &spec.SamplerSetting{
		DatasetName: opt.DatasetName,
		DatasetID:   opt.DatasetID,
		BatchSize:   batchSize,
		LabelsFile:  base + ".bank",
		Weights:     mined.Weights,
	}
	raw, err := yaml.Marshal(ss)
	if err != nil {
		return errs.Wrap(err, "marshal sampler setting failed")
	}
	cfgPath := filepath.Join(opt.OutDir, base+".yaml")
	if err := os.WriteFile(cfgPath, raw, 0o644); err != nil {
		return errs.Wrap(err, "write sampler setting failed")
	}

	fmt.Printf("emitted %s (%d labels) and %s (batch_size=%d)\n", bankPath, len(mined.Labels), cfgPath, batchSize)
	return nil
}
