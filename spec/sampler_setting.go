package spec

import (
	"fmt"
	"io/fs"

	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/labelbank"
)

// SamplerSetting 包含啟動一個資料集取樣通道（Feeder）所需的所有高階設定。
//
// 標籤來源二選一：
//   - labels：直接內嵌在設定檔（demo / 小型資料集 / 測試）。
//   - labels_file：指向 labelbank 壓縮檔（大型資料集；載入時經 fs.FS 解析）。
type SamplerSetting struct {
	DatasetName string         `yaml:"dataset_name" json:"dataset_name"`
	DatasetID   DSID           `yaml:"dataset_id"   json:"dataset_id"`
	BatchSize   int            `yaml:"batch_size"   json:"batch_size"`
	Labels      []int          `yaml:"labels"       json:"labels"`
	LabelsFile  string         `yaml:"labels_file"  json:"labels_file"`
	Weights     []float64      `yaml:"weights"      json:"weights"`
	Seed        *int64         `yaml:"seed"         json:"seed"`
	Fixed       map[string]any `yaml:"fixed"        json:"fixed"`
}

// init 在載入後執行結構性檢查。
//
// 這裡只能檢查「設定檔本身」：labels_file 的內容要等到有 fs.FS 的
// 建構現場（catalog / Lab）才解析，屆時再套完整的取樣器建構合約。
func (ss *SamplerSetting) init() error {
	return ss.valid()
}

// valid 執行最基本的設定檔檢查，如需更多驗證可在此擴充。
func (ss *SamplerSetting) valid() error {
	if ss.DatasetName == "" {
		return errs.NewConfig("empty dataset_name")
	}

	if len(ss.Labels) == 0 && ss.LabelsFile == "" {
		return errs.Configf("dataset_name: %s err:labels or labels_file required", ss.DatasetName)
	}
	if len(ss.Labels) > 0 && ss.LabelsFile != "" {
		return errs.Configf("dataset_name: %s err:labels and labels_file are mutually exclusive", ss.DatasetName)
	}

	if ss.BatchSize < 2 {
		return errs.Configf("dataset_name: %s err:batch_size must be at least 2, got %d", ss.DatasetName, ss.BatchSize)
	}

	// 內嵌標籤可以當場檢查值域與 batch 上界
	if len(ss.Labels) > 0 {
		for i, v := range ss.Labels {
			if v != 0 && v != 1 {
				return errs.Configf("dataset_name: %s err:label must be 0 or 1, got %d at index %d", ss.DatasetName, v, i)
			}
		}
		if ss.BatchSize > len(ss.Labels) {
			return errs.Configf("dataset_name: %s err:batch_size %d exceeds dataset size %d", ss.DatasetName, ss.BatchSize, len(ss.Labels))
		}
		if len(ss.Weights) > 0 && len(ss.Weights) != len(ss.Labels) {
			return errs.Configf("dataset_name: %s err:weights length %d does not match labels length %d", ss.DatasetName, len(ss.Weights), len(ss.Labels))
		}
	}

	for i, w := range ss.Weights {
		if w < 0 {
			return errs.Configf("dataset_name: %s err:negative weight at index %d", ss.DatasetName, i)
		}
	}

	return nil
}

// ResolveLabels 回傳本設定對應的標籤序列。
//
// 內嵌標籤直接回傳複本；labels_file 則經 bankFS 載入 labelbank 壓縮檔。
// bankFS 可以是 embed.FS、os.DirFS 或測試用的 fstest.MapFS。
func (ss *SamplerSetting) ResolveLabels(bankFS fs.FS) ([]int, error) {
	if len(ss.Labels) > 0 {
		out := make([]int, len(ss.Labels))
		copy(out, ss.Labels)
		return out, nil
	}

	labels, err := labelbank.ReadFS(bankFS, ss.LabelsFile)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Sprintf("dataset_name: %s resolve labels_file failed", ss.DatasetName))
	}
	if ss.BatchSize > len(labels) {
		return nil, errs.Configf("dataset_name: %s err:batch_size %d exceeds dataset size %d", ss.DatasetName, ss.BatchSize, len(labels))
	}
	if len(ss.Weights) > 0 && len(ss.Weights) != len(labels) {
		return nil, errs.Configf("dataset_name: %s err:weights length %d does not match labels length %d", ss.DatasetName, len(ss.Weights), len(labels))
	}
	return labels, nil
}
