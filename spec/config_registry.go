package spec

import (
	"encoding/json"

	"github.com/zintix-labs/batchlab/errs"
	"gopkg.in/yaml.v3"
)

// GetSamplerSettingByYAML
// 會讀取 YAML 設定、執行基本檢查後回傳。
func GetSamplerSettingByYAML(data []byte) (*SamplerSetting, error) {
	ss := &SamplerSetting{}
	if err := yaml.Unmarshal(data, ss); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := ss.init(); err != nil {
		return nil, errs.Wrap(err, "sampler setting initialized err")
	}

	return ss, nil
}

// GetSamplerSettingByJSON
// 會讀取 Json 設定、執行基本檢查後回傳
func GetSamplerSettingByJSON(data []byte) (*SamplerSetting, error) {
	ss := &SamplerSetting{}
	if err := json.Unmarshal(data, ss); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := ss.init(); err != nil {
		return nil, errs.Wrap(err, "sampler setting initialized err")
	}

	return ss, nil
}
