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

package spec

import (
	"slices"
	"testing"

	"github.com/zintix-labs/batchlab/errs"
)

const validYAML = `
dataset_name: sepsis_onset
dataset_id: 7
batch_size: 4
labels: [0, 0, 0, 0, 1, 1]
`

func TestGetSamplerSettingByYAML(t *testing.T) {
	ss, err := GetSamplerSettingByYAML([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ss.DatasetName != "sepsis_onset" || ss.DatasetID != 7 || ss.BatchSize != 4 {
		t.Fatalf("fields not parsed: %+v", ss)
	}
	if !slices.Equal(ss.Labels, []int{0, 0, 0, 0, 1, 1}) {
		t.Fatalf("labels not parsed: %v", ss.Labels)
	}
}

func TestGetSamplerSettingByJSON(t *testing.T) {
	raw := `{"dataset_name":"icu","dataset_id":3,"batch_size":2,"labels":[1,0,1,0]}`
	ss, err := GetSamplerSettingByJSON([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ss.DatasetName != "icu" || ss.BatchSize != 2 {
		t.Fatalf("fields not parsed: %+v", ss)
	}
}

// TestSamplerSettingValidation 驗證設定檔層級的 fail-fast 檢查
func TestSamplerSettingValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing name", "dataset_id: 1\nbatch_size: 4\nlabels: [0, 1]\n"},
		{"no label source", "dataset_name: x\nbatch_size: 4\n"},
		{"both label sources", "dataset_name: x\nbatch_size: 2\nlabels: [0, 1]\nlabels_file: a.bank\n"},
		{"batch too small", "dataset_name: x\nbatch_size: 1\nlabels: [0, 1]\n"},
		{"batch exceeds labels", "dataset_name: x\nbatch_size: 9\nlabels: [0, 1]\n"},
		{"non-binary label", "dataset_name: x\nbatch_size: 2\nlabels: [0, 3]\n"},
		{"weights length mismatch", "dataset_name: x\nbatch_size: 2\nlabels: [0, 1, 1]\nweights: [1.0]\n"},
		{"negative weight", "dataset_name: x\nbatch_size: 2\nlabels: [0, 1]\nweights: [1.0, -2.0]\n"},
	}
	for _, tc := range cases {
		_, err := GetSamplerSettingByYAML([]byte(tc.yaml))
		if err == nil {
			t.Errorf("[%s] expected error, got nil", tc.name)
			continue
		}
		if !errs.IsConfig(err) {
			t.Errorf("[%s] expected config error, got %v", tc.name, err)
		}
	}
}

func TestResolveLabelsInline(t *testing.T) {
	ss, err := GetSamplerSettingByYAML([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	labels, err := ss.ResolveLabels(nil)
	if err != nil {
		t.Fatalf("resolve inline labels: %v", err)
	}
	labels[0] = 9
	if ss.Labels[0] == 9 {
		t.Fatalf("ResolveLabels must return a copy")
	}
}

// TestDecodeFixed 驗證 Fixed 擴充欄的嚴格解碼
func TestDecodeFixed(t *testing.T) {
	type exFixed struct {
		Source  string `yaml:"source"`
		Version int    `yaml:"version"`
	}

	raw := validYAML + "fixed:\n  source: physionet\n  version: 3\n"
	ss, err := GetSamplerSettingByYAML([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	var fx exFixed
	if err := DecodeFixed(ss, &fx); err != nil {
		t.Fatalf("decode fixed: %v", err)
	}
	if fx.Source != "physionet" || fx.Version != 3 {
		t.Fatalf("fixed not decoded: %+v", fx)
	}

	// 拼錯/多寫欄位必須報錯
	bad := validYAML + "fixed:\n  source: physionet\n  versoin: 3\n"
	ss, err = GetSamplerSettingByYAML([]byte(bad))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := DecodeFixed(ss, &fx); err == nil {
		t.Fatalf("expected error on unknown field")
	}
}
