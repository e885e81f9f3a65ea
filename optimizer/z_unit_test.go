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
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/batchlab/sdk/core"
	"github.com/zintix-labs/batchlab/sdk/labelbank"
)

func TestSplitOf(t *testing.T) {
	b0, b1 := splitOf(10, 80, 100)
	if b0 != 8 || b1 != 2 {
		t.Fatalf("splitOf(10, 80, 100) = %d/%d, want 8/2", b0, b1)
	}
	// 捨入到 0 要保底
	b0, b1 = splitOf(2, 99, 100)
	if b0 != 1 || b1 != 1 {
		t.Fatalf("splitOf(2, 99, 100) = %d/%d, want 1/1", b0, b1)
	}
}

func TestTunerRun(t *testing.T) {
	dir := t.TempDir()
	cfgYAML := `
dataset_name: mined_set
dataset_id: 9
size: 200
target_share: 0.2
tolerance: 0.05
batch_min: 4
batch_max: 20
probe_epochs: 8
out_dir: ` + dir + `
`
	fsys := fstest.MapFS{
		"opt_cfg.yaml": {Data: []byte(cfgYAML)},
	}
	tuner, err := New(fsys, "opt_cfg.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := tuner.Run(core.Default(), 42); err != nil {
		t.Fatal(err)
	}

	bf, err := os.Open(filepath.Join(dir, "mined_set.bank"))
	if err != nil {
		t.Fatal(err)
	}
	defer bf.Close()
	labels, err := labelbank.Read(bf)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 200 {
		t.Fatalf("bank size = %d, want 200", len(labels))
	}
	ones := 0
	for _, v := range labels {
		ones += v
	}
	share := float64(ones) / 200
	if share < 0.15 || share > 0.25 {
		t.Fatalf("mined share = %.4f, want within tolerance of 0.2", share)
	}

	if _, err := os.Stat(filepath.Join(dir, "mined_set.yaml")); err != nil {
		t.Fatalf("sampler setting not emitted: %v", err)
	}
}

func TestTunerRunDeterministic(t *testing.T) {
	mineOnce := func() []int {
		tuner := &Tuner{cfg: &OptimizerSetting{
			DatasetName: "det",
			Size:        100,
			TargetShare: 0.3,
			Tolerance:   0.1,
		}}
		c := core.New(core.Default().New(7))
		mined, err := tuner.mine(c)
		if err != nil {
			t.Fatal(err)
		}
		return mined.Labels
	}
	a := mineOnce()
	b := mineOnce()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("mine is not deterministic at index %d", i)
		}
	}
}
