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
	"context"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/batchlab/dto"
	"github.com/zintix-labs/batchlab/sdk/core"
	"github.com/zintix-labs/batchlab/spec"
)

const unitYAML = `dataset_name: unit
dataset_id: 1
batch_size: 4
labels: [0, 0, 0, 0, 1, 1]
`

const bigYAML = `dataset_name: big
dataset_id: 2
batch_size: 10
labels: [0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
         0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
         0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
         0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
         0, 0, 0, 0, 0, 0, 0, 0, 1, 1]
`

func newTestLab(t *testing.T) *Batchlab {
	t.Helper()
	fsys := fstest.MapFS{
		"unit.yaml": &fstest.MapFile{Data: []byte(unitYAML)},
		"big.yaml":  &fstest.MapFile{Data: []byte(bigYAML)},
	}
	lab, err := NewAuto(core.Default(), Configs(fsys))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

func equalBatches(a, b [][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !slices.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestLabRegisterAll(t *testing.T) {
	lab := newTestLab(t)

	ids := lab.IDs()
	if !slices.Equal(ids, []spec.DSID{1, 2}) {
		t.Fatalf("ids got %v", ids)
	}
	if _, ok := lab.EntryByName("unit"); !ok {
		t.Fatalf("entry by name missing")
	}

	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum) != 2 {
		t.Fatalf("summary len got %d", len(sum))
	}
	if sum[0].DatasetSize != 6 || sum[0].BatchSize != 4 || sum[0].Weighted {
		t.Fatalf("summary[0] wrong: %+v", sum[0])
	}
}

func TestLabRegisterAllDuplicateID(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": &fstest.MapFile{Data: []byte(unitYAML)},
		"b.yaml": &fstest.MapFile{Data: []byte("dataset_name: other\ndataset_id: 1\nbatch_size: 2\nlabels: [0, 1]\n")},
	}
	if _, err := NewAuto(core.Default(), Configs(fsys)); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestFeederDeterminism(t *testing.T) {
	lab := newTestLab(t)

	req := &dto.EpochRequest{UID: "t", DatasetName: "unit", DatasetId: 1, Epochs: 3}

	f1, err := lab.NewFeederWithSeed(1, 42)
	if err != nil {
		t.Fatalf("new feeder: %v", err)
	}
	f2, err := lab.NewFeederWithSeed(1, 42)
	if err != nil {
		t.Fatalf("new feeder: %v", err)
	}

	r1, err := f1.Epoch(req)
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}
	r2, err := f2.Epoch(req)
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}

	if !equalBatches(r1.Batches, r2.Batches) {
		t.Fatalf("same seed produced different batch sequences")
	}
	if r1.Batch0 != 3 || r1.Batch1 != 1 || r1.Len != 1 || r1.Epochs != 3 {
		t.Fatalf("plan constants wrong: %+v", r1)
	}
	if len(r1.Batches) != 3 {
		t.Fatalf("batches got %d want 3", len(r1.Batches))
	}
}

func TestFeederReplayAndResume(t *testing.T) {
	lab := newTestLab(t)
	f, err := lab.NewFeederWithSeed(2, 7)
	if err != nil {
		t.Fatalf("new feeder: %v", err)
	}

	first, err := f.Epoch(&dto.EpochRequest{DatasetName: "big", DatasetId: 2, Epochs: 2})
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}
	second, err := f.Epoch(&dto.EpochRequest{DatasetName: "big", DatasetId: 2, Epochs: 2})
	if err != nil {
		t.Fatalf("epoch: %v", err)
	}
	if equalBatches(first.Batches, second.Batches) {
		t.Fatalf("consecutive segments should differ (RNG advanced)")
	}

	// 回放：帶入第一段的 start 快照應重現同樣的批次序列
	replay, err := f.Epoch(&dto.EpochRequest{
		DatasetName: "big", DatasetId: 2, Epochs: 2,
		StartState: &dto.StartState{StartCoreSnapB64U: first.State.StartCoreSnapB64U},
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !equalBatches(first.Batches, replay.Batches) {
		t.Fatalf("replay did not reproduce first segment")
	}
	if replay.State.StartCoreSnapB64U != first.State.StartCoreSnapB64U {
		t.Fatalf("replay start snap mismatch")
	}

	// 續跑：帶入第一段的 after 快照應重現第二段
	resume, err := f.Epoch(&dto.EpochRequest{
		DatasetName: "big", DatasetId: 2, Epochs: 2,
		StartState: &dto.StartState{StartCoreSnapB64U: first.State.AfterCoreSnapB64U},
	})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !equalBatches(second.Batches, resume.Batches) {
		t.Fatalf("resume did not reproduce second segment")
	}

	// 回放/續跑結束後機台回到自己的流水：下一段不受影響
	third, err := f.Epoch(&dto.EpochRequest{DatasetName: "big", DatasetId: 2, Epochs: 1})
	if err != nil {
		t.Fatalf("third: %v", err)
	}
	if third.State.StartCoreSnapB64U != second.State.AfterCoreSnapB64U {
		t.Fatalf("own stream was not restored after replay")
	}
}

func TestFeederValidation(t *testing.T) {
	lab := newTestLab(t)
	f, err := lab.NewFeederWithSeed(1, 1)
	if err != nil {
		t.Fatalf("new feeder: %v", err)
	}

	if _, err := f.Epoch(&dto.EpochRequest{DatasetName: "unit", DatasetId: 99}); err == nil {
		t.Fatalf("expected dataset id mismatch error")
	}
	if _, err := f.Epoch(&dto.EpochRequest{DatasetName: "nope", DatasetId: 1}); err == nil {
		t.Fatalf("expected dataset name mismatch error")
	}
}

func TestFeederPlan(t *testing.T) {
	lab := newTestLab(t)
	f, err := lab.NewFeederWithSeed(2, 1)
	if err != nil {
		t.Fatalf("new feeder: %v", err)
	}
	plan := f.Plan()
	if plan.DatasetSize != 50 || plan.Pool0 != 40 || plan.Pool1 != 10 {
		t.Fatalf("plan pools wrong: %+v", plan)
	}
	if plan.Batch0 != 8 || plan.Batch1 != 2 || plan.Len != 5 || plan.Weighted {
		t.Fatalf("plan split wrong: %+v", plan)
	}
}

func TestSimulatorRun(t *testing.T) {
	lab := newTestLab(t)
	sim, err := lab.NewSimulatorWithSeed(2, 99)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	st, _, err := sim.Run(10, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Summary.Epochs != 10 || st.Summary.Batches != 50 {
		t.Fatalf("summary counts wrong: %+v", st.Summary)
	}
	// 每個 epoch 多數池全覆蓋，少數池 cycling 補齊：整體覆蓋必為 1
	if st.Summary.Coverage != 1.0 {
		t.Fatalf("coverage got %v want 1", st.Summary.Coverage)
	}
}

func TestSimulatorRunMP(t *testing.T) {
	lab := newTestLab(t)
	sim, err := lab.NewSimulatorWithSeed(2, 5)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	st, _, err := sim.RunMP(5, 4, false)
	if err != nil {
		t.Fatalf("run mp: %v", err)
	}
	if st.Summary.Epochs != 20 || st.Summary.Batches != 100 {
		t.Fatalf("merged counts wrong: %+v", st.Summary)
	}
	if st.Summary.Draws0 != 800 || st.Summary.Draws1 != 200 {
		t.Fatalf("merged draws wrong: %+v", st.Summary)
	}
}

func TestSimulatorRunExp(t *testing.T) {
	lab := newTestLab(t)
	sim, err := lab.NewSimulatorWithSeed(2, 5)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	st, est, _, err := sim.RunExp(2, 8, 3, false)
	if err != nil {
		t.Fatalf("run exp: %v", err)
	}
	if st.Summary.Epochs != 24 {
		t.Fatalf("base epochs got %d want 24", st.Summary.Epochs)
	}
	if est == nil {
		t.Fatalf("estimator missing")
	}
	if est.RunStat.FullCoverage.Hat != 1.0 {
		t.Fatalf("full coverage rate got %v want 1", est.RunStat.FullCoverage.Hat)
	}
}

func TestBuildRuntime(t *testing.T) {
	lab := newTestLab(t)
	rt, err := lab.BuildRuntime(2)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}

	ctx := context.Background()
	res, err := rt.Epoch(ctx, &dto.EpochRequest{DatasetName: "unit", DatasetId: 1, Epochs: 1})
	if err != nil {
		t.Fatalf("runtime epoch: %v", err)
	}
	if res.DatasetID != 1 || len(res.Batches) != 1 {
		t.Fatalf("runtime result wrong: %+v", res)
	}

	if _, err := rt.Epoch(ctx, &dto.EpochRequest{DatasetName: "x", DatasetId: 77}); err == nil {
		t.Fatalf("expected unknown dataset error")
	}

	plan, err := rt.Plan(2)
	if err != nil {
		t.Fatalf("runtime plan: %v", err)
	}
	if plan.Batch0 != 8 || plan.Batch1 != 2 {
		t.Fatalf("runtime plan wrong: %+v", plan)
	}

	ms := rt.Metrics()
	if len(ms) != 2 || ms[0].PoolSize != 2 {
		t.Fatalf("metrics wrong: %+v", ms)
	}

	rt.Close()
	if !rt.Closed() {
		t.Fatalf("runtime should be closed")
	}
	if _, err := rt.Epoch(ctx, &dto.EpochRequest{DatasetName: "unit", DatasetId: 1}); err == nil {
		t.Fatalf("expected closed error")
	}
}

func TestReplayer(t *testing.T) {
	lab := newTestLab(t)
	rp, err := lab.NewReplayer(2, 123)
	if err != nil {
		t.Fatalf("new replayer: %v", err)
	}

	rep, err := rp.Epochs(3)
	if err != nil {
		t.Fatalf("epochs: %v", err)
	}
	if rep.Epochs != 3 || rep.Batches != 15 {
		t.Fatalf("report counts wrong: %+v", rep)
	}
	if rep.Draws0 != 120 || rep.Draws1 != 30 {
		t.Fatalf("report draws wrong: %+v", rep)
	}

	// 以第一段的 before 快照回放，必須重現同樣的段序列
	again, err := rp.RestoreEpochs(rep.Before, 3)
	if err != nil {
		t.Fatalf("restore epochs: %v", err)
	}
	for i := range rep.Segments {
		if !equalBatches(rep.Segments[i].Batches, again.Segments[i].Batches) {
			t.Fatalf("segment %d not reproduced", i)
		}
	}

	run, err := rp.Run(5)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Stat.Summary.Epochs != 5 {
		t.Fatalf("run stat wrong: %+v", run.Stat.Summary)
	}
	rerun, err := rp.RestoreRun(run.Before, 5)
	if err != nil {
		t.Fatalf("restore run: %v", err)
	}
	if rerun.After != run.After {
		t.Fatalf("restored run diverged")
	}

	if _, err := rp.Epochs(0); err == nil {
		t.Fatalf("expected epochs bound error")
	}
}

func TestSeedMaker(t *testing.T) {
	sm := newSeedMaker(1)
	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		v := sm.next()
		if v < 0 {
			t.Fatalf("seed must be non-negative, got %d", v)
		}
		if seen[v] {
			t.Fatalf("seed repeated: %d", v)
		}
		seen[v] = true
	}
}
