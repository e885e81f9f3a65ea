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
	"math"
	"testing"
)

func TestNewEpochRecorderValidation(t *testing.T) {
	cases := []struct {
		name   string
		labels []int
		b0, b1 int
	}{
		{"empty labels", []int{}, 1, 1},
		{"single class", []int{0, 0, 0}, 1, 1},
		{"non-binary", []int{0, 1, 2}, 1, 1},
		{"zero batch0", []int{0, 1}, 0, 1},
		{"zero batch1", []int{0, 1}, 1, 0},
	}
	for _, tc := range cases {
		if _, err := NewEpochRecorder("x", 1, tc.labels, tc.b0, tc.b1); err == nil {
			t.Errorf("[%s] expected error", tc.name)
		}
	}
}

func TestEpochRecorderRecordAndDone(t *testing.T) {
	labels := []int{0, 0, 0, 0, 1, 1}
	r, err := NewEpochRecorder("demo", 7, labels, 3, 1)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	r.RecordBatch([]int{0, 1, 2, 4})
	r.RecordBatch([]int{3, 0, 1, 5})
	r.RecordEpoch()

	rep := r.Done()
	rep.Done()

	if rep.Summary.Batches != 2 || rep.Summary.Epochs != 1 {
		t.Fatalf("batches/epochs got %d/%d", rep.Summary.Batches, rep.Summary.Epochs)
	}
	if rep.Summary.Draws0 != 6 || rep.Summary.Draws1 != 2 {
		t.Fatalf("draws got %d/%d want 6/2", rep.Summary.Draws0, rep.Summary.Draws1)
	}
	if rep.Summary.Starved != 0 {
		t.Fatalf("starved got %d want 0", rep.Summary.Starved)
	}
	if math.Abs(rep.Summary.TargetShare-2.0/6.0) > 1e-12 {
		t.Fatalf("target share got %f", rep.Summary.TargetShare)
	}
	if math.Abs(rep.Summary.ActualShare-0.25) > 1e-12 {
		t.Fatalf("actual share got %f want 0.25", rep.Summary.ActualShare)
	}
	if rep.Coverage.MaxDraws0 != 2 || rep.Coverage.MinDraws1 != 1 {
		t.Fatalf("coverage extremes got max0=%d min1=%d", rep.Coverage.MaxDraws0, rep.Coverage.MinDraws1)
	}
}

func TestMergeEpochRecorder(t *testing.T) {
	labels := []int{0, 0, 0, 0, 1, 1}
	a, _ := NewEpochRecorder("demo", 7, labels, 3, 1)
	b, _ := NewEpochRecorder("demo", 7, labels, 3, 1)

	a.RecordBatch([]int{0, 1, 2, 4})
	a.RecordEpoch()
	b.RecordBatch([]int{1, 2, 3, 5})
	b.RecordEpoch()

	m, err := MergeEpochRecorder([]*EpochRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Basic.Batches != 2 || m.Basic.Epochs != 2 {
		t.Fatalf("merged batches/epochs got %d/%d", m.Basic.Batches, m.Basic.Epochs)
	}
	if m.Cov.Counts[1] != 2 || m.Cov.Counts[0] != 1 {
		t.Fatalf("merged counts wrong: %v", m.Cov.Counts)
	}

	// shape mismatch must fail
	c, _ := NewEpochRecorder("demo", 7, labels, 2, 2)
	if _, err := MergeEpochRecorder([]*EpochRecorder{a, c}); err == nil {
		t.Fatalf("expected merge error on different split")
	}
	d, _ := NewEpochRecorder("other", 7, labels, 3, 1)
	if _, err := MergeEpochRecorder([]*EpochRecorder{a, d}); err == nil {
		t.Fatalf("expected merge error on different name")
	}
}
