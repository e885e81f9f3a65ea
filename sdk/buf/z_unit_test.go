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

package buf

import (
	"slices"
	"testing"
)

func TestEpochResultAppendAndReset(t *testing.T) {
	r := NewEpochResult("demo", 1, 4, 3, 1, 2)
	r.Reserve(4)

	src := []int{0, 1, 2, 4}
	r.AppendBatch(src)
	src[0] = 99 // AppendBatch 必須深拷貝
	r.AppendBatch([]int{3, 5, 0, 4})
	r.EndEpoch()

	if len(r.Batches) != 2 || r.EpochCount != 1 {
		t.Fatalf("batches/epochs got %d/%d", len(r.Batches), r.EpochCount)
	}
	if !slices.Equal(r.Batches[0], []int{0, 1, 2, 4}) {
		t.Fatalf("first batch corrupted: %v", r.Batches[0])
	}

	r.Reset()
	if len(r.Batches) != 0 || r.EpochCount != 0 {
		t.Fatalf("reset did not clear state")
	}
	r.Reserve(4)
	r.AppendBatch([]int{1, 2, 3, 4})
	if !slices.Equal(r.Batches[0], []int{1, 2, 3, 4}) {
		t.Fatalf("append after reset failed: %v", r.Batches[0])
	}
}

func TestEpochResultOverflowPanics(t *testing.T) {
	r := NewEpochResult("demo", 1, 2, 1, 1, 1)
	r.Reserve(1)
	r.AppendBatch([]int{0, 1})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on append beyond reserve")
		}
	}()
	r.AppendBatch([]int{2, 3})
}
