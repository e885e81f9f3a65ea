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

package sampler

import (
	"slices"
	"testing"

	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/core"
)

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

// assertPanic 驗證函數是否如預期觸發 panic
func assertPanic(t *testing.T, f func(), msg string) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for %s, but got none", msg)
		}
	}()
	f()
}

func newCore(seed int64) *core.Core {
	return core.New(core.Default().New(seed))
}

// makeEvents 產生 n0 個 0 與 n1 個 1 交錯排列的標籤序列
func makeEvents(n0, n1 int) []int {
	ev := make([]int, 0, n0+n1)
	for i := 0; i < n0+n1; i++ {
		if i%2 == 0 && n1 > 0 {
			ev = append(ev, 1)
			n1--
		} else if n0 > 0 {
			ev = append(ev, 0)
			n0--
		} else {
			ev = append(ev, 1)
			n1--
		}
	}
	return ev
}

func inSet(set []int, v int) bool {
	return slices.Contains(set, v)
}

// -----------------------------------------------------------------------------
// 建構期合約
// -----------------------------------------------------------------------------

// TestStratifiedPoolsPartition 驗證兩池不相交且聯集為完整索引域
func TestStratifiedPoolsPartition(t *testing.T) {
	events := makeEvents(23, 7)
	s, err := NewStratified(newCore(1), events, 6)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	p0, p1 := s.Pools()
	seen := make(map[int]int)
	for _, v := range p0 {
		seen[v]++
		if events[v] != 0 {
			t.Errorf("index %d in pool0 but label is %d", v, events[v])
		}
	}
	for _, v := range p1 {
		seen[v]++
		if events[v] != 1 {
			t.Errorf("index %d in pool1 but label is %d", v, events[v])
		}
	}
	if len(seen) != len(events) {
		t.Fatalf("pools do not cover index range: covered %d of %d", len(seen), len(events))
	}
	for v, cnt := range seen {
		if cnt != 1 {
			t.Fatalf("index %d appears in both pools", v)
		}
	}
}

// TestStratifiedConfigErrors 驗證所有非法建構輸入都走 Config fail-fast
func TestStratifiedConfigErrors(t *testing.T) {
	cases := []struct {
		name   string
		events []int
		batch  int
	}{
		{"empty events", []int{}, 2},
		{"single class ones", []int{1, 1, 1}, 2},
		{"single class zeros", []int{0, 0, 0, 0}, 2},
		{"batch exceeds dataset", []int{0, 1, 0}, 5},
		{"zero batch", []int{0, 1}, 0},
		{"negative batch", []int{0, 1}, -3},
		{"batch one", []int{0, 1, 0, 1}, 1},
		{"non-binary label", []int{0, 2, 1}, 2},
	}
	for _, tc := range cases {
		_, err := NewStratified(newCore(1), tc.events, tc.batch)
		if err == nil {
			t.Errorf("[%s] expected error, got nil", tc.name)
			continue
		}
		if !errs.IsConfig(err) {
			t.Errorf("[%s] expected config error, got %v", tc.name, err)
		}
	}

	if _, err := NewStratified(nil, []int{0, 1}, 2); err == nil || !errs.IsConfig(err) {
		t.Errorf("nil core: expected config error, got %v", err)
	}
}

// TestStratifiedSplitScenario 固定情境：
// events=[0,0,0,0,1,1], batch=4 → 份額 3/1，Len=1，
// 單一批次包含 3 個相異 pool0 索引與 1 個 pool1 索引。
func TestStratifiedSplitScenario(t *testing.T) {
	events := []int{0, 0, 0, 0, 1, 1}
	s, err := NewStratified(newCore(7), events, 4)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	b0, b1 := s.Split()
	if b0 != 3 || b1 != 1 {
		t.Fatalf("expected split 3/1, got %d/%d", b0, b1)
	}
	if s.Len() != 1 {
		t.Fatalf("expected len 1, got %d", s.Len())
	}

	p := s.NewPass()
	batch, err := p.Next()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(batch) != 4 {
		t.Fatalf("expected batch of 4, got %d", len(batch))
	}
	for i := 0; i < 3; i++ {
		if !inSet([]int{0, 1, 2, 3}, batch[i]) {
			t.Errorf("position %d: %d not from pool0", i, batch[i])
		}
	}
	if !inSet([]int{4, 5}, batch[3]) {
		t.Errorf("position 3: %d not from pool1", batch[3])
	}
	uniq := map[int]struct{}{}
	for _, v := range batch {
		uniq[v] = struct{}{}
	}
	if len(uniq) != 4 {
		t.Fatalf("batch indices not unique: %v", batch)
	}

	if _, err := p.Next(); err == nil || !errs.IsState(err) {
		t.Fatalf("expected state error after exhaustion, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// 迭代合約
// -----------------------------------------------------------------------------

// TestStratifiedLenRoundTrip 驗證「完整走一個 epoch 的批次數 == Len()」
// 以及每批的大小、唯一性與類別佈局
func TestStratifiedLenRoundTrip(t *testing.T) {
	events := makeEvents(40, 10)
	s, err := NewStratified(newCore(11), events, 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b0, b1 := s.Split()
	if b0+b1 != 10 {
		t.Fatalf("split does not sum to batch size: %d+%d", b0, b1)
	}

	p := s.NewPass()
	count := 0
	for {
		batch, err := p.Next()
		if err != nil {
			if !errs.IsState(err) {
				t.Fatalf("unexpected err: %v", err)
			}
			break
		}
		count++
		if len(batch) != 10 {
			t.Fatalf("batch %d has size %d", count, len(batch))
		}
		uniq := map[int]struct{}{}
		for i, v := range batch {
			if v < 0 || v >= len(events) {
				t.Fatalf("index out of range: %d", v)
			}
			wantLabel := 0
			if i >= b0 {
				wantLabel = 1
			}
			if events[v] != wantLabel {
				t.Fatalf("batch %d position %d: label %d, want %d", count, i, events[v], wantLabel)
			}
			uniq[v] = struct{}{}
		}
		if len(uniq) != 10 {
			t.Fatalf("batch %d has duplicate indices: %v", count, batch)
		}
	}
	if count != s.Len() {
		t.Fatalf("iterated %d batches, Len() says %d", count, s.Len())
	}
}

// TestStratifiedMinorityCycling 驗證少數池 cycling 的均勻覆蓋：
// n0=30, n1=2, batch=4 → 份額 3/1（保底後），Len=10，
// pool1 兩個索引各被抽中恰好 5 次（share 整除池大小，cycling 無殘尾）。
func TestStratifiedMinorityCycling(t *testing.T) {
	events := makeEvents(30, 2)
	s, err := NewStratified(newCore(13), events, 4)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b0, b1 := s.Split()
	if b0 != 3 || b1 != 1 {
		t.Fatalf("expected split 3/1, got %d/%d", b0, b1)
	}
	if s.Len() != 10 {
		t.Fatalf("expected len 10, got %d", s.Len())
	}

	counts := map[int]int{}
	total := 0
	p := s.NewPass()
	for {
		batch, err := p.Next()
		if err != nil {
			break
		}
		v := batch[len(batch)-1] // 份額佈局：最後一位是 class 1
		if events[v] != 1 {
			t.Fatalf("expected class-1 index, got %d (label %d)", v, events[v])
		}
		counts[v]++
		total++
	}
	if total != 10 {
		t.Fatalf("expected 10 minority draws, got %d", total)
	}
	for v, c := range counts {
		if c != 5 {
			t.Fatalf("minority index %d drawn %d times, want 5 (counts=%v)", v, c, counts)
		}
	}
}

// TestStratifiedMinorityCyclingRemainder 驗證 cycling 殘尾不被丟棄：
// n0=8, n1=5, batch=4 → 份額 2/2，Len=4，少數池 5 不被份額 2 整除（殘 1）。
// 一個 pass 共抽少數池 8 次，殘尾搬到新排列最前端後，任何種子下
// 每個索引的抽取次數差至多 1，且批內索引依然不重複。
func TestStratifiedMinorityCyclingRemainder(t *testing.T) {
	events := makeEvents(8, 5)
	for seed := int64(0); seed < 64; seed++ {
		s, err := NewStratified(newCore(seed), events, 4)
		if err != nil {
			t.Fatalf("seed %d: unexpected err: %v", seed, err)
		}
		b0, b1 := s.Split()
		if b0 != 2 || b1 != 2 {
			t.Fatalf("expected split 2/2, got %d/%d", b0, b1)
		}
		if s.Len() != 4 {
			t.Fatalf("expected len 4, got %d", s.Len())
		}

		counts := map[int]int{}
		p := s.NewPass()
		for {
			batch, err := p.Next()
			if err != nil {
				break
			}
			uniq := map[int]struct{}{}
			for _, v := range batch {
				uniq[v] = struct{}{}
			}
			if len(uniq) != len(batch) {
				t.Fatalf("seed %d: duplicate indices in batch %v", seed, batch)
			}
			for _, v := range batch[b0:] {
				if events[v] != 1 {
					t.Fatalf("seed %d: expected class-1 index, got %d (label %d)", seed, v, events[v])
				}
				counts[v]++
			}
		}

		_, pool1 := s.Pools()
		lo, hi := s.Len()*b1, 0
		for _, v := range pool1 {
			c := counts[v]
			lo = min(lo, c)
			hi = max(hi, c)
		}
		if hi-lo > 1 {
			t.Fatalf("seed %d: minority per-index counts %v spread %d, want <= 1", seed, counts, hi-lo)
		}
	}
}

// TestStratifiedPassInvalidation 驗證開新 pass 會使舊 pass 失效（State error）
func TestStratifiedPassInvalidation(t *testing.T) {
	s, err := NewStratified(newCore(5), makeEvents(8, 4), 3)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	old := s.NewPass()
	if _, err := old.Next(); err != nil {
		t.Fatalf("fresh pass should yield: %v", err)
	}

	fresh := s.NewPass()
	if _, err := old.Next(); err == nil || !errs.IsState(err) {
		t.Fatalf("expected state error on invalidated pass, got %v", err)
	}
	if old.Remaining() != 0 {
		t.Fatalf("invalidated pass should report 0 remaining")
	}

	got := 0
	for {
		if _, err := fresh.Next(); err != nil {
			break
		}
		got++
	}
	if got != s.Len() {
		t.Fatalf("fresh pass yielded %d batches, want %d", got, s.Len())
	}
}

// TestStratifiedAllSeq 驗證 range-over-func 介面與提早中斷
func TestStratifiedAllSeq(t *testing.T) {
	s, err := NewStratified(newCore(21), makeEvents(24, 6), 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	count := 0
	for range s.All() {
		count++
	}
	if count != s.Len() {
		t.Fatalf("All yielded %d batches, Len() says %d", count, s.Len())
	}

	// 提早中斷不應 panic，且下一次 All 仍是完整 epoch
	for range s.All() {
		break
	}
	count = 0
	for range s.All() {
		count++
	}
	if count != s.Len() {
		t.Fatalf("All after early break yielded %d, want %d", count, s.Len())
	}
}

// TestStratifiedDeterminism 相同 seed 必須產生相同的批次序列
func TestStratifiedDeterminism(t *testing.T) {
	events := makeEvents(50, 14)

	run := func(seed int64) [][]int {
		s, err := NewStratified(newCore(seed), events, 8)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		var out [][]int
		for b := range s.All() {
			out = append(out, slices.Clone(b))
		}
		return out
	}

	a, b := run(99), run(99)
	if len(a) != len(b) {
		t.Fatalf("epoch lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !slices.Equal(a[i], b[i]) {
			t.Fatalf("batch %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

// -----------------------------------------------------------------------------
// 加權模式
// -----------------------------------------------------------------------------

// TestWeightedPermBias 驗證高權重傾向排前、零權重排最後、負權重 panic
func TestWeightedPermBias(t *testing.T) {
	c := newCore(1)
	trials := 10000
	firstIdxCount := 0
	for i := 0; i < trials; i++ {
		res := WeightedPerm(c, []int{10, 90})
		if len(res) != 2 {
			t.Fatalf("expected length 2, got %d", len(res))
		}
		if res[0] == 1 {
			firstIdxCount++
		}
	}
	rate := float64(firstIdxCount) / float64(trials)
	// 期望機率約為 0.90
	if rate < 0.85 || rate > 0.95 {
		t.Errorf("WeightedPerm prob mismatch: expected ~0.90, got %.4f", rate)
	}

	res := WeightedPerm(c, []float64{1, 0, 2, 0})
	last2 := []int{res[2], res[3]}
	slices.Sort(last2)
	if !slices.Equal(last2, []int{1, 3}) {
		t.Errorf("zero-weight indices should be last, got %v", res)
	}

	if got := WeightedPerm(c, []int{}); len(got) != 0 {
		t.Errorf("empty weights should yield empty perm")
	}

	assertPanic(t, func() { WeightedPerm(c, []float64{1, -1}) }, "negative weight")
}

// TestStratifiedWeighted 驗證加權建構的合約與批次完整性
func TestStratifiedWeighted(t *testing.T) {
	events := makeEvents(12, 4)

	if _, err := NewStratifiedWeighted(newCore(1), events, []float64{1, 2}, 4); err == nil || !errs.IsConfig(err) {
		t.Fatalf("weights length mismatch should be config error, got %v", err)
	}
	badW := make([]float64, len(events))
	badW[3] = -0.5
	if _, err := NewStratifiedWeighted(newCore(1), events, badW, 4); err == nil || !errs.IsConfig(err) {
		t.Fatalf("negative weight should be config error, got %v", err)
	}

	w := make([]float64, len(events))
	for i := range w {
		w[i] = float64(i%3) + 0.5
	}
	s, err := NewStratifiedWeighted(newCore(17), events, w, 4)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	count := 0
	for b := range s.All() {
		if len(b) != 4 {
			t.Fatalf("weighted batch size %d, want 4", len(b))
		}
		count++
	}
	if count != s.Len() {
		t.Fatalf("weighted epoch yielded %d, want %d", count, s.Len())
	}
}
