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

package stats_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/zintix-labs/batchlab/spec"
	"github.com/zintix-labs/batchlab/stats"
)

// buildEpochReport constructs an EpochReport from per-index draw counts.
// The first pool0 indices are class 0, the rest class 1.
func buildEpochReport(pool0, pool1, batch0, batch1 int, counts []int) *stats.EpochReport {
	bucket := stats.Buckets.GetBucket()
	L := len(stats.Buckets.DrawBucketStr())
	p0c := make([]int, L)
	p1c := make([]int, L)

	draws0, draws1, starved := 0, 0, 0
	min1 := -1
	for i, c := range counts {
		if c == 0 {
			starved++
		}
		if i < pool0 {
			p0c[bucket.Index(c)]++
			draws0 += c
		} else {
			p1c[bucket.Index(c)]++
			draws1 += c
			if min1 < 0 || c < min1 {
				min1 = c
			}
		}
	}
	if min1 < 0 {
		min1 = 0
	}

	batches := 0
	if batch0 > 0 {
		batches = draws0 / batch0
	}
	report := &stats.EpochReport{
		Summary: &stats.SummaryReport{
			DatasetName: "TestSet",
			DatasetId:   spec.DSID(0),
			BatchSize:   batch0 + batch1,
			Batch0:      batch0,
			Batch1:      batch1,
			Pool0:       pool0,
			Pool1:       pool1,
			Epochs:      1,
			Batches:     batches,
			Draws0:      draws0,
			Draws1:      draws1,
			TargetShare: float64(pool1) / float64(pool0+pool1),
			Starved:     starved,
			MinCycles:   min1,
		},
		Coverage: &stats.CoverageReport{
			DrawBucket:   stats.Buckets.DrawBucketStr(),
			Pool0Collect: p0c,
			Pool1Collect: p1c,
		},
	}
	report.Done()
	return report
}

func TestEpochReportCoreMetrics(t *testing.T) {
	// 8 samples: 6 class 0 drawn once, 2 class 1 drawn 3x each
	counts := []int{1, 1, 1, 1, 1, 1, 3, 3}
	rep := buildEpochReport(6, 2, 3, 1, counts)

	wantShare := 6.0 / 12.0
	if got := rep.Share(); math.Abs(got-wantShare) > 1e-12 {
		t.Fatalf("share got %.12f want %.12f", got, wantShare)
	}
	if rep.Summary.Coverage != 1.0 {
		t.Fatalf("coverage got %.3f want 1.0", rep.Summary.Coverage)
	}
	if rep.Summary.Starved != 0 {
		t.Fatalf("starved got %d want 0", rep.Summary.Starved)
	}

	// Distribution lengths and sums
	if len(rep.Coverage.Pool0Collect) != len(rep.Coverage.DrawBucket) {
		t.Fatalf("draw buckets length mismatch")
	}
	n0 := 0
	for _, c := range rep.Coverage.Pool0Collect {
		n0 += c
	}
	if n0 != rep.Summary.Pool0 {
		t.Fatalf("pool0 distribution total %d != pool size %d", n0, rep.Summary.Pool0)
	}

	rep.Done() // idempotent
	if rep.Share() != wantShare {
		t.Fatalf("share changed after second Done")
	}
}

func TestEpochReportPartialCoverage(t *testing.T) {
	// 10 samples, 4 never drawn
	counts := []int{2, 2, 0, 0, 0, 0, 1, 1, 5, 5}
	rep := buildEpochReport(8, 2, 4, 1, counts)

	if rep.Summary.Starved != 4 {
		t.Fatalf("starved got %d want 4", rep.Summary.Starved)
	}
	if math.Abs(rep.Summary.Coverage-0.6) > 1e-12 {
		t.Fatalf("coverage got %.3f want 0.6", rep.Summary.Coverage)
	}
	ci := rep.Summary.CoverageCI
	if !(ci.Lo < 0.6 && 0.6 < ci.Hi) {
		t.Fatalf("coverage CI [%.3f, %.3f] does not bracket 0.6", ci.Lo, ci.Hi)
	}
}

func TestDrawBucketIndex(t *testing.T) {
	b := stats.Buckets.GetBucket()
	labels := stats.Buckets.DrawBucketStr()

	cases := []struct {
		count int
		label string
	}{
		{0, "[0,0]"},
		{1, "[1,2)"},
		{2, "[2,3)"},
		{4, "[3,5)"},
		{7, "[5,10)"},
		{19, "[10,20)"},
		{49, "[20,50)"},
		{99, "[50,100)"},
		{499, "[100,500)"},
		{500, "[500,+inf)"},
		{1_000_000, "[500,+inf)"},
	}
	for _, tc := range cases {
		if got := labels[b.Index(tc.count)]; got != tc.label {
			t.Errorf("count %d: got bucket %s, want %s", tc.count, got, tc.label)
		}
	}
}

func TestEstimatorCoverageAndRuns(t *testing.T) {
	// Build 100 reports with coverage from 1% to 100%
	reports := make([]*stats.EpochReport, 0, 100)
	for i := 1; i <= 100; i++ {
		counts := make([]int, 100)
		for j := 0; j < i; j++ {
			counts[j] = 1
		}
		// keep the minority index (last position) always drawn
		counts[99] = 1
		reports = append(reports, buildEpochReport(99, 1, 3, 1, counts))
	}

	est := stats.EstimatorRunExp(reports)
	if math.Abs(est.CoverageStat.ExpMedian.Hat-0.5) > 0.05 {
		t.Fatalf("median coverage expected ~0.5, got %.3f", est.CoverageStat.ExpMedian.Hat)
	}
	if math.Abs(est.CoverageStat.ExpPerc.ExpP90.Hat-0.9) > 0.05 {
		t.Fatalf("P90 coverage expected ~0.9, got %.3f", est.CoverageStat.ExpPerc.ExpP90.Hat)
	}

	// Run outcome: 10 runs, 4 with full coverage, 6 with one starved index
	outcome := make([]*stats.EpochReport, 10)
	for i := 0; i < 10; i++ {
		counts := []int{2, 2, 2, 2, 2}
		if i >= 4 {
			counts[1] = 0
		}
		outcome[i] = buildEpochReport(4, 1, 2, 1, counts)
	}
	est2 := stats.EstimatorRunExp(outcome)
	if est2.RunStat.FullCoverage.Hat != 0.4 {
		t.Fatalf("full coverage rate got %.2f want 0.40", est2.RunStat.FullCoverage.Hat)
	}
	if est2.EventStat.Starved.Zero.Hat != 0.4 {
		t.Fatalf("starved=0 rate got %.2f want 0.40", est2.EventStat.Starved.Zero.Hat)
	}
	if est2.EventStat.Starved.One.Hat != 0.6 {
		t.Fatalf("starved=1 rate got %.2f want 0.60", est2.EventStat.Starved.One.Hat)
	}
	// all counts are 2 → every minority index used at least twice
	if est2.RunStat.Cycled.Hat != 1.0 {
		t.Fatalf("cycled rate got %.2f want 1.00", est2.RunStat.Cycled.Hat)
	}

	// empty input must not panic
	empty := stats.EstimatorRunExp(nil)
	if empty == nil {
		t.Fatalf("estimator on empty input returned nil")
	}
}

func TestRenderers(t *testing.T) {
	rep := buildEpochReport(6, 2, 3, 1, []int{1, 1, 1, 1, 1, 1, 3, 3})

	var jbuf bytes.Buffer
	if err := rep.WriteWith(&jbuf, &stats.JsonEpochReportRender{}); err != nil {
		t.Fatalf("json render: %v", err)
	}
	if !strings.Contains(jbuf.String(), `"DatasetName":"TestSet"`) {
		t.Fatalf("json output missing dataset name: %s", jbuf.String())
	}

	var ybuf bytes.Buffer
	if err := rep.WriteWith(&ybuf, &stats.YAMLEpochReportRender{}); err != nil {
		t.Fatalf("yaml render: %v", err)
	}
	// 一維陣列應輸出成 flow style
	if !strings.Contains(ybuf.String(), "[") {
		t.Fatalf("yaml output should use flow style lists:\n%s", ybuf.String())
	}
}
