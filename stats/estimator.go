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

package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// 多組平行模擬的彙總評估
type EstimatorRuns struct {
	CoverageStat CoverageStat
	EventStat    EventStat
	RunStat      RunStat
}

// Coverage敘事
type CoverageStat struct {
	ExpMedian PointStat // 描述覆蓋率的中位數
	ExpPerc   ExpPerc   // 描述各 run 的覆蓋率分布
	CovPerc   CovPerc   // 描述覆蓋率門檻（對應多少比例的 run）
}

// 用 run 分位數視角看: 最差10% run 的覆蓋率 最差33% run 的覆蓋率 ...
type ExpPerc struct {
	ExpP10 PointStat
	ExpP33 PointStat
	ExpP67 PointStat
	ExpP90 PointStat
}

// 用覆蓋率門檻視角看 run: 有多少 run 的覆蓋率 ≤ 50% ≤ 80% ...
type CovPerc struct {
	Cov50  PointStat
	Cov80  PointStat
	Cov95  PointStat
	Cov100 PointStat
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// 事件敘事
type EventStat struct {
	Starved EventCount
	Bucket  BucketEvent
}

// 事件點估計
type EventCount struct {
	Zero PointStat
	One  PointStat
	Two  PointStat
	More PointStat
}

// 對應分桶的統計
type BucketEvent struct {
	BucketLable []string     // 分桶標籤
	BucketCount []EventCount // 分桶事件點估計
}

// 對應結果敘事
type RunStat struct {
	FullCoverage PointStat // 每個索引都被抽到
	Cycled       PointStat // 少數池被完整用過超過一輪
	OnTarget     PointStat // 實際類別比例落在目標 ±10% 內
}

// ============================================================
// ** 對外 : 取樣品質評估 **
// ============================================================

// EstimatorRunExp 取樣品質評估
//
// 1. Coverage 敘事 : 描述各 run 的資料集覆蓋率分布
//
// 2. Event 敘事 : 描述 run 內出現某些事件（餓死索引數、各抽中次數分桶）的機率
//
// 3. Run 敘事 : 描述 run 最終達成完整覆蓋、少數池循環、比例達標的機率
func EstimatorRunExp(sts []*EpochReport) *EstimatorRuns {
	// 0. 防禦：空輸入
	n := len(sts)
	out := &EstimatorRuns{}
	if n == 0 {
		return out
	}

	// ------------------------------------------------------------
	// 1) Coverage 敘事：收集每個 run 的覆蓋率並做分位/CI
	// ------------------------------------------------------------
	cov := make([]float64, n)
	for i, s := range sts {
		s.Done()
		cov[i] = s.Summary.Coverage
	}

	// 中位數 (點估計 + 95% CI)
	medHat := quantilePoint(cov, 0.5)
	medLo, medHi := quantileCI(cov, 0.5, 0.95)

	// P10, P33, P67, P90 (點估計 + 95% CI)
	p10Hat := quantilePoint(cov, 0.10)
	p10Lo, p10Hi := quantileCI(cov, 0.10, 0.95)

	p33Hat := quantilePoint(cov, 1.0/3.0)
	p33Lo, p33Hi := quantileCI(cov, 1.0/3.0, 0.95)

	p67Hat := quantilePoint(cov, 2.0/3.0)
	p67Lo, p67Hi := quantileCI(cov, 2.0/3.0, 0.95)

	p90Hat := quantilePoint(cov, 0.90)
	p90Lo, p90Hi := quantileCI(cov, 0.90, 0.95)

	// 覆蓋率對標：≤ 50/80/95/100% 的 run 比例（CP 95% CI）
	cov50Hat, cov50CI := percentileCIForValue(cov, 0.50, 0.95)
	cov80Hat, cov80CI := percentileCIForValue(cov, 0.80, 0.95)
	cov95Hat, cov95CI := percentileCIForValue(cov, 0.95, 0.95)
	cov100Hat, cov100CI := percentileCIForValue(cov, 1.00, 0.95)

	out.CoverageStat = CoverageStat{
		ExpMedian: PointStat{Hat: medHat, CI: CI{Lo: medLo, Hi: medHi}},
		ExpPerc: ExpPerc{
			ExpP10: PointStat{Hat: p10Hat, CI: CI{Lo: p10Lo, Hi: p10Hi}},
			ExpP33: PointStat{Hat: p33Hat, CI: CI{Lo: p33Lo, Hi: p33Hi}},
			ExpP67: PointStat{Hat: p67Hat, CI: CI{Lo: p67Lo, Hi: p67Hi}},
			ExpP90: PointStat{Hat: p90Hat, CI: CI{Lo: p90Lo, Hi: p90Hi}},
		},
		CovPerc: CovPerc{
			Cov50:  PointStat{Hat: cov50Hat, CI: cov50CI},
			Cov80:  PointStat{Hat: cov80Hat, CI: cov80CI},
			Cov95:  PointStat{Hat: cov95Hat, CI: cov95CI},
			Cov100: PointStat{Hat: cov100Hat, CI: cov100CI},
		},
	}

	// ------------------------------------------------------------
	// 2) Event 敘事：餓死索引數分布 + 各桶索引數分布（0/1/2/3+）
	// ------------------------------------------------------------
	// 2.1 Starved（0/1/2/3+）
	var c0, c1, c2, c3p int
	for _, s := range sts {
		t := s.Summary.Starved
		switch {
		case t == 0:
			c0++
		case t == 1:
			c1++
		case t == 2:
			c2++
		default:
			c3p++
		}
	}
	_, ci0 := proportionCICP(c0, n, 0.95)
	_, ci1 := proportionCICP(c1, n, 0.95)
	_, ci2 := proportionCICP(c2, n, 0.95)
	_, ci3 := proportionCICP(c3p, n, 0.95)

	out.EventStat.Starved = EventCount{
		Zero: PointStat{Hat: float64(c0) / float64(n), CI: ci0},
		One:  PointStat{Hat: float64(c1) / float64(n), CI: ci1},
		Two:  PointStat{Hat: float64(c2) / float64(n), CI: ci2},
		More: PointStat{Hat: float64(c3p) / float64(n), CI: ci3},
	}

	// 2.2 分桶
	labels := Buckets.DrawBucketStr()
	L := len(labels)
	out.EventStat.Bucket = BucketEvent{BucketLable: labels, BucketCount: make([]EventCount, L)}

	// 對每個桶，統計 run 中落桶索引數 0/1/2/3+ 的比例（看少數池）
	for bi := 0; bi < L; bi++ {
		var b0, b1, b2, b3p int
		for _, s := range sts {
			cnt := 0
			if bi < len(s.Coverage.Pool1Collect) {
				cnt = s.Coverage.Pool1Collect[bi]
			}
			switch {
			case cnt == 0:
				b0++
			case cnt == 1:
				b1++
			case cnt == 2:
				b2++
			default:
				b3p++
			}
		}
		_, ciB0 := proportionCICP(b0, n, 0.95)
		_, ciB1 := proportionCICP(b1, n, 0.95)
		_, ciB2 := proportionCICP(b2, n, 0.95)
		_, ciB3 := proportionCICP(b3p, n, 0.95)

		out.EventStat.Bucket.BucketCount[bi] = EventCount{
			Zero: PointStat{Hat: float64(b0) / float64(n), CI: ciB0},
			One:  PointStat{Hat: float64(b1) / float64(n), CI: ciB1},
			Two:  PointStat{Hat: float64(b2) / float64(n), CI: ciB2},
			More: PointStat{Hat: float64(b3p) / float64(n), CI: ciB3},
		}
	}

	// ------------------------------------------------------------
	// 3) Run 敘事：FullCoverage / Cycled / OnTarget 比例 + CP 95% CI
	// ------------------------------------------------------------
	var fullK, cycK, tgtK int
	for _, s := range sts {
		if s.Summary.Starved == 0 {
			fullK++
		}
		if s.Summary.MinCycles > 1 {
			cycK++
		}
		// 目標 ±10%（相對誤差）；目標為 0 時視為不達標
		if t := s.Summary.TargetShare; t > 0 {
			d := s.Summary.ActualShare - t
			if d < 0 {
				d = -d
			}
			if d <= 0.1*t {
				tgtK++
			}
		}
	}

	fullHat, fullCI := proportionCICP(fullK, n, 0.95)
	cycHat, cycCI := proportionCICP(cycK, n, 0.95)
	tgtHat, tgtCI := proportionCICP(tgtK, n, 0.95)

	out.RunStat = RunStat{
		FullCoverage: PointStat{Hat: fullHat, CI: fullCI},
		Cycled:       PointStat{Hat: cycHat, CI: cycCI},
		OnTarget:     PointStat{Hat: tgtHat, CI: tgtCI},
	}

	return out
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 問題：給定樣本 data 與門檻 x0，估計 p = P(X ≤ x0) 的點估計與 CI 區間
// 回傳 (pHat, CI)
func percentileCIForValue(data []float64, x0 float64, confidence float64) (pHat float64, ci CI) {
	n := len(data)
	if n == 0 {
		return 0, CI{Lo: 0, Hi: 0}
	}
	// k = 數到 <= x0 的個數
	k := 0
	for _, v := range data {
		if v <= x0 {
			k++
		}
	}
	return proportionCICP(k, n, confidence)
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// 回傳 (loValue, hiValue)
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	// 以 CP 思想反推 p 範圍
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	if li < 0 {
		li = 0
	}
	if li > n-1 {
		li = n - 1
	}
	if ui < 0 {
		ui = 0
	}
	if ui > n-1 {
		ui = n - 1
	}
	return cp[li], cp[ui]
}

// quantilePoint returns the empirical quantile point estimate at q.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	// 最近秩法
	idx := int(q * float64(n))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (est *EstimatorRuns) Out() {
	// 1) Coverage (Run Experience)
	fmt.Println("=== Coverage (per run) ===")
	covKeys := []string{
		"Median Coverage",
		"P10 Coverage",
		"P33 Coverage",
		"P67 Coverage",
		"P90 Coverage",
		"≤50% Coverage (runs)",
		"≤80% Coverage (runs)",
		"≤95% Coverage (runs)",
		"≤100% Coverage (runs)",
	}
	covMsg := map[string]string{
		"Median Coverage":       fmtHatCIpct01(est.CoverageStat.ExpMedian.Hat, est.CoverageStat.ExpMedian.CI),
		"P10 Coverage":          fmtHatCIpct01(est.CoverageStat.ExpPerc.ExpP10.Hat, est.CoverageStat.ExpPerc.ExpP10.CI),
		"P33 Coverage":          fmtHatCIpct01(est.CoverageStat.ExpPerc.ExpP33.Hat, est.CoverageStat.ExpPerc.ExpP33.CI),
		"P67 Coverage":          fmtHatCIpct01(est.CoverageStat.ExpPerc.ExpP67.Hat, est.CoverageStat.ExpPerc.ExpP67.CI),
		"P90 Coverage":          fmtHatCIpct01(est.CoverageStat.ExpPerc.ExpP90.Hat, est.CoverageStat.ExpPerc.ExpP90.CI),
		"≤50% Coverage (runs)":  fmtHatCIpct01(est.CoverageStat.CovPerc.Cov50.Hat, est.CoverageStat.CovPerc.Cov50.CI),
		"≤80% Coverage (runs)":  fmtHatCIpct01(est.CoverageStat.CovPerc.Cov80.Hat, est.CoverageStat.CovPerc.Cov80.CI),
		"≤95% Coverage (runs)":  fmtHatCIpct01(est.CoverageStat.CovPerc.Cov95.Hat, est.CoverageStat.CovPerc.Cov95.CI),
		"≤100% Coverage (runs)": fmtHatCIpct01(est.CoverageStat.CovPerc.Cov100.Hat, est.CoverageStat.CovPerc.Cov100.CI),
	}
	printTable("Coverage (per run)", covKeys, covMsg)

	// 2) Events: Starved indices per run
	fmt.Println("\n=== Events: Starved indices per run ===")
	starvedKeys := []string{"0 indices", "1 index", "2 indices", "3+ indices"}
	starvedMsg := map[string]string{
		"0 indices":  fmtHatCIpct01(est.EventStat.Starved.Zero.Hat, est.EventStat.Starved.Zero.CI),
		"1 index":    fmtHatCIpct01(est.EventStat.Starved.One.Hat, est.EventStat.Starved.One.CI),
		"2 indices":  fmtHatCIpct01(est.EventStat.Starved.Two.Hat, est.EventStat.Starved.Two.CI),
		"3+ indices": fmtHatCIpct01(est.EventStat.Starved.More.Hat, est.EventStat.Starved.More.CI),
	}
	printTable("Events: Starved indices per run", starvedKeys, starvedMsg)

	// 3) Events: Buckets (minority indices per draw-count bucket)
	fmt.Println("\n=== Events: Buckets (minority indices per draw-count bucket) ===")
	for i, label := range est.EventStat.Bucket.BucketLable {
		ec := est.EventStat.Bucket.BucketCount[i]
		fmt.Printf("%-20s : %s\n", label, fmtEventCount(ec))
	}

	// 4) Run Outcome
	fmt.Println("\n=== Run Outcome ===")
	runKeys := []string{"Full Coverage", "Cycled", "On Target"}
	runMsg := map[string]string{
		"Full Coverage": fmtHatCIpct01(est.RunStat.FullCoverage.Hat, est.RunStat.FullCoverage.CI),
		"Cycled":        fmtHatCIpct01(est.RunStat.Cycled.Hat, est.RunStat.Cycled.CI),
		"On Target":     fmtHatCIpct01(est.RunStat.OnTarget.Hat, est.RunStat.OnTarget.CI),
	}
	printTable("Run Outcome", runKeys, runMsg)
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}

func fmtEventCount(ec EventCount) string {
	return fmt.Sprintf("0x: %s | 1x: %s | 2x: %s | 3+x: %s",
		fmtHatCIpct01(ec.Zero.Hat, ec.Zero.CI),
		fmtHatCIpct01(ec.One.Hat, ec.One.CI),
		fmtHatCIpct01(ec.Two.Hat, ec.Two.CI),
		fmtHatCIpct01(ec.More.Hat, ec.More.CI),
	)
}
