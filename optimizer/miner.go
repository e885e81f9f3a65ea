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
	"fmt"
	"math"

	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/core"
	"gonum.org/v1/gonum/stat"
)

const maxMine int = 1_000_000

// Mined 一次成功開採的結果。
type Mined struct {
	Labels  []int
	Weights []float64 // Weighted=false 時為 nil
	Share   float64   // 實際 class 1 占比
	Tries   int
}

// mine 反覆以 Bernoulli(target_share) 生成標籤序列，
// 直到實際占比落在 tolerance 內且兩類別皆非空。
//
// 不做 rejection 以外的修補：直接丟掉整條序列重抽，
// 保證被接受的序列仍是同分佈下的無偏樣本。
func (t *Tuner) mine(c *core.Core) (*Mined, error) {
	opt := t.cfg
	labels := make([]int, opt.Size)

	for try := 1; try <= maxMine; try++ {
		ones := 0
		for i := range labels {
			if c.Float64() < opt.TargetShare {
				labels[i] = 1
				ones++
			} else {
				labels[i] = 0
			}
		}
		share := float64(ones) / float64(opt.Size)
		if ones == 0 || ones == opt.Size {
			continue
		}
		if math.Abs(share-opt.TargetShare) > opt.Tolerance {
			if try%100 == 0 {
				fmt.Printf("\rmine %s try: %d share: %.4f", opt.DatasetName, try, share)
			}
			continue
		}
		fmt.Printf("\r")

		mined := &Mined{
			Labels: labels,
			Share:  share,
			Tries:  try,
		}
		if opt.Weighted {
			mined.Weights = t.mineWeights(c)
		}
		return mined, nil
	}
	return nil, errs.Warnf("mine %s failed: no sequence within tolerance %.4g after %d tries",
		opt.DatasetName, opt.Tolerance, maxMine)
}

// mineWeights 生成對數常態 (lognormal) 形狀的樣本權重並正規化到均值 1。
//
// 對數常態是重要性取樣權重的常見形狀：多數樣本權重接近 1，
// 少數樣本顯著偏重。sigma 控制偏重程度。
func (t *Tuner) mineWeights(c *core.Core) []float64 {
	opt := t.cfg
	w := make([]float64, opt.Size)
	for i := range w {
		// Box-Muller 取標準常態，再取 exp
		u1 := c.Float64()
		for u1 == 0 {
			u1 = c.Float64()
		}
		u2 := c.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		w[i] = math.Exp(opt.WeightSigma * z)
	}
	mean := stat.Mean(w, nil)
	for i := range w {
		w[i] /= mean
	}
	return w
}
