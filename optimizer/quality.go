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

import "math"

// splitOf 計算指定 batch size 下的類別切分（round-half-up，下限 1）。
// 與取樣器的切分規則一致，否則評分會對不上實際行為。
func splitOf(batchSize, n0, n int) (batch0, batch1 int) {
	batch0 = (2*batchSize*n0 + n) / (2 * n)
	batch0 = max(1, min(batch0, batchSize-1))
	return batch0, batchSize - batch0
}

// splitScore 評估一個 batch size 的切分品質，越小越好。
//
// 兩個成分：
//   - shareErr：批內 class 1 占比與資料集占比的偏差（配比失真）。
//   - waste   ：多數池尾端進不了完整批次的樣本比例（每 epoch 被丟棄）。
func splitScore(batchSize, n0, n1 int) float64 {
	n := n0 + n1
	b0, b1 := splitOf(batchSize, n0, n)

	shareErr := math.Abs(float64(b1)/float64(batchSize) - float64(n1)/float64(n))

	nMaj, bMaj := n0, b0
	if n1 > n0 {
		nMaj, bMaj = n1, b1
	}
	waste := float64(nMaj%bMaj) / float64(nMaj)

	return shareErr + 0.25*waste
}
