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
	"crypto/rand"
	"io"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/recorder"
	"github.com/zintix-labs/batchlab/sdk/core"
	"github.com/zintix-labs/batchlab/spec"
	"github.com/zintix-labs/batchlab/stats"
)

const capPrepare int = 100

// Simulator 用於模擬取樣行為，可建立多台 Feeder 並平行紀錄覆蓋統計。
type Simulator struct {
	DatasetName string                    // 資料集名稱
	DatasetId   spec.DSID                 // 資料集編號
	ss          *spec.SamplerSetting      // 方便重用建立 Feeder/Recorder
	labels      []int                     // 解析完成的標籤序列（唯讀）
	cf          core.CoreFactory          // 亂數生成器
	initSeed    int64                     // 初始下的種子
	seedmaker   *seedMaker                // 種子生成器
	fBuf        []*Feeder                 // 併發執行機台實例
	rBuf        []*recorder.EpochRecorder // 併發取樣紀錄員
	sBuf        []*stats.EpochReport      // 併發統計結果報表(僅 RunExp 需要)
}

func newSimulator(ss *spec.SamplerSetting, labels []int, cf core.CoreFactory) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ss, labels, cf, seed.Int64())
}

func newSimulatorWithSeed(ss *spec.SamplerSetting, labels []int, cf core.CoreFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		DatasetName: ss.DatasetName,
		DatasetId:   ss.DatasetID,
		ss:          ss,
		labels:      labels,
		cf:          cf,
		initSeed:    seed,
		seedmaker:   newSeedMaker(seed),
		fBuf:        make([]*Feeder, 1, capPrepare),
		rBuf:        make([]*recorder.EpochRecorder, 0, capPrepare),
		sBuf:        make([]*stats.EpochReport, 0, capPrepare),
	}
	f, err := newFeederWithSeed(ss, labels, cf, s.initSeed)
	if err != nil {
		return nil, err
	}
	s.fBuf[0] = f
	return s, nil
}

// newRecorder 以模擬器持有的資料集建一個紀錄員。
func (s *Simulator) newRecorder() (*recorder.EpochRecorder, error) {
	batch0, batch1 := s.fBuf[0].Split()
	return recorder.NewEpochRecorder(s.DatasetName, s.DatasetId, s.labels, batch0, batch1)
}

// Run 單線模擬器：以一台 Feeder 連續跑指定 epochs 並回傳統計結果與用時
func (s *Simulator) Run(epochs int, showpb bool) (*stats.EpochReport, time.Duration, error) {
	defer s.reset()
	if epochs < 1 {
		return nil, 0, errs.NewWarn("epochs must > 0")
	}
	if len(s.rBuf) == 0 {
		r, err := s.newRecorder()
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	r := s.rBuf[0]
	f := s.fBuf[0]

	bar := pb.StartNew(epochs)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < epochs; i++ {
		er := f.EpochInternal()
		for _, b := range er.Batches {
			r.RecordBatch(b)
		}
		r.RecordEpoch()
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// RunMP 平行執行多個 Feeder，總計 epochs*mp 個 epoch，合併統計結果後 回傳統計結果與用時
func (s *Simulator) RunMP(epochs int, mp int, showpb bool) (*stats.EpochReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if epochs < 1 {
		return nil, 0, errs.NewWarn("epochs must > 0")
	}
	for len(s.fBuf) < mp {
		f, err := newFeederWithSeed(s.ss, s.labels, s.cf, s.seedmaker.next())
		if err != nil {
			return nil, 0, err
		}
		s.fBuf = append(s.fBuf, f)
	}

	for len(s.rBuf) < mp {
		r, err := s.newRecorder()
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(epochs * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			f := s.fBuf[i]
			st := s.rBuf[i]
			for e := 0; e < epochs; e++ {
				er := f.EpochInternal()
				for _, b := range er.Batches {
					st.RecordBatch(b)
				}
				st.RecordEpoch()
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, _ := recorder.MergeEpochRecorder(s.rBuf)
	result := st.Done()
	result.Done()

	return result, used, nil
}

// RunExp 模擬多個獨立 run 各自跑完指定 epochs 的取樣歷程，並產出整體報表與分佈估計。
//
// 每個 run 對應一個獨立的 recorder（同一台 Feeder 連續服務多個 run，
// RNG 流水不重置），最後把各 run 的報表餵給 EstimatorRunExp 估出
// 覆蓋率分位數與事件機率（帶 Clopper-Pearson 信賴區間）。
func (s *Simulator) RunExp(mp int, runs int, epochs int, showpb bool) (*stats.EpochReport, *stats.EstimatorRuns, time.Duration, error) {
	defer s.reset()
	if runs < 1 || epochs < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}

	// 	準備並行機台
	for len(s.fBuf) < mp {
		f, err := newFeederWithSeed(s.ss, s.labels, s.cf, s.seedmaker.next())
		if err != nil {
			return nil, nil, 0, err
		}
		s.fBuf = append(s.fBuf, f)
	}

	// 準備 runs 份紀錄員
	s.sBuf = make([]*stats.EpochReport, runs)
	for len(s.rBuf) < runs {
		r, err := s.newRecorder()
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	// 作一個2048大小的緩衝channel 使 run 依序處理
	jobs := make(chan *recorder.EpochRecorder, 2048)

	wg := new(sync.WaitGroup)
	wg.Add(mp) // 併發機台

	bar := pb.StartNew(runs)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	// 併發執行
	for w := 0; w < mp; w++ {
		go run(wg, s.fBuf[w], jobs, epochs, bar)
	}
	// 此時併發已經開始，但由於所有workers都無法從jobs當中取出j(還沒塞進去) 所以不會結束

	// 塞進 run，開始模擬
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs) // run 送完處理完畢關閉通道 通知所有機台不會再有新資料
	wg.Wait()   // 等待機台都執行完任務
	used := time.Since(bar.StartTime())
	bar.Finish()

	// 機台基準報表
	record, err := recorder.MergeEpochRecorder(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	st := record.Done()
	st.Done()

	// run 分析報表
	for i, r := range s.rBuf {
		s.sBuf[i] = r.Done()
		s.sBuf[i].Done()
	}
	est := stats.EstimatorRunExp(s.sBuf)
	return st, est, used, nil
}

func run(wg *sync.WaitGroup, f *Feeder, jobs chan *recorder.EpochRecorder, epochs int, bar *pb.ProgressBar) {
	defer wg.Done()
	for j := range jobs { // j := <- jobs
		for range epochs {
			er := f.EpochInternal()
			for _, b := range er.Batches {
				j.RecordBatch(b)
			}
			j.RecordEpoch()
		}
		bar.Increment()
	}
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫（例如 RunMP / RunExp）。
// 因此 state 的推進必須是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
