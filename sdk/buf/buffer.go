// Package buf 提供 Feeder 熱路徑重用的請求/結果 buffer。
//
// 取樣器每個 Next 只回傳內部重用的 slice；EpochResult 負責把一整段
// 產出（一或多個 epoch 的全部批次）集中深拷貝到單一 backing array，
// 讓後續 DTO 轉換只做切片、避免逐批 make/拷貝的 GC 波動。
package buf

import "github.com/zintix-labs/batchlab/spec"

// EpochRequest 是內部的取樣請求。
type EpochRequest struct {
	UID        string      // 唯一識別碼（觀測/日誌用）
	Epochs     int         // 要產出的 epoch 數；<=0 視為 1
	StartState *StartState // nil = 從 Feeder 當前 RNG 狀態起跑
}

// StartState 是由呼叫端帶入的「可恢復 RNG 狀態」（可選）。
//
// 有值：Feeder 先 Restore 再取樣（回放/續跑）；
// 缺省：直接延續 Feeder 當前的 RNG 流水。
type StartState struct {
	StartCoreSnap []byte
}

// SnapState 保存一段產出前後的 RNG 快照（審計/續跑的依據）。
type SnapState struct {
	StartCoreSnap []byte
	AfterCoreSnap []byte
}

// EpochResult 保存一段取樣產出的全部批次。
//
// Batches 的每個元素都是對內部 backing array 的切片：
// Reserve 之後的 AppendBatch 不會觸發重配置，切片頭永遠有效。
type EpochResult struct {
	DatasetName string
	DatasetId   spec.DSID
	BatchSize   int
	Batch0      int
	Batch1      int
	Len         int // 單一 epoch 的批次數
	EpochCount  int // 本段實際跑完的 epoch 數
	Batches     [][]int
	State       SnapState

	flat []int // backing array；Reserve 配置、AppendBatch 只切片
}

// NewEpochResult 建立對應資料集的 EpochResult 實體。
func NewEpochResult(name string, id spec.DSID, batchSize, batch0, batch1, length int) *EpochResult {
	return &EpochResult{
		DatasetName: name,
		DatasetId:   id,
		BatchSize:   batchSize,
		Batch0:      batch0,
		Batch1:      batch1,
		Len:         length,
	}
}

// Reserve 依預期批次數一次性配置 backing array。
//
// 必須在 AppendBatch 之前呼叫；batches 應為本段要產出的批次總數
// （epochs * Len）。重複呼叫只會在容量不足時重新配置。
func (r *EpochResult) Reserve(batches int) {
	need := batches * r.BatchSize
	if cap(r.flat) < need {
		r.flat = make([]int, 0, need)
	}
	if cap(r.Batches) < batches {
		r.Batches = make([][]int, 0, batches)
	}
}

// AppendBatch 深拷貝一個批次進 backing array。
//
// 超出 Reserve 容量屬於呼叫端錯誤：backing array 重配置會讓先前的
// 切片頭失效，因此這裡直接 panic 而不是默默擴容。
func (r *EpochResult) AppendBatch(b []int) {
	if len(r.flat)+len(b) > cap(r.flat) {
		panic("epoch result: append beyond reserved capacity")
	}
	start := len(r.flat)
	r.flat = append(r.flat, b...)
	r.Batches = append(r.Batches, r.flat[start:len(r.flat)])
}

// EndEpoch 標記一個 epoch 完整結束。
func (r *EpochResult) EndEpoch() {
	r.EpochCount++
}

// Reset 重置累積資料，保留已配置的內部切片容量。
func (r *EpochResult) Reset() {
	r.flat = r.flat[:0]
	r.Batches = r.Batches[:0]
	r.EpochCount = 0
	r.State = SnapState{}
}
