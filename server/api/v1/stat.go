package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/batchlab/recorder"
)

type DistStat struct {
	// 資料集描述
	DatasetName string `json:"dataset_name"`
	Labels      []int  `json:"labels"`
	Batch0      int    `json:"batch0"`
	Batch1      int    `json:"batch1"`
	// 原始批次（索引序列），由呼叫端自行蒐集
	Batches [][]int `json:"batches"`
	Epochs  int     `json:"epochs"`
}

// Stat 以呼叫端回傳的原始批次重算統計報表。
//
// 用途：離線蒐集的批次（例如訓練 log）想要事後取得 coverage/分布報表，
// 不需要重新跑取樣器。
func Stat(w http.ResponseWriter, r *http.Request) {
	// Post方法限定
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// 嘗試解析
	dst := new(DistStat)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(dst.Batches) < 1 {
		http.Error(w, "batches must not be empty", http.StatusBadRequest)
		return
	}

	// Recorder 的熱路徑不驗證索引，這裡替外部輸入把關
	n := len(dst.Labels)
	for _, b := range dst.Batches {
		for _, idx := range b {
			if idx < 0 || idx >= n {
				http.Error(w, "batch index out of range", http.StatusBadRequest)
				return
			}
		}
	}

	rec, err := recorder.NewEpochRecorder(dst.DatasetName, 0, dst.Labels, dst.Batch0, dst.Batch1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, b := range dst.Batches {
		rec.RecordBatch(b)
	}
	for range max(dst.Epochs, 0) {
		rec.RecordEpoch()
	}
	st := rec.Done()
	if err := json.NewEncoder(w).Encode(st); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
}
