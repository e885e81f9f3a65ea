package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zintix-labs/batchlab"
	"github.com/zintix-labs/batchlab/dto"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/server/httperr"
	"github.com/zintix-labs/batchlab/server/svrcfg"
	"github.com/zintix-labs/batchlab/spec"
)

func (c *EpochHandler) Epoch(w http.ResponseWriter, q *http.Request) {
	// 請求方法、結構體校驗
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := dto.DecodeEpochRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// 請求解析完成，設置超時 context
	ctx := q.Context()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 開始 Epoch
	result, err := c.rt.Epoch(ctx, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// Plan 回傳指定資料集的切分計畫（不產生任何批次，也不消耗亂數流）。
func (c *EpochHandler) Plan(w http.ResponseWriter, q *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type PlanRequestBody struct {
		DatasetId spec.DSID `json:"dsid"`
	}
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var id int
	if q.Method == http.MethodGet {
		raw := q.URL.Query().Get("dsid")
		if raw == "" {
			http.Error(w, "dsid is required", http.StatusBadRequest)
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "dsid must be an integer", http.StatusBadRequest)
			return
		}
		id = v
	}
	if q.Method == http.MethodPost {
		req := new(PlanRequestBody)
		if err := json.NewDecoder(q.Body).Decode(req); err != nil {
			http.Error(w, "invalid json:"+err.Error(), http.StatusBadRequest)
			return
		}
		id = int(req.DatasetId)
	}

	plan, err := c.rt.Plan(spec.DSID(id))
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(plan); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// Catalog 回傳目前已註冊的所有資料集摘要。
func (c *EpochHandler) Catalog(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	summary, err := c.rt.Lab().Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// ============================================================
// ** EpochHandler **
// ============================================================

type EpochHandler struct {
	rt *batchlab.SamplerRuntime
}

func NewEpochHandler(sCfg *svrcfg.SvrCfg) (*EpochHandler, error) {
	rt, err := sCfg.Batchlab.BuildRuntime(sCfg.FeederBufSize)
	if err != nil {
		return nil, errs.Wrap(err, "build epoch handler error")
	}
	return &EpochHandler{rt: rt}, nil
}
