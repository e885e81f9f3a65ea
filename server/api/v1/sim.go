package v1

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"

	"github.com/zintix-labs/batchlab"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/spec"
	"github.com/zintix-labs/batchlab/server/httperr"
	"github.com/zintix-labs/batchlab/stats"
)

type SimHandler struct {
	Batchlab *batchlab.Batchlab
}

func NewSimHandler(lab *batchlab.Batchlab) (*SimHandler, error) {
	return &SimHandler{Batchlab: lab}, nil
}

func (sh *SimHandler) Sim(w http.ResponseWriter, q *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SimRequestBody struct {
		DatasetId spec.DSID `json:"dsid"`
		Epochs    int       `json:"epochs"`
		Seed      *int64    `json:"seed,omitempty"`
	}
	// 內部結構 不影響外部 也不被外部使用
	type SimResponse struct {
		Stats    *stats.EpochReport `json:"stats"`
		UsedTime int64              `json:"used_ms"`
	}
	// ---
	req := new(SimRequestBody)
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if q.Method == http.MethodGet {
		// dsid
		if s := q.URL.Query().Get("dsid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("dsid must be non-negative integer"))
				return
			}
			req.DatasetId = spec.DSID(u)
		} else {
			// 直接空值
			httperr.Errs(w, errs.NewWarn("dsid is required"))
			return
		}

		// epochs
		if m := q.URL.Query().Get("epochs"); m != "" {
			u, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("epochs must be integer"))
				return
			}
			req.Epochs = int(u)
		} else {
			httperr.Errs(w, errs.NewWarn("epochs is required"))
			return
		}

		// seed
		if s := q.URL.Query().Get("seed"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("seed must be int64"))
				return
			}
			v := u
			req.Seed = &v
		}
	}
	if q.Method == http.MethodPost {
		if err := json.NewDecoder(q.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
	}
	// 業務檢驗
	_, ok := sh.Batchlab.EntryById(req.DatasetId)
	if !ok {
		httperr.Errs(w, errs.NewWarn("dsid not found"))
		return
	}
	if req.Epochs < 1 || req.Epochs > 1000000 {
		httperr.Errs(w, errs.NewWarn("epochs must be between 1 to 1,000,000"))
		return
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		v := rnd.Int64()
		req.Seed = &v
	}
	sim, err := sh.Batchlab.NewSimulatorWithSeed(req.DatasetId, *req.Seed)
	if err != nil {
		// 這裡的錯誤是來自batchlab 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", req.DatasetId)))
		return
	}
	st, used, err := sim.Run(req.Epochs, false)
	if err != nil {
		// 這裡的錯誤來自simulator 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	resp := SimResponse{
		Stats:    st,
		UsedTime: used.Milliseconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (sh *SimHandler) SimExp(w http.ResponseWriter, r *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SimExpRequestBody struct {
		DatasetId spec.DSID `json:"dsid"`
		Runs      int       `json:"runs"`
		Epochs    int       `json:"epochs"`
		Seed      *int64    `json:"seed,omitempty"`
	}
	// 內部結構 不影響外部 也不被外部使用
	type SimExpResponse struct {
		StatsReport *stats.EpochReport   `json:"stats"`
		Estimator   *stats.EstimatorRuns `json:"est"`
		UsedTime    int64                `json:"used_ms"`
	}
	// ---
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := new(SimExpRequestBody)
	if r.Method == http.MethodGet {
		dsid := r.URL.Query().Get("dsid")
		runsStr := r.URL.Query().Get("runs")
		epochsStr := r.URL.Query().Get("epochs")

		// dsid
		if dsid != "" {
			u, err := strconv.ParseUint(dsid, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("dsid must be non-negative integer"))
				return
			}
			req.DatasetId = spec.DSID(u)
		} else {
			httperr.Errs(w, errs.NewWarn("dsid is required"))
			return
		}

		// runs
		if runsStr != "" {
			runs, err := strconv.Atoi(runsStr)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("runs must be integer"))
				return
			}
			req.Runs = runs
		} else {
			httperr.Errs(w, errs.NewWarn("runs is required"))
			return
		}

		// epochs
		if epochsStr != "" {
			epochs, err := strconv.Atoi(epochsStr)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("epochs must be integer"))
				return
			}
			req.Epochs = epochs
		} else {
			httperr.Errs(w, errs.NewWarn("epochs is required"))
			return
		}

		// seed
		if s := r.URL.Query().Get("seed"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("seed must be int64"))
				return
			}
			v := u
			req.Seed = &v
		}
	}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
	}
	// 業務邏輯判斷
	if _, ok := sh.Batchlab.EntryById(req.DatasetId); !ok {
		httperr.Errs(w, errs.NewWarn("dsid not found"))
		return
	}
	if req.Runs < 1 || req.Runs > 100000 {
		httperr.Errs(w, errs.NewWarn("runs must be between 1 and 100,000"))
		return
	}
	if req.Epochs < 1 || req.Epochs > 15000 {
		httperr.Errs(w, errs.NewWarn("epochs must be between 1 and 15,000"))
		return
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		v := rnd.Int64()
		req.Seed = &v
	}
	// 取得sim
	sim, err := sh.Batchlab.NewSimulatorWithSeed(req.DatasetId, *req.Seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", req.DatasetId)))
		return
	}
	st, est, used, err := sim.RunExp(4, req.Runs, req.Epochs, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("simulator err: %d", req.DatasetId)))
		return
	}
	resp := &SimExpResponse{
		StatsReport: st,
		Estimator:   est,
		UsedTime:    used.Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
