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

package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/batchlab/corefmt"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/buf"
	"github.com/zintix-labs/batchlab/spec"
)

type EpochRequest struct {
	UID         string      `json:"uid"`                   // 唯一識別碼
	DatasetName string      `json:"dataset"`               // 要取樣的資料集
	DatasetId   spec.DSID   `json:"dsid"`                  // 資料集編號
	Epochs      int         `json:"epochs"`                // 要產出的 epoch 數（<=0 視為 1）
	StartState  *StartState `json:"start_state,omitempty"` // 可選：帶入 RNG 狀態（nil=延續當前流水；帶 start_b64u=回放/續跑）。
}

// DecodeEpochRequest 會把 HTTP 請求解碼成 EpochRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（uid/dataset/dsid/epochs）。
//     注意：GET 建議僅用於「延續流水」或簡單測試；巢狀狀態（start_state）建議使用 POST。
//   - POST：從 JSON body 反序列化（支援 start_state）。
//
// StartState（start_state）語意：
//   - start_state 缺省 / 為 null / 為空物件：延續 Feeder 當前的 RNG 流水。
//   - start_state.start_b64u 有值：視為「回放（replay）/ 續跑（resume）」：
//   - 回放：帶入當初記錄的 start_b64u，可在相同輸入條件下重現該段批次序列。
//   - 續跑：帶入上一段回傳的 after_b64u 作為新的 start_b64u，以延續 RNG 流水。
//   - 引擎的輸入只接受 start_b64u（Start）；after_b64u 只會出現在回應（SnapState），請求端不得自行填寫 after。
//
// 注意：
//   - 這裡只負責「解碼（decode）」與基本型別轉換，不做任何合法性校驗；
//     合法性（例如該 DSID 是否存在）應由上層（Feeder/Runtime）決定。
//   - 為避免過大 body 影響服務，POST 會對 body 做大小限制（預設 1MiB）。
//   - POST 會開啟 DisallowUnknownFields()，對未知欄位採用嚴格拒絕，以避免靜默丟資料。
func DecodeEpochRequest(r *http.Request) (*EpochRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(EpochRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.UID = q.Get("uid")
		req.DatasetName = q.Get("dataset")

		if s := q.Get("dsid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid dsid: %v", err))
			}
			req.DatasetId = spec.DSID(u)
		}

		if s := q.Get("epochs"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid epochs: %v", err))
			}
			req.Epochs = v
		}

		return req, nil

	case http.MethodPost:
		// 防止 body 過大（預設 1MiB）
		const maxBody = 1 << 20
		body := io.LimitReader(r.Body, maxBody)
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(req); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return req, nil

	default:
		return nil, fmt.Errorf("method not allowed")
	}
}

// StartState 是由呼叫端帶入的「引擎可恢復狀態」（可選）。
//
// 設計目標：
//   - 讓 Feeder 維持純計算器（deterministic），「可回放/可續跑」所需的狀態由呼叫端保存與回送。
//   - 新段：start_state 缺省即可；Feeder 延續自己的 RNG 流水並在回應中回傳 Start/After。
//   - 回放（Replay）：呼叫端帶入當初記錄的 start_b64u，即可重現該段批次序列。
//   - 續跑（Resume）：呼叫端把上一段回應的 after_b64u 當作下一段的 start_b64u 送入。
//
// 重要約束：
//   - Request 只允許提供 Start（start_b64u）；After（after_b64u）只會由引擎在 Response 回傳。
type StartState struct {
	// StartCoreSnapB64U：RNG Core 的「起始快照」Base64URL（URL-safe base64）字串。
	//   - 缺省：延續 Feeder 當前流水。
	//   - 有值：回放/續跑（Feeder 從該快照 restore RNG）。
	StartCoreSnapB64U string `json:"start_b64u,omitempty"`
}

func (ss *StartState) HasPayload() bool {
	if ss == nil {
		return false
	}
	return ss.StartCoreSnapB64U != ""
}

func (er *EpochRequest) Parse() (*buf.EpochRequest, error) {
	var state *buf.StartState
	start := er.StartState
	if start.HasPayload() {
		state = new(buf.StartState)
		snap, err := corefmt.DecodeBase64URL(start.StartCoreSnapB64U)
		if err != nil {
			return nil, errs.NewWarn("core snap decode failed " + err.Error())
		}
		state.StartCoreSnap = snap
	}

	epochs := er.Epochs
	if epochs <= 0 {
		epochs = 1
	}

	req := &buf.EpochRequest{
		UID:        er.UID,
		Epochs:     epochs,
		StartState: state,
	}
	return req, nil
}
