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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/zintix-labs/batchlab/corefmt"
	"github.com/zintix-labs/batchlab/sdk/buf"
)

func TestDecodeEpochRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/epoch?uid=u1&dataset=demo&dsid=7&epochs=3", nil)
	req, err := DecodeEpochRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.UID != "u1" || req.DatasetName != "demo" || req.DatasetId != 7 || req.Epochs != 3 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeEpochRequestPOST(t *testing.T) {
	payload := map[string]any{
		"uid":     "u2",
		"dataset": "demo",
		"dsid":    9,
		"epochs":  2,
	}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/epoch", bytes.NewReader(data))
	req, err := DecodeEpochRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.DatasetId != 9 || req.Epochs != 2 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeEpochRequestRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"dsid":1,"dataset":"demo","epochs":1,"unknown":true}`)
	r := httptest.NewRequest(http.MethodPost, "/epoch", bytes.NewReader(data))
	if _, err := DecodeEpochRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestEpochRequestParse(t *testing.T) {
	snap := []byte{1, 2, 3, 4}
	er := &EpochRequest{
		UID:        "u3",
		Epochs:     0, // 缺省 → 1
		StartState: &StartState{StartCoreSnapB64U: corefmt.EncodeBase64URL(snap)},
	}
	req, err := er.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Epochs != 1 {
		t.Fatalf("epochs default got %d want 1", req.Epochs)
	}
	if req.StartState == nil || !bytes.Equal(req.StartState.StartCoreSnap, snap) {
		t.Fatalf("start snap not decoded: %+v", req.StartState)
	}

	// 空 start_state 視為延續流水
	er2 := &EpochRequest{Epochs: 2}
	req2, err := er2.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req2.StartState != nil {
		t.Fatalf("expected nil start state")
	}

	// 壞掉的 base64url 必須報錯
	er3 := &EpochRequest{StartState: &StartState{StartCoreSnapB64U: "@@bad@@"}}
	if _, err := er3.Parse(); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewEpochResultDTO(t *testing.T) {
	er := buf.NewEpochResult("demo", 7, 4, 3, 1, 2)
	er.Reserve(2)
	er.AppendBatch([]int{0, 1, 2, 4})
	er.AppendBatch([]int{3, 0, 1, 5})
	er.EndEpoch()
	er.State = buf.SnapState{StartCoreSnap: []byte{1}, AfterCoreSnap: []byte{2}}

	dto, err := NewEpochResultDTO(er)
	if err != nil {
		t.Fatalf("dto: %v", err)
	}
	if dto.DatasetName != "demo" || dto.Epochs != 1 || len(dto.Batches) != 2 {
		t.Fatalf("dto fields wrong: %+v", dto)
	}

	// DTO 批次必須與重用 buffer 脫鉤
	er.Reset()
	er.Reserve(2)
	er.AppendBatch([]int{9, 9, 9, 9})
	if !slices.Equal(dto.Batches[0], []int{0, 1, 2, 4}) {
		t.Fatalf("dto batches aliased to reused buffer: %v", dto.Batches[0])
	}

	if _, err := NewEpochResultDTO(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
}
