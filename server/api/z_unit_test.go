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

package api

import (
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/batchlab"
	"github.com/zintix-labs/batchlab/demo"
	"github.com/zintix-labs/batchlab/sdk/core"
	"github.com/zintix-labs/batchlab/server/logger"
	"github.com/zintix-labs/batchlab/server/netsvr"
	"github.com/zintix-labs/batchlab/server/svrcfg"
)

// TestRegisterRoutesDemo 驗證 demo 組態可完整註冊（含 /v1 handler 建構）
func TestRegisterRoutesDemo(t *testing.T) {
	sCfg, err := demo.NewServerConfig()
	if err != nil {
		t.Fatalf("demo config: %v", err)
	}
	svr := netsvr.NewChiServerDefault()
	if err := RegisterRoutes(svr, sCfg); err != nil {
		t.Fatalf("register routes: %v", err)
	}
}

// TestRegisterRoutesBuildError 驗證 v1 handler 建構失敗會往外傳，
// 而不是默默註冊出一個沒有 /v1 路由的 server
func TestRegisterRoutesBuildError(t *testing.T) {
	// 空目錄：BuildRuntime 必然失敗（no datasets registered）
	lab, err := batchlab.New(core.Default(), batchlab.Configs(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new batchlab: %v", err)
	}
	sCfg := &svrcfg.SvrCfg{
		Log:           logger.NewDefaultAsyncLogger(logger.ModeDev),
		FeederBufSize: 1,
		Batchlab:      lab,
	}

	svr := netsvr.NewChiServerDefault()
	if err := RegisterRoutes(svr, sCfg); err == nil {
		t.Fatal("expected handler-construction error, got nil")
	}
}
