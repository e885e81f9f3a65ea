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

package index

import "net/http"

const indexHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>Batchlab</title>
<style>
body{font-family:system-ui,sans-serif;max-width:42rem;margin:3rem auto;padding:0 1rem;color:#222}
code{background:#f3f3f3;padding:.1rem .3rem;border-radius:3px}
li{margin:.4rem 0}
</style>
</head>
<body>
<h1>Batchlab</h1>
<p>分層批次取樣服務已啟動。</p>
<ul>
<li><code>GET /v1/catalog</code> — 已註冊資料集摘要</li>
<li><code>GET /v1/plan?dsid=1</code> — 批次切分計畫</li>
<li><code>GET|POST /v1/epoch</code> — 產生批次（支援快照重放/續跑）</li>
<li><code>GET|POST /v1/sim</code> — 單機模擬</li>
<li><code>GET|POST /v1/simexp</code> — 多次重複實驗 + 估計量</li>
<li><code>POST /v1/simbycfg</code> — 以 JSON 設定直接模擬</li>
<li><code>POST /v1/stat</code> — 以原始批次重算統計</li>
<li><a href="/dev">/dev</a> — 開發者工具頁</li>
</ul>
</body>
</html>`

// IndexHandlerFn 主頁
func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}
