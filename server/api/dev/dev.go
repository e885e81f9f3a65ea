// Package dev 提供 Batchlab 的「內部 Dev Panel」HTTP endpoints。
//
// 目的（ explain the why ）：
//   - 給數據科學家 / 後端在開發期快速驗證：指定 Dataset、Seed / Snap，然後執行 Epochs 或 Sim。
//   - 支援可回放（replay）：把 Snapshot（Snap）以字串形式在前端顯示，並可貼回後端做 Restore。
//
// 注意（ contract ）：
//   - 這不是 production API；它偏向 debug / tooling，行為允許更寬鬆，但仍需維持 deterministic concludes。
//   - 這裡的錯誤處理走 `httperr.Errs`（以 errs.Warn/errs.Fatal 對應 HTTP response）。
//   - Seed/Snap 的互斥與優先級由前端 + 後端共同保證（Snap takes precedence）。
package dev

import (
	"crypto/rand"
	"embed"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/batchlab"
	"github.com/zintix-labs/batchlab/catalog"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/server/httperr"
	"github.com/zintix-labs/batchlab/server/netsvr"
	"github.com/zintix-labs/batchlab/server/svrcfg"
	"github.com/zintix-labs/batchlab/spec"
)

// devRequest 是 Dev Panel 的「輸入 payload」。
//
// 兼容性（backward compatibility）：
//   - 同時保留 `epochs` 與舊欄位 `epoch`。
//   - `dsid` 與 `dataset` 兩者擇一即可；若兩者同時存在，後端會優先使用 dsid 做解析。
//
// Seed / Snap：
//   - Seed（int64 string）用於 deterministic 起始；若為空字串則自動生成（crypto/rand）。
//   - Snap（base64url string）代表 core snapshot；若提供 Snap，則後端以 Snap Restore 為準（Snap precedence）。
//
// 注意：
//   - 這個 struct 是 API 邊界用的 DTO；不要把它滲透到 sampler / math domain。
type devRequest struct {
	DSID    int64  `json:"dsid"`
	Dataset string `json:"dataset"`
	Epochs  int    `json:"epochs"`
	Epoch   int    `json:"epoch"`
	Seed    string `json:"seed"`
	Snap    string `json:"snap"`
}

// epochs() 將 epochs/epoch 做兼容合併：優先 epochs，其次 epoch；若都未提供則回 0。
func (r devRequest) epochs() int {
	if r.Epochs > 0 {
		return r.Epochs
	}
	if r.Epoch > 0 {
		return r.Epoch
	}
	return 0
}

// Register 註冊 Dev Panel 的 routes。
//
// Routes：
//   - GET  /dev         ：Dev Panel HTML（內嵌 JS）。
//   - GET  /dev/meta    ：回傳 Catalog summary（供前端下拉選單：Dataset）。
//   - POST /dev/epochs  ：執行 N 個 epoch 並回傳每段結果（含 start_b64u/after_b64u）。
//   - POST /dev/sim     ：執行 N 個 epoch 的模擬並回傳統計報表（不回傳逐批次 segments）。
//
// 依賴（dependency）：
//   - 需要 cfg.Batchlab 已被上層組裝完成並注入；否則會回 errs.Fatal。
func Register(svr netsvr.NetRouter, cfg *svrcfg.SvrCfg) {
	svr.Get("/dev", devPage)
	svr.Get("/favicon.svg", favicon)
	svr.Get("/dev/meta", devMeta(cfg))
	svr.Post("/dev/epochs", devEpochs(cfg))
	svr.Post("/dev/sim", devSim(cfg))
}

// devPageHTML 是內嵌的 Dev Panel UI。
//
// UI 行為（contract）：
//   - Dataset：由 /dev/meta 動態載入。
//   - Seed/Snap 互斥：
//   - Snap 非空 → Seed 會被清空並 disable。
//   - Seed 非空 → Snap 會被清空並 disable。
//   - Snap takes precedence（後端也會以 Snap 為準）。
//   - Epochs：
//   - Epochs：前端會 cap 在 5,000 以避免回傳 payload 過大。
//   - Sim   ：前端會 cap 在 3,000,000 以避免長時間阻塞（仍屬 dev tooling）。
//
// 回傳呈現：
//   - Epochs：Summary 區顯示整體統計；Epoch Segments 展開後可點選查看 raw EpochResult JSON。
//   - Sim   ：僅顯示統計（statistic/stats/stat），不顯示逐段 segments。
const devPageHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <link rel="icon" type="image/svg+xml" href="/favicon.svg" />
  <title>Batchlab Dev</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 980px; margin: 24px auto; padding: 16px 20px; background:#111827; border:1px solid #1f2937; border-radius:12px; box-shadow:0 12px 50px rgba(0,0,0,0.35); }
    h1 { margin: 0 0 16px; font-size: 22px; letter-spacing: 0.3px; }
    .grid { display:grid; grid-template-columns: repeat(auto-fit, minmax(180px,1fr)); gap:12px; margin-bottom:12px; }
    label { display:flex; flex-direction:column; gap:6px; font-size: 13px; color:#cbd5e1; }
    input, select { background:#0b1224; color:#e2e8f0; border:1px solid #1f2738; border-radius:8px; padding:10px 12px; font-size:14px; }
    input:focus, select:focus { outline:1px solid #38bdf8; border-color:#38bdf8; }
    .actions { position:relative; display:flex; gap:10px; align-items:center; justify-content:flex-end; margin: 8px 0 14px; }
    button { cursor:pointer; border:none; border-radius:10px; padding:10px 14px; font-weight:600; letter-spacing:0.2px; }
    #btn-epochs { background:#38bdf8; color:#0b1224; }
    #btn-sim { background:#22c55e; color:#0b1224; }
    #btn-clear { background:#1f2937; color:#e2e8f0; border:1px solid #334155; }
    button:disabled { opacity:0.6; cursor:not-allowed; }
    input:disabled, select:disabled {
      opacity: 0.55;
      cursor: not-allowed;
      filter: grayscale(0.25);
    }
    label.is-disabled { opacity: 0.55; }
    label.is-disabled input, label.is-disabled select { pointer-events: none; }
    .hint { font-size: 12px; color:#94a3b8; margin-top:4px; }
    .info { position:absolute; left:50%; transform:translateX(-50%); font-size:13px; color:#94a3b8; }
    .info.warn { color:#f87171; font-weight:600; }
    #summary { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:14px; min-height:120px; overflow:auto; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; white-space:pre-wrap; margin-bottom:12px; }
    #epochBox { border:1px solid #1f2737; border-radius:12px; padding:10px; background:#0b1224; margin-bottom:12px; max-height: calc(60vh - 56px); overflow:auto; }
    #epochList { max-height: calc(60vh - 136px); overflow:auto; }
    .epoch-item { display:grid; grid-template-columns: minmax(3.5em, max-content) minmax(100px, max-content) max-content; align-items:center; column-gap:8px; width:100%; text-align:left; background:none; border:none; padding:6px 10px; color:#e2e8f0; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; cursor:pointer; border-left: 4px solid transparent; }
    .epoch-item:hover { background:#1f2937; border-left-color:#38bdf8; }
    .epoch-item.selected { background:#2563eb; border-left-color:#60a5fa; }
    .epoch-index { color:#94a3b8; text-align:right; justify-self:end; min-width:3.5em; font-variant-numeric: tabular-nums; }
    .epoch-batches { text-align:right; justify-self:end; font-variant-numeric: tabular-nums; }
    .epoch-share { text-align:right; justify-self:end; color:#22c55e; font-weight:600; }
    #detail { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:14px; min-height:220px; overflow:auto; font-family: ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace; white-space:pre-wrap; display:none; }
    .note { font-size:12px; color:#94a3b8; margin-top:4px; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>Batchlab Dev Panel</h1>
    <div class="grid">
      <label>Dataset
        <select id="dataset"></select>
      </label>
      <label>Seed (int64)
   <input id="seed" type="text" inputmode="numeric" placeholder="Empty = auto" />
      </label>
      <label>Snap(base64url)
        <input id="snap" type="text" placeholder="Paste snap (base64url)" />
      </label>
      <label>Epochs
        <input id="epochs" type="number" min="1" max="3000000" value="1" />
      </label>
    </div>
    <div class="actions">
      <button id="btn-epochs">Epochs</button>
      <button id="btn-sim">Sim</button>
      <button id="btn-clear">Clear</button>
      <span class="info" id="info"></span>
    </div>

    <pre id="summary"></pre>

    <details id="epochBox" style="display:none;">
      <summary>Epoch Segments</summary>
      <div id="epochList"></div>
    </details>

    <pre id="detail" style="display:none;"></pre>
  </div>
<script>
const state = { meta: null, segments: [] };
const dataSel = document.getElementById('dataset');
const seedInput = document.getElementById('seed');
const snapInput = document.getElementById('snap');
const epochsInput = document.getElementById('epochs');
const summary = document.getElementById('summary');
const epochBox = document.getElementById('epochBox');
const epochList = document.getElementById('epochList');
const detail = document.getElementById('detail');
const infoEl = document.getElementById('info');
const btnRun = document.getElementById('btn-epochs');
const btnSim = document.getElementById('btn-sim');
const btnClear = document.getElementById('btn-clear');
const numberFormatter = new Intl.NumberFormat('en-US');

function setDisabled(el, disabled) {
  el.disabled = disabled;
  const label = el.closest('label');
  if (label) label.classList.toggle('is-disabled', disabled);
}

function syncInputLocks() {
  const seedValue = seedInput.value.trim();
  const snapValue = snapInput.value.trim();

  if (snapValue !== '') {
    seedInput.value = '';
    setDisabled(seedInput, true);
    setDisabled(snapInput, false);
    return;
  }
  if (seedValue !== '') {
    snapInput.value = '';
    setDisabled(snapInput, true);
    setDisabled(seedInput, false);
    return;
  }
  setDisabled(seedInput, false);
  setDisabled(snapInput, false);
}

function formatCount(value) {
  if (typeof value !== 'number' || !Number.isFinite(value)) return '0';
  return numberFormatter.format(value);
}

async function loadMeta() {
  try {
    const res = await fetch('/dev/meta');
    if (!res.ok) throw new Error(await res.text());
    const data = await res.json();
    const sets = Array.isArray(data) ? data : (data.datasets || data.summary || []);
    state.meta = { sets };
    dataSel.innerHTML = '';
    state.meta.sets.forEach((d) => {
      const opt = document.createElement('option');
      const dsid = d.dsid ?? d.id ?? d.DSID;
      opt.value = dsid != null ? String(dsid) : (d.name || '');
      opt.textContent = (d.name || String(opt.value)) + ' (n=' + (d.dataset_size ?? '?') + ', batch=' + (d.batch_size ?? '?') + ')';
      opt.dataset.name = d.name || '';
      dataSel.appendChild(opt);
    });
    summary.textContent = '';
    epochBox.style.display = 'none';
    detail.style.display = 'none';
    setInfo('', false);
  } catch (err) {
    summary.textContent = 'Failed to load meta: ' + err.message;
  }
}

function getSelectedDataset() {
  if (!state.meta || !state.meta.sets) return null;
  const value = dataSel.value;
  return state.meta.sets.find((d) => String(d.dsid ?? d.id ?? d.DSID) === value)
    || state.meta.sets.find((d) => (d.name || '') === value);
}

function setInfo(text, isWarn) {
  infoEl.textContent = text;
  if (isWarn) {
    infoEl.classList.add('warn');
  } else {
    infoEl.classList.remove('warn');
  }
}

function setLoading(isLoading) {
  btnRun.disabled = isLoading;
  btnSim.disabled = isLoading;
  if (isLoading) {
    setInfo('Running…', false);
  }
}

function clearSelection() {
  summary.textContent = '';
  epochBox.style.display = 'none';
  detail.style.display = 'none';
  epochList.innerHTML = '';
  state.segments = [];
}

function renderDetail(index) {
  if (!state.segments || !state.segments[index]) {
    detail.textContent = '';
    detail.style.display = 'none';
    return;
  }
  const seg = state.segments[index];
  detail.textContent = JSON.stringify(seg, null, 2);
  detail.style.display = 'block';

  // highlight selected
  const buttons = epochList.querySelectorAll('.epoch-item');
  buttons.forEach((btn, idx) => {
    if (idx === index) {
      btn.classList.add('selected');
    } else {
      btn.classList.remove('selected');
    }
  });
}

function buildPayload(cap) {
  const seed = seedInput.value.trim();
  const snap = snapInput.value.trim();
  const inputEpochs = Number(epochsInput.value) || 1;
  const selected = getSelectedDataset();
  const safeEpochs = Math.min(inputEpochs, cap);
  const payload = {
    epochs: safeEpochs,
    epoch: safeEpochs,
  };
  const dsid = Number(dataSel.value);
  if (Number.isFinite(dsid)) {
    payload.dsid = dsid;
  }
  if (selected && selected.name) {
    payload.dataset = selected.name;
  } else if (dataSel.value) {
    payload.dataset = dataSel.value;
  }
  if (snap) {
    payload.snap = snap;
  } else if (seed) {
    payload.seed = seed;
  }
  return { payload, inputEpochs };
}

async function run() {
  setLoading(true);
  clearSelection();
  const { payload, inputEpochs } = buildPayload(5000);
  try {
    const res = await fetch('/dev/epochs', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload),
    });
    if (!res.ok) throw new Error(await res.text());
    const data = await res.json();

    const summaryObj = { ...data };
    delete summaryObj.segments;
    summary.textContent = JSON.stringify(summaryObj, null, 2);

    if (inputEpochs > 5000) {
      setInfo('Epoch segments are capped at 5,000 epochs.', true);
    } else {
      setInfo('', false);
    }

    const segments = Array.isArray(data.segments) ? data.segments : [];
    if (segments.length > 0) {
      state.segments = segments;
      epochList.innerHTML = '';
      segments.forEach((seg, idx) => {
        const batches = Array.isArray(seg.batches) ? seg.batches.length : (seg.len ?? 0);
        const share = (typeof seg.share === 'number') ? seg.share : null;
        const btn = document.createElement('button');
        btn.type = 'button';
        btn.className = 'epoch-item';
        btn.textContent = '';
        const idxSpan = document.createElement('span');
        idxSpan.className = 'epoch-index';
        idxSpan.textContent = '#' + (idx + 1);
        const batchSpan = document.createElement('span');
        batchSpan.className = 'epoch-batches';
        batchSpan.textContent = formatCount(batches) + ' batches';
        const shareSpan = document.createElement('span');
        shareSpan.className = 'epoch-share';
        shareSpan.textContent = share != null ? share.toFixed(4) : '';
        btn.appendChild(idxSpan);
        btn.appendChild(batchSpan);
        btn.appendChild(shareSpan);
        btn.title = 'Epoch ' + (idx + 1) + ' | batches=' + batches;
        btn.addEventListener('click', () => {
          renderDetail(idx);
        });
        epochList.appendChild(btn);
      });
      epochBox.style.display = 'block';
      renderDetail(0);
    } else {
      epochBox.style.display = 'none';
      detail.style.display = 'none';
      state.segments = [];
    }
  } catch (err) {
    summary.textContent = 'Request failed: ' + err.message;
    setInfo('', false);
  } finally {
    setLoading(false);
  }
}

async function runSim() {
  setLoading(true);
  clearSelection();
  const { payload, inputEpochs } = buildPayload(3000000);
  try {
    const res = await fetch('/dev/sim', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(payload),
    });
    if (!res.ok) throw new Error(await res.text());
    const data = await res.json();
    const summaryObj = data.statistic || data.stats || data.stat || data;
    summary.textContent = JSON.stringify(summaryObj, null, 2);
    if (inputEpochs > 3000000) {
      setInfo('Sim statistics are capped at 3,000,000 epochs.', true);
    } else {
      setInfo('', false);
    }
  } catch (err) {
    summary.textContent = 'Request failed: ' + err.message;
    setInfo('', false);
  } finally {
    setLoading(false);
  }
}

btnRun.addEventListener('click', run);
btnSim.addEventListener('click', runSim);
btnClear.addEventListener('click', () => {
  clearSelection();
  setInfo('', false);
});
seedInput.addEventListener('input', syncInputLocks);
snapInput.addEventListener('input', syncInputLocks);

syncInputLocks();
loadMeta();
</script>
</body>
</html>`

// devPage 回傳內嵌 HTML（single page）。這裡不做 templating，降低 dev tool 維護成本。
func devPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(devPageHTML))
}

// favicon 提供 Dev Panel 的 favicon.svg。
func favicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(faviconSVG))
}

// devMeta 回傳 Catalog summary（JSON）。
//
// 前端依賴欄位：
//   - dsid / id / DSID
//   - name
//   - dataset_size / batch_size
func devMeta(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		lab, ok := getBatchlab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("batchlab is required"))
			return
		}
		sum, err := lab.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sum)
	}
}

// devEpochs 執行「可回放」的 epoch 產生。
//
// 流程（high level）：
//  1. decode devRequest（JSON body）
//  2. resolve dataset（dsid/name）→ catalog.Summary
//  3. resolve seed（empty = auto）
//  4. 建立 Replayer → Epochs() 或 RestoreEpochs()
//
// Snap precedence：若 snap 非空，會走 RestoreEpochs(snap, ...)。
func devEpochs(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(devRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
		lab, ok := getBatchlab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("batchlab is required"))
			return
		}
		sum, err := resolveSummary(lab, req)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		epochs := req.epochs()
		if epochs < 1 {
			httperr.Errs(w, errs.NewWarn("epochs is required"))
			return
		}
		snap := strings.TrimSpace(req.Snap)
		seed, err := resolveSeed(req.Seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		rep, err := lab.NewReplayer(sum.DSID, seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report batchlab.ReplayEpochReport
		if snap != "" {
			report, err = rep.RestoreEpochs(snap, epochs)
		} else {
			report, err = rep.Epochs(epochs)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// devSim 執行統計模擬（simulation）。
//
// 和 devEpochs 的差異：
//   - devSim 不回逐段 segments（降低 response size），僅回 ReplayRunReport（statistic）。
//   - 若提供 snap，會走 RestoreRun(snap, ...)。
func devSim(cfg *svrcfg.SvrCfg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		req := new(devRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
		lab, ok := getBatchlab(cfg)
		if !ok {
			httperr.Errs(w, errs.NewFatal("batchlab is required"))
			return
		}
		sum, err := resolveSummary(lab, req)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		epochs := req.epochs()
		if epochs < 1 {
			httperr.Errs(w, errs.NewWarn("epochs is required"))
			return
		}
		snap := strings.TrimSpace(req.Snap)
		seed, err := resolveSeed(req.Seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		rep, err := lab.NewReplayer(sum.DSID, seed)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report batchlab.ReplayRunReport
		if snap != "" {
			report, err = rep.RestoreRun(snap, epochs)
		} else {
			report, err = rep.Run(epochs)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// getBatchlab 從 server config 取得已組裝的 Batchlab instance。
// Dev routes 不負責組裝（assembler），只負責使用（runtime entry）。
func getBatchlab(cfg *svrcfg.SvrCfg) (*batchlab.Batchlab, bool) {
	if cfg == nil || cfg.Batchlab == nil {
		return nil, false
	}
	return cfg.Batchlab, true
}

// resolveSummary 解析使用者指定的資料集：
//   - 若 dsid > 0：以 dsid 精準匹配（fast path）。
//   - 否則若 dataset(name) 非空：先做 case-insensitive name 匹配；也允許把 dataset 當作數字字串解析成 dsid。
//
// 回傳 catalog.Summary 作為後續取樣的依據。
func resolveSummary(lab *batchlab.Batchlab, req *devRequest) (catalog.Summary, error) {
	sums, err := lab.Summary()
	if err != nil {
		return catalog.Summary{}, err
	}
	if req.DSID > 0 {
		dsid := spec.DSID(req.DSID)
		for _, s := range sums {
			if s.DSID == dsid {
				return s, nil
			}
		}
		return catalog.Summary{}, errs.NewWarn("dsid not found")
	}
	name := strings.TrimSpace(req.Dataset)
	if name != "" {
		for _, s := range sums {
			if strings.EqualFold(s.Name, name) {
				return s, nil
			}
		}
		if dsid, err := strconv.ParseUint(name, 10, 64); err == nil {
			sd := spec.DSID(dsid)
			for _, s := range sums {
				if s.DSID == sd {
					return s, nil
				}
			}
		}
		return catalog.Summary{}, errs.NewWarn("dataset not found")
	}
	return catalog.Summary{}, errs.NewWarn("dataset is required")
}

// resolveSeed 解析 seed（int64 string）。
//   - 空字串：自動生成 seed（crypto/rand），方便快速測試。
//   - 非空：必須為合法 int64。
func resolveSeed(seed string) (int64, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return randomSeed()
	}
	v, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return 0, errs.NewWarn("seed must be int64")
	}
	return v, nil
}

// randomSeed 使用 crypto/rand 產生 [0, MaxInt64) 的種子。
// 目的：避免 math/rand 的 deterministic 來源造成 seed 品質偏差（dev tool 也要可依賴）。
func randomSeed() (int64, error) {
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.NewWarn("seed generate failed")
	}
	return rnd.Int64(), nil
}

//go:embed favicon.svg
var faviconSVG string

// keep embed imported even if only used for directives
var _ embed.FS
