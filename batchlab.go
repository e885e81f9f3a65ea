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

// Package batchlab 提供 Batchlab 引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 你可以把 Batchlab 視為一個「可被後端/模擬器使用的 runtime」，它負責把下列兩個必需的地基組裝在一起，並提供建立 Feeder 的入口：
//  1. Catalog：資料集目錄（Single Source of Truth / SSOT），定義有哪些資料集、各自對應的設定檔名稱（ConfigName）。
//  2. CoreFactory：亂數核心工廠（PRNG factory），保證可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Batchlab 本身不綁定任何「檔案路徑」概念：設定檔與 labelbank 來源一律以 fs.FS 的形式注入。
//   - Batchlab 會持有一份 Catalog（你要跑哪一批資料集/設定檔）。
//   - Feeder 是對外提供 Epoch 的最小單位；訓練端主要消費的是批次索引序列。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Batchlab 建立 Feeder，Feeder 對外提供 Epoch。
//   - 模擬器（sim）：由 Batchlab 建立多台 Feeder 進行覆蓋率/均衡性分析。
//
// 注意：此套引擎目前以「二元標籤的分層批次取樣」為中心（Epoch -> 批次索引），不是泛用取樣框架。
package batchlab

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/batchlab/catalog"
	"github.com/zintix-labs/batchlab/errs"
	"github.com/zintix-labs/batchlab/sdk/core"
	"github.com/zintix-labs/batchlab/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 為什麼是 fs.FS：
//   - 你可以用 go:embed 把 configs 直接編進 binary（部署最穩定，不依賴工作目錄）。
//   - 也可以用 os.DirFS 在本機開發時讀取目錄。
//   - 甚至可以用自製的 MultiFS 來合併多個來源。
//
// Batchlab 不解析「路徑」：它只依賴 fs.FS + ConfigName（檔名）來取得設定內容。
// labelbank 壓縮檔（.bank）可以與設定檔放在同一批來源，由 Catalog 以檔名索引。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Batchlab 是「組裝器（assembler）」與「運行入口（runtime entry）」：
//
// 它把兩個必需的地基組合起來：
//  1. Catalog：資料集目錄（Single Source of Truth / SSOT），定義有哪些資料集、各自對應的設定檔名稱。
//  2. CoreFactory：亂數核心工廠（PRNG factory），保證可重現（reproducible）與可審計（auditable）。
//
// Batchlab 本身不綁定任何「檔案路徑」概念：設定檔來源一律由 fs.FS 提供。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段（registration/build）：建立 catalog、檢查重複與缺漏。
//   - 執行階段（runtime）：依據資料集 ID 產生 Feeder，並在 Feeder 上執行 Epoch。
//
// 重要設計原則：
//   - Catalog 的 ID 唯一性只保證在「同一個 Batchlab instance」內（不同 Batchlab 之間不做全域保證）。
//   - 你要跑哪一批資料集、哪一套設定檔，必須由 New() 的參數明確決定。
//   - runtime 一旦開始（例如已建立 Feeder 並對外服務），不建議再變更 Catalog（避免非預期行為）。
//
// 實務例子（概念示意，細節依你的實作為準）：
//
//	// 1) 準備 configs（通常是 go:embed 或 DirFS）
//	// 2) 組裝 Batchlab，取得可建立 Feeder 的入口
//	//	lab, _ := batchlab.NewAuto(cf, batchlab.Configs(cfgFS))
//	//	f, _ := lab.NewFeeder(1001)
//	//	// f.Epoch(...) -> 取得批次（通常再轉成 DTO 回傳）
type Batchlab struct {
	cat *catalog.Catalog
	cf  core.CoreFactory
	sum []catalog.Summary
}

// New 建立一個 Batchlab instance。
//
// 這是「組裝階段（registration/build）」的入口：
//   - 會建立 Catalog（通常同時做檔名存在性/重複性檢查，避免 runtime 才爆）。
//   - 會保存 CoreFactory，確保由這個 Batchlab 建出來的 Feeder 在 RNG 行為上具有一致性。
//
// 參數要求（是合約的一部分）：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現/可審計的核心。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 SamplerSetting。
//
// 回傳的 Batchlab 會持有：cat（目錄）、cf（RNG 工廠）。
func New(cf core.CoreFactory, cfgs []fs.FS) (*Batchlab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Batchlab{
		cat: cata,
		cf:  cf,
	}
	return lab, nil
}

// NewAuto 建立一個直接進入執行階段的 Batchlab instance。
//
// 回傳的 Batchlab 會持有：cat（目錄）、cf（RNG 工廠）。
func NewAuto(cf core.CoreFactory, cfgs []fs.FS) (*Batchlab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (p *Batchlab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll
//
// 會掃描 catalog 持有的設定檔來源（fs.FS），把所有可辨識的設定檔（.yaml/.yml/.json）嘗試解析成
// *spec.SamplerSetting，並用設定檔內宣告的 DatasetID/DatasetName 產生對應的 catalog.Entry 來批次註冊。
//
// 行為特性（重要）：
//  1. Fail-fast：任何一個檔案讀取/解析/基本檢查失敗，都會立刻回傳 error（不會忽略、也不會繼續掃完）。
//  2. 原子性：只有當「全部檔案」都成功解析並通過基本檢查時，才會呼叫 Register(...) 一次性寫入。
//     因此不會出現只註冊了一半、導致 catalog 處於半完成狀態的情況。
//  3. 穩定性：會依檔名排序後再處理，確保行為 determinism（方便重現與除錯）。
//
// 注意：
//   - RegisterAll 只負責「把設定檔宣告的資料集資訊放進 Catalog」。
//   - labelbank 壓縮檔（.bank）不是設定檔，掃描時會跳過；它們在建 Feeder 時才被解析。
func (p *Batchlab) RegisterAll() error {
	cfgs := p.cat.Cfg()
	sources := cfgs.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[spec.DSID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("configs must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.Contains(path, "/") && path != base {
				return errs.NewFatal(fmt.Sprintf("configs must be flat (nested path): %q", path))
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}

			var (
				ss   *spec.SamplerSetting
				serr error
			)
			switch ext {
			case ".yaml", ".yml":
				ss, serr = spec.GetSamplerSettingByYAML(raw)
			case ".json":
				ss, serr = spec.GetSamplerSettingByJSON(raw)
			default:
				return errs.NewFatal(fmt.Sprintf("unsupported config format: %q", base))
			}
			if serr != nil {
				return errs.NewFatal(fmt.Sprintf("parse samplersetting failed: %s", base))
			}

			name := strings.TrimSpace(ss.DatasetName)
			if name == "" {
				return errs.NewFatal(fmt.Sprintf("dataset name required: %s", base))
			}

			id := ss.DatasetID
			if prev, ok := seenID[id]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate dataset id: %d (config=%s and %s)", id, prev, base))
			}
			if _, ok := p.cat.GetByID(id); ok {
				return errs.NewFatal(fmt.Sprintf("dataset id already registered: %d (config=%s)", id, base))
			}
			seenID[id] = base

			nameKey := strings.ToLower(name)
			if prev, ok := seenName[nameKey]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate dataset name: %s (config=%s and %s)", nameKey, prev, base))
			}
			if _, ok := p.cat.GetByName(name); ok {
				return errs.NewFatal(fmt.Sprintf("dataset name already registered: %s (config=%s)", name, base))
			}
			seenName[nameKey] = base

			entries = append(entries, catalog.Entry{
				DSID:       id,
				Name:       name,
				ConfigName: base,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	return p.cat.Register(entries...)
}

func (p *Batchlab) Freeze() {
	p.cat.Freeze()
}

func (p *Batchlab) EntryById(id spec.DSID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Batchlab) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Batchlab) IDs() []spec.DSID {
	return p.cat.IDs()
}

func (p *Batchlab) All() []catalog.Entry {
	return p.cat.All()
}

func (p *Batchlab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		ss, err := p.cat.SamplerSettingById(id)
		if err != nil {
			return nil, errs.NewFatal("parse sampler setting failed")
		}
		labels, err := p.cat.LabelsFor(ss)
		if err != nil {
			return nil, err
		}
		s := catalog.Summary{
			DSID:        id,
			Name:        ss.DatasetName,
			BatchSize:   ss.BatchSize,
			DatasetSize: len(labels),
			Weighted:    len(ss.Weights) > 0,
		}
		cs = append(cs, s)
	}
	p.sum = cs
	return p.sum, nil
}

// NewFeeder 依據 Catalog 內的資料集 ID 建立一台 Feeder。
//
// 行為：
//  1. 由 Catalog 取得對應的 SamplerSetting（通常來自 fs.FS 內的 YAML/JSON）。
//  2. 由 Catalog 解析標籤（內嵌 labels 或 labels_file 指向的 labelbank）。
//  3. 以 CoreFactory 產生 RNG 核心（seed 依設定檔，否則由 crypto/rand 產生）。
//
// 注意：seed 會被記錄在 Feeder 內（initseed），用於追溯/重現；真正的可審計能力以 Core 的 Snapshot/Restore 合約為準。
func (p *Batchlab) NewFeeder(id spec.DSID) (*Feeder, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ss, labels, err := p.settingWithLabels(id)
	if err != nil {
		return nil, err
	}
	return newFeeder(ss, labels, p.cf)
}

// NewFeederWithSeed 與 NewFeeder 相同，但由呼叫端指定初始 seed（覆蓋設定檔的 seed）。
//
// 使用情境：
//   - 可重現的測試：同一份設定 + 同一個 seed，應產生一致的批次序列（取決於 Core 實作）。
//
// 注意：seed 只是「出生入口」。若要在任意時間點完整重現，請使用 Core 的 Snapshot/Restore（以 []byte 交換狀態）。
func (p *Batchlab) NewFeederWithSeed(id spec.DSID, seed int64) (*Feeder, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ss, labels, err := p.settingWithLabels(id)
	if err != nil {
		return nil, err
	}
	return newFeederWithSeed(ss, labels, p.cf, seed)
}

func (p *Batchlab) NewFeederByJSON(raw []byte, seed int64) (*Feeder, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetSamplerSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	labels, err := p.cat.LabelsFor(cfg)
	if err != nil {
		return nil, err
	}
	return newFeederWithSeed(cfg, labels, p.cf, seed)
}

func (p *Batchlab) NewFeederByYAML(raw []byte, seed int64) (*Feeder, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetSamplerSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	labels, err := p.cat.LabelsFor(cfg)
	if err != nil {
		return nil, err
	}
	return newFeederWithSeed(cfg, labels, p.cf, seed)
}

func (p *Batchlab) validCfg(cfg *spec.SamplerSetting) error {
	ent, ok := p.cat.GetByID(cfg.DatasetID)
	if !ok {
		return errs.NewWarn("dsid not exist")
	}
	ent2, ok := p.cat.GetByName(cfg.DatasetName)
	if !ok {
		return errs.NewWarn("dataset name not exist")
	}
	if ent.DSID != ent2.DSID {
		return errs.NewWarn("dataset id is not matched dataset name")
	}
	return nil
}

// settingWithLabels 取得設定與解析完成的標籤（共用的建構前置）。
func (p *Batchlab) settingWithLabels(id spec.DSID) (*spec.SamplerSetting, []int, error) {
	ss, err := p.cat.SamplerSettingById(id)
	if err != nil {
		return nil, nil, err
	}
	labels, err := p.cat.LabelsFor(ss)
	if err != nil {
		return nil, nil, err
	}
	return ss, labels, nil
}

func (p *Batchlab) NewSimulator(id spec.DSID) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ss, labels, err := p.settingWithLabels(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(ss, labels, p.cf)
}

func (p *Batchlab) NewSimulatorWithSeed(id spec.DSID, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ss, labels, err := p.settingWithLabels(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ss, labels, p.cf, seed)
}

func (p *Batchlab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetSamplerSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	labels, err := p.cat.LabelsFor(cfg)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, labels, p.cf, seed)
}

func (p *Batchlab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetSamplerSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	labels, err := p.cat.LabelsFor(cfg)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, labels, p.cf, seed)
}

func (p *Batchlab) BuildRuntime(poolSize int) (*SamplerRuntime, error) {
	// 1. 進入 runtime 前，catalog 必須 Freeze
	p.Freeze()

	ids := p.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no datasets registered")
	}

	rt := &SamplerRuntime{
		lab:      p,
		pools:    make(map[spec.DSID]*FeederPool, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	// 2. 先全建好（fail-fast + cleanup）
	for _, id := range ids {
		ss, labels, err := p.settingWithLabels(id)
		if err != nil {
			return nil, err
		}

		seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		fp, err := newFeederPool(rt.poolSize, ss, labels, p.cf, seed.Int64())
		if err != nil {
			return nil, err
		}
		rt.pools[id] = fp
	}
	return rt, nil
}

// NewReplayer
//
// 注意只能由Batchlab起
// 只提供給Dev模式使用的回放器，重點是保持單機台模式所以保持可重現性
func (p *Batchlab) NewReplayer(id spec.DSID, seed int64) (*Replayer, error) {
	sim, err := p.NewSimulatorWithSeed(id, seed)
	if err != nil {
		return nil, err
	}
	f, err := p.NewFeederWithSeed(id, seed)
	if err != nil {
		return nil, err
	}
	simBe, err := sim.fBuf[0].SnapshotCore()
	if err != nil {
		return nil, err
	}
	fBe, err := f.SnapshotCore()
	if err != nil {
		return nil, err
	}
	simBe64 := base64.StdEncoding.EncodeToString(simBe)
	fBe64 := base64.StdEncoding.EncodeToString(fBe)
	if fBe64 != simBe64 {
		return nil, errs.NewFatal("seeds are not equal")
	}
	dev := &Replayer{
		sim:      sim,
		f:        f,
		before:   fBe,
		before64: fBe64,
	}
	return dev, nil
}
