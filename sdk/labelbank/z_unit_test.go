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

package labelbank

import (
	"slices"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/batchlab/errs"
)

// TestPackUnpack 驗證 bitmap 打包在各種長度（含非 8 倍數）下的往返一致
func TestPackUnpack(t *testing.T) {
	cases := [][]int{
		{},
		{1},
		{0},
		{0, 1, 1, 0, 1, 0, 0, 1},
		{1, 1, 1, 0, 0, 0, 0, 0, 1},
		{0, 0, 0, 0, 1, 1},
	}
	for _, labels := range cases {
		packed, err := Pack(labels)
		if err != nil {
			t.Fatalf("pack %v: %v", labels, err)
		}
		got, err := Unpack(packed)
		if err != nil {
			t.Fatalf("unpack %v: %v", labels, err)
		}
		if len(labels) == 0 && len(got) == 0 {
			continue
		}
		if !slices.Equal(got, labels) {
			t.Fatalf("round trip mismatch: want %v, got %v", labels, got)
		}
	}
}

func TestPackRejectsNonBinary(t *testing.T) {
	if _, err := Pack([]int{0, 1, 2}); err == nil || !errs.IsConfig(err) {
		t.Fatalf("expected config error for non-binary label, got %v", err)
	}
}

// TestEncodeDecode 驗證完整管線（bitmap → zstd → blob frame）的往返
func TestEncodeDecode(t *testing.T) {
	labels := make([]int, 10_000)
	for i := range labels {
		if i%37 == 0 {
			labels[i] = 1
		}
	}

	bank, err := Encode(labels)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// 高度偏斜的 bitmap 壓縮後應該遠小於原始 bitmap
	if len(bank) >= len(labels)/8 {
		t.Logf("bank size %d vs bitmap %d (compression ineffective on this input)", len(bank), len(labels)/8)
	}

	got, err := Decode(bank)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !slices.Equal(got, labels) {
		t.Fatalf("round trip mismatch at scale")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0x01, 0x02}); err == nil {
		t.Fatalf("expected error on garbage input")
	}
	if _, err := Unpack([]byte{}); err == nil {
		t.Fatalf("expected error on empty packed input")
	}
}

// TestReadFS 驗證經 fs.FS 載入（fstest.MapFS 模擬 embed / DirFS）
func TestReadFS(t *testing.T) {
	labels := []int{0, 0, 0, 0, 1, 1, 0, 1, 0, 0}
	bank, err := Encode(labels)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	fsys := fstest.MapFS{
		"banks/demo.bank": &fstest.MapFile{Data: bank},
	}
	got, err := ReadFS(fsys, "banks/demo.bank")
	if err != nil {
		t.Fatalf("read fs: %v", err)
	}
	if !slices.Equal(got, labels) {
		t.Fatalf("fs round trip mismatch: want %v, got %v", labels, got)
	}

	if _, err := ReadFS(fsys, "banks/missing.bank"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := ReadFS(nil, "x"); err == nil {
		t.Fatalf("expected error for nil fs")
	}
	if _, err := ReadFS(fsys, ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
