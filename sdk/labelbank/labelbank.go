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

// Package labelbank 提供二元事件標籤的壓縮儲存（LabelBank）。
//
// 大型資料集的標籤序列往往有數百萬筆，但每筆只有 1 bit 的資訊量。
// LabelBank 把標籤打包成 bitmap，經 zstd 壓縮後以 length-prefixed
// blob frame 落地；載入端走 fs.FS，因此 embed.FS、os.DirFS 與測試用的
// fstest.MapFS 都能直接餵。
//
// 線格式（由外而內）：
//
//	blob frame := uvarint(len) || zstd(packed)
//	packed     := uvarint(count) || bitmap（ceil(count/8) bytes，LSB-first）
package labelbank

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"

	"github.com/klauspost/compress/zstd"

	"github.com/zintix-labs/batchlab/corefmt"
	"github.com/zintix-labs/batchlab/errs"
)

// maxBankBytes 是單一 bank 解包時允許的最大壓縮 payload（防禦未受信輸入）。
const maxBankBytes = 1 << 30

// Pack 把二元標籤序列打包成 bitmap（未壓縮）。
//
// 標籤值必須是 0 或 1；打包採 LSB-first（索引 i 落在 byte i/8 的 bit i%8）。
func Pack(labels []int) ([]byte, error) {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(labels)))

	out := make([]byte, n+(len(labels)+7)/8)
	copy(out, hdr[:n])
	bitmap := out[n:]
	for i, v := range labels {
		switch v {
		case 0:
		case 1:
			bitmap[i/8] |= 1 << (i % 8)
		default:
			return nil, errs.Configf("label must be 0 or 1, got %d at index %d", v, i)
		}
	}
	return out, nil
}

// Unpack 是 Pack 的反向操作。
func Unpack(packed []byte) ([]int, error) {
	count, size := binary.Uvarint(packed)
	if size <= 0 {
		return nil, errs.NewWarn("unpack label bank failed: invalid varint count")
	}
	bitmap := packed[size:]
	if uint64(len(bitmap)) < (count+7)/8 {
		return nil, errs.NewWarn("unpack label bank failed: truncated bitmap")
	}

	labels := make([]int, count)
	for i := range labels {
		if bitmap[i/8]&(1<<(i%8)) != 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// Write 把標籤序列壓縮後寫入 w（bitmap → zstd → blob frame）。
func Write(w io.Writer, labels []int) error {
	packed, err := Pack(labels)
	if err != nil {
		return err
	}

	var zbuf bytes.Buffer
	zw, err := zstd.NewWriter(&zbuf)
	if err != nil {
		return errs.Wrap(err, "create zstd writer failed")
	}
	if _, err := zw.Write(packed); err != nil {
		zw.Close()
		return errs.Wrap(err, "compress label bank failed")
	}
	if err := zw.Close(); err != nil {
		return errs.Wrap(err, "close zstd writer failed")
	}

	return corefmt.WriteBlobFrame(w, zbuf.Bytes())
}

// Read 讀取並還原 Write 產出的標籤序列。
func Read(r io.Reader) ([]int, error) {
	compressed, err := corefmt.ReadBlobFrame(r, maxBankBytes)
	if err != nil {
		return nil, errs.Wrap(err, "read label bank frame failed")
	}

	zr, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errs.Wrap(err, "create zstd reader failed")
	}
	defer zr.Close()

	packed, err := io.ReadAll(zr)
	if err != nil {
		return nil, errs.Wrap(err, "decompress label bank failed")
	}
	return Unpack(packed)
}

// ReadFS 從任意 fs.FS 載入 label bank 檔案。
//
// 與設定檔的對應：SamplerSetting.LabelsFile 指到的路徑就走這裡載入。
func ReadFS(fsys fs.FS, path string) ([]int, error) {
	if fsys == nil {
		return nil, errs.NewWarn("label bank fs is nil")
	}
	if path == "" {
		return nil, errs.NewWarn("label bank path is empty")
	}

	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errs.Wrap(err, "read label bank file failed")
	}
	return Read(bytes.NewReader(raw))
}

// Encode 把標籤序列編為完整的 bank bytes（Write 的 in-memory 版本）。
func Encode(labels []int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, labels); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode 是 Encode 的反向操作。
func Decode(bank []byte) ([]int, error) {
	return Read(bytes.NewReader(bank))
}
