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

// Package spec 定義資料集取樣設定檔（SamplerSetting）的結構與載入入口。
package spec

import "strconv"

// DSID 是資料集在 Catalog 內的唯一識別碼（路由與查表用）。
type DSID uint32

func (d DSID) String() string {
	return strconv.FormatUint(uint64(d), 10)
}
