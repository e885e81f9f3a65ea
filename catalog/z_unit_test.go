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

package catalog

import (
	"bytes"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/batchlab/sdk/labelbank"
	"github.com/zintix-labs/batchlab/spec"
)

func cfgFS(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"ds_a.yaml": &fstest.MapFile{Data: []byte(
			"dataset_name: alpha\ndataset_id: 1\nbatch_size: 4\nlabels: [0, 0, 0, 0, 1, 1]\n")},
		"ds_b.yaml": &fstest.MapFile{Data: []byte(
			"dataset_name: beta\ndataset_id: 2\nbatch_size: 3\nlabels_file: beta.bank\n")},
	}
}

func bankFS(t *testing.T, labels []int) fstest.MapFS {
	t.Helper()
	var buf bytes.Buffer
	if err := labelbank.Write(&buf, labels); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	return fstest.MapFS{
		"beta.bank": &fstest.MapFile{Data: buf.Bytes()},
	}
}

func TestCatalogRegisterAndLookup(t *testing.T) {
	c, err := New(cfgFS(t))
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	err = c.Register(
		Entry{DSID: 1, Name: "Alpha", ConfigName: "ds_a.yaml"},
		Entry{DSID: 2, Name: "beta", ConfigName: "ds_b.yaml"},
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// 名稱查找應大小寫不敏感
	if _, ok := c.GetByName("ALPHA"); !ok {
		t.Fatalf("name lookup should be case-insensitive")
	}
	if _, ok := c.GetByID(2); !ok {
		t.Fatalf("id lookup failed")
	}
	if got := c.IDs(); !slices.Equal(got, []spec.DSID{1, 2}) {
		t.Fatalf("ids not sorted: %v", got)
	}

	ss, err := c.SamplerSettingById(1)
	if err != nil {
		t.Fatalf("setting by id: %v", err)
	}
	if ss.DatasetName != "alpha" || ss.BatchSize != 4 {
		t.Fatalf("setting not parsed: %+v", ss)
	}

	c.Freeze()
	if err := c.Register(Entry{DSID: 3, Name: "gamma", ConfigName: "ds_a.yaml"}); err == nil {
		t.Fatalf("register after freeze should fail")
	}
}

func TestCatalogDuplicates(t *testing.T) {
	c, err := New(cfgFS(t))
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	cases := []struct {
		name  string
		metas []Entry
	}{
		{"dup id", []Entry{{DSID: 1, Name: "a", ConfigName: "ds_a.yaml"}, {DSID: 1, Name: "b", ConfigName: "ds_b.yaml"}}},
		{"dup name", []Entry{{DSID: 1, Name: "a", ConfigName: "ds_a.yaml"}, {DSID: 2, Name: "a", ConfigName: "ds_b.yaml"}}},
		{"dup config", []Entry{{DSID: 1, Name: "a", ConfigName: "ds_a.yaml"}, {DSID: 2, Name: "b", ConfigName: "ds_a.yaml"}}},
		{"missing config", []Entry{{DSID: 1, Name: "a", ConfigName: "nope.yaml"}}},
		{"path in name", []Entry{{DSID: 1, Name: "a", ConfigName: "sub/ds_a.yaml"}}},
		{"bad extension", []Entry{{DSID: 1, Name: "a", ConfigName: "ds_a.txt"}}},
	}
	for _, tc := range cases {
		if err := c.Register(tc.metas...); err == nil {
			t.Errorf("[%s] expected register error", tc.name)
		}
	}
}

func TestCatalogLabelsFor(t *testing.T) {
	labels := []int{0, 1, 0, 0, 1, 0, 1, 1, 0, 0}
	c, err := New(cfgFS(t), bankFS(t, labels))
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	if err := c.Register(Entry{DSID: 2, Name: "beta", ConfigName: "ds_b.yaml"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	ss, err := c.SamplerSettingById(2)
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	got, err := c.LabelsFor(ss)
	if err != nil {
		t.Fatalf("labels for: %v", err)
	}
	if !slices.Equal(got, labels) {
		t.Fatalf("bank labels mismatch: want %v, got %v", labels, got)
	}

	ss.LabelsFile = "missing.bank"
	if _, err := c.LabelsFor(ss); err == nil {
		t.Fatalf("expected error for unknown bank file")
	}
}

func TestMultiFSRejectsSubdirsAndCrossDup(t *testing.T) {
	nested := fstest.MapFS{
		"sub/x.yaml": &fstest.MapFile{Data: []byte("dataset_name: x\n")},
	}
	if _, err := New(nested); err == nil {
		t.Fatalf("expected error for nested config FS")
	}

	a := fstest.MapFS{"same.yaml": &fstest.MapFile{Data: []byte("x")}}
	b := fstest.MapFS{"same.yaml": &fstest.MapFile{Data: []byte("y")}}
	if _, err := New(a, b); err == nil {
		t.Fatalf("expected error for duplicate config across FS")
	}
}
