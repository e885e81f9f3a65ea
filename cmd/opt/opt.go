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

package main

import (
	"crypto/rand"
	"embed"
	"flag"
	"log"
	"math"
	"math/big"

	"github.com/zintix-labs/batchlab/optimizer"
	"github.com/zintix-labs/batchlab/sdk/core"
)

//go:embed opt_cfg.yaml
var OptCfg embed.FS

var seed int64

func main() {
	flag.Int64Var(&seed, "seed", -1, "int64 seed for the mining run")
	flag.Parse()

	if seed < 1 {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		seed = rnd.Int64()
	}

	tuner, err := optimizer.New(OptCfg, "opt_cfg.yaml")
	if err != nil {
		log.Fatal(err)
	}
	if err := tuner.Run(core.Default(), seed); err != nil {
		log.Fatal(err)
	}
}
