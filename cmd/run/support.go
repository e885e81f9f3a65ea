package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math"
	"math/big"
	"strconv"

	"github.com/zintix-labs/batchlab"
	"github.com/zintix-labs/batchlab/demo/demo_configs"
	"github.com/zintix-labs/batchlab/sdk/core"
	"github.com/zintix-labs/batchlab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	name      string
	id        spec.DSID
	worker    int
	runs      int
	epochs    int
	seed      int64
	pprofmode string
}

type dsidFlag struct{ p *spec.DSID }

func (f dsidFlag) String() string { return fmt.Sprint(uint(*f.p)) }
func (f dsidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.DSID(uint(u))
	return nil
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.Var(dsidFlag{&cfg.id}, "dataset", "target dataset id")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.runs, "runs", 1, "number of independent runs")
	flag.IntVar(&cfg.epochs, "epochs", 10000000, "epochs per run")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() { // 取得epoch數
	cfg.valid() // 基本檢查

	lab, err := batchlab.NewAuto(
		core.Default(),
		batchlab.Configs(demo_configs.FS),
	)
	if err != nil {
		log.Fatal(err)
	}
	s, err := lab.NewSimulatorWithSeed(cfg.id, cfg.seed)
	if err != nil {
		log.Fatal(err)
	}
	ent, _ := lab.EntryById(cfg.id)
	cfg.name = ent.Name
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	if cfg.runs == 1 { // 純取樣模擬
		if cfg.worker == 1 { // 單線程
			p.Printf("%s[DATASET:%s] [EPOCHS:%d]%s\n", green, cfg.name, cfg.epochs, reset)
			st, used, _ := s.Run(cfg.epochs, true)
			st.StdOut(used)
		} else {
			p.Printf("%s[WORKERS:%d] [DATASET:%s] [EPOCHS:%d]%s\n", green, cfg.worker, cfg.name, cfg.worker*cfg.epochs, reset)
			st, used, _ := s.RunMP(cfg.epochs, cfg.worker, true) // 併發
			st.StdOut(used)
		}
	} else { // 模擬多次重複實驗
		p.Printf("%s[WORKERS:%d] [DATASET:%s] [RUNS:%d EPOCHS:%d]%s\n", green, cfg.worker, cfg.name, cfg.runs, cfg.epochs, reset)
		st, est, used, _ := s.RunExp(cfg.worker, cfg.runs, cfg.epochs, true)
		st.StdOut(used)
		est.Out()
	}
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}

	// 重複實驗檢查
	// 次數 > 0
	if cfg.runs < 1 {
		log.Fatal("value err : runs must > 0")
	}
	// 次數太多 resize
	if cfg.runs > 100000 {
		p.Printf("too much runs: %d resized to 100k runs\n", cfg.runs)
		cfg.runs = 100000
	}

	// epoch數檢查
	if cfg.epochs < 1 {
		log.Fatal("value err : epochs must > 0")
	}

	// 重複實驗的時候，每次實驗最高不超過15000個epoch(無意義)
	// 重複實驗關心的是 run 與 run 之間的變異，不是單一 run 的長期行為；
	// 長期行為直接模擬長epoch數單run即可
	if cfg.runs > 1 && cfg.epochs > 15000 {
		p.Printf("too much epochs for each run : %d resized to 15k epochs for each run\n", cfg.epochs)
		cfg.epochs = 15000
	}
}
