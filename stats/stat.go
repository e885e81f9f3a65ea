package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/batchlab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// EpochReport 取樣統計報告
//
// 一份報告對應一段取樣過程（一個或多個 epoch）：
// 批次組成、兩類別池的覆蓋分布、少數池的重複使用程度。
type EpochReport struct {
	Summary  *SummaryReport  `json:"Summary"`
	Coverage *CoverageReport `json:"Coverage"`
	isDone   bool
}

type SummaryReport struct {
	DatasetName string    `json:"DatasetName"`
	DatasetId   spec.DSID `json:"DatasetId"`
	BatchSize   int       `json:"BatchSize"`
	Batch0      int       `json:"Batch0"`
	Batch1      int       `json:"Batch1"`
	Pool0       int       `json:"Pool0"`
	Pool1       int       `json:"Pool1"`
	Epochs      int       `json:"Epochs"`
	Batches     int       `json:"Batches"`
	Draws0      int       `json:"Draws0"`
	Draws1      int       `json:"Draws1"`
	TargetShare float64   `json:"TargetShare"` // 資料集內 class 1 的比例
	ActualShare float64   `json:"ActualShare"` // 實際送出的索引中 class 1 的比例
	Coverage    float64   `json:"Coverage"`    // 被抽過至少一次的索引比例
	CoverageCI  CI        `json:"CoverageCI"`
	Starved     int       `json:"Starved"`   // 從未被抽中的索引數
	MinCycles   int       `json:"MinCycles"` // 少數池至少被完整用過幾輪
}

// CoverageReport 每索引抽中次數的分桶統計（兩類別分開看）
type CoverageReport struct {
	DrawBucket   []string  `json:"DrawBucket"`
	Pool0Collect []int     `json:"Pool0Collect"`
	Pool1Collect []int     `json:"Pool1Collect"`
	Pool0Dist    []float64 `json:"Pool0Dist"`
	Pool1Dist    []float64 `json:"Pool1Dist"`
	MinDraws0    int       `json:"MinDraws0"`
	MaxDraws0    int       `json:"MaxDraws0"`
	MinDraws1    int       `json:"MinDraws1"`
	MaxDraws1    int       `json:"MaxDraws1"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 紀錄過程因為性能原因只維護 int 計數，統計完成後
// 請使用 Done 一次性計算比例、分布與信賴區間。
func (s *EpochReport) Done() {
	if s.isDone {
		return
	}

	s.Summary.ActualShare = s.Share()

	n := s.Summary.Pool0 + s.Summary.Pool1
	if n > 0 {
		covered := n - s.Summary.Starved
		s.Summary.Coverage = float64(covered) / float64(n)
		_, s.Summary.CoverageCI = proportionCICP(covered, n, 0.95)
	}

	// 分布：各桶索引數 / 池大小
	L := len(s.Coverage.DrawBucket)
	p0 := make([]float64, L)
	p1 := make([]float64, L)
	for i := range L {
		if s.Summary.Pool0 > 0 {
			p0[i] = float64(s.Coverage.Pool0Collect[i]) / float64(s.Summary.Pool0)
		}
		if s.Summary.Pool1 > 0 {
			p1[i] = float64(s.Coverage.Pool1Collect[i]) / float64(s.Summary.Pool1)
		}
	}
	s.Coverage.Pool0Dist = p0
	s.Coverage.Pool1Dist = p1

	s.isDone = true
}

// Share 回傳實際送出的索引中 class 1 的比例
func (s *EpochReport) Share() float64 {
	total := s.Summary.Draws0 + s.Summary.Draws1
	if total == 0 {
		return 0
	}
	return float64(s.Summary.Draws1) / float64(total)
}

func (s *EpochReport) WriteWith(w io.Writer, rep EpochReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *EpochReport) StdOut(ut time.Duration) {
	formatDuration(ut, s.Summary.Batches)
	sk, sm := s.fmtBasic()
	str := fmtTable(s.Summary.DatasetName, sk, sm)
	fmt.Println(str)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, batches int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	bps := int(float64(batches) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nbps : %d batches/sec\n", sec, bps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		s = s % 60
		p.Printf("used: %dm %ds\nbps : %d batches/sec\n", m, s, bps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nbps : %d batches/sec\n", h, m, s, bps)
}

// StdOut

func (s *EpochReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Dataset Name": p.Sprintf("%s", s.Summary.DatasetName),
		"Dataset ID":   fmt.Sprintf("%d", s.Summary.DatasetId),
		"Pool Sizes":   p.Sprintf("%d / %d", s.Summary.Pool0, s.Summary.Pool1),
		"Batch Split":  p.Sprintf("%d + %d = %d", s.Summary.Batch0, s.Summary.Batch1, s.Summary.BatchSize),
		"Epochs":       p.Sprintf("%d", s.Summary.Epochs),
		"Batches":      p.Sprintf("%d", s.Summary.Batches),
		"Draws":        p.Sprintf("%d / %d", s.Summary.Draws0, s.Summary.Draws1),
		"Target Share": p.Sprintf("%.2f %%", 100.0*s.Summary.TargetShare),
		"Actual Share": p.Sprintf("%.2f %%", 100.0*s.Summary.ActualShare),
		"Coverage":     p.Sprintf("%.2f %%", 100.0*s.Summary.Coverage),
		"Cov 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.CoverageCI.Lo, 100.0*s.Summary.CoverageCI.Hi),
		"Starved":      p.Sprintf("%d", s.Summary.Starved),
		"Min Cycles":   p.Sprintf("%d", s.Summary.MinCycles),
	}
	keys := []string{"Dataset Name", "Dataset ID", "Pool Sizes", "Batch Split", "Epochs", "Batches", "Draws", "Target Share", "Actual Share", "Coverage", "Cov 95% CI", "Starved", "Min Cycles"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
