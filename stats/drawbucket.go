package stats

const maxLutCount int = 2000

// DrawBuckets
//
// 用來快速定位每索引抽中次數 -> CoverageReport 位置 O(1)
//
// 請勿修改預設值
//   - 次數區間: [0,0], [1,2), [2,3), [3,5), ..., [100,500), [500,+inf)
type DrawBuckets struct {
	drawBucket    []int
	drawBucketStr []string
	bucket        *DrawBucket
}

type DrawBucket struct {
	lutMaxCount  int
	drawBucketBy []int
	drawLUT      []int
	maxIdx       int
}

// Buckets
//
// 用來快速定位每索引抽中次數 -> CoverageReport 位置 O(1)
//
// 請勿修改預設值
var Buckets *DrawBuckets = &DrawBuckets{
	drawBucket:    []int{0, 1, 2, 3, 5, 10, 20, 50, 100, 500},
	drawBucketStr: []string{"[0,0]", "[1,2)", "[2,3)", "[3,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,500)", "[500,+inf)"},
}

func (b *DrawBuckets) DrawBucketStr() []string {
	return b.drawBucketStr
}

func (b *DrawBuckets) GetBucket() *DrawBucket {
	if b.bucket == nil {
		b.bucket = b.buildBucket()
	}
	return b.bucket
}

func (b *DrawBuckets) buildBucket() *DrawBucket {
	gp := b.drawBucket

	// 建立LUT反查表
	lut := make([]int, maxLutCount) // lut[count] = idx

	idx := 0
	last := len(gp) - 1

	lut[0] = 0
	for i := 1; i < maxLutCount; i++ {
		// 僅在還有更高邊界時才前進 idx，避免越界讀取
		for idx < last && i >= gp[idx+1] {
			idx++
		}
		lut[i] = idx
	}

	return &DrawBucket{
		lutMaxCount:  maxLutCount,
		drawBucketBy: gp,
		drawLUT:      lut,
		maxIdx:       len(gp) - 1,
	}
}

func (db *DrawBucket) Index(count int) int {
	if count < 0 {
		return 0
	}
	if count >= db.lutMaxCount {
		return db.maxIdx
	}
	return db.drawLUT[count]
}
