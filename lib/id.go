package lib

import (
	"math/rand"
	"strconv"
	"time"
)

// NewID 生成客户端本地 ID：纳秒时间戳 + 随机后缀
// The time component keeps ids roughly sortable by creation order, the random
// suffix covers two calls landing on the same clock tick.
func NewID() string {
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)
	suffix := strconv.FormatInt(rand.Int63n(1<<31), 36)
	return ts + suffix
}
