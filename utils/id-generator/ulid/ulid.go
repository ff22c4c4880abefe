package ulid

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

/* ========================================================================
 * ULID Generator - 文档 ID 生成与格式识别
 * ========================================================================
 * 职责: 生成文档主键；判断字符串是否为合法的文档 ID
 * 格式: 26 字符 Crockford Base32，48 位毫秒时间戳 + 80 位随机数
 *       同一毫秒内使用 Monotonic 熵源，保证字典序递增
 * ======================================================================== */

// Length ULID 字符串长度
const Length = ulid.EncodedSize

var (
	globalEntropy io.Reader
	once          sync.Once
	mu            sync.Mutex
)

// Generator ULID 生成器
type Generator struct {
	entropy io.Reader
	mu      sync.Mutex
}

// NewGenerator 创建 ULID 生成器，entropy 为 nil 时使用 crypto/rand
func NewGenerator(entropy io.Reader) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	if _, ok := entropy.(ulid.MonotonicEntropy); !ok {
		entropy = ulid.Monotonic(entropy, 0)
	}
	return &Generator{entropy: entropy}
}

// GenerateString 生成 ULID 字符串
func (g *Generator) GenerateString() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

func initEntropy() {
	globalEntropy = ulid.Monotonic(rand.Reader, 0)
}

// Generate 使用全局熵源生成 ULID
func Generate() ulid.ULID {
	return GenerateWithTime(time.Now())
}

// GenerateString 生成 ULID 字符串
func GenerateString() string {
	return Generate().String()
}

// GenerateWithTime 使用指定时间生成 ULID
func GenerateWithTime(t time.Time) ulid.ULID {
	once.Do(initEntropy)

	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), globalEntropy)
}

// Parse 严格解析 ULID 字符串
func Parse(s string) (ulid.ULID, error) {
	return ulid.ParseStrict(s)
}

// IsValid 判断字符串是否为合法 ULID（大小写不敏感）
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// Normalize 返回规范的大写形式；非法输入原样返回
func Normalize(s string) string {
	if !IsValid(s) {
		return s
	}
	return strings.ToUpper(s)
}

// Time 提取 ULID 中的时间戳
func Time(id ulid.ULID) time.Time {
	return ulid.Time(id.Time())
}
