package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/resource"
	"github.com/aisgo/ais-edu/response"
	"github.com/aisgo/ais-edu/utils/id-generator/ulid"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

/* ========================================================================
 * Actor Auth - 网关签名的身份头
 * ========================================================================
 * 职责: 校验网关注入的身份头，解析为 resource.Actor
 *
 * Headers:
 *   X-Edu-Auth-V      版本 ("1")
 *   X-Edu-Auth-Iss    签发方
 *   X-Edu-Auth-Ts     unix 秒
 *   X-Edu-Auth-Nonce  随机串
 *   X-Edu-Auth-User   base64url(JSON Claims)
 *   X-Edu-Auth-Sign   hex(HMAC-SHA256(secret, v|iss|ts|nonce|user))
 *
 * 未开启校验时所有请求视为匿名操作人。
 * ======================================================================== */

const (
	AuthVersionV1 = "1"

	HeaderAuthVersion   = "X-Edu-Auth-V"
	HeaderAuthIssuer    = "X-Edu-Auth-Iss"
	HeaderAuthTimestamp = "X-Edu-Auth-Ts"
	HeaderAuthNonce     = "X-Edu-Auth-Nonce"
	HeaderAuthUser      = "X-Edu-Auth-User"
	HeaderAuthSignature = "X-Edu-Auth-Sign"
)

const (
	defaultAuthMaxAge    = 5 * time.Minute
	defaultAuthClockSkew = 30 * time.Second
	actorLocalKey        = "edu_actor"
)

var (
	ErrAuthMissing          = errors.New("missing auth headers")
	ErrAuthInvalidVersion   = errors.New("invalid auth version")
	ErrAuthInvalidTimestamp = errors.New("invalid auth timestamp")
	ErrAuthIssuerNotAllowed = errors.New("auth issuer not allowed")
	ErrAuthMissingSecret    = errors.New("auth secret is required")
	ErrAuthInvalidSignature = errors.New("invalid auth signature")
	ErrAuthExpired          = errors.New("auth header expired")
	ErrAuthNotYetValid      = errors.New("auth header timestamp in future")
	ErrAuthInvalidUser      = errors.New("invalid auth user")
)

// Claims 身份头中携带的操作人信息
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// AuthConfig 身份头配置
type AuthConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Issuer         string            `mapstructure:"issuer"`  // 签名方使用
	Secret         string            `mapstructure:"secret"`  // 默认密钥
	Secrets        map[string]string `mapstructure:"secrets"` // 按签发方覆盖
	AllowedIssuers []string          `mapstructure:"allowed_issuers"`
	AllowAnonymous bool              `mapstructure:"allow_anonymous"` // 缺少身份头时按匿名放行
	MaxAge         time.Duration     `mapstructure:"max_age"`
	ClockSkew      time.Duration     `mapstructure:"clock_skew"`

	NowFunc func() time.Time `mapstructure:"-"`
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = defaultAuthMaxAge
	}
	if c.ClockSkew <= 0 {
		c.ClockSkew = defaultAuthClockSkew
	}
	if c.NowFunc == nil {
		c.NowFunc = time.Now
	}
	return c
}

func (c AuthConfig) secretFor(issuer string) string {
	if s, ok := c.Secrets[issuer]; ok {
		return s
	}
	return c.Secret
}

// AuthHeaders 身份头取值
type AuthHeaders struct {
	Version   string
	Issuer    string
	Timestamp int64
	Nonce     string
	User      string
	Signature string
}

// Apply 写入 http.Header
func (v AuthHeaders) Apply(h http.Header) {
	h.Set(HeaderAuthVersion, v.Version)
	h.Set(HeaderAuthIssuer, v.Issuer)
	h.Set(HeaderAuthTimestamp, strconv.FormatInt(v.Timestamp, 10))
	h.Set(HeaderAuthNonce, v.Nonce)
	h.Set(HeaderAuthUser, v.User)
	h.Set(HeaderAuthSignature, v.Signature)
}

// ========================================================================
// 签名
// ========================================================================

// Sign 为操作人生成身份头，供网关与服务间调用使用
func Sign(cfg AuthConfig, claims Claims) (AuthHeaders, error) {
	cfg = cfg.withDefaults()
	if cfg.Issuer == "" {
		return AuthHeaders{}, ErrAuthIssuerNotAllowed
	}
	secret := cfg.secretFor(cfg.Issuer)
	if secret == "" {
		return AuthHeaders{}, ErrAuthMissingSecret
	}

	raw, err := json.Marshal(claims)
	if err != nil {
		return AuthHeaders{}, err
	}
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return AuthHeaders{}, err
	}

	v := AuthHeaders{
		Version:   AuthVersionV1,
		Issuer:    cfg.Issuer,
		Timestamp: cfg.NowFunc().Unix(),
		Nonce:     hex.EncodeToString(nonce),
		User:      base64.RawURLEncoding.EncodeToString(raw),
	}
	v.Signature = signature(secret, v)
	return v, nil
}

func signature(secret string, v AuthHeaders) string {
	payload := strings.Join([]string{
		v.Version,
		v.Issuer,
		strconv.FormatInt(v.Timestamp, 10),
		v.Nonce,
		v.User,
	}, "|")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// ========================================================================
// 校验
// ========================================================================

// Verify 校验身份头并返回操作人
func Verify(cfg AuthConfig, v AuthHeaders) (*resource.Actor, error) {
	cfg = cfg.withDefaults()
	if v.Version != AuthVersionV1 {
		return nil, ErrAuthInvalidVersion
	}
	if len(cfg.AllowedIssuers) > 0 && !slices.Contains(cfg.AllowedIssuers, v.Issuer) {
		return nil, ErrAuthIssuerNotAllowed
	}
	secret := cfg.secretFor(v.Issuer)
	if secret == "" {
		return nil, ErrAuthMissingSecret
	}
	if subtle.ConstantTimeCompare([]byte(signature(secret, v)), []byte(v.Signature)) != 1 {
		return nil, ErrAuthInvalidSignature
	}

	issuedAt := time.Unix(v.Timestamp, 0)
	now := cfg.NowFunc()
	if now.Sub(issuedAt) > cfg.MaxAge {
		return nil, ErrAuthExpired
	}
	if issuedAt.After(now.Add(cfg.ClockSkew)) {
		return nil, ErrAuthNotYetValid
	}

	raw, err := base64.RawURLEncoding.DecodeString(v.User)
	if err != nil {
		return nil, ErrAuthInvalidUser
	}
	var claims Claims
	// 操作人即 User 文档，ID 必须是 ULID
	if err := json.Unmarshal(raw, &claims); err != nil || !ulid.IsValid(claims.ID) {
		return nil, ErrAuthInvalidUser
	}
	return &resource.Actor{ID: ulid.Normalize(claims.ID), Role: claims.Role}, nil
}

func readAuthHeaders(c fiber.Ctx) (AuthHeaders, error) {
	v := AuthHeaders{
		Version:   strings.TrimSpace(c.Get(HeaderAuthVersion)),
		Issuer:    strings.TrimSpace(c.Get(HeaderAuthIssuer)),
		Nonce:     strings.TrimSpace(c.Get(HeaderAuthNonce)),
		User:      strings.TrimSpace(c.Get(HeaderAuthUser)),
		Signature: strings.TrimSpace(c.Get(HeaderAuthSignature)),
	}
	stamp := strings.TrimSpace(c.Get(HeaderAuthTimestamp))
	if v.Version == "" && v.Issuer == "" && stamp == "" && v.Signature == "" {
		return v, ErrAuthMissing
	}
	ts, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil || ts <= 0 {
		return v, ErrAuthInvalidTimestamp
	}
	v.Timestamp = ts
	return v, nil
}

// Authenticate 身份头中间件：校验通过后写入操作人
func Authenticate(cfg AuthConfig, log *logger.Logger) fiber.Handler {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	return func(c fiber.Ctx) error {
		if !cfg.Enabled {
			return c.Next()
		}

		values, err := readAuthHeaders(c)
		if errors.Is(err, ErrAuthMissing) && cfg.AllowAnonymous {
			return c.Next()
		}
		var actor *resource.Actor
		if err == nil {
			actor, err = Verify(cfg, values)
		}
		if err != nil {
			log.WithContext(c.Context()).Warn("auth header rejected",
				zap.Error(err),
				zap.String("issuer", values.Issuer),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return response.Unauthorized(c, err.Error())
		}

		c.Locals(actorLocalKey, actor)
		c.SetContext(logger.ContextWithActorID(c.Context(), actor.ID))
		return c.Next()
	}
}

// ActorFromContext 读取当前请求的操作人，匿名时返回 nil
func ActorFromContext(c fiber.Ctx) *resource.Actor {
	actor, _ := c.Locals(actorLocalKey).(*resource.Actor)
	return actor
}
