package service

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yeisme/relayvault/pkg/configs"
)

const (
	PermissionUpload = "upload"
	PermissionRead   = "read"
	PermissionManage = "manage"

	HeaderAuthCode   = "authCode"
	QueryAuthCode    = "authCode"
	HeaderProxyEmail = "X-Auth-Request-Email"
)

// Claims 访问令牌声明，Perms 为授予的权限.
type Claims struct {
	Perms []string `json:"perms"`
	jwt.RegisteredClaims
}

// AuthChecker 判断请求是否具备某项权限.
type AuthChecker struct {
	load func() *configs.AppConfig
}

// NewAuthChecker load 为 nil 时使用 configs.GetConfig.
func NewAuthChecker(load func() *configs.AppConfig) *AuthChecker {
	if load == nil {
		load = configs.GetConfig
	}

	return &AuthChecker{load: load}
}

// Check 依次接受: 未开启鉴权、authCode、带权限的 Bearer JWT、受信代理邮箱头.
func (a *AuthChecker) Check(r *http.Request, permission string) bool {
	cfg := a.load().Auth
	if !cfg.Enabled {
		return true
	}

	code := r.Header.Get(HeaderAuthCode)
	if code == "" {
		code = r.URL.Query().Get(QueryAuthCode)
	}

	if code != "" && matchCode(cfg.Codes, code) {
		return true
	}

	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && cfg.JWTSecret != "" {
		claims, err := ParseToken(strings.TrimSpace(bearer), cfg.JWTSecret, cfg.JWTIssuer)
		if err == nil && slices.Contains(claims.Perms, permission) {
			return true
		}
	}

	return cfg.TrustProxyHeaders && r.Header.Get(HeaderProxyEmail) != ""
}

func matchCode(codes []string, code string) bool {
	for _, c := range codes {
		if c != "" && subtle.ConstantTimeCompare([]byte(c), []byte(code)) == 1 {
			return true
		}
	}

	return false
}

// ParseToken 校验 HS256 令牌，issuer 为空时不校验签发者.
func ParseToken(token, secret, issuer string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// IssueToken 签发令牌，供 CLI 和测试使用.
func IssueToken(secret string, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
