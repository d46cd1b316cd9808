package service_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/service"
)

const secret = "s3cret"

func authConfig(mutate func(*configs.AuthConfig)) func() *configs.AppConfig {
	return func() *configs.AppConfig {
		cfg := &configs.AppConfig{}
		cfg.Auth = configs.AuthConfig{Enabled: true, Codes: []string{"letmein"}, JWTSecret: secret, JWTIssuer: "relayvault"}

		if mutate != nil {
			mutate(&cfg.Auth)
		}

		return cfg
	}
}

func token(t *testing.T, perms []string, issuer string, exp time.Duration) string {
	t.Helper()

	tok, err := service.IssueToken(secret, service.Claims{
		Perms: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp)),
		},
	})
	require.NoError(t, err)

	return tok
}

func TestAuthDisabled(t *testing.T) {
	a := service.NewAuthChecker(authConfig(func(c *configs.AuthConfig) { c.Enabled = false }))
	r := httptest.NewRequest("POST", "/api/v1/relay/media-group", nil)

	assert.True(t, a.Check(r, service.PermissionUpload))
}

func TestAuthCode(t *testing.T) {
	a := service.NewAuthChecker(authConfig(nil))

	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set(service.HeaderAuthCode, "letmein")
	assert.True(t, a.Check(r, service.PermissionUpload))

	r = httptest.NewRequest("POST", "/?authCode=letmein", nil)
	assert.True(t, a.Check(r, service.PermissionUpload))

	r = httptest.NewRequest("POST", "/", nil)
	r.Header.Set(service.HeaderAuthCode, "wrong")
	assert.False(t, a.Check(r, service.PermissionUpload))
}

func TestAuthBearer(t *testing.T) {
	a := service.NewAuthChecker(authConfig(nil))

	tests := []struct {
		name string
		tok  string
		want bool
	}{
		{"has permission", token(t, []string{"upload"}, "relayvault", time.Hour), true},
		{"missing permission", token(t, []string{"read"}, "relayvault", time.Hour), false},
		{"wrong issuer", token(t, []string{"upload"}, "other", time.Hour), false},
		{"expired", token(t, []string{"upload"}, "relayvault", -time.Hour), false},
		{"garbage", "abc.def.ghi", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			r.Header.Set("Authorization", "Bearer "+tt.tok)
			assert.Equal(t, tt.want, a.Check(r, service.PermissionUpload))
		})
	}
}

func TestAuthProxyHeader(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set(service.HeaderProxyEmail, "ops@example.com")

	assert.False(t, service.NewAuthChecker(authConfig(nil)).Check(r, service.PermissionUpload))

	trusted := service.NewAuthChecker(authConfig(func(c *configs.AuthConfig) { c.TrustProxyHeaders = true }))
	assert.True(t, trusted.Check(r, service.PermissionUpload))
}
