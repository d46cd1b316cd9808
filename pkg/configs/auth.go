package configs

import "github.com/spf13/viper"

// AuthConfig 上传接口的鉴权配置.
//
// 支持三种凭证，任意一种通过即可：
//   - authCode 请求头或查询参数，与 Codes 中任意一项相等；
//   - Authorization: Bearer <jwt>，HS256 签名，perms 声明中包含所需权限；
//   - TrustProxyHeaders 开启时，oauth2-proxy 注入的 X-Auth-Request-Email 请求头.
type AuthConfig struct {
	Enabled           bool     `mapstructure:"enabled"`             // 开启认证校验
	Codes             []string `mapstructure:"codes"`               // 静态上传口令
	JWTSecret         string   `mapstructure:"jwt_secret"`          // HS256 密钥，为空时不接受 Bearer
	JWTIssuer         string   `mapstructure:"jwt_issuer"`          // 非空时校验 iss
	TrustProxyHeaders bool     `mapstructure:"trust_proxy_headers"` // 信任反向代理注入的身份头
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.codes", []string{})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("auth.trust_proxy_headers", false)
}
