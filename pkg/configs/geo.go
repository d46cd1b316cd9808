package configs

import (
	"time"

	"github.com/spf13/viper"
)

// GeoConfig 上传者 IP 归属地查询.
type GeoConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Endpoint  string        `mapstructure:"endpoint"`   // 含 {ip} 占位符，响应需包含 country/regionName/city
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (c *GeoConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("geo.enabled", false)
	v.SetDefault("geo.endpoint", "http://ip-api.com/json/{ip}?fields=status,country,regionName,city")
	v.SetDefault("geo.cache_size", 4096)
	v.SetDefault("geo.cache_ttl", "6h")
	v.SetDefault("geo.timeout", "3s")
}
