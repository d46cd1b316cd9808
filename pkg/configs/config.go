// Package configs 管理 relayvault 的全部配置，包括上传限制、中继频道、存储和队列等.
// 支持多种配置格式（YAML、JSON、TOML、dotenv），并可启用热重载.
//
// Example:
//
//	if err := configs.InitConfig("./"); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := configs.GetConfig()
//	fmt.Println(cfg.Server.Port)
//
// Example accessing upload limits:
//
//	limits := configs.GetConfig().Upload.Limits()
//	fmt.Println(limits.MaxFiles, limits.MaxTotalSize)
package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppVersion 当前版本号.
const AppVersion = "0.3.0"

// EnvPrefix 环境变量前缀，例如 RELAYVAULT_SERVER_PORT.
const EnvPrefix = "RELAYVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // 服务器端口、超时等
		Log            LogConfig            `mapstructure:"log"`             // 日志
		KV             KVConfig             `mapstructure:"kv"`              // 元数据 KV 存储
		S3             S3Config             `mapstructure:"s3"`              // kv.type=s3 时使用的对象存储
		DB             DBConfig             `mapstructure:"db"`              // kv.type=db 时使用的数据库
		MQ             MQConfig             `mapstructure:"mq"`              // 事件发布用消息队列
		Events         EventsConfig         `mapstructure:"events"`          // 事件开关
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // Prometheus 指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // 分布式追踪
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // HTTP 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // HTTP 熔断
		Auth           AuthConfig           `mapstructure:"auth"`            // 上传鉴权
		Upload         UploadConfig         `mapstructure:"upload"`          // 批量上传限制与中继频道
		Relay          RelayConfig          `mapstructure:"relay"`           // 上游 Bot API 客户端
		Security       SecurityConfig       `mapstructure:"security"`        // 内容审核
		Geo            GeoConfig            `mapstructure:"geo"`             // 上传者地理位置
		Jobs           JobsConfig           `mapstructure:"jobs"`            // 定时任务
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// configMu 保护热重载时对 globalConfig 的写入.
	configMu sync.RWMutex
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// path 为空或不存在配置文件时只使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = viper.New()
	setAllDefaults(appViper)

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	found := locateConfig(appViper, path)
	if found {
		if err := appViper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := appViper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setConfig(cfg)

	if found {
		reloadConfigs(appViper, cfg.Server.ReloadConfig)
	}

	return nil
}

// locateConfig 根据 path 是文件还是目录设置 viper 的配置来源.
func locateConfig(v *viper.Viper, path string) bool {
	if path == "" {
		return false
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)

		return true
	}

	exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}
	for _, dir := range []string{path, filepath.Join(path, "configs")} {
		for _, ext := range exts {
			cfg := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)

				return true
			}
		}
	}

	return false
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		server   ServerConfig
		logCfg   LogConfig
		kv       KVConfig
		s3       S3Config
		db       DBConfig
		mq       MQConfig
		events   EventsConfig
		metrics  MetricsConfig
		tracing  TracingConfig
		rl       RateLimitConfig
		cb       CircuitBreakerConfig
		auth     AuthConfig
		upload   UploadConfig
		relay    RelayConfig
		security SecurityConfig
		geo      GeoConfig
		jobs     JobsConfig
	)

	server.setDefaults(v)
	logCfg.setDefaults(v)
	kv.setDefaults(v)
	s3.setDefaults(v)
	db.setDefaults(v)
	mq.setDefaults(v)
	events.setDefaults(v)
	metrics.setDefaults(v)
	tracing.setDefaults(v)
	rl.setDefaults(v)
	cb.setDefaults(v)
	auth.setDefaults(v)
	upload.setDefaults(v)
	relay.setDefaults(v)
	security.setDefaults(v)
	geo.setDefaults(v)
	jobs.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		var cfg AppConfig
		if err := v.Unmarshal(&cfg); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)

			return
		}

		setConfig(cfg)
	})
	v.WatchConfig()
}

func setConfig(cfg AppConfig) {
	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
}

// GetConfig 返回全局配置的快照.
func GetConfig() *AppConfig {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := globalConfig

	return &cfg
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}

// OverrideDebug 用命令行参数开启 server.debug，热重载后仍然生效.
func OverrideDebug() {
	if appViper != nil {
		appViper.Set("server.debug", true)
	}

	configMu.Lock()
	globalConfig.Server.Debug = true
	configMu.Unlock()
}

const redactedValue = "******"

func redact(s string) string {
	if s == "" {
		return ""
	}

	return redactedValue
}

// Redacted 返回隐藏了凭据的配置副本，用于打印.
func (c AppConfig) Redacted() AppConfig {
	out := c

	out.Upload.Channels = make([]ChannelConfig, len(c.Upload.Channels))
	for i, ch := range c.Upload.Channels {
		ch.BotToken = redact(ch.BotToken)
		out.Upload.Channels[i] = ch
	}

	out.Auth.Codes = make([]string, len(c.Auth.Codes))
	for i := range c.Auth.Codes {
		out.Auth.Codes[i] = redactedValue
	}

	out.Auth.JWTSecret = redact(c.Auth.JWTSecret)
	out.Security.Moderation.APIKey = redact(c.Security.Moderation.APIKey)
	out.S3.SecretAccessKey = redact(c.S3.SecretAccessKey)
	out.DB.Password = redact(c.DB.Password)
	out.KV.Redis.Password = redact(c.KV.Redis.Password)
	out.KV.NATS.Password = redact(c.KV.NATS.Password)
	out.MQ.Common.Password = redact(c.MQ.Common.Password)
	out.MQ.Redis.Password = redact(c.MQ.Redis.Password)

	return out
}
