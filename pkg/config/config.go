package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 GOLINK_DB_DSN 覆盖 db.dsn
const EnvPrefix = "GOLINK"

type Settings struct {
	Server   ServerSettings   `mapstructure:"server"`
	DB       DBSettings       `mapstructure:"db"`
	Redis    RedisSettings    `mapstructure:"redis"`
	Cache    CacheSettings    `mapstructure:"cache"`
	Redirect RedirectSettings `mapstructure:"redirect"`
	Geo      GeoSettings      `mapstructure:"geo"`
	Stats    StatsSettings    `mapstructure:"stats"`
	Alerts   AlertSettings    `mapstructure:"alerts"`
}

type ServerSettings struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	GinMode         string        `mapstructure:"gin_mode" validate:"omitempty,oneof=debug release test"`
}

type DBSettings struct {
	Driver string `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// RedisSettings addr 为空时不启用缓存和 PV/UV 统计
type RedisSettings struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	MaxIdle  int    `mapstructure:"max_idle" validate:"gte=0"`
}

// CacheSettings ttl 为 0 时不缓存短链；短链由外部服务维护，缓存期间禁用或新建的短链不会立即生效
type CacheSettings struct {
	TTL         time.Duration `mapstructure:"ttl" validate:"gte=0"`
	NegativeTTL time.Duration `mapstructure:"negative_ttl" validate:"gte=0"`
}

type RedirectSettings struct {
	LookupTimeout time.Duration `mapstructure:"lookup_timeout" validate:"gt=0"`
}

type GeoSettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	URLTemplate string        `mapstructure:"url_template" validate:"required_if=Enabled true"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	DNSTimeout  time.Duration `mapstructure:"dns_timeout" validate:"gt=0"`
}

type StatsSettings struct {
	Cron string `mapstructure:"cron"`
}

type AlertSettings struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required_with=Brokers"`
}

// SetDefaults 注册默认配置
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.max_idle", 10)
	v.SetDefault("cache.ttl", time.Duration(0))
	v.SetDefault("cache.negative_ttl", time.Duration(0))

	v.SetDefault("redirect.lookup_timeout", 5*time.Second)

	v.SetDefault("geo.enabled", true)
	v.SetDefault("geo.url_template", "http://ip-api.com/json/%s?fields=status,message,country,regionName,city,timezone,isp,org")
	v.SetDefault("geo.timeout", 3*time.Second)
	v.SetDefault("geo.dns_timeout", 3*time.Second)

	v.SetDefault("stats.cron", "*/10 * * * *")
	v.SetDefault("alerts.brokers", []string{})
	v.SetDefault("alerts.topic", "golink.click-alerts")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.path", "")
}

// Load 读取 .env、config.yaml 与 GOLINK_* 环境变量，校验后返回配置。
// 配置文件路径可通过 GOLINK_CONFIG 指定，文件不存在时仅使用默认值和环境变量。
func Load(v *viper.Viper) (*Settings, error) {
	_ = godotenv.Load() // 生产环境通常没有 .env

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return Decode(v)
}

// Decode 将 viper 中的配置解码为 Settings 并校验
func Decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}
