package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Auth       AuthConfig       `mapstructure:"auth"`
	Assignment AssignmentConfig `mapstructure:"assignment"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool   `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool   `mapstructure:"-"` // 仅迁移模式（迁移后退出）
	FilePath     string `mapstructure:"-"` // 实际加载的配置文件路径，供热加载使用
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

// StorageConfig 控制持久化后端的探测与重连
type StorageConfig struct {
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
	AuditKey string `mapstructure:"audit_key"`
	AuditCap int64  `mapstructure:"audit_cap"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// AuthConfig RequireToken 为 true 时，/users 与 /modules 接口只允许本人的令牌访问
type AuthConfig struct {
	RequireToken bool `mapstructure:"require_token"`
}

// AssignmentConfig 模块分配规则
type AssignmentConfig struct {
	AdminIDs          []string `mapstructure:"admin_ids"`
	RestrictedID      string   `mapstructure:"restricted_id"`
	RestrictedModules []string `mapstructure:"restricted_modules"`
	StandardModules   []string `mapstructure:"standard_modules"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.dbname", "tbc_compliance")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)

	v.SetDefault("storage.connect_timeout", 5*time.Second)
	v.SetDefault("storage.probe_timeout", time.Second)
	v.SetDefault("storage.reconnect_interval", 30*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.audit_key", "compliance:email_results")
	v.SetDefault("redis.audit_cap", 1000)

	// 仅供开发使用，release 模式下长度校验会拒绝该默认值
	v.SetDefault("jwt.secret", "dev-only-secret")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("assignment.admin_ids", []string{"969631", "969632", "969634"})
	v.SetDefault("assignment.restricted_id", "969633")
	v.SetDefault("assignment.restricted_modules", []string{"phishing", "harassment"})
	v.SetDefault("assignment.standard_modules", []string{
		"phishing", "password", "data", "incident", "internet",
		"role", "malware", "safety", "harassment",
	})

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5000"})
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)

	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("COMPLIANCE")
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.enabled", "DATABASE_ENABLED")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("auth.require_token", "AUTH_REQUIRE_TOKEN")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时使用默认值 + 环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.FilePath = v.ConfigFileUsed()

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if len(cfg.Assignment.StandardModules) == 0 {
		return nil, fmt.Errorf("assignment.standard_modules must not be empty")
	}

	return &cfg, nil
}
