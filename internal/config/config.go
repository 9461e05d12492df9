// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	API       APIConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name      string
	Env       string
	Port      int
	LogLevel  string
	LogFormat string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool
	Driver          string // postgres/sqlite3
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	Path            string // sqlite3 文件路径
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite3" {
		return c.Path + "?_foreign_keys=on"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL 返回迁移工具使用的连接地址
func (c *DatabaseConfig) URL() string {
	if c.Driver == "sqlite3" {
		return "sqlite3://" + c.Path
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// APIConfig API配置
type APIConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	RateLimit    int // 每个客户端在窗口内的最大请求数，0 表示不限制
	RateWindow   time.Duration
	CORS         CORSConfig
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool
	Origins []string
}

// SchedulerConfig 排班引擎默认策略
type SchedulerConfig struct {
	DefaultTimeout     time.Duration
	OptimizationLevel  string // basic/standard/advanced
	MaxHoursPerWeek    float64
	MinRestHours       float64
	MaxConsecutiveDays int
	DefaultSkillLevel  float64
	FairnessBaseline   float64 // 0 表示使用当批员工的平均值
	EnableFairness     bool
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load 从环境变量加载配置，files 为需要预先加载的 .env 文件
func Load(files ...string) (*Config, error) {
	if err := loadDotenv(files); err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:      getEnv("APP_NAME", "staffplan"),
			Env:       getEnv("APP_ENV", "development"),
			Port:      getEnvInt("APP_PORT", 7012),
			LogLevel:  getEnv("APP_LOG_LEVEL", "info"),
			LogFormat: getEnv("APP_LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvBool("DB_ENABLED", false),
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "staffplan"),
			User:            getEnv("DB_USER", "staffplan"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			Path:            getEnv("DB_PATH", "staffplan.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		API: APIConfig{
			Timeout:      getEnvDuration("API_TIMEOUT", 30*time.Second),
			MaxBodyBytes: int64(getEnvInt("API_MAX_BODY_BYTES", 8<<20)),
			RateLimit:    getEnvInt("API_RATE_LIMIT", 120),
			RateWindow:   getEnvDuration("API_RATE_WINDOW", time.Minute),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: getEnvList("API_CORS_ORIGINS", []string{"*"}),
			},
		},
		Scheduler: SchedulerConfig{
			DefaultTimeout:     getEnvDuration("SCHEDULER_TIMEOUT", 30*time.Second),
			OptimizationLevel:  getEnv("SCHEDULER_OPTIMIZATION_LEVEL", "standard"),
			MaxHoursPerWeek:    getEnvFloat("SCHEDULER_MAX_HOURS_PER_WEEK", 40),
			MinRestHours:       getEnvFloat("SCHEDULER_MIN_REST_HOURS", 11),
			MaxConsecutiveDays: getEnvInt("SCHEDULER_MAX_CONSECUTIVE_DAYS", 6),
			DefaultSkillLevel:  getEnvFloat("SCHEDULER_DEFAULT_SKILL_LEVEL", 3),
			FairnessBaseline:   getEnvFloat("SCHEDULER_FAIRNESS_BASELINE", 0),
			EnableFairness:     getEnvBool("SCHEDULER_ENABLE_FAIRNESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	switch c.Scheduler.OptimizationLevel {
	case "basic", "standard", "advanced":
	default:
		return fmt.Errorf("优化级别无效: %s", c.Scheduler.OptimizationLevel)
	}
	if c.Scheduler.MaxHoursPerWeek <= 0 || c.Scheduler.MinRestHours < 0 || c.Scheduler.MaxConsecutiveDays <= 0 {
		return fmt.Errorf("排班策略参数无效")
	}
	return nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// 未指定文件时尝试加载当前目录的 .env，不存在则忽略
func loadDotenv(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			return godotenv.Load()
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("加载环境文件失败: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
