// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Config 日志配置
type Config struct {
	Level      string `json:"level"`
	Format     string `json:"format"` // json/console
	Output     string `json:"output"` // stdout/stderr/file/discard
	FilePath   string `json:"file_path,omitempty"`
	TimeFormat string `json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		output := openOutput(cfg)
		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

func openOutput(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	case "file":
		if cfg.FilePath == "" {
			return os.Stdout
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return os.Stdout
		}
		return f
	}
	return os.Stdout
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

type ctxKey string

// 上下文中的日志字段
const (
	RequestIDKey  ctxKey = "request_id"
	BusinessIDKey ctxKey = "business_id"
)

// ContextWith 向上下文写入日志字段
func ContextWith(ctx context.Context, key ctxKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	c := Get().With()
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		c = c.Str("request_id", reqID)
	}
	if bizID, ok := ctx.Value(BusinessIDKey).(string); ok {
		c = c.Str("business_id", bizID)
	}
	l := c.Logger()
	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// SchedulerLogger 排班引擎专用日志器
type SchedulerLogger struct {
	base *zerolog.Logger
}

// NewSchedulerLogger 创建排班引擎日志器
func NewSchedulerLogger() *SchedulerLogger {
	return NewSchedulerLoggerFrom(*Get())
}

// NewSchedulerLoggerFrom 基于指定日志器创建，测试中可传入 zerolog.Nop()
func NewSchedulerLoggerFrom(base zerolog.Logger) *SchedulerLogger {
	l := base.With().Str("component", "scheduler").Logger()
	return &SchedulerLogger{base: &l}
}

// Logger 返回底层日志器
func (l *SchedulerLogger) Logger() *zerolog.Logger {
	return l.base
}

// StartSchedule 记录排班开始
func (l *SchedulerLogger) StartSchedule(businessID string, employees, days int, level, mode string) {
	l.base.Info().
		Str("business_id", businessID).
		Int("employees", employees).
		Int("days", days).
		Str("optimization_level", level).
		Str("mode", mode).
		Msg("开始生成排班")
}

// DayGenerated 记录单日处理结果
func (l *SchedulerLogger) DayGenerated(date string, shifts, entries int) {
	l.base.Debug().
		Str("date", date).
		Int("shifts", shifts).
		Int("entries", entries).
		Msg("单日排班完成")
}

// DayClosed 记录休息日
func (l *SchedulerLogger) DayClosed(date, reason string) {
	l.base.Debug().
		Str("date", date).
		Str("reason", reason).
		Msg("当日不营业")
}

// ShiftUnderstaffed 记录班次人手不足
func (l *SchedulerLogger) ShiftUnderstaffed(date, shift string, required, assigned int) {
	l.base.Warn().
		Str("date", date).
		Str("shift", shift).
		Int("required", required).
		Int("assigned", assigned).
		Msg("班次人手不足")
}

// ChemistryForced 记录被迫安排的配合冲突
func (l *SchedulerLogger) ChemistryForced(date, shift, a, b string) {
	l.base.Warn().
		Str("date", date).
		Str("shift", shift).
		Str("employee_a", a).
		Str("employee_b", b).
		Msg("强制安排配合冲突的员工")
}

// EntryWriteFailed 记录排班写入失败
func (l *SchedulerLogger) EntryWriteFailed(date, employeeID string, err error) {
	l.base.Error().
		Err(err).
		Str("date", date).
		Str("employee_id", employeeID).
		Msg("排班记录写入失败")
}

// ScheduleComplete 记录排班完成
func (l *SchedulerLogger) ScheduleComplete(businessID string, duration time.Duration, entries, conflicts int, coverage float64) {
	l.base.Info().
		Str("business_id", businessID).
		Dur("duration", duration).
		Int("entries", entries).
		Int("conflicts", conflicts).
		Float64("coverage", coverage).
		Msg("排班生成完成")
}
