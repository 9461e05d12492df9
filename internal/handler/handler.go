// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/paiban/staffplan/internal/config"
	"github.com/paiban/staffplan/internal/repository"
	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/logger"
	"github.com/paiban/staffplan/pkg/scheduler"
	"github.com/paiban/staffplan/pkg/scheduler/constraint"
	"github.com/paiban/staffplan/pkg/scheduler/constraint/builtin"
	"github.com/paiban/staffplan/pkg/shiftgen"
	"github.com/paiban/staffplan/pkg/validator"
)

// Handler 排班服务处理器，store 为空时仅提供无状态接口
type Handler struct {
	engineOpts []scheduler.Option
	engine     *scheduler.Engine
	policy     constraint.Policy
	filter     *constraint.Filter
	timeout    time.Duration
	store      *repository.Store
}

// NewHandler 根据配置创建处理器
func NewHandler(cfg *config.SchedulerConfig, store *repository.Store) *Handler {
	policy := constraint.DefaultPolicy()
	level := shiftgen.LevelStandard
	timeout := 30 * time.Second
	if cfg != nil {
		policy = constraint.Policy{
			MaxHoursPerWeek:    cfg.MaxHoursPerWeek,
			MinRestHours:       cfg.MinRestHours,
			MaxConsecutiveDays: cfg.MaxConsecutiveDays,
			DefaultSkillLevel:  cfg.DefaultSkillLevel,
			EnableFairness:     cfg.EnableFairness,
			FairnessBaseline:   cfg.FairnessBaseline,
		}
		if l, err := shiftgen.ParseLevel(cfg.OptimizationLevel); err == nil {
			level = l
		}
		if cfg.DefaultTimeout > 0 {
			timeout = cfg.DefaultTimeout
		}
	}

	filter := builtin.NewDefaultFilter()
	opts := []scheduler.Option{
		scheduler.WithPolicy(policy),
		scheduler.WithDefaultLevel(level),
		scheduler.WithFilter(filter),
	}
	return &Handler{
		engineOpts: opts,
		engine:     scheduler.NewEngine(opts...),
		policy:     policy,
		filter:     filter,
		timeout:    timeout,
		store:      store,
	}
}

// engineWith 在默认选项之上追加选项，用于写入仓储
func (h *Handler) engineWith(extra ...scheduler.Option) *scheduler.Engine {
	opts := make([]scheduler.Option, 0, len(h.engineOpts)+len(extra))
	opts = append(opts, h.engineOpts...)
	opts = append(opts, extra...)
	return scheduler.NewEngine(opts...)
}

// detectorConfig 与生成策略一致的冲突检测配置
func (h *Handler) detectorConfig() *validator.DetectorConfig {
	return &validator.DetectorConfig{
		MinRestHours:       h.policy.MinRestHours,
		MaxHoursPerWeek:    h.policy.MaxHoursPerWeek,
		MaxConsecutiveDays: h.policy.MaxConsecutiveDays,
	}
}

// withTimeout 请求指定的超时秒数优先，否则使用默认值
func (h *Handler) withTimeout(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	timeout := h.timeout
	if seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (h *Handler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, errors.New(errors.CodeInternal, "未启用数据库，该接口不可用"))
		return false
	}
	return true
}

// decodeJSON 解析请求体
func decodeJSON(r *http.Request, v interface{}) *errors.AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败").WithDetails(err.Error())
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应，非 AppError 视为内部错误
func respondError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Wrap(err, errors.GetCode(err), "请求处理失败")
		if appErr.Code == errors.CodeUnknown {
			appErr.Code = errors.CodeInternal
		}
		appErr.HTTPStatus = errors.GetHTTPStatus(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", string(appErr.Code)).Msg("请求处理失败")
	}

	body := map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	respondJSON(w, appErr.HTTPStatus, body)
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename))
}
