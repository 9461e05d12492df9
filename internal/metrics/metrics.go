// Package metrics 提供Prometheus文本格式的监控指标
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/paiban/staffplan/pkg/model"
)

// 指标名称
const (
	HTTPRequestsTotal     = "staffplan_http_requests_total"
	HTTPRequestDuration   = "staffplan_http_request_duration_seconds"
	GenerationTotal       = "staffplan_schedule_generation_total"
	GenerationDuration    = "staffplan_schedule_generation_duration_seconds"
	GeneratedEntriesTotal = "staffplan_schedule_entries_total"
	ConflictsTotal        = "staffplan_schedule_conflicts_total"
	CoverageRate          = "staffplan_coverage_rate"
	FairnessGini          = "staffplan_fairness_gini"
	DraftMergesTotal      = "staffplan_draft_merges_total"
	DraftActivationsTotal = "staffplan_draft_activations_total"
	ExportsTotal          = "staffplan_exports_total"
)

const (
	labelSeparator = "\x1f"
	statusSuccess  = "success"
	statusFailure  = "failure"
)

// MetricsRegistry 指标注册表
type MetricsRegistry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *MetricsRegistry
	once     sync.Once
)

// NewRegistry 创建带默认指标的注册表
func NewRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
	r.registerDefaults()
	return r
}

// GetRegistry 获取全局注册表
func GetRegistry() *MetricsRegistry {
	once.Do(func() {
		registry = NewRegistry()
	})
	return registry
}

func (r *MetricsRegistry) registerDefaults() {
	r.NewCounter(HTTPRequestsTotal, "HTTP请求总数", []string{"method", "route", "status"})
	r.NewHistogram(HTTPRequestDuration, "HTTP请求延迟",
		[]string{"method", "route"},
		[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0})

	r.NewCounter(GenerationTotal, "排班生成次数", []string{"mode", "status"})
	r.NewHistogram(GenerationDuration, "排班生成延迟",
		[]string{"level"},
		[]float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0})
	r.NewCounter(GeneratedEntriesTotal, "生成的排班条数", []string{"mode"})
	r.NewCounter(ConflictsTotal, "检出的冲突数", []string{"type", "severity"})

	r.NewGauge(CoverageRate, "最近一次分析的平均覆盖率", []string{"business_id"})
	r.NewGauge(FairnessGini, "最近一次生成的工时基尼系数", []string{"business_id"})

	r.NewCounter(DraftMergesTotal, "草稿合并次数", []string{"strategy", "status"})
	r.NewCounter(DraftActivationsTotal, "草稿激活次数", []string{"status"})
	r.NewCounter(ExportsTotal, "排班导出次数", []string{"status"})
}

// NewCounter 创建计数器
func (r *MetricsRegistry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := &Counter{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.counters[name] = counter
	return counter
}

// NewGauge 创建仪表盘
func (r *MetricsRegistry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	gauge := &Gauge{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.gauges[name] = gauge
	return gauge
}

// NewHistogram 创建直方图
func (r *MetricsRegistry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	histogram := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = histogram
	return histogram
}

// GetCounter 获取计数器
func (r *MetricsRegistry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge 获取仪表盘
func (r *MetricsRegistry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram 获取直方图
func (r *MetricsRegistry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 增加计数
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 增加指定值
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Value 读取某组标签的当前值
func (c *Counter) Value(labelValues ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[labelKey(labelValues)]
}

// Set 设置值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Value 读取某组标签的当前值
func (g *Gauge) Value(labelValues ...string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[labelKey(labelValues)]
}

// Observe 记录观测值
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	if _, exists := h.counts[key]; !exists {
		h.counts[key] = make([]int, len(h.Buckets)+1)
	}
	for i, bucket := range h.Buckets {
		if value <= bucket {
			h.counts[key][i]++
			break
		}
	}
	h.counts[key][len(h.Buckets)]++ // 总数
	h.sums[key] += value
}

// Count 某组标签的观测次数
func (h *Histogram) Count(labelValues ...string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	counts, ok := h.counts[labelKey(labelValues)]
	if !ok {
		return 0
	}
	return counts[len(h.Buckets)]
}

func labelKey(labels []string) string {
	return strings.Join(labels, labelSeparator)
}

func splitLabelKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, labelSeparator)
}

// formatLabels 格式化标签，extra 追加在末尾（用于 le）
func formatLabels(names []string, key string, extra ...string) string {
	vals := splitLabelKey(key)
	parts := make([]string, 0, len(names)+1)
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	parts = append(parts, extra...)
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Render 以Prometheus文本格式输出全部指标，按名称排序
func (r *MetricsRegistry) Render(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.Name, c.Help, c.Name)
		c.mu.RLock()
		for _, key := range sortedKeys(c.values) {
			fmt.Fprintf(w, "%s%s %s\n", c.Name, formatLabels(c.Labels, key), formatFloat(c.values[key]))
		}
		c.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n", g.Name, g.Help, g.Name)
		g.mu.RLock()
		for _, key := range sortedKeys(g.values) {
			fmt.Fprintf(w, "%s%s %s\n", g.Name, formatLabels(g.Labels, key), formatFloat(g.values[key]))
		}
		g.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.histograms) {
		h := r.histograms[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.Name, h.Help, h.Name)
		h.mu.RLock()
		for _, key := range sortedKeys(h.counts) {
			counts := h.counts[key]
			cumulative := 0
			for i, bucket := range h.Buckets {
				cumulative += counts[i]
				le := fmt.Sprintf("le=%q", formatFloat(bucket))
				fmt.Fprintf(w, "%s_bucket%s %d\n", h.Name, formatLabels(h.Labels, key, le), cumulative)
			}
			total := counts[len(h.Buckets)]
			fmt.Fprintf(w, "%s_bucket%s %d\n", h.Name, formatLabels(h.Labels, key, `le="+Inf"`), total)
			fmt.Fprintf(w, "%s_sum%s %s\n", h.Name, formatLabels(h.Labels, key), formatFloat(h.sums[key]))
			fmt.Fprintf(w, "%s_count%s %d\n", h.Name, formatLabels(h.Labels, key), total)
		}
		h.mu.RUnlock()
	}
}

// Handler 返回Prometheus格式的指标HTTP处理器
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		GetRegistry().Render(w)
	})
}

// RecordRequestMetrics 记录请求指标，route 为路由模板以控制标签基数
func RecordRequestMetrics(method, route string, status int, duration time.Duration) {
	reg := GetRegistry()
	if c := reg.GetCounter(HTTPRequestsTotal); c != nil {
		c.Inc(method, route, strconv.Itoa(status))
	}
	if h := reg.GetHistogram(HTTPRequestDuration); h != nil {
		h.Observe(duration.Seconds(), method, route)
	}
}

// RecordScheduleGeneration 记录一次排班生成
func RecordScheduleGeneration(level, mode string, success bool, duration time.Duration, entries int) {
	reg := GetRegistry()
	status := statusSuccess
	if !success {
		status = statusFailure
	}
	if c := reg.GetCounter(GenerationTotal); c != nil {
		c.Inc(mode, status)
	}
	if h := reg.GetHistogram(GenerationDuration); h != nil {
		h.Observe(duration.Seconds(), level)
	}
	if c := reg.GetCounter(GeneratedEntriesTotal); c != nil && entries > 0 {
		c.Add(float64(entries), mode)
	}
}

// RecordConflicts 按类型与严重程度累计冲突
func RecordConflicts(conflicts []model.Conflict) {
	c := GetRegistry().GetCounter(ConflictsTotal)
	if c == nil {
		return
	}
	for _, cf := range conflicts {
		c.Inc(string(cf.Type), string(cf.Severity))
	}
}

// SetCoverageRate 设置覆盖率
func SetCoverageRate(businessID string, rate float64) {
	if g := GetRegistry().GetGauge(CoverageRate); g != nil {
		g.Set(rate, businessID)
	}
}

// SetFairnessGini 设置工时基尼系数
func SetFairnessGini(businessID string, gini float64) {
	if g := GetRegistry().GetGauge(FairnessGini); g != nil {
		g.Set(gini, businessID)
	}
}

// RecordDraftMerge 记录草稿合并
func RecordDraftMerge(strategy string, success bool) {
	if c := GetRegistry().GetCounter(DraftMergesTotal); c != nil {
		c.Inc(strategy, outcome(success))
	}
}

// RecordDraftActivation 记录草稿激活
func RecordDraftActivation(success bool) {
	if c := GetRegistry().GetCounter(DraftActivationsTotal); c != nil {
		c.Inc(outcome(success))
	}
}

// RecordExport 记录排班导出
func RecordExport(success bool) {
	if c := GetRegistry().GetCounter(ExportsTotal); c != nil {
		c.Inc(outcome(success))
	}
}

func outcome(success bool) string {
	if success {
		return statusSuccess
	}
	return statusFailure
}
