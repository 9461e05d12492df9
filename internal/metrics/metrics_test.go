package metrics

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/staffplan/pkg/model"
)

func TestHistogram_Buckets(t *testing.T) {
	reg := NewRegistry()
	h := reg.NewHistogram("test_latency", "测试延迟", []string{"op"}, []float64{0.1, 1})
	h.Observe(0.0625, "a")
	h.Observe(0.5, "a")
	h.Observe(3, "a")

	var buf bytes.Buffer
	reg.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, `test_latency_bucket{op="a",le="0.1"} 1`)
	assert.Contains(t, out, `test_latency_bucket{op="a",le="1"} 2`)
	assert.Contains(t, out, `test_latency_bucket{op="a",le="+Inf"} 3`)
	assert.Contains(t, out, `test_latency_count{op="a"} 3`)
	assert.Contains(t, out, `test_latency_sum{op="a"} 3.5625`)
	assert.Equal(t, 3, h.Count("a"))
	assert.Equal(t, 0, h.Count("b"))
}

func TestRender_SortedAndUnlabelled(t *testing.T) {
	reg := &MetricsRegistry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
	reg.NewCounter("b_total", "B", nil).Inc()
	reg.NewCounter("a_total", "A", []string{"k"}).Add(2, "v")

	var buf bytes.Buffer
	reg.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, "b_total 1\n")
	assert.Contains(t, out, `a_total{k="v"} 2`)
	assert.Less(t, strings.Index(out, "a_total"), strings.Index(out, "b_total"))
}

func TestRecorders(t *testing.T) {
	reg := GetRegistry()

	before := reg.GetCounter(GenerationTotal).Value("fill_gaps", "success")
	RecordScheduleGeneration("standard", "fill_gaps", true, 20*time.Millisecond, 4)
	assert.Equal(t, before+1, reg.GetCounter(GenerationTotal).Value("fill_gaps", "success"))

	conflictsBefore := reg.GetCounter(ConflictsTotal).Value(string(model.ConflictUnderstaffedHour), string(model.SeverityMedium))
	RecordConflicts([]model.Conflict{
		{Type: model.ConflictUnderstaffedHour, Severity: model.SeverityMedium},
		{Type: model.ConflictUnderstaffedHour, Severity: model.SeverityMedium},
	})
	assert.Equal(t, conflictsBefore+2, reg.GetCounter(ConflictsTotal).Value(string(model.ConflictUnderstaffedHour), string(model.SeverityMedium)))

	SetCoverageRate("biz-1", 0.75)
	assert.Equal(t, 0.75, reg.GetGauge(CoverageRate).Value("biz-1"))

	RecordDraftMerge("priority", false)
	assert.GreaterOrEqual(t, reg.GetCounter(DraftMergesTotal).Value("priority", "failure"), 1.0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `staffplan_coverage_rate{business_id="biz-1"} 0.75`)
	assert.Contains(t, rec.Body.String(), "# TYPE staffplan_schedule_generation_duration_seconds histogram")
}
