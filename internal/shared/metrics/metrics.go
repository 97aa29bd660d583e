package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	cvSavedTotal      atomic.Uint64
	cvSaveFailedTotal atomic.Uint64

	cvExportTotal    = newCounterVec("format")
	loginTotal       = newCounterVec("result")
	rateLimitedTotal = newCounterVec("group")

	previewRenderDuration = newHistogram([]float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250})
)

// IncCVSaved counts a CV accepted by the backend.
func IncCVSaved() { cvSavedTotal.Add(1) }

// IncCVSaveFailed counts a submit that reached the backend and failed.
func IncCVSaveFailed() { cvSaveFailedTotal.Add(1) }

// IncCVExport counts a downloaded export artifact.
func IncCVExport(format string) { cvExportTotal.Inc(format) }

// IncLogin counts a sign-in attempt by outcome ("ok", "rejected", "error").
func IncLogin(result string) { loginTotal.Inc(result) }

// IncRateLimited counts a request refused by the rate limiter.
func IncRateLimited(group string) { rateLimitedTotal.Inc(group) }

// ObservePreviewRenderMs records how long a live preview took to render.
func ObservePreviewRenderMs(value float64) {
	previewRenderDuration.Observe(max(value, 0))
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "cv_saved_total", "Total CVs saved", cvSavedTotal.Load())
	writeCounter(&buf, "cv_save_failed_total", "Total CV saves rejected or failed", cvSaveFailedTotal.Load())
	cvExportTotal.write(&buf, "cv_export_total", "Total CV exports downloaded")
	loginTotal.write(&buf, "portal_login_total", "Sign-in attempts by outcome")
	rateLimitedTotal.write(&buf, "http_rate_limited_total", "Requests refused by the rate limiter")
	previewRenderDuration.write(&buf, "preview_render_duration_ms", "Live preview render duration in milliseconds")
	return buf.String()
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	writeHeader(buf, name, help, "counter")
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHeader(buf *bytes.Buffer, name, help, kind string) {
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

// counterVec is a counter with a single label.
type counterVec struct {
	label  string
	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec(label string) *counterVec {
	return &counterVec{label: label, values: map[string]uint64{}}
}

func (v *counterVec) Inc(value string) {
	if value == "" {
		value = "unknown"
	}
	v.mu.Lock()
	v.values[value]++
	v.mu.Unlock()
}

func (v *counterVec) write(buf *bytes.Buffer, name, help string) {
	v.mu.Lock()
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	counts := make([]uint64, len(keys))
	for i, k := range keys {
		counts[i] = v.values[k]
	}
	v.mu.Unlock()

	writeHeader(buf, name, help, "counter")
	for i, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%s} %d\n", name, v.label, strconv.Quote(k), counts[i])
	}
}

// histogram keeps per-bucket (non-cumulative) counts; write accumulates them.
type histogram struct {
	mu     sync.Mutex
	bounds []float64
	counts []uint64
	sum    float64
	total  uint64
}

func newHistogram(bounds []float64) *histogram {
	return &histogram{bounds: bounds, counts: make([]uint64, len(bounds))}
}

func (h *histogram) Observe(value float64) {
	i := sort.SearchFloat64s(h.bounds, value)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total++
	h.sum += value
	if i < len(h.counts) {
		h.counts[i]++
	}
}

func (h *histogram) write(buf *bytes.Buffer, name, help string) {
	h.mu.Lock()
	counts := append([]uint64(nil), h.counts...)
	sum, total := h.sum, h.total
	h.mu.Unlock()

	writeHeader(buf, name, help, "histogram")
	var cumulative uint64
	for i, bound := range h.bounds {
		cumulative += counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, total)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, total)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
