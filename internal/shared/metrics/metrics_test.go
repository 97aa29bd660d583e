package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	IncCVSaved()
	IncCVExport("pdf")
	IncLogin("ok")
	IncRateLimited("LOGIN")
	ObservePreviewRenderMs(3)

	out := Render()
	for _, want := range []string{
		"# TYPE cv_saved_total counter",
		"# TYPE cv_save_failed_total counter",
		"# TYPE cv_export_total counter",
		`cv_export_total{format="pdf"}`,
		`portal_login_total{result="ok"}`,
		`http_rate_limited_total{group="LOGIN"}`,
		"# TYPE preview_render_duration_ms histogram",
		`preview_render_duration_ms_bucket{le="5"}`,
		`preview_render_duration_ms_bucket{le="0.5"}`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{1, 5, 10})
	for _, v := range []float64{0.5, 1, 3, 7, 50} {
		h.Observe(v)
	}
	var buf bytes.Buffer
	h.write(&buf, "h", "test")

	want := strings.Join([]string{
		"# HELP h test",
		"# TYPE h histogram",
		`h_bucket{le="1"} 2`,
		`h_bucket{le="5"} 3`,
		`h_bucket{le="10"} 4`,
		`h_bucket{le="+Inf"} 5`,
		"h_sum 61.5",
		"h_count 5",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestCounterVecSortsLabels(t *testing.T) {
	v := newCounterVec("format")
	v.Inc("pdf")
	v.Inc("html")
	v.Inc("pdf")
	v.Inc("")

	var buf bytes.Buffer
	v.write(&buf, "exports", "by format")
	assert.Equal(t, "# HELP exports by format\n# TYPE exports counter\n"+
		"exports{format=\"html\"} 1\nexports{format=\"pdf\"} 2\nexports{format=\"unknown\"} 1\n", buf.String())
}
