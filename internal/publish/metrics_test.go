package publish

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeRun(StateDone)
		m.observeFormat(FormatEPUB, true, time.Second)
		m.observeISBN("epub", false)
	})
}

func TestMetrics_Labels(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.observeRun(StatePartialFailure)
	m.observeRun(StatePartialFailure)
	m.observeISBN("print", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.exports.WithLabelValues("partial_failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.exports.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.isbns.WithLabelValues("print", "failure")))
}

func TestFailureSummary(t *testing.T) {
	got := failureSummary([]FormatOutcome{
		{Format: FormatEPUB, Success: true},
		{Format: FormatKDP, ErrorCode: "UNSUPPORTED_TRIM_SIZE"},
		{Format: FormatLulu, ErrorCode: "CANCELLED"},
	})
	assert.Equal(t, "kdp_pdf: UNSUPPORTED_TRIM_SIZE; lulu_pdf: CANCELLED", got)
	assert.Empty(t, failureSummary(nil))
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StatePartialFailure.Terminal())
	assert.False(t, StateGeneratingFormats.Terminal())
}
