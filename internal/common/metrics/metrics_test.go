package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrack(t *testing.T) {
	done := Track("report.test-track")
	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerJobsActive.WithLabelValues("report.test-track")))

	done()
	assert.Equal(t, float64(0), testutil.ToFloat64(WorkerJobsActive.WithLabelValues("report.test-track")))
	assert.Equal(t, 1, testutil.CollectAndCount(WorkerJobDuration, "worker_job_duration_seconds"))
}

func TestJobCounters(t *testing.T) {
	JobCompleted("report.test-counters")
	JobCompleted("report.test-counters")
	JobFailed("report.test-counters", "TEMPLATE_NOT_FOUND")

	assert.Equal(t, float64(2), testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("report.test-counters")))
	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("report.test-counters", "TEMPLATE_NOT_FOUND")))
}
