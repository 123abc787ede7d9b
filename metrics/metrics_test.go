package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRefreshDuration(t *testing.T) {
	start := time.Now().Add(-100 * time.Millisecond)

	RecordRefreshDuration("test-lib", start)

	// The histogram is recorded successfully if we get here
}

func TestPathsProcessed_Counter(t *testing.T) {
	PathsProcessed.WithLabelValues("test-lib", "added").Inc()
	PathsProcessed.WithLabelValues("test-lib", "skipped").Inc()
	PathsProcessed.WithLabelValues("test-lib", "failed").Inc()

	added := testutil.ToFloat64(PathsProcessed.WithLabelValues("test-lib", "added"))
	assert.GreaterOrEqual(t, added, float64(1))

	skipped := testutil.ToFloat64(PathsProcessed.WithLabelValues("test-lib", "skipped"))
	assert.GreaterOrEqual(t, skipped, float64(1))

	failed := testutil.ToFloat64(PathsProcessed.WithLabelValues("test-lib", "failed"))
	assert.GreaterOrEqual(t, failed, float64(1))
}

func TestGauges_Exist(t *testing.T) {
	GamesTotal.Set(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(GamesTotal))

	LibrariesTotal.Set(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(LibrariesTotal))

	GenresTotal.Set(5)
	assert.Equal(t, float64(5), testutil.ToFloat64(GenresTotal))
}
