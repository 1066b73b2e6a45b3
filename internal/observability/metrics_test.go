package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestTrackUpstream(t *testing.T) {
	okBefore := testutil.ToFloat64(UpstreamRequests.WithLabelValues("metrics_test", "success"))
	errBefore := testutil.ToFloat64(UpstreamRequests.WithLabelValues("metrics_test", "error"))

	TrackUpstream("metrics_test")(nil)
	TrackUpstream("metrics_test")(errors.New("boom"))
	TrackUpstream("metrics_test")(errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(UpstreamRequests.WithLabelValues("metrics_test", "success")))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(UpstreamRequests.WithLabelValues("metrics_test", "error")))
}

func TestRecordRedisError_IgnoresNil(t *testing.T) {
	before := testutil.ToFloat64(RedisErrors.WithLabelValues("get"))

	RecordRedisError("get", redis.Nil)
	RecordRedisError("get", nil)
	assert.Equal(t, before, testutil.ToFloat64(RedisErrors.WithLabelValues("get")))

	RecordRedisError("get", errors.New("connection refused"))
	assert.Equal(t, before+1, testutil.ToFloat64(RedisErrors.WithLabelValues("get")))
}
