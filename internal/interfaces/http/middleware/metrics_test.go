package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_DisabledPassesThrough(t *testing.T) {
	engine := gin.New()
	engine.Use(HTTPMetrics(nil))
	engine.GET("/journal-entries", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/journal-entries", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetricsWithMeter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	engine := gin.New()
	engine.Use(HTTPMetricsWithMeter(mp.Meter("http.server")))
	engine.POST("/documents/:kind/:id/approve", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error": "already approved"})
	})

	for i := 0; i < 2; i++ {
		w := serve(engine, httptest.NewRequest(http.MethodPost, "/documents/invoice/42/approve", nil))
		require.Equal(t, http.StatusConflict, w.Code)
	}
	serve(engine, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	rm := collectMetrics(t, reader)

	total := findMetric(rm, "http_server_request_total")
	require.NotNil(t, total)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byRoute := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attribute.Key("http.route"))
		byRoute[route.AsString()] += dp.Value
		if route.AsString() == "/documents/:kind/:id/approve" {
			status, _ := dp.Attributes.Value(attribute.Key("http.status_code"))
			assert.Equal(t, int64(http.StatusConflict), status.AsInt64())
			kind, _ := dp.Attributes.Value(attribute.Key("procurement.kind"))
			assert.Equal(t, "invoice", kind.AsString())
		}
	}
	assert.Equal(t, int64(2), byRoute["/documents/:kind/:id/approve"])
	assert.Equal(t, int64(1), byRoute["unknown"])

	duration := findMetric(rm, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)

	active := findMetric(rm, "http_server_active_requests")
	require.NotNil(t, active)
	inFlight, ok := active.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range inFlight.DataPoints {
		assert.Zero(t, dp.Value)
	}
}
