package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()

	m.ObserveRPC("/calbook.v1.SchedulingService/CheckSlot", "OK", 20*time.Millisecond)
	m.ObserveRPC("/calbook.v1.SchedulingService/CheckSlot", "OK", 10*time.Millisecond)
	m.ObserveBooking("booked")
	m.ObserveBooking("slot_unavailable")
	m.ObserveBooking("booked")
	m.ObserveFreeSlots(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcTotal.WithLabelValues("/calbook.v1.SchedulingService/CheckSlot", "OK")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings.WithLabelValues("booked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues("slot_unavailable")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveBooking("booked")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `calbook_bookings_total{outcome="booked"} 1`))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("x", "OK", time.Second)
	m.ObserveBooking("booked")
	m.ObserveFreeSlots(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{Enabled: false, ServiceName: "calbook"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
