package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOrder(t *testing.T) {
	m := New()

	m.RecordOrder("BUY", "LIMIT", "NEW")
	m.RecordOrder("BUY", "LIMIT", "NEW")
	m.RecordOrder("SELL", "MARKET", "FILLED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersTotal.WithLabelValues("BUY", "LIMIT", "NEW")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersTotal.WithLabelValues("SELL", "MARKET", "FILLED")))
}

func TestRecordOrderRejected(t *testing.T) {
	m := New()

	m.RecordOrderRejected("INSUFFICIENT_BALANCE")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersRejected.WithLabelValues("INSUFFICIENT_BALANCE")))
}

func TestRecordTrade(t *testing.T) {
	m := New()

	m.RecordTrade("BTC-USD", 100000000)
	m.RecordTrade("BTC-USD", 50000000)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tradesTotal))
	assert.Equal(t, 150000000.0, testutil.ToFloat64(m.tradeVolume.WithLabelValues("BTC-USD")))
}

func TestEngineConnectedGauge(t *testing.T) {
	m := New()

	m.SetEngineConnected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.engineConnected))

	m.SetEngineConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.engineConnected))
}

func TestSetBookDepth(t *testing.T) {
	m := New()

	m.SetBookDepth("ETH-USD", 4, 7)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.bookDepth.WithLabelValues("ETH-USD", "bids")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.bookDepth.WithLabelValues("ETH-USD", "asks")))
}

func TestLatencyHistograms(t *testing.T) {
	m := New()

	m.ObserveOrderLatency(3 * time.Millisecond)
	m.ObserveRequestLatency("POST", "orders", 12*time.Millisecond)
	m.ObserveRequestLatency("GET", "health", 1*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.orderLatency))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestLatency))
}

func TestHandler_TextExposition(t *testing.T) {
	m := New()
	m.SetEngineConnected(true)
	m.RecordOrder("BUY", "LIMIT", "NEW")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain; version=0.0.4")

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "engine_connected 1")
	assert.Contains(t, string(body), `orders_total{side="BUY",status="NEW",type="LIMIT"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
