package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector counts requests, error responses and WebSocket streams.
type MetricsCollector struct {
	requests      atomic.Int64
	errors        atomic.Int64
	streamsOpened atomic.Int64
	streamsActive atomic.Int64
}

type MetricsSnapshot struct {
	Requests      int64 `json:"request_count"`
	Errors        int64 `json:"error_count"`
	StreamsOpened int64 `json:"streams_opened"`
	StreamsActive int64 `json:"streams_active"`
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:      mc.requests.Load(),
		Errors:        mc.errors.Load(),
		StreamsOpened: mc.streamsOpened.Load(),
		StreamsActive: mc.streamsActive.Load(),
	}
}

// StreamOpened marks a WebSocket stream as live. The returned func closes it.
func (mc *MetricsCollector) StreamOpened() func() {
	mc.streamsOpened.Add(1)
	mc.streamsActive.Add(1)
	return func() { mc.streamsActive.Add(-1) }
}

func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requests.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 400 {
			mc.errors.Add(1)
		}
	})
}
