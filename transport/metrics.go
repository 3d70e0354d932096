package transport

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/anirudhraja/orderwire"
)

// Metrics holds the Prometheus collectors of an order book server.
type Metrics struct {
	// RequestsTotal counts finished calls by method and status code.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration observes handler latency by method.
	RequestDuration *prometheus.HistogramVec
	// PayloadBytes observes encoded message sizes by direction and type.
	PayloadBytes *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderwire",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Total gRPC requests",
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orderwire",
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "gRPC request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		PayloadBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orderwire",
			Subsystem: "codec",
			Name:      "payload_bytes",
			Help:      "Encoded message size in bytes",
			Buckets:   []float64{8, 32, 128, 512, 2048, 8192, 32768},
		}, []string{"direction", "type"}),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.PayloadBytes)
	}
	return m
}

// UnaryServerInterceptor counts and times every unary call.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.RequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

func (m *Metrics) observePayload(direction string, t orderwire.MessageType, size int) {
	if m == nil {
		return
	}
	m.PayloadBytes.WithLabelValues(direction, t.String()).Observe(float64(size))
}
