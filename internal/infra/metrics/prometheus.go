package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline and HTTP collectors on a private registry so
// that several instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	FramesCaptured prometheus.Counter
	FramesDropped  prometheus.Counter
	QueueSize      prometheus.Gauge

	Transcriptions        *prometheus.CounterVec
	TranscriptionDuration prometheus.Histogram

	Replies       *prometheus.CounterVec
	ReplyDuration *prometheus.HistogramVec

	EnginesReady *prometheus.GaugeVec

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FramesCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "flyvoice_frames_captured_total",
			Help: "Audio frames queued while recording",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "flyvoice_frames_dropped_total",
			Help: "Audio frames discarded while idle",
		}),
		QueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flyvoice_frame_queue_size",
			Help: "Frames waiting in the capture queue",
		}),

		Transcriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flyvoice_transcriptions_total",
			Help: "Transcription attempts by result",
		}, []string{"result"}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flyvoice_transcription_duration_seconds",
			Help:    "Time spent in the speech-to-text engine",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),

		Replies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flyvoice_replies_total",
			Help: "Reply generation attempts by engine and result",
		}, []string{"engine", "result"}),
		ReplyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flyvoice_reply_duration_seconds",
			Help:    "Time spent generating persona replies",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9), // 1ms to ~65s
		}, []string{"engine"}),

		EnginesReady: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flyvoice_engine_ready",
			Help: "1 when the engine for a role has loaded",
		}, []string{"role"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flyvoice_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flyvoice_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) FrameCaptured() { m.FramesCaptured.Inc() }
func (m *Metrics) FrameDropped()  { m.FramesDropped.Inc() }
func (m *Metrics) QueueDepth(n int) {
	m.QueueSize.Set(float64(n))
}

func (m *Metrics) TranscriptionDone(d time.Duration, err error) {
	m.Transcriptions.WithLabelValues(result(err)).Inc()
	m.TranscriptionDuration.Observe(d.Seconds())
}

func (m *Metrics) ReplyDone(engine string, d time.Duration, err error) {
	m.Replies.WithLabelValues(engine, result(err)).Inc()
	m.ReplyDuration.WithLabelValues(engine).Observe(d.Seconds())
}

func (m *Metrics) EngineReady(role string, ready bool) {
	v := 0.0
	if ready {
		v = 1
	}
	m.EnginesReady.WithLabelValues(role).Set(v)
}

// RecordHTTPRequest records one completed request. route is the mux pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
