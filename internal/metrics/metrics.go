package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// 消息方向标签
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// AppMetrics 网关业务指标
type AppMetrics struct {
	TCPAccepted      prometheus.Counter
	TCPRejected      *prometheus.CounterVec // labels: reason=limit|rate|breaker
	TCPBytesReceived prometheus.Counter

	FramesTotal     *prometheus.CounterVec // labels: result=ok|discard
	DiscardTotal    *prometheus.CounterVec // labels: kind
	MessageTotal    *prometheus.CounterVec // labels: type,direction
	ConnClosedTotal *prometheus.CounterVec // labels: reason

	OnlineGauge    prometheus.Gauge   // 当前在线终端数
	HeartbeatTotal prometheus.Counter // 心跳计数
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		TCPAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_accept_total",
			Help: "Total accepted TCP connections.",
		}),
		TCPRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tcp_reject_total",
			Help: "TCP connections rejected at accept.",
		}, []string{"reason"}),
		TCPBytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcp_bytes_received_total",
			Help: "Total bytes received over TCP.",
		}),
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jt808_frames_total",
			Help: "JT/T 808 frames by pipeline result.",
		}, []string{"result"}),
		DiscardTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jt808_discard_total",
			Help: "Discarded JT/T 808 frames by cause.",
		}, []string{"kind"}),
		MessageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jt808_message_total",
			Help: "Decoded and encoded JT/T 808 messages.",
		}, []string{"type", "direction"}),
		ConnClosedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jt808_conn_closed_total",
			Help: "Connections closed by the gateway.",
		}, []string{"reason"}),
		OnlineGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "session_online_count",
			Help: "Current number of online terminals.",
		}),
		HeartbeatTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_heartbeat_total",
			Help: "Total heartbeats observed.",
		}),
	}
	reg.MustRegister(
		m.TCPAccepted, m.TCPRejected, m.TCPBytesReceived,
		m.FramesTotal, m.DiscardTotal, m.MessageTotal, m.ConnClosedTotal,
		m.OnlineGauge, m.HeartbeatTotal,
	)
	return m
}
