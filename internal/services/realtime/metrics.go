package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesEmitted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "matzon_realtime_messages_emitted_total",
	Help: "Realtime frames queued for delivery to a socket.",
})

var messagesDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "matzon_realtime_messages_dropped_total",
	Help: "Realtime frames dropped because the socket was slow or closed.",
})

var connectedSockets = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "matzon_realtime_sockets",
	Help: "Open websocket connections on this instance.",
})

var throttledFrames = promauto.NewCounter(prometheus.CounterOpts{
	Name: "matzon_realtime_throttled_frames_total",
	Help: "Inbound frames rejected by the per-connection throttle.",
})
