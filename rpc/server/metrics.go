package server

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/dRel/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// serverMetrics holds the request metrics of a server, exposed via the transport.
type serverMetrics struct {
	set *metrics.Set
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{set: metrics.NewSet()}
}

// observe records a handled request of type t that started at start.
func (m *serverMetrics) observe(shardId uint64, t common.MessageType, start time.Time, failed bool) {
	labels := fmt.Sprintf(`{shard="%d",type="%s"}`, shardId, t)
	m.set.GetOrCreateCounter("drel_requests_total" + labels).Inc()
	m.set.GetOrCreateHistogram("drel_request_duration_seconds" + labels).UpdateDuration(start)
	if failed {
		m.set.GetOrCreateCounter("drel_request_errors_total" + labels).Inc()
	}
}

// rejected records a request that could not be routed or decoded.
func (m *serverMetrics) rejected(reason string) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`drel_requests_rejected_total{reason="%s"}`, reason)).Inc()
}

// requests returns the number of handled requests of type t on a shard.
func (m *serverMetrics) requests(shardId uint64, t common.MessageType) uint64 {
	return m.set.GetOrCreateCounter(fmt.Sprintf(`drel_requests_total{shard="%d",type="%s"}`, shardId, t)).Get()
}

func (m *serverMetrics) write(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}
