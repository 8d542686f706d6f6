package broadcast

import "expvar"

var (
	metricPublishedTotal     = expvar.NewInt("broadcast_published_total")
	metricPublishErrorsTotal = expvar.NewInt("broadcast_publish_errors_total")
	metricDroppedTotal       = expvar.NewInt("broadcast_dropped_total")

	metricSSEConnectionsActive = expvar.NewInt("broadcast_sse_connections_active")
	metricWSConnectionsActive  = expvar.NewInt("broadcast_ws_connections_active")
	metricRelayMessagesTotal   = expvar.NewInt("broadcast_relay_messages_total")
)
