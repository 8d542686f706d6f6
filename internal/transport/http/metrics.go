package httptransport

import "expvar"

var (
	metricSessionOpenTotal  = expvar.NewInt("http_session_open_total")
	metricSessionOpenErrors = expvar.NewInt("http_session_open_errors_total")

	metricJoinTotal  = expvar.NewInt("http_join_total")
	metricJoinErrors = expvar.NewInt("http_join_errors_total")

	metricClickSubmitTotal   = expvar.NewInt("http_click_submit_total")
	metricClickSubmitErrors  = expvar.NewInt("http_click_submit_errors_total")
	metricClickRateLimited   = expvar.NewInt("http_click_rate_limited_total")
	metricStreamConnectTotal = expvar.NewInt("http_stream_connect_total")
)
