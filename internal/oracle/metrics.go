package oracle

import "expvar"

var metricOracleFallbackTotal = expvar.NewInt("oracle_fallback_total")
