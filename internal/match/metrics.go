package match

import "expvar"

var (
	metricClicksTotal        = expvar.NewInt("match_clicks_total")
	metricClicksCorrectTotal = expvar.NewInt("match_clicks_correct_total")
	metricClicksStaleTotal   = expvar.NewInt("match_clicks_stale_total")
	metricClickErrorsTotal   = expvar.NewInt("match_click_errors_total")
	metricCASRetriesTotal    = expvar.NewInt("match_cas_retries_total")
	metricAgentClicksTotal   = expvar.NewInt("match_agent_clicks_total")
	metricAgentInvalidTotal  = expvar.NewInt("match_agent_invalid_decisions_total")

	metricBingoAwardsTotal   = expvar.NewInt("match_bingo_awards_total")
	metricBonusErrorsTotal   = expvar.NewInt("match_bingo_bonus_errors_total")
	metricQuestionsTotal     = expvar.NewInt("match_questions_total")
	metricSessionsRunning    = expvar.NewInt("match_sessions_running")
	metricSessionsCompleted  = expvar.NewInt("match_sessions_completed_total")
	metricLoopErrorsTotal    = expvar.NewInt("match_loop_errors_total")
	metricPublishErrorsTotal = expvar.NewInt("match_publish_errors_total")
)
