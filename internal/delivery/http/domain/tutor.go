package domain

var (
	TUTOR_EVENT_APPEND_SUCCESS       = "Berhasil mencatat event"
	TUTOR_EVENT_APPEND_FAILED        = "Gagal mencatat event"
	TUTOR_SESSION_EVENTS_SUCCESS     = "Berhasil mendapatkan event session"
	TUTOR_SESSION_EVENTS_FAILED      = "Gagal mendapatkan event session"
	TUTOR_ACTIVE_SESSION_SUCCESS     = "Berhasil mendapatkan session aktif"
	TUTOR_ACTIVE_SESSION_FAILED      = "Gagal mendapatkan session aktif"
	TUTOR_LADDER_STATE_SUCCESS       = "Berhasil mendapatkan state hint ladder"
	TUTOR_LADDER_STATE_FAILED        = "Gagal mendapatkan state hint ladder"
	TUTOR_COVERAGE_STATS_SUCCESS     = "Berhasil mendapatkan statistik coverage"
	TUTOR_COVERAGE_STATS_FAILED      = "Gagal mendapatkan statistik coverage"
	TUTOR_UPDATE_STRATEGY_SUCCESS    = "Berhasil mengganti strategy"
	TUTOR_UPDATE_STRATEGY_FAILED     = "Gagal mengganti strategy"
	TUTOR_REPLAY_SUCCESS             = "Berhasil replay decision trace"
	TUTOR_REPLAY_FAILED              = "Gagal replay decision trace"
	TUTOR_LEARNER_REPORT_SUCCESS     = "Berhasil generate report learner"
	TUTOR_LEARNER_REPORT_FAILED      = "Gagal generate report learner"
)
