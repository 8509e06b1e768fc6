package monitor

// Event bus topics.
const (
	// One message per due discovery cycle.
	TopicRunTick = "viralmux.run.tick"

	// One serialized RunReport per finished cycle.
	TopicRunReport = "viralmux.run.report"
)

// Statsd metric names.
const (
	DdogRunCounter    = "viralmux.runs"
	DdogSavedCounter  = "viralmux.stories.saved"
	DdogDedupCounter  = "viralmux.stories.deduped"
	DdogFilterCounter = "viralmux.stories.filtered"
	DdogQueryFailures = "viralmux.query.failures"
)
