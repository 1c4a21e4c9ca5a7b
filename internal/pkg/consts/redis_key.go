package consts

const (
	CompetitorListKey           = "competitor:list"
	CompetitorVersionKey        = "competitor:collection:version"
	CompetitorMetricsVersionKey = "competitor:metrics:version"
	CompetitorMetricsLatestKey  = "competitor:metrics:latest:"
	CompetitorMetricsHistory    = "competitor:metrics:history:"
)

const (
	CompetitorEventsChannel = "competitor:events"
)
