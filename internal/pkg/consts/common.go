package consts

const (
	CollectionCompetitors       = "competitors"
	CollectionCompetitorMetrics = "competitor_metrics"
)

const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

const (
	// ChartDateLayout 图表横轴的时间格式 dd/MM/yyyy HH:mm
	ChartDateLayout = "02/01/2006 15:04"
	// MaxHistoryDays 图表最多查询的天数
	MaxHistoryDays = 365
)
