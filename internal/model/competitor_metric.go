package model

import "time"

// CompetitorMetric 某一时刻的频道指标快照，只追加不修改
type CompetitorMetric struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	CompetitorID uint64    `gorm:"not null;index:idx_metric_competitor_time,priority:1" json:"competitor_id"`
	Subscribers  *int64    `gorm:"type:bigint" json:"subscribers"`
	Views        *int64    `gorm:"type:bigint" json:"views"`
	Videos       *int64    `gorm:"type:bigint" json:"videos"`
	UpdatedAt    time.Time `gorm:"not null;index:idx_metric_competitor_time,priority:2" json:"updated_at"`
}

func (CompetitorMetric) TableName() string {
	return "competitor_metrics"
}

// Counts 一次采集得到的计数，nil 表示未知
type Counts struct {
	Subscribers *int64 `json:"subscribers"`
	Views       *int64 `json:"views"`
	Videos      *int64 `json:"videos"`
}

// ZeroCounts 初始化用的零值快照
func ZeroCounts() Counts {
	var s, v, n int64
	return Counts{Subscribers: &s, Views: &v, Videos: &n}
}
