package dto

import "time"

// MetricDTO 指标快照
type MetricDTO struct {
	ID           uint64    `json:"id"`
	CompetitorID uint64    `json:"competitor_id"`
	Subscribers  *int64    `json:"subscribers"`
	Views        *int64    `json:"views"`
	Videos       *int64    `json:"videos"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MetricPointDTO 图表上的一个点，Date 为 dd/MM/yyyy HH:mm
type MetricPointDTO struct {
	Date  string `json:"date"`
	Value *int64 `json:"value"`
}

// MetricTrendDTO 三条曲线共用横轴
type MetricTrendDTO struct {
	CompetitorID uint64            `json:"competitor_id"`
	Days         int               `json:"days"` // 0 表示全部
	Subscribers  []*MetricPointDTO `json:"subscribers"`
	Views        []*MetricPointDTO `json:"views"`
	Videos       []*MetricPointDTO `json:"videos"`
}

// MetricHistoryQueryDTO days 为 0 时返回全部历史
type MetricHistoryQueryDTO struct {
	Days int `form:"days" validate:"min=0,max=365"`
}

// RecordSnapshotDTO 外部采集流程回写指标，competitor_id 与 youtube_id 二选一
type RecordSnapshotDTO struct {
	CompetitorID *uint64    `json:"competitor_id"`
	YoutubeID    *string    `json:"youtube_id" validate:"omitempty,max=64"`
	Subscribers  *int64     `json:"subscribers" validate:"omitempty,min=0"`
	Views        *int64     `json:"views" validate:"omitempty,min=0"`
	Videos       *int64     `json:"videos" validate:"omitempty,min=0"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// InitMetricsDTO 为频道写入一条零值快照
type InitMetricsDTO struct {
	YoutubeID string `json:"youtube_id" binding:"required" validate:"min=1,max=64"`
}

// RefreshRespDTO async=true 表示采集服务稍后回写
type RefreshRespDTO struct {
	Async        bool       `json:"async"`
	ChannelTitle string     `json:"channel_title,omitempty"`
	Metrics      *MetricDTO `json:"metrics,omitempty"`
}
