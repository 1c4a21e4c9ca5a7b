package dto

import "time"

// CompetitorDTO 竞争对手
type CompetitorDTO struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	Website   *string    `json:"website"`
	YoutubeID *string    `json:"youtube_id"`
	Instagram *string    `json:"instagram"`
	Facebook  *string    `json:"facebook"`
	CreatedAt time.Time  `json:"created_at"`
	Latest    *MetricDTO `json:"latest_metrics,omitempty"`
}

// AddCompetitorDTO 新增竞争对手
type AddCompetitorDTO struct {
	Name      string  `json:"name" binding:"required" validate:"min=1,max=255"`
	YoutubeID *string `json:"youtube_id" validate:"omitempty,max=64"`
	Website   *string `json:"website" validate:"omitempty,max=255"`
	Instagram *string `json:"instagram" validate:"omitempty,max=255"`
	Facebook  *string `json:"facebook" validate:"omitempty,max=255"`
}

// UpdateCompetitorDTO 只有提交的字段会被修改，空串表示清空
type UpdateCompetitorDTO struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=255"`
	YoutubeID *string `json:"youtube_id" validate:"omitempty,max=64"`
	Website   *string `json:"website" validate:"omitempty,max=255"`
	Instagram *string `json:"instagram" validate:"omitempty,max=255"`
	Facebook  *string `json:"facebook" validate:"omitempty,max=255"`
}

// DeleteCompetitorsDTO 批量删除
type DeleteCompetitorsDTO struct {
	IDs []uint64 `json:"ids" binding:"required" validate:"min=1,max=500"`
}

// ChangeDTO 写操作返回的变更版本
type ChangeDTO struct {
	Collection string `json:"collection"`
	Version    int64  `json:"version"`
}

// CollectionStateDTO 前端轮询用，total 为看板上的竞争对手总数
type CollectionStateDTO struct {
	Collection string `json:"collection"`
	Version    int64  `json:"version"`
	Total      int64  `json:"total"`
}

// AddCompetitorRespDTO enriched=false 时 warning 说明指标采集失败，竞争对手已保存
type AddCompetitorRespDTO struct {
	Competitor *CompetitorDTO `json:"competitor"`
	Enriched   bool           `json:"enriched"`
	Warning    string         `json:"warning,omitempty"`
	Metrics    *MetricDTO     `json:"metrics,omitempty"`
	Change     ChangeDTO      `json:"change"`
}

// DeleteCompetitorsRespDTO 批量删除结果
type DeleteCompetitorsRespDTO struct {
	Deleted int64     `json:"deleted"`
	Change  ChangeDTO `json:"change"`
}

// UpdateCompetitorRespDTO 修改结果
type UpdateCompetitorRespDTO struct {
	Competitor *CompetitorDTO `json:"competitor"`
	Change     ChangeDTO      `json:"change"`
}
