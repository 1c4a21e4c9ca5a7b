package model

import "time"

// Competitor 被监控的竞争对手
type Competitor struct {
	ID        uint64             `gorm:"primaryKey" json:"id"`
	Name      string             `gorm:"type:varchar(255);not null" json:"name"`
	Website   *string            `gorm:"type:varchar(255)" json:"website"`
	YoutubeID *string            `gorm:"type:varchar(64);uniqueIndex:idx_competitor_youtube_id" json:"youtube_id"`
	Instagram *string            `gorm:"type:varchar(255)" json:"instagram"`
	Facebook  *string            `gorm:"type:varchar(255)" json:"facebook"`
	CreatedAt time.Time          `gorm:"autoCreateTime;<-:create" json:"created_at"`
	Metrics   []CompetitorMetric `gorm:"foreignKey:CompetitorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Competitor) TableName() string {
	return "competitors"
}

// HasYoutubeID 是否绑定了 YouTube 频道
func (c *Competitor) HasYoutubeID() bool {
	return c.YoutubeID != nil && *c.YoutubeID != ""
}

// YoutubeChannel 返回频道 ID，未绑定时为空串
func (c *Competitor) YoutubeChannel() string {
	if c.YoutubeID == nil {
		return ""
	}
	return *c.YoutubeID
}
