package repository

import (
	"Vigia/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNegativeCount = errors.New("metric counts must not be negative")

type CompetitorMetricRepo interface {
	AppendSnapshot(ctx context.Context, competitorID uint64, counts model.Counts, at time.Time) (*model.CompetitorMetric, error)
	Latest(ctx context.Context, competitorID uint64) (*model.CompetitorMetric, error)
	History(ctx context.Context, competitorID uint64, since *time.Time) ([]*model.CompetitorMetric, error)
	DeleteAllFor(ctx context.Context, competitorID uint64) error
}

type competitorMetricRepoImpl struct {
	db *gorm.DB
}

func NewCompetitorMetricRepo(db *gorm.DB) CompetitorMetricRepo {
	return &competitorMetricRepoImpl{db: db}
}

// AppendSnapshot 每次刷新都插入新行，形成历史；at 为零值时取当前时间
func (r *competitorMetricRepoImpl) AppendSnapshot(ctx context.Context, competitorID uint64, counts model.Counts, at time.Time) (*model.CompetitorMetric, error) {
	for _, v := range []*int64{counts.Subscribers, counts.Views, counts.Videos} {
		if v != nil && *v < 0 {
			return nil, ErrNegativeCount
		}
	}
	if at.IsZero() {
		at = time.Now()
	}
	metric := &model.CompetitorMetric{
		CompetitorID: competitorID,
		Subscribers:  counts.Subscribers,
		Views:        counts.Views,
		Videos:       counts.Videos,
		UpdatedAt:    at.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(metric).Error; err != nil {
		return nil, err
	}
	return metric, nil
}

// Latest 最近一条快照，没有时返回 nil, nil
func (r *competitorMetricRepoImpl) Latest(ctx context.Context, competitorID uint64) (*model.CompetitorMetric, error) {
	var metric model.CompetitorMetric
	err := r.db.WithContext(ctx).
		Where("competitor_id = ?", competitorID).
		Order("updated_at DESC").
		Order("id DESC").
		First(&metric).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &metric, nil
}

// History 按时间升序返回快照，since 为空时返回全部
func (r *competitorMetricRepoImpl) History(ctx context.Context, competitorID uint64, since *time.Time) ([]*model.CompetitorMetric, error) {
	metrics := make([]*model.CompetitorMetric, 0)
	query := r.db.WithContext(ctx).Where("competitor_id = ?", competitorID)
	if since != nil {
		query = query.Where("updated_at >= ?", since.UTC())
	}
	result := query.
		Order("updated_at ASC").
		Order("id ASC").
		Find(&metrics)
	if result.Error != nil {
		return nil, result.Error
	}
	return metrics, nil
}

func (r *competitorMetricRepoImpl) DeleteAllFor(ctx context.Context, competitorID uint64) error {
	return r.db.WithContext(ctx).
		Where("competitor_id = ?", competitorID).
		Delete(&model.CompetitorMetric{}).Error
}
