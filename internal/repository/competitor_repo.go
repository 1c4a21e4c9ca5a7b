package repository

import (
	"Vigia/internal/model"
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrCompetitorNameRequired = errors.New("competitor name is required")
	ErrDuplicateYoutubeID     = errors.New("duplicate youtube_id")
)

// competitorEditableColumns Update 时整体覆盖的列，created_at 不可修改
var competitorEditableColumns = []string{"name", "website", "youtube_id", "instagram", "facebook"}

type CompetitorRepo interface {
	Create(ctx context.Context, competitor *model.Competitor) error
	GetByID(ctx context.Context, id uint64) (*model.Competitor, error)
	List(ctx context.Context) ([]*model.Competitor, error)
	Each(ctx context.Context, batchSize int, fn func(batch []*model.Competitor) error) error
	FindByYoutubeID(ctx context.Context, youtubeID string) (*model.Competitor, error)
	Update(ctx context.Context, competitor *model.Competitor) error
	DeleteMany(ctx context.Context, ids []uint64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type competitorRepoImpl struct {
	db *gorm.DB
}

func NewCompetitorRepo(db *gorm.DB) CompetitorRepo {
	return &competitorRepoImpl{db: db}
}

// Create 新增竞争对手，youtube_id 唯一索引冲突返回 ErrDuplicateYoutubeID
func (s *competitorRepoImpl) Create(ctx context.Context, competitor *model.Competitor) error {
	normalize(competitor)
	if competitor.Name == "" {
		return ErrCompetitorNameRequired
	}
	err := s.db.WithContext(ctx).Omit("Metrics").Create(competitor).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateYoutubeID
	}
	return err
}

// GetByID 不存在时返回 nil, nil
func (s *competitorRepoImpl) GetByID(ctx context.Context, id uint64) (*model.Competitor, error) {
	var competitor model.Competitor
	err := s.db.WithContext(ctx).First(&competitor, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &competitor, nil
}

// List 按创建时间倒序
func (s *competitorRepoImpl) List(ctx context.Context) ([]*model.Competitor, error) {
	competitors := make([]*model.Competitor, 0)
	result := s.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Find(&competitors)
	if result.Error != nil {
		return nil, result.Error
	}
	return competitors, nil
}

// Each 分批遍历绑定了 YouTube 频道的竞争对手，每次调用都从头开始
func (s *competitorRepoImpl) Each(ctx context.Context, batchSize int, fn func(batch []*model.Competitor) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	var batch []*model.Competitor
	result := s.db.WithContext(ctx).
		Where("youtube_id IS NOT NULL AND youtube_id <> ''").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return result.Error
}

// FindByYoutubeID 用于查重，不存在时返回 nil, nil
func (s *competitorRepoImpl) FindByYoutubeID(ctx context.Context, youtubeID string) (*model.Competitor, error) {
	youtubeID = strings.TrimSpace(youtubeID)
	if youtubeID == "" {
		return nil, nil
	}
	var competitors []*model.Competitor
	err := s.db.WithContext(ctx).
		Where("youtube_id = ?", youtubeID).
		Order("id asc").
		Limit(1).
		Find(&competitors).Error
	if err != nil {
		return nil, err
	}
	if len(competitors) == 0 {
		return nil, nil
	}
	return competitors[0], nil
}

// Update 覆盖所有可编辑字段，包括空值
func (s *competitorRepoImpl) Update(ctx context.Context, competitor *model.Competitor) error {
	normalize(competitor)
	if competitor.Name == "" {
		return ErrCompetitorNameRequired
	}
	err := s.db.WithContext(ctx).
		Model(competitor).
		Select(competitorEditableColumns).
		Updates(competitor).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateYoutubeID
	}
	return err
}

// DeleteMany 同一事务内先删指标快照再删竞争对手，返回删除的竞争对手数量
func (s *competitorRepoImpl) DeleteMany(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("competitor_id IN ?", ids).Delete(&model.CompetitorMetric{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&model.Competitor{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *competitorRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.Competitor{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// normalize 去掉首尾空白，空字符串统一存为 NULL
func normalize(c *model.Competitor) {
	c.Name = strings.TrimSpace(c.Name)
	c.Website = nullIfBlank(c.Website)
	c.YoutubeID = nullIfBlank(c.YoutubeID)
	c.Instagram = nullIfBlank(c.Instagram)
	c.Facebook = nullIfBlank(c.Facebook)
}

func nullIfBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
