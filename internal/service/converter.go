package service

import (
	"Vigia/internal/api/dto"
	"Vigia/internal/model"
	"Vigia/internal/pkg/event"
	"Vigia/internal/repository"
	"errors"
	"fmt"
)

func toCompetitorDTO(c *model.Competitor) *dto.CompetitorDTO {
	if c == nil {
		return nil
	}
	return &dto.CompetitorDTO{
		ID:        c.ID,
		Name:      c.Name,
		Website:   c.Website,
		YoutubeID: c.YoutubeID,
		Instagram: c.Instagram,
		Facebook:  c.Facebook,
		CreatedAt: c.CreatedAt,
	}
}

func toMetricDTO(m *model.CompetitorMetric) *dto.MetricDTO {
	if m == nil {
		return nil
	}
	return &dto.MetricDTO{
		ID:           m.ID,
		CompetitorID: m.CompetitorID,
		Subscribers:  m.Subscribers,
		Views:        m.Views,
		Videos:       m.Videos,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toChangeDTO(t event.ChangeToken) dto.ChangeDTO {
	return dto.ChangeDTO{Collection: t.Collection, Version: t.Version}
}

// storeError 把仓储层错误转换为业务错误，未知错误视为存储不可用
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicateYoutubeID):
		return ErrCompetitorDuplicate
	case errors.Is(err, repository.ErrCompetitorNameRequired),
		errors.Is(err, repository.ErrNegativeCount):
		return ErrParamInvalid
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
