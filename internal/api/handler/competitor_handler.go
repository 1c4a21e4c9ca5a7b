package handler

import (
	"Vigia/internal/api/dto"
	"Vigia/internal/pkg/response"
	"Vigia/internal/pkg/util"
	"Vigia/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CompetitorHandler struct {
	competitorSvc service.CompetitorService
}

func NewCompetitorHandler(competitorSvc service.CompetitorService) *CompetitorHandler {
	return &CompetitorHandler{
		competitorSvc: competitorSvc,
	}
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, service.ErrParamInvalid)
		return 0, false
	}
	return id, true
}

func (s *CompetitorHandler) ListCompetitors(c *gin.Context) {
	list, err := s.competitorSvc.ListCompetitors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// AddCompetitor 采集失败时仍返回成功，message 为提示语，enriched=false
func (s *CompetitorHandler) AddCompetitor(c *gin.Context) {
	var req dto.AddCompetitorDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.competitorSvc.AddCompetitor(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := &dto.AddCompetitorRespDTO{
		Competitor: res.Competitor,
		Enriched:   res.Warning == nil && res.Competitor.YoutubeID != nil,
		Metrics:    res.Snapshot,
		Change:     dto.ChangeDTO{Collection: res.Change.Collection, Version: res.Change.Version},
	}
	if res.Warning != nil {
		resp.Warning = service.WarnEnrichmentFailed
		response.SuccessWithMessage(c, service.WarnEnrichmentFailed, resp)
		return
	}
	response.Success(c, resp)
}

func (s *CompetitorHandler) GetVersion(c *gin.Context) {
	token, err := s.competitorSvc.CollectionVersion(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := s.competitorSvc.CountCompetitors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.CollectionStateDTO{Collection: token.Collection, Version: token.Version, Total: total})
}

func (s *CompetitorHandler) GetCompetitor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	competitor, err := s.competitorSvc.GetCompetitor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, competitor)
}

func (s *CompetitorHandler) UpdateCompetitor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateCompetitorDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.competitorSvc.UpdateCompetitor(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *CompetitorHandler) DeleteCompetitor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := s.competitorSvc.DeleteCompetitor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *CompetitorHandler) DeleteCompetitors(c *gin.Context) {
	var req dto.DeleteCompetitorsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.competitorSvc.DeleteCompetitors(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *CompetitorHandler) RefreshMetrics(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := s.competitorSvc.RefreshMetrics(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
