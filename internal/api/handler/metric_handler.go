package handler

import (
	"Vigia/internal/api/dto"
	"Vigia/internal/pkg/response"
	"Vigia/internal/pkg/util"
	"Vigia/internal/service"

	"github.com/gin-gonic/gin"
)

type MetricHandler struct {
	metricSvc service.MetricService
}

func NewMetricHandler(metricSvc service.MetricService) *MetricHandler {
	return &MetricHandler{
		metricSvc: metricSvc,
	}
}

// GetLatest 没有快照时 data 为 null
func (h *MetricHandler) GetLatest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	metric, err := h.metricSvc.Latest(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, metric)
}

// GetHistory 图表数据，?days=30
func (h *MetricHandler) GetHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var query dto.MetricHistoryQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Error(c, err)
		return
	}

	series, err := h.metricSvc.Series(c.Request.Context(), id, query.Days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, series)
}

func (h *MetricHandler) RecordSnapshot(c *gin.Context) {
	var req dto.RecordSnapshotDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	metric, err := h.metricSvc.RecordSnapshot(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, metric)
}

func (h *MetricHandler) InitMetrics(c *gin.Context) {
	var req dto.InitMetricsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	metric, err := h.metricSvc.InitializeMetrics(c.Request.Context(), req.YoutubeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, metric)
}
