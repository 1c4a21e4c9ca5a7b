package job

import (
	"Vigia/internal/model"
	"Vigia/internal/pkg/logger"
	"Vigia/internal/repository"
	"Vigia/internal/service"
	"context"
	log "log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	refreshBatchSize   = 50
	refreshConcurrency = 4
)

// MetricRefreshJob 定时为所有绑定频道的竞争对手触发一次采集
type MetricRefreshJob struct {
	competitorRepo repository.CompetitorRepo
	competitorSvc  service.CompetitorService
}

func NewMetricRefreshJob(competitorRepo repository.CompetitorRepo, competitorSvc service.CompetitorService) *MetricRefreshJob {
	return &MetricRefreshJob{
		competitorRepo: competitorRepo,
		competitorSvc:  competitorSvc,
	}
}

func (s *MetricRefreshJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-metric-"+uuid.NewString())
	s.RunOnce(ctx)
}

// RunOnce 单个竞争对手失败不影响其它，返回成功数与失败数
func (s *MetricRefreshJob) RunOnce(ctx context.Context) (succeeded, failed int64) {
	start := time.Now()
	var ok, bad atomic.Int64

	err := s.competitorRepo.Each(ctx, refreshBatchSize, func(batch []*model.Competitor) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(refreshConcurrency)
		for _, c := range batch {
			id := c.ID
			g.Go(func() error {
				if _, err := s.competitorSvc.RefreshMetrics(gctx, id); err != nil {
					log.WarnContext(gctx, "refresh competitor metrics error", "competitor_id", id, "err", err)
					bad.Add(1)
					return nil
				}
				ok.Add(1)
				return nil
			})
		}
		_ = g.Wait()
		return ctx.Err()
	})
	if err != nil {
		log.ErrorContext(ctx, "iterate competitors error", "err", err)
	}

	log.InfoContext(ctx, "refresh competitor metrics done",
		"succeeded", ok.Load(),
		"failed", bad.Load(),
		"cost", time.Since(start).String())
	return ok.Load(), bad.Load()
}
