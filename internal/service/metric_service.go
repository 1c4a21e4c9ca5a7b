package service

import (
	"Vigia/internal/api/dto"
	"Vigia/internal/model"
	"Vigia/internal/pkg/consts"
	"Vigia/internal/pkg/event"
	"Vigia/internal/pkg/redis"
	"Vigia/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type MetricService interface {
	// Latest 最近一次快照，没有数据时返回 nil
	Latest(ctx context.Context, competitorID uint64) (*dto.MetricDTO, error)
	// History 最近 days 天的快照，按时间升序；days 为 0 返回全部
	History(ctx context.Context, competitorID uint64, days int) ([]*dto.MetricDTO, error)
	// Series 图表数据
	Series(ctx context.Context, competitorID uint64, days int) (*dto.MetricTrendDTO, error)
	// RecordSnapshot 外部采集流程回写
	RecordSnapshot(ctx context.Context, req *dto.RecordSnapshotDTO) (*dto.MetricDTO, error)
	// InitializeMetrics 按频道写入零值快照
	InitializeMetrics(ctx context.Context, youtubeID string) (*dto.MetricDTO, error)
	// InvalidateFor 清理缓存并广播指标变更
	InvalidateFor(ctx context.Context, competitorID uint64) error
}

type metricServiceImpl struct {
	competitorRepo repository.CompetitorRepo
	metricRepo     repository.CompetitorMetricRepo
	cache          redis.Cache
	notifier       *changeNotifier
	ttl            time.Duration
}

func NewMetricService(
	competitorRepo repository.CompetitorRepo,
	metricRepo repository.CompetitorMetricRepo,
	cache redis.Cache,
	bus event.Bus,
	ttl time.Duration,
) MetricService {
	return &metricServiceImpl{
		competitorRepo: competitorRepo,
		metricRepo:     metricRepo,
		cache:          cache,
		notifier:       newChangeNotifier(cache, bus),
		ttl:            ttl,
	}
}

func latestKey(competitorID uint64) string {
	return consts.CompetitorMetricsLatestKey + strconv.FormatUint(competitorID, 10)
}

func historyKey(competitorID uint64, days int) string {
	return consts.CompetitorMetricsHistory + strconv.FormatUint(competitorID, 10) + ":" + strconv.Itoa(days)
}

// dropMetricCache 删除某个竞争对手的全部指标缓存
func dropMetricCache(ctx context.Context, cache redis.Cache, competitorID uint64) error {
	if err := cache.Delete(ctx, latestKey(competitorID)); err != nil {
		return err
	}
	return cache.DeletePattern(ctx, consts.CompetitorMetricsHistory+strconv.FormatUint(competitorID, 10)+":*")
}

func (s *metricServiceImpl) Latest(ctx context.Context, competitorID uint64) (*dto.MetricDTO, error) {
	if err := s.ensureCompetitor(ctx, competitorID); err != nil {
		return nil, err
	}

	key := latestKey(competitorID)
	if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
		var res *dto.MetricDTO
		if json.Unmarshal([]byte(val), &res) == nil {
			return res, nil
		}
	}

	metric, err := s.metricRepo.Latest(ctx, competitorID)
	if err != nil {
		return nil, storeError(err)
	}
	res := toMetricDTO(metric)
	s.store(ctx, key, res)
	return res, nil
}

func (s *metricServiceImpl) History(ctx context.Context, competitorID uint64, days int) ([]*dto.MetricDTO, error) {
	if days < 0 || days > consts.MaxHistoryDays {
		return nil, ErrParamInvalid
	}
	if err := s.ensureCompetitor(ctx, competitorID); err != nil {
		return nil, err
	}

	key := historyKey(competitorID, days)
	if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
		var res []*dto.MetricDTO
		if json.Unmarshal([]byte(val), &res) == nil {
			return res, nil
		}
	}

	var since *time.Time
	if days > 0 {
		t := time.Now().AddDate(0, 0, -days)
		since = &t
	}
	metrics, err := s.metricRepo.History(ctx, competitorID, since)
	if err != nil {
		return nil, storeError(err)
	}

	res := make([]*dto.MetricDTO, 0, len(metrics))
	for _, m := range metrics {
		res = append(res, toMetricDTO(m))
	}
	s.store(ctx, key, res)
	return res, nil
}

func (s *metricServiceImpl) Series(ctx context.Context, competitorID uint64, days int) (*dto.MetricTrendDTO, error) {
	history, err := s.History(ctx, competitorID, days)
	if err != nil {
		return nil, err
	}

	res := &dto.MetricTrendDTO{
		CompetitorID: competitorID,
		Days:         days,
		Subscribers:  make([]*dto.MetricPointDTO, 0, len(history)),
		Views:        make([]*dto.MetricPointDTO, 0, len(history)),
		Videos:       make([]*dto.MetricPointDTO, 0, len(history)),
	}
	for _, m := range history {
		label := m.UpdatedAt.Local().Format(consts.ChartDateLayout)
		res.Subscribers = append(res.Subscribers, &dto.MetricPointDTO{Date: label, Value: m.Subscribers})
		res.Views = append(res.Views, &dto.MetricPointDTO{Date: label, Value: m.Views})
		res.Videos = append(res.Videos, &dto.MetricPointDTO{Date: label, Value: m.Videos})
	}
	return res, nil
}

func (s *metricServiceImpl) RecordSnapshot(ctx context.Context, req *dto.RecordSnapshotDTO) (*dto.MetricDTO, error) {
	var (
		competitor *model.Competitor
		err        error
	)
	switch {
	case req.CompetitorID != nil:
		competitor, err = s.competitorRepo.GetByID(ctx, *req.CompetitorID)
	case req.YoutubeID != nil && strings.TrimSpace(*req.YoutubeID) != "":
		competitor, err = s.competitorRepo.FindByYoutubeID(ctx, *req.YoutubeID)
	default:
		return nil, ErrParamInvalid
	}
	if err != nil {
		return nil, storeError(err)
	}
	if competitor == nil {
		return nil, ErrCompetitorNotFound
	}

	at := time.Now()
	if req.UpdatedAt != nil {
		at = *req.UpdatedAt
	}
	counts := model.Counts{Subscribers: req.Subscribers, Views: req.Views, Videos: req.Videos}
	return s.append(ctx, competitor.ID, counts, at)
}

func (s *metricServiceImpl) InitializeMetrics(ctx context.Context, youtubeID string) (*dto.MetricDTO, error) {
	if strings.TrimSpace(youtubeID) == "" {
		return nil, ErrParamInvalid
	}
	competitor, err := s.competitorRepo.FindByYoutubeID(ctx, youtubeID)
	if err != nil {
		return nil, storeError(err)
	}
	if competitor == nil {
		return nil, ErrCompetitorNotFound
	}
	return s.append(ctx, competitor.ID, model.ZeroCounts(), time.Now())
}

func (s *metricServiceImpl) InvalidateFor(ctx context.Context, competitorID uint64) error {
	if err := dropMetricCache(ctx, s.cache, competitorID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.notifier.notify(ctx, consts.CollectionCompetitorMetrics, consts.ChangeUpdated, []uint64{competitorID})
	return nil
}

func (s *metricServiceImpl) append(ctx context.Context, competitorID uint64, counts model.Counts, at time.Time) (*dto.MetricDTO, error) {
	metric, err := s.metricRepo.AppendSnapshot(ctx, competitorID, counts, at)
	if err != nil {
		return nil, storeError(err)
	}
	if err := dropMetricCache(ctx, s.cache, competitorID); err != nil {
		log.WarnContext(ctx, "drop metric cache failed", "competitor_id", competitorID, "err", err)
	}
	s.notifier.notify(ctx, consts.CollectionCompetitorMetrics, consts.ChangeCreated, []uint64{competitorID})
	return toMetricDTO(metric), nil
}

func (s *metricServiceImpl) ensureCompetitor(ctx context.Context, competitorID uint64) error {
	competitor, err := s.competitorRepo.GetByID(ctx, competitorID)
	if err != nil {
		return storeError(err)
	}
	if competitor == nil {
		return ErrCompetitorNotFound
	}
	return nil
}

// store 缓存写失败只记录日志
func (s *metricServiceImpl) store(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
		log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}
