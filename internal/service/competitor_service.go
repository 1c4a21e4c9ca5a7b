package service

import (
	"Vigia/internal/api/dto"
	"Vigia/internal/model"
	"Vigia/internal/pkg/consts"
	"Vigia/internal/pkg/enrichment"
	"Vigia/internal/pkg/event"
	"Vigia/internal/pkg/redis"
	"Vigia/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

// Stage 新增流程所处阶段
type Stage int

const (
	StageIdle Stage = iota
	StageCheckingDuplicate
	StageRejected
	StageInserting
	StageInserted
	StageNotifyingExternal
	StageNotifiedOrWarned
	StageDone
)

var stageNames = [...]string{
	"idle",
	"checking_duplicate",
	"rejected",
	"inserting",
	"inserted",
	"notifying_external",
	"notified_or_warned",
	"done",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// AddResult Warning 非空表示竞争对手已保存但指标采集失败
type AddResult struct {
	Competitor *dto.CompetitorDTO
	Snapshot   *dto.MetricDTO
	Warning    error
	Change     event.ChangeToken
	Stage      Stage
}

type CompetitorService interface {
	AddCompetitor(ctx context.Context, req *dto.AddCompetitorDTO) (*AddResult, error)
	GetCompetitor(ctx context.Context, id uint64) (*dto.CompetitorDTO, error)
	ListCompetitors(ctx context.Context) ([]*dto.CompetitorDTO, error)
	UpdateCompetitor(ctx context.Context, id uint64, req *dto.UpdateCompetitorDTO) (*dto.UpdateCompetitorRespDTO, error)
	DeleteCompetitors(ctx context.Context, ids []uint64) (*dto.DeleteCompetitorsRespDTO, error)
	DeleteCompetitor(ctx context.Context, id uint64) (*dto.DeleteCompetitorsRespDTO, error)
	// RefreshMetrics 手动触发一次采集，采集失败即返回错误
	RefreshMetrics(ctx context.Context, id uint64) (*dto.RefreshRespDTO, error)
	CollectionVersion(ctx context.Context) (event.ChangeToken, error)
	CountCompetitors(ctx context.Context) (int64, error)
}

type competitorServiceImpl struct {
	competitorRepo repository.CompetitorRepo
	metricRepo     repository.CompetitorMetricRepo
	gateway        enrichment.Gateway
	cache          redis.Cache
	notifier       *changeNotifier
	ttl            time.Duration
}

func NewCompetitorService(
	competitorRepo repository.CompetitorRepo,
	metricRepo repository.CompetitorMetricRepo,
	gateway enrichment.Gateway,
	cache redis.Cache,
	bus event.Bus,
	ttl time.Duration,
) CompetitorService {
	return &competitorServiceImpl{
		competitorRepo: competitorRepo,
		metricRepo:     metricRepo,
		gateway:        gateway,
		cache:          cache,
		notifier:       newChangeNotifier(cache, bus),
		ttl:            ttl,
	}
}

func (s *competitorServiceImpl) advance(ctx context.Context, res *AddResult, next Stage, args ...any) {
	log.InfoContext(ctx, "add competitor", append([]any{"from", res.Stage.String(), "to", next.String()}, args...)...)
	res.Stage = next
}

// AddCompetitor 查重 -> 入库 -> 通知采集服务；采集失败不影响入库结果
func (s *competitorServiceImpl) AddCompetitor(ctx context.Context, req *dto.AddCompetitorDTO) (*AddResult, error) {
	res := &AddResult{Stage: StageIdle}
	youtubeID := ""
	if req.YoutubeID != nil {
		youtubeID = strings.TrimSpace(*req.YoutubeID)
	}

	s.advance(ctx, res, StageCheckingDuplicate, "youtube_id", youtubeID)
	if youtubeID != "" {
		existing, err := s.competitorRepo.FindByYoutubeID(ctx, youtubeID)
		if err != nil {
			return nil, storeError(err)
		}
		if existing != nil {
			s.advance(ctx, res, StageRejected, "existing_id", existing.ID)
			return nil, ErrCompetitorDuplicate
		}
	}

	s.advance(ctx, res, StageInserting)
	competitor := &model.Competitor{
		Name:      req.Name,
		Website:   req.Website,
		YoutubeID: req.YoutubeID,
		Instagram: req.Instagram,
		Facebook:  req.Facebook,
	}
	if err := s.competitorRepo.Create(ctx, competitor); err != nil {
		// 并发新增时由唯一索引兜底
		return nil, storeError(err)
	}
	s.advance(ctx, res, StageInserted, "competitor_id", competitor.ID)
	res.Competitor = toCompetitorDTO(competitor)

	if competitor.HasYoutubeID() {
		s.advance(ctx, res, StageNotifyingExternal)
		result, err := s.gateway.Notify(ctx, competitor.YoutubeChannel())
		switch {
		case err != nil:
			log.WarnContext(ctx, "enrichment failed", "competitor_id", competitor.ID, "err", err)
			res.Warning = err
		case result.HasCounts():
			log.InfoContext(ctx, "enrichment returned metrics", "competitor_id", competitor.ID, "channel_title", result.ChannelTitle)
			snapshot, err := s.metricRepo.AppendSnapshot(ctx, competitor.ID, result.Counts, time.Now())
			if err != nil {
				log.WarnContext(ctx, "save inline metrics failed", "competitor_id", competitor.ID, "err", err)
				res.Warning = err
			} else {
				res.Snapshot = toMetricDTO(snapshot)
			}
		}
		s.advance(ctx, res, StageNotifiedOrWarned, "warned", res.Warning != nil)
	}

	s.dropListCache(ctx)
	res.Change = s.notifier.notify(ctx, consts.CollectionCompetitors, consts.ChangeCreated, []uint64{competitor.ID})
	s.advance(ctx, res, StageDone, "version", res.Change.Version)
	return res, nil
}

func (s *competitorServiceImpl) GetCompetitor(ctx context.Context, id uint64) (*dto.CompetitorDTO, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if competitor == nil {
		return nil, ErrCompetitorNotFound
	}

	res := toCompetitorDTO(competitor)
	latest, err := s.metricRepo.Latest(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	res.Latest = toMetricDTO(latest)
	return res, nil
}

func (s *competitorServiceImpl) ListCompetitors(ctx context.Context) ([]*dto.CompetitorDTO, error) {
	if val, err := s.cache.Get(ctx, consts.CompetitorListKey); err == nil && val != "" {
		var res []*dto.CompetitorDTO
		if json.Unmarshal([]byte(val), &res) == nil {
			return res, nil
		}
	}

	competitors, err := s.competitorRepo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	res := make([]*dto.CompetitorDTO, 0, len(competitors))
	for _, c := range competitors {
		res = append(res, toCompetitorDTO(c))
	}

	if payload, err := json.Marshal(res); err == nil {
		if err := s.cache.Set(ctx, consts.CompetitorListKey, string(payload), s.ttl); err != nil {
			log.WarnContext(ctx, "cache set failed", "key", consts.CompetitorListKey, "err", err)
		}
	}
	return res, nil
}

// UpdateCompetitor 只覆盖请求中出现的字段，随后整行写回
func (s *competitorServiceImpl) UpdateCompetitor(ctx context.Context, id uint64, req *dto.UpdateCompetitorDTO) (*dto.UpdateCompetitorRespDTO, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if competitor == nil {
		return nil, ErrCompetitorNotFound
	}

	if req.YoutubeID != nil {
		if youtubeID := strings.TrimSpace(*req.YoutubeID); youtubeID != "" {
			owner, err := s.competitorRepo.FindByYoutubeID(ctx, youtubeID)
			if err != nil {
				return nil, storeError(err)
			}
			if owner != nil && owner.ID != id {
				return nil, ErrCompetitorDuplicate
			}
		}
	}

	if err := copier.CopyWithOption(competitor, req, copier.Option{IgnoreEmpty: true}); err != nil {
		return nil, fmt.Errorf("%w: %v", UnExpectedError, err)
	}
	if err := s.competitorRepo.Update(ctx, competitor); err != nil {
		return nil, storeError(err)
	}

	s.dropListCache(ctx)
	token := s.notifier.notify(ctx, consts.CollectionCompetitors, consts.ChangeUpdated, []uint64{id})
	return &dto.UpdateCompetitorRespDTO{
		Competitor: toCompetitorDTO(competitor),
		Change:     toChangeDTO(token),
	}, nil
}

// DeleteCompetitors 不存在的 id 会被忽略
func (s *competitorServiceImpl) DeleteCompetitors(ctx context.Context, ids []uint64) (*dto.DeleteCompetitorsRespDTO, error) {
	if len(ids) == 0 {
		return nil, ErrParamInvalid
	}
	ids = uniqueIDs(ids)

	deleted, err := s.competitorRepo.DeleteMany(ctx, ids)
	if err != nil {
		return nil, storeError(err)
	}

	s.dropListCache(ctx)
	for _, id := range ids {
		if err := dropMetricCache(ctx, s.cache, id); err != nil {
			log.WarnContext(ctx, "drop metric cache failed", "competitor_id", id, "err", err)
		}
	}
	token := s.notifier.notify(ctx, consts.CollectionCompetitors, consts.ChangeDeleted, ids)
	log.InfoContext(ctx, "competitors deleted", "requested", len(ids), "deleted", deleted)
	return &dto.DeleteCompetitorsRespDTO{Deleted: deleted, Change: toChangeDTO(token)}, nil
}

func (s *competitorServiceImpl) DeleteCompetitor(ctx context.Context, id uint64) (*dto.DeleteCompetitorsRespDTO, error) {
	res, err := s.DeleteCompetitors(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if res.Deleted == 0 {
		return nil, ErrCompetitorNotFound
	}
	return res, nil
}

func (s *competitorServiceImpl) RefreshMetrics(ctx context.Context, id uint64) (*dto.RefreshRespDTO, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if competitor == nil {
		return nil, ErrCompetitorNotFound
	}
	if !competitor.HasYoutubeID() {
		return nil, ErrCompetitorNoChannel
	}

	result, err := s.gateway.Notify(ctx, competitor.YoutubeChannel())
	if err != nil {
		log.WarnContext(ctx, "refresh metrics failed", "competitor_id", id, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	log.InfoContext(ctx, "refresh metrics notified", "competitor_id", id, "channel_title", result.ChannelTitle, "async", !result.HasCounts())
	if !result.HasCounts() {
		return &dto.RefreshRespDTO{Async: true, ChannelTitle: result.ChannelTitle}, nil
	}

	snapshot, err := s.metricRepo.AppendSnapshot(ctx, id, result.Counts, time.Now())
	if err != nil {
		return nil, storeError(err)
	}
	if err := dropMetricCache(ctx, s.cache, id); err != nil {
		log.WarnContext(ctx, "drop metric cache failed", "competitor_id", id, "err", err)
	}
	s.notifier.notify(ctx, consts.CollectionCompetitorMetrics, consts.ChangeCreated, []uint64{id})
	return &dto.RefreshRespDTO{ChannelTitle: result.ChannelTitle, Metrics: toMetricDTO(snapshot)}, nil
}

func (s *competitorServiceImpl) CollectionVersion(ctx context.Context) (event.ChangeToken, error) {
	return s.notifier.current(ctx, consts.CollectionCompetitors)
}

func (s *competitorServiceImpl) CountCompetitors(ctx context.Context) (int64, error) {
	total, err := s.competitorRepo.Count(ctx)
	if err != nil {
		return 0, storeError(err)
	}
	return total, nil
}

func (s *competitorServiceImpl) dropListCache(ctx context.Context) {
	if err := s.cache.Delete(ctx, consts.CompetitorListKey); err != nil {
		log.WarnContext(ctx, "drop list cache failed", "err", err)
	}
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
