package service

import (
	"context"
	"testing"
	"time"

	"Vigia/internal/api/dto"
	"Vigia/internal/model"
	"Vigia/internal/pkg/consts"
	"Vigia/internal/pkg/enrichment"
	"Vigia/internal/pkg/event"
	"Vigia/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type competitorFixture struct {
	svc         CompetitorService
	competitors repository.CompetitorRepo
	metrics     repository.CompetitorMetricRepo
	gateway     *stubGateway
	cache       *memoryCache
	bus         *event.MemoryBus
}

func newCompetitorFixture(t *testing.T) *competitorFixture {
	db := newTestDB(t)
	f := &competitorFixture{
		competitors: repository.NewCompetitorRepo(db),
		metrics:     repository.NewCompetitorMetricRepo(db),
		gateway:     &stubGateway{},
		cache:       newMemoryCache(),
		bus:         event.NewMemoryBus(),
	}
	f.svc = NewCompetitorService(f.competitors, f.metrics, f.gateway, f.cache, f.bus, time.Minute)
	return f
}

func TestAddCompetitor_AsyncAck(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	res, err := f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Acme", YoutubeID: strPtr("UC123")})
	require.NoError(t, err)
	require.NotNil(t, res.Competitor)
	assert.NotZero(t, res.Competitor.ID)
	assert.NoError(t, res.Warning)
	assert.Nil(t, res.Snapshot)
	assert.Equal(t, StageDone, res.Stage)
	assert.Equal(t, []string{"UC123"}, f.gateway.calls)

	assert.Equal(t, consts.CollectionCompetitors, res.Change.Collection)
	assert.EqualValues(t, 1, res.Change.Version)
	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, consts.ChangeCreated, published[0].Action)
	assert.Equal(t, []uint64{res.Competitor.ID}, published[0].IDs)
}

func TestAddCompetitor_InlineCountsAppendSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)
	f.gateway.result = &enrichment.Result{Counts: model.Counts{
		Subscribers: int64Ptr(1200),
		Views:       int64Ptr(15000),
		Videos:      int64Ptr(42),
	}}

	res, err := f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Acme", YoutubeID: strPtr("UC123")})
	require.NoError(t, err)
	require.NotNil(t, res.Snapshot)
	assert.EqualValues(t, 1200, *res.Snapshot.Subscribers)

	latest, err := f.metrics.Latest(ctx, res.Competitor.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.EqualValues(t, 42, *latest.Videos)
}

func TestAddCompetitor_GatewayFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)
	f.gateway.err = enrichment.ErrGatewayTimeout

	res, err := f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Acme", YoutubeID: strPtr("UC123")})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Warning, enrichment.ErrGateway)
	assert.Equal(t, StageDone, res.Stage)

	count, err := f.competitors.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Len(t, f.bus.Published(), 1)
}

func TestAddCompetitor_DuplicateRejected(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	_, err := f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Acme", YoutubeID: strPtr("UC123")})
	require.NoError(t, err)

	_, err = f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Acme2", YoutubeID: strPtr("UC123")})
	assert.ErrorIs(t, err, ErrCompetitorDuplicate)
	assert.Equal(t, 1, f.gateway.callCount())

	count, err := f.competitors.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

// staleLookupRepo 模拟查重与插入之间被并发写入：查重永远查不到
type staleLookupRepo struct {
	repository.CompetitorRepo
}

func (staleLookupRepo) FindByYoutubeID(context.Context, string) (*model.Competitor, error) {
	return nil, nil
}

func TestAddCompetitor_UniqueIndexRejectsConcurrentDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	_, err := f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Acme", YoutubeID: strPtr("UC123")})
	require.NoError(t, err)
	published := len(f.bus.Published())

	svc := NewCompetitorService(staleLookupRepo{f.competitors}, f.metrics, f.gateway, f.cache, f.bus, time.Minute)
	res, err := svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Acme2", YoutubeID: strPtr("UC123")})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCompetitorDuplicate)
	assert.Equal(t, 1, f.gateway.callCount())
	assert.Len(t, f.bus.Published(), published)

	count, err := f.competitors.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAddCompetitor_NoYoutubeIDSkipsGateway(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	res, err := f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Sem canal", YoutubeID: strPtr("  ")})
	require.NoError(t, err)
	assert.Nil(t, res.Competitor.YoutubeID)
	assert.Zero(t, f.gateway.callCount())

	// 两个没有频道的竞争对手不冲突
	_, err = f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Outro"})
	require.NoError(t, err)
}

func TestAddCompetitor_BlankNameInvalid(t *testing.T) {
	f := newCompetitorFixture(t)

	_, err := f.svc.AddCompetitor(context.Background(), &dto.AddCompetitorDTO{Name: " ", YoutubeID: strPtr("UC1")})
	assert.ErrorIs(t, err, ErrParamInvalid)
	assert.Zero(t, f.gateway.callCount())
}

func TestAddCompetitor_InvalidatesListCache(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	list, err := f.svc.ListCompetitors(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, f.cache.has(consts.CompetitorListKey))

	_, err = f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "Acme"})
	require.NoError(t, err)
	assert.False(t, f.cache.has(consts.CompetitorListKey))

	list, err = f.svc.ListCompetitors(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListCompetitors_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)
	require.NoError(t, f.competitors.Create(ctx, &model.Competitor{Name: "A"}))

	first, err := f.svc.ListCompetitors(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// 绕过 service 直接写库，缓存未失效前读到旧数据
	require.NoError(t, f.competitors.Create(ctx, &model.Competitor{Name: "B"}))
	cached, err := f.svc.ListCompetitors(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestListCompetitors_CacheDownFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)
	require.NoError(t, f.competitors.Create(ctx, &model.Competitor{Name: "A"}))
	f.cache.err = assert.AnError

	list, err := f.svc.ListCompetitors(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetCompetitor(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	c := &model.Competitor{Name: "A", YoutubeID: strPtr("UC1")}
	require.NoError(t, f.competitors.Create(ctx, c))
	_, err := f.metrics.AppendSnapshot(ctx, c.ID, model.Counts{Views: int64Ptr(10)}, time.Now())
	require.NoError(t, err)

	got, err := f.svc.GetCompetitor(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	require.NotNil(t, got.Latest)
	assert.EqualValues(t, 10, *got.Latest.Views)

	_, err = f.svc.GetCompetitor(ctx, c.ID+100)
	assert.ErrorIs(t, err, ErrCompetitorNotFound)
}

func TestUpdateCompetitor_OnlySentFields(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	c := &model.Competitor{Name: "A", Website: strPtr("https://a.com"), YoutubeID: strPtr("UC1")}
	require.NoError(t, f.competitors.Create(ctx, c))

	res, err := f.svc.UpdateCompetitor(ctx, c.ID, &dto.UpdateCompetitorDTO{
		Name:      strPtr("A2"),
		Instagram: strPtr("@a"),
	})
	require.NoError(t, err)
	assert.Equal(t, "A2", res.Competitor.Name)
	assert.Equal(t, consts.CollectionCompetitors, res.Change.Collection)
	assert.EqualValues(t, 1, res.Change.Version)

	stored, err := f.competitors.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", stored.Name)
	assert.Equal(t, "https://a.com", *stored.Website)
	assert.Equal(t, "UC1", stored.YoutubeChannel())
	assert.Equal(t, "@a", *stored.Instagram)
}

func TestUpdateCompetitor_ClearField(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	c := &model.Competitor{Name: "A", Website: strPtr("https://a.com")}
	require.NoError(t, f.competitors.Create(ctx, c))

	_, err := f.svc.UpdateCompetitor(ctx, c.ID, &dto.UpdateCompetitorDTO{Website: strPtr("")})
	require.NoError(t, err)

	stored, err := f.competitors.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Website)
}

func TestUpdateCompetitor_DuplicateYoutubeID(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	require.NoError(t, f.competitors.Create(ctx, &model.Competitor{Name: "A", YoutubeID: strPtr("UC1")}))
	b := &model.Competitor{Name: "B", YoutubeID: strPtr("UC2")}
	require.NoError(t, f.competitors.Create(ctx, b))

	_, err := f.svc.UpdateCompetitor(ctx, b.ID, &dto.UpdateCompetitorDTO{YoutubeID: strPtr("UC1")})
	assert.ErrorIs(t, err, ErrCompetitorDuplicate)

	// 改成自己的频道不算冲突
	_, err = f.svc.UpdateCompetitor(ctx, b.ID, &dto.UpdateCompetitorDTO{YoutubeID: strPtr("UC2")})
	assert.NoError(t, err)
}

func TestUpdateCompetitor_NotFound(t *testing.T) {
	f := newCompetitorFixture(t)

	_, err := f.svc.UpdateCompetitor(context.Background(), 99, &dto.UpdateCompetitorDTO{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrCompetitorNotFound)
}

func TestDeleteCompetitors(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	a := &model.Competitor{Name: "A", YoutubeID: strPtr("UC1")}
	b := &model.Competitor{Name: "B", YoutubeID: strPtr("UC2")}
	require.NoError(t, f.competitors.Create(ctx, a))
	require.NoError(t, f.competitors.Create(ctx, b))
	_, err := f.metrics.AppendSnapshot(ctx, a.ID, model.ZeroCounts(), time.Now())
	require.NoError(t, err)

	res, err := f.svc.DeleteCompetitors(ctx, []uint64{a.ID, a.ID, 999})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Deleted)
	assert.EqualValues(t, 1, res.Change.Version)

	history, err := f.metrics.History(ctx, a.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, history)

	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, consts.ChangeDeleted, published[0].Action)
	assert.Equal(t, []uint64{a.ID, 999}, published[0].IDs)
}

func TestDeleteCompetitors_EmptyIDs(t *testing.T) {
	f := newCompetitorFixture(t)

	_, err := f.svc.DeleteCompetitors(context.Background(), nil)
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestDeleteCompetitor_NotFound(t *testing.T) {
	f := newCompetitorFixture(t)

	_, err := f.svc.DeleteCompetitor(context.Background(), 5)
	assert.ErrorIs(t, err, ErrCompetitorNotFound)
}

func TestRefreshMetrics(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	c := &model.Competitor{Name: "A", YoutubeID: strPtr("UC1")}
	require.NoError(t, f.competitors.Create(ctx, c))

	res, err := f.svc.RefreshMetrics(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, res.Async)

	f.gateway.result = &enrichment.Result{ChannelTitle: "Canal A", Counts: model.Counts{Subscribers: int64Ptr(5)}}
	res, err = f.svc.RefreshMetrics(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, res.Async)
	assert.Equal(t, "Canal A", res.ChannelTitle)
	require.NotNil(t, res.Metrics)
	assert.EqualValues(t, 5, *res.Metrics.Subscribers)

	published := f.bus.Published()
	require.NotEmpty(t, published)
	assert.Equal(t, consts.CollectionCompetitorMetrics, published[len(published)-1].Collection)
}

func TestRefreshMetrics_GatewayError(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)
	f.gateway.err = enrichment.ErrGatewayBadResponse

	c := &model.Competitor{Name: "A", YoutubeID: strPtr("UC1")}
	require.NoError(t, f.competitors.Create(ctx, c))

	_, err := f.svc.RefreshMetrics(ctx, c.ID)
	assert.ErrorIs(t, err, ErrGatewayFailed)
}

func TestRefreshMetrics_NoChannel(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	c := &model.Competitor{Name: "A"}
	require.NoError(t, f.competitors.Create(ctx, c))

	_, err := f.svc.RefreshMetrics(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCompetitorNoChannel)
	assert.Zero(t, f.gateway.callCount())
}

func TestCollectionVersion(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	token, err := f.svc.CollectionVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, token.Version)

	_, err = f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "A"})
	require.NoError(t, err)
	_, err = f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: "B"})
	require.NoError(t, err)

	token, err = f.svc.CollectionVersion(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, token.Version)

	f.cache.err = assert.AnError
	_, err = f.svc.CollectionVersion(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCountCompetitors(t *testing.T) {
	ctx := context.Background()
	f := newCompetitorFixture(t)

	total, err := f.svc.CountCompetitors(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	for _, name := range []string{"A", "B", "C"} {
		_, err = f.svc.AddCompetitor(ctx, &dto.AddCompetitorDTO{Name: name})
		require.NoError(t, err)
	}
	total, err = f.svc.CountCompetitors(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "checking_duplicate", StageCheckingDuplicate.String())
	assert.Equal(t, "done", StageDone.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
