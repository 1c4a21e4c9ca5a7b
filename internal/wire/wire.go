package wire

import (
	"Vigia/internal/api"
	"Vigia/internal/api/config"
	"Vigia/internal/api/handler"
	"Vigia/internal/job"
	"Vigia/internal/pkg/cron"
	"Vigia/internal/pkg/enrichment"
	"Vigia/internal/pkg/event"
	"Vigia/internal/pkg/kafka"
	"Vigia/internal/pkg/redis"
	"Vigia/internal/repository"
	"Vigia/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	CronMgr *cron.Manager
	// KafkaManager 未启用 kafka 时为 nil
	KafkaManager *kafka.ConsumerManager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	competitorRepo := repository.NewCompetitorRepo(db)
	metricRepo := repository.NewCompetitorMetricRepo(db)

	cache := redis.NewCache()
	bus := event.NewRedisBus()
	gateway := enrichment.NewClient(cfg.Enrichment)

	competitorService := service.NewCompetitorService(competitorRepo, metricRepo, gateway, cache, bus, ttl)
	metricService := service.NewMetricService(competitorRepo, metricRepo, cache, bus, ttl)

	handlers := &api.HandlersGroup{
		CompetitorHandler: handler.NewCompetitorHandler(competitorService),
		MetricHandler:     handler.NewMetricHandler(metricService),
		WSHandler:         handler.NewWsHandler(bus, cfg.Server.AllowedOrigins),
	}

	router := api.SetupRouter(handlers, cfg.Server.AllowedOrigins)

	cronMgr := cron.NewCronManager(
		job.NewMetricRefreshJob(competitorRepo, competitorService),
		cfg.Cron.MetricRefresh,
	)

	app := &ApplicationContainer{
		Router:  router,
		DB:      db,
		CronMgr: cronMgr,
	}

	if cfg.Kafka.Enable {
		kafkaMgr, err := kafka.NewConsumerManager(cfg, metricService)
		if err != nil {
			return nil, err
		}
		app.KafkaManager = kafkaMgr
	}

	return app, nil
}
