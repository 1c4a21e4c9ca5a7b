package cron

import (
	"Vigia/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

const defaultRefreshSpec = "0 0 */6 * * *"

type Manager struct {
	engine           *cron.Cron
	metricRefreshJob *job.MetricRefreshJob
	refreshSpec      string
}

func NewCronManager(metricRefreshJob *job.MetricRefreshJob, refreshSpec string) *Manager {
	if refreshSpec == "" {
		refreshSpec = defaultRefreshSpec
	}
	l := slogCronLogger{}
	return &Manager{
		engine: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		metricRefreshJob: metricRefreshJob,
		refreshSpec:      refreshSpec,
	}
}

// InitCron 注册并启动
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()
	return nil
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.refreshSpec, s.metricRefreshJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动", "metric_refresh", s.refreshSpec)
	s.engine.Start()
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}

// slogCronLogger 把 cron 内部日志接到 slog
type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug("cron: "+msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
