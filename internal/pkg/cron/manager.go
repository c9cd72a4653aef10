package cron

import (
	"Harbor/internal/config"
	"Harbor/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

// defaultResyncSpec 配置缺省时的校正周期
const defaultResyncSpec = "@every 2m"

type Manager struct {
	engine     *cron.Cron
	refreshJob *job.RefreshJob
}

func NewCronManager(refreshJob *job.RefreshJob) *Manager {
	return &Manager{
		engine:     cron.New(),
		refreshJob: refreshJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	spec := config.Cfg.Feed.ResyncSpec
	if spec == "" {
		spec = defaultResyncSpec
	}
	if _, err := s.engine.AddJob(spec, s.refreshJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
