// Package job 定时任务。周期性重拉用于校正推送通道静默丢失的事件，
// 合并规则保证重复拉取是幂等的
package job

import (
	"Harbor/internal/feed"
	"context"
	log "log/slog"
	"time"
)

const refreshTimeout = 30 * time.Second

// RefreshJob 周期性重拉生效查询的第一页
type RefreshJob struct {
	engine *feed.Engine
}

func NewRefreshJob(engine *feed.Engine) *RefreshJob {
	return &RefreshJob{engine: engine}
}

func (s *RefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.engine.Refresh(ctx); err != nil {
		log.Error("周期性校正失败", "err", err)
		return
	}
	log.Info("周期性校正完成", "cached", len(s.engine.Items()))
}
