package wire

import (
	"Harbor/internal/attachment"
	"Harbor/internal/config"
	"Harbor/internal/feed"
	"Harbor/internal/job"
	"Harbor/internal/model"
	"Harbor/internal/pkg/consts"
	"Harbor/internal/pkg/cron"
	"Harbor/internal/pkg/security"
	"Harbor/internal/pkg/storage"
	"Harbor/internal/pkg/transport"
	"Harbor/internal/push"
	"Harbor/internal/store"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ApplicationContainer 封装应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Engine  *feed.Engine
	Store   *store.Store
	CronMgr *cron.Manager
}

func BuildApplication(cfg *config.Config) (*ApplicationContainer, error) {
	tokens, err := security.NewTokenSource(cfg.Auth.Token)
	if err != nil {
		return nil, err
	}

	tp := transport.NewRestyTransport(cfg.API, tokens)
	client := feed.NewClient(tp)

	st := store.New(model.SortKey(cfg.Feed.Sort))

	minioStore, err := storage.NewMinioStore(cfg.MinIO)
	if err != nil {
		return nil, err
	}
	pipeline := attachment.NewPipeline(minioStore, client, attachment.Policy{
		MaxImageBytes:    cfg.Feed.MaxImageMB << 20,
		MaxVideoBytes:    cfg.Feed.MaxVideoMB << 20,
		MaxDocumentBytes: cfg.Feed.MaxDocumentMB << 20,
	})

	source, err := buildPushSource(cfg, tokens)
	if err != nil {
		return nil, err
	}

	pageSize := cfg.Feed.PageSize
	if pageSize <= 0 || pageSize > consts.MaxPageSize {
		pageSize = consts.DefaultPageSize
	}
	engine := feed.NewEngine(client, st, source, pipeline, tokens.UserID(), pageSize)

	cronMgr := cron.NewCronManager(job.NewRefreshJob(engine))

	return &ApplicationContainer{
		Engine:  engine,
		Store:   st,
		CronMgr: cronMgr,
	}, nil
}

// buildPushSource 按配置选择推送源实现
func buildPushSource(cfg *config.Config, tokens *security.TokenSource) (push.Source, error) {
	switch cfg.Push.Mode {
	case "", "websocket":
		return push.NewWebsocketSource(cfg.Push.URL, tokens), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		channel := cfg.Push.Channel
		if channel == "" {
			channel = consts.DefaultFeedChannel
		}
		return push.NewRedisSource(rdb, channel), nil
	case "kafka":
		return push.NewKafkaSource(cfg.Kafka, cfg.KafkaFeedConsumer)
	default:
		return nil, errors.Errorf("未知的推送源类型: %s", cfg.Push.Mode)
	}
}
