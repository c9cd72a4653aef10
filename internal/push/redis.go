package push

import (
	"context"
	log "log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSource 备选推送源：订阅 Redis 总线上的 feed 事件频道，
// 服务端把推送事件发布到该频道（与 IM 推送同一条路）
type RedisSource struct {
	rdb     *redis.Client
	channel string
}

func NewRedisSource(rdb *redis.Client, channel string) *RedisSource {
	return &RedisSource{rdb: rdb, channel: channel}
}

// Run 订阅频道直到 ctx 取消。go-redis 的 PubSub 自带底层重连，
// 外层仍按退避循环兜底订阅本身的失败
func (s *RedisSource) Run(ctx context.Context, sink Sink) error {
	retryInterval := initialRetryInterval

	for {
		err := s.consume(ctx, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("Redis 推送订阅中断，等待重连", "err", err, "retryIn", retryInterval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
		retryInterval *= 2
		if retryInterval > maxRetryInterval {
			retryInterval = maxRetryInterval
		}
	}
}

func (s *RedisSource) consume(ctx context.Context, sink Sink) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer func() {
		_ = pubsub.Close()
	}()

	// 确认订阅成功再宣告通道可用
	if _, err := pubsub.Receive(ctx); err != nil {
		return &ChannelError{Op: "subscribe", Err: err}
	}
	log.Info("Redis 推送通道已建立", "channel", s.channel)
	sink.OnConnect()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return &ChannelError{Op: "receive", Err: ctx.Err()}
			}
			Dispatch([]byte(msg.Payload), sink)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
