package push

import (
	"Harbor/internal/config"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
)

// KafkaSource 备选推送源：经 broker 下发 feed 事件的部署形态
// （多实例 BFF 各自以独立消费组消费全量事件流）
type KafkaSource struct {
	group sarama.ConsumerGroup
	topic string
}

func NewKafkaSource(kafkaCfg config.KafkaConfig, feedCfg config.KafkaFeedConsumer) (*KafkaSource, error) {
	group, err := sarama.NewConsumerGroup(kafkaCfg.Brokers, feedCfg.GroupID, newSaramaConfig(kafkaCfg))
	if err != nil {
		return nil, err
	}
	return &KafkaSource{group: group, topic: feedCfg.Topic}, nil
}

// Run 消费直到 ctx 取消，rebalance 导致的退出直接再入组
func (s *KafkaSource) Run(ctx context.Context, sink Sink) error {
	defer func() {
		if err := s.group.Close(); err != nil {
			log.Error("Failed to close feed consumer", "err", err)
		}
	}()

	handler := &feedEventHandler{sink: sink}
	log.Info("Feed consumer started", "topic", s.topic)
	for {
		if err := s.group.Consume(ctx, []string{s.topic}, handler); err != nil {
			log.Error("Error from consumer", "err", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// newSaramaConfig 统一初始化 sarama.Config
func newSaramaConfig(kafkaCfg config.KafkaConfig) *sarama.Config {
	c := sarama.NewConfig()

	if kafkaCfg.Sasl.Enable {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		c.Net.SASL.User = kafkaCfg.Sasl.Username
		c.Net.SASL.Password = kafkaCfg.Sasl.Password
	}

	c.Consumer.Return.Errors = true
	// 缓存以重拉兜底，错过的旧事件没有回放价值
	c.Consumer.Offsets.Initial = sarama.OffsetNewest

	c.Consumer.Group.Session.Timeout = time.Duration(kafkaCfg.Consumer.SessionTimeout) * time.Second
	c.Consumer.Group.Heartbeat.Interval = time.Duration(kafkaCfg.Consumer.HeartbeatInterval) * time.Second
	c.Consumer.Group.Rebalance.Timeout = time.Duration(kafkaCfg.Consumer.RebalanceTimeout) * time.Second

	return c
}

type feedEventHandler struct {
	sink Sink
}

func (h *feedEventHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("feed consumer setup")
	// 入组即视为通道建立，触发一次首页重拉补齐缺口
	h.sink.OnConnect()
	return nil
}

func (h *feedEventHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("feed consumer cleanup")
	return nil
}

func (h *feedEventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			Dispatch(msg.Value, h.sink)
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
