// Package push 推送通道：长连接的服务端事件流，独立于请求/响应调用。
// 事件只描述发生了什么，如何合并进缓存由 Sink 的实现（引擎）决定
package push

import (
	"Harbor/internal/model"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

// EventKind 推送事件类型
type EventKind string

const (
	EventPost     EventKind = "post"
	EventComment  EventKind = "comment"
	EventReaction EventKind = "reaction"
	EventDelete   EventKind = "delete"
)

// Envelope 推送信封
type Envelope struct {
	Kind EventKind       `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// ReactionEvent 表态聚合替换事件，target 为 post 或 comment
type ReactionEvent struct {
	Target    string                    `json:"target"`
	PostID    uint64                    `json:"post_id,omitempty"`
	CommentID uint64                    `json:"comment_id,omitempty"`
	Reactions []model.ReactionAggregate `json:"reactions"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// DeleteEvent 删除墓碑事件，kind 为 post 或 comment
type DeleteEvent struct {
	Kind string `json:"kind"`
	ID   uint64 `json:"id"`
}

// Sink 事件消费方。OnConnect 在通道建立（含重连）后触发，
// 消费方借此重拉首页补齐断线期间丢失的事件
type Sink interface {
	OnConnect()
	OnPost(item *model.FeedItem)
	OnComment(c *model.Comment)
	OnReaction(ev *ReactionEvent)
	OnDelete(ev *DeleteEvent)
}

// Source 推送源。Run 阻塞直到 ctx 取消，断线重连由实现负责；
// 订阅生命周期与 ctx 严格配对，取消即停止投递
type Source interface {
	Run(ctx context.Context, sink Sink) error
}

// ChannelError 推送订阅故障，触发静默重连，不上抛给用户
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("推送通道异常 [%s]: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// Dispatch 解码并路由一条信封。类型分支穷举，未知类型记录后忽略，
// 坏负载同理——缓存必须保持可用，单条事件不可用不是致命错误
func Dispatch(payload []byte, sink Sink) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Warn("推送信封解码失败", "err", err)
		return
	}

	switch env.Kind {
	case EventPost:
		item := &model.FeedItem{}
		if err := json.Unmarshal(env.Data, item); err != nil {
			log.Warn("post 事件负载解码失败", "err", err)
			return
		}
		sink.OnPost(item)
	case EventComment:
		c := &model.Comment{}
		if err := json.Unmarshal(env.Data, c); err != nil {
			log.Warn("comment 事件负载解码失败", "err", err)
			return
		}
		sink.OnComment(c)
	case EventReaction:
		ev := &ReactionEvent{}
		if err := json.Unmarshal(env.Data, ev); err != nil {
			log.Warn("reaction 事件负载解码失败", "err", err)
			return
		}
		sink.OnReaction(ev)
	case EventDelete:
		ev := &DeleteEvent{}
		if err := json.Unmarshal(env.Data, ev); err != nil {
			log.Warn("delete 事件负载解码失败", "err", err)
			return
		}
		sink.OnDelete(ev)
	default:
		log.Warn("忽略未知的推送事件类型", "kind", env.Kind)
	}
}
