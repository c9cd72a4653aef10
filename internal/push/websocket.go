package push

import (
	"Harbor/internal/pkg/security"
	"context"
	log "log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	initialRetryInterval = 100 * time.Millisecond
	maxRetryInterval     = 5 * time.Second
	handshakeTimeout     = 10 * time.Second
)

// WebsocketSource 默认推送源：长连接 websocket，断线指数退避重连
type WebsocketSource struct {
	endpoint string
	tokens   *security.TokenSource
	dialer   *websocket.Dialer
}

func NewWebsocketSource(endpoint string, tokens *security.TokenSource) *WebsocketSource {
	return &WebsocketSource{
		endpoint: endpoint,
		tokens:   tokens,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Run 订阅事件流直到 ctx 取消。每次（重）连成功后触发 sink.OnConnect，
// 消费方据此重拉首页，合并规则保证这次重拉是幂等的
func (s *WebsocketSource) Run(ctx context.Context, sink Sink) error {
	retryInterval := initialRetryInterval

	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("WS 连接失败，等待重连", "err", err, "retryIn", retryInterval)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryInterval):
			}
			retryInterval *= 2
			if retryInterval > maxRetryInterval {
				retryInterval = maxRetryInterval
			}
			continue
		}

		retryInterval = initialRetryInterval
		log.Info("WS 推送通道已建立", "endpoint", s.endpoint)
		sink.OnConnect()

		if err := s.readLoop(ctx, conn, sink); err != nil && ctx.Err() == nil {
			log.Warn("WS 推送通道断开", "err", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// 断线重连
	}
}

func (s *WebsocketSource) dial(ctx context.Context) (*websocket.Conn, error) {
	target := s.endpoint
	if s.tokens != nil {
		u, err := url.Parse(s.endpoint)
		if err != nil {
			return nil, &ChannelError{Op: "dial", Err: err}
		}
		q := u.Query()
		q.Set("token", s.tokens.Token())
		u.RawQuery = q.Encode()
		target = u.String()
	}

	conn, _, err := s.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, &ChannelError{Op: "dial", Err: err}
	}
	return conn, nil
}

// readLoop 读循环。ctx 取消通过关闭连接打断阻塞中的 ReadMessage
func (s *WebsocketSource) readLoop(ctx context.Context, conn *websocket.Conn, sink Sink) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return &ChannelError{Op: "read", Err: err}
		}
		Dispatch(payload, sink)
	}
}
