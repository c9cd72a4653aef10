// Package transport 基于 resty 的 HTTP 收发实现，负责鉴权头、
// 超时/重试策略，并把响应信封映射到错误分级
package transport

import (
	"Harbor/internal/config"
	"Harbor/internal/feed"
	"Harbor/internal/pkg/security"
	"context"
	log "log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	codeOK           = 200
	codeBadRequest   = 400
	codeUnauthorized = 401
	codeForbidden    = 403
	codeNotFound     = 404
	codeConflict     = 409
)

// envelope 服务端统一响应信封
type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RestyTransport 实现 feed.Transport
type RestyTransport struct {
	http   *resty.Client
	tokens *security.TokenSource
}

func NewRestyTransport(cfg config.APIConfig, tokens *security.TokenSource) *RestyTransport {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "harbor-feed/1.0").
		SetHeader("Content-Type", "application/json")

	if cfg.RetryCount > 0 {
		// 只重试网络层失败，业务失败（含校验错误）绝不自动重试
		client.SetRetryCount(cfg.RetryCount).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil
			})
	}

	return &RestyTransport{http: client, tokens: tokens}
}

// Request 发起一次请求，返回信封内的业务数据本体
func (t *RestyTransport) Request(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	op := method + " " + path

	if t.tokens.ExpiringWithin(time.Minute) {
		log.WarnContext(ctx, "访问令牌即将过期", "op", op)
	}

	req := t.http.R().
		SetContext(ctx).
		SetAuthToken(t.tokens.Token())
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "序列化请求体失败")
		}
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, &feed.TransportError{Op: op, Err: err}
	}
	if resp.StatusCode() >= 500 {
		return nil, &feed.TransportError{
			Op:  op,
			Err: errors.Errorf("服务端返回 %d", resp.StatusCode()),
		}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, &feed.TransportError{Op: op, Err: errors.Wrap(err, "响应信封解码失败")}
	}

	if env.Code != codeOK {
		return nil, mapBusinessError(&env)
	}
	return env.Data, nil
}

// mapBusinessError 业务码到错误分级的映射
func mapBusinessError(env *envelope) error {
	switch env.Code {
	case codeBadRequest:
		return &feed.ValidationError{Message: env.Message, Fields: env.Fields}
	case codeConflict:
		return &feed.ConflictError{Message: env.Message}
	case codeUnauthorized, codeForbidden:
		return feed.UnauthorizedError
	case codeNotFound:
		return feed.ErrNotFound
	default:
		log.Error("未识别的业务错误码", "code", env.Code, "message", env.Message)
		return feed.UnExpectedError
	}
}
