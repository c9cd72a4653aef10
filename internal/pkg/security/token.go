// Package security 消费身份子系统下发的访问令牌。引擎自身从不做认证，
// 只读取令牌携带的身份与有效期
package security

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims 令牌负载
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenSource 持有当前访问令牌。客户端没有签名密钥，
// 只做非验证解析以读取身份与过期时间；校验由服务端完成
type TokenSource struct {
	mu     sync.RWMutex
	raw    string
	claims *UserClaims
}

// NewTokenSource 解析并持有令牌
func NewTokenSource(raw string) (*TokenSource, error) {
	claims, err := parseClaims(raw)
	if err != nil {
		return nil, err
	}
	return &TokenSource{raw: raw, claims: claims}, nil
}

// Token 当前令牌原文
func (s *TokenSource) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw
}

// UserID 令牌对应的用户 id
func (s *TokenSource) UserID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims.UserID
}

// ExpiringWithin 令牌是否将在 d 内过期，无过期声明视为长期有效
func (s *TokenSource) ExpiringWithin(d time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims.ExpiresAt == nil {
		return false
	}
	return time.Until(s.claims.ExpiresAt.Time) < d
}

// Replace 会话刷新后替换令牌
func (s *TokenSource) Replace(raw string) error {
	claims, err := parseClaims(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	s.claims = claims
	return nil
}

func parseClaims(raw string) (*UserClaims, error) {
	if raw == "" {
		return nil, errors.New("缺少访问令牌")
	}
	claims := &UserClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.New("token 解析失败")
	}
	return claims, nil
}
