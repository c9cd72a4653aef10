package feed

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParamInvalid        = errors.New("参数错误")
	ErrPostNotFound        = errors.New("帖子不存在")
	ErrCommentNotFound     = errors.New("评论不存在")
	ErrNotFound            = errors.New("资源不存在")
	ErrPostRemoved         = errors.New("帖子已删除")
	ErrCommentsDisabled    = errors.New("帖子已关闭评论")
	ErrInvalidTransition   = errors.New("非法的状态变更")
	ErrReactionKindInvalid = errors.New("不支持的表态类型")
	ErrPinOrderRequired    = errors.New("置顶需要指定顺序")
	UnauthorizedError      = errors.New("权限不足")
	UnExpectedError        = errors.New("系统异常，请稍后重试")
)

// TransportError 网络/超时类错误，可重试
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("请求失败 [%s]: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError 服务端字段级校验失败，必须呈现给用户，不得自动重试
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// ConflictError 写入目标已过期（如编辑已归档的帖子），
// 应提示刷新而非修改输入
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// IsTransport 是否为传输类错误
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation 是否为校验类错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict 是否为冲突类错误
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// Rejected 写入是否被服务端明确拒绝（校验或冲突），
// 乐观更新需要显式回滚的场景
func Rejected(err error) bool {
	return IsValidation(err) || IsConflict(err) ||
		errors.Is(err, UnauthorizedError)
}
