package feed

import (
	"Harbor/internal/model"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Transport 请求收发抽象。鉴权头与重试/超时策略由实现方负责，
// 返回的字节为业务数据本体（信封已剥离）
type Transport interface {
	Request(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error)
}

// PostPage 帖子分页结果
type PostPage struct {
	Items     []*model.FeedItem `json:"items"`
	Total     int               `json:"total"`
	Page      int               `json:"page"`
	PageCount int               `json:"page_count"`
	HasMore   bool              `json:"has_more"`
}

// CommentPage 评论分页结果
type CommentPage struct {
	Items []*model.Comment `json:"items"`
	Total int              `json:"total"`
}

// ReactionResult 表态写入后服务端的权威聚合
type ReactionResult struct {
	Reactions []model.ReactionAggregate `json:"reactions"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// Client 无状态请求封装。所有写操作返回服务端的权威表示，
// 调用方应整体替换本地副本（合并由 Sync Store 负责）
type Client interface {
	ListPosts(ctx context.Context, q *ListQuery) (*PostPage, error)
	GetPost(ctx context.Context, id uint64, includeComments bool) (*model.FeedItem, error)
	CreatePost(ctx context.Context, in *CreatePostInput, isDraft bool) (*model.FeedItem, error)
	UpdatePost(ctx context.Context, id uint64, patch *UpdatePostInput) (*model.FeedItem, error)
	ArchivePost(ctx context.Context, id uint64) (*model.FeedItem, error)
	TogglePin(ctx context.Context, id uint64, pinned bool, order int) (*model.FeedItem, error)
	DeletePost(ctx context.Context, id uint64) error

	AddReaction(ctx context.Context, postID uint64, kind model.ReactionKind) (*ReactionResult, error)
	RemoveReaction(ctx context.Context, postID uint64, kind model.ReactionKind) (*ReactionResult, error)
	AddCommentReaction(ctx context.Context, commentID uint64, kind model.ReactionKind) (*ReactionResult, error)
	RemoveCommentReaction(ctx context.Context, commentID uint64, kind model.ReactionKind) (*ReactionResult, error)

	ListComments(ctx context.Context, postID uint64, page int, parentID uint64) (*CommentPage, error)
	AddComment(ctx context.Context, in *CommentInput) (*model.Comment, error)
	UpdateComment(ctx context.Context, id uint64, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, id uint64) error

	UploadAttachment(ctx context.Context, att *model.Attachment) (*model.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
}

type clientImpl struct {
	tp Transport
}

// NewClient 构造 Feed Client
func NewClient(tp Transport) Client {
	return &clientImpl{tp: tp}
}

func (c *clientImpl) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	raw, err := c.tp.Request(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	return nil
}

func (c *clientImpl) ListPosts(ctx context.Context, q *ListQuery) (*PostPage, error) {
	if q == nil {
		q = &ListQuery{}
	}
	desc := q.Canonical()
	page := &PostPage{}
	if err := c.do(ctx, http.MethodGet, "/posts", desc.Values(), nil, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *clientImpl) GetPost(ctx context.Context, id uint64, includeComments bool) (*model.FeedItem, error) {
	query := url.Values{}
	if includeComments {
		query.Set("include_comments", "true")
	}
	item := &model.FeedItem{}
	if err := c.do(ctx, http.MethodGet, postPath(id), query, nil, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *clientImpl) CreatePost(ctx context.Context, in *CreatePostInput, isDraft bool) (*model.FeedItem, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	status := model.PostStatusPublished
	if isDraft {
		status = model.PostStatusDraft
	}
	payload := struct {
		*CreatePostInput
		Status model.PostStatus `json:"status"`
	}{in, status}

	item := &model.FeedItem{}
	if err := c.do(ctx, http.MethodPost, "/posts", nil, payload, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *clientImpl) UpdatePost(ctx context.Context, id uint64, patch *UpdatePostInput) (*model.FeedItem, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	item := &model.FeedItem{}
	if err := c.do(ctx, http.MethodPatch, postPath(id), nil, patch, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *clientImpl) ArchivePost(ctx context.Context, id uint64) (*model.FeedItem, error) {
	item := &model.FeedItem{}
	if err := c.do(ctx, http.MethodPost, postPath(id)+"/archive", nil, nil, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *clientImpl) TogglePin(ctx context.Context, id uint64, pinned bool, order int) (*model.FeedItem, error) {
	if pinned && order <= 0 {
		return nil, ErrPinOrderRequired
	}
	payload := struct {
		Pinned   bool `json:"pinned"`
		PinOrder int  `json:"pin_order,omitempty"`
	}{pinned, order}

	item := &model.FeedItem{}
	if err := c.do(ctx, http.MethodPost, postPath(id)+"/pin", nil, payload, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *clientImpl) DeletePost(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, postPath(id), nil, nil, nil)
}

func (c *clientImpl) AddReaction(ctx context.Context, postID uint64, kind model.ReactionKind) (*ReactionResult, error) {
	if !model.ValidPostReaction(kind) {
		return nil, ErrReactionKindInvalid
	}
	return c.react(ctx, http.MethodPut, postPath(postID), kind)
}

func (c *clientImpl) RemoveReaction(ctx context.Context, postID uint64, kind model.ReactionKind) (*ReactionResult, error) {
	if !model.ValidPostReaction(kind) {
		return nil, ErrReactionKindInvalid
	}
	return c.react(ctx, http.MethodDelete, postPath(postID), kind)
}

func (c *clientImpl) AddCommentReaction(ctx context.Context, commentID uint64, kind model.ReactionKind) (*ReactionResult, error) {
	if !model.ValidCommentReaction(kind) {
		return nil, ErrReactionKindInvalid
	}
	return c.react(ctx, http.MethodPut, commentPath(commentID), kind)
}

func (c *clientImpl) RemoveCommentReaction(ctx context.Context, commentID uint64, kind model.ReactionKind) (*ReactionResult, error) {
	if !model.ValidCommentReaction(kind) {
		return nil, ErrReactionKindInvalid
	}
	return c.react(ctx, http.MethodDelete, commentPath(commentID), kind)
}

func (c *clientImpl) react(ctx context.Context, method, basePath string, kind model.ReactionKind) (*ReactionResult, error) {
	res := &ReactionResult{}
	path := fmt.Sprintf("%s/reactions/%s", basePath, kind)
	if err := c.do(ctx, method, path, nil, nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *clientImpl) ListComments(ctx context.Context, postID uint64, page int, parentID uint64) (*CommentPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if parentID > 0 {
		query.Set("parent_id", strconv.FormatUint(parentID, 10))
	}
	out := &CommentPage{}
	if err := c.do(ctx, http.MethodGet, postPath(postID)+"/comments", query, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clientImpl) AddComment(ctx context.Context, in *CommentInput) (*model.Comment, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	out := &model.Comment{}
	if err := c.do(ctx, http.MethodPost, "/comments", nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clientImpl) UpdateComment(ctx context.Context, id uint64, content string) (*model.Comment, error) {
	if content == "" {
		return nil, &ValidationError{
			Message: ErrParamInvalid.Error(),
			Fields:  map[string]string{"Content": "规则 [required] 校验失败"},
		}
	}
	payload := struct {
		Content string `json:"content"`
	}{content}

	out := &model.Comment{}
	if err := c.do(ctx, http.MethodPatch, commentPath(id), nil, payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clientImpl) DeleteComment(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, commentPath(id), nil, nil, nil)
}

func (c *clientImpl) UploadAttachment(ctx context.Context, att *model.Attachment) (*model.Attachment, error) {
	out := &model.Attachment{}
	if err := c.do(ctx, http.MethodPost, "/attachments", nil, att, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clientImpl) DeleteAttachment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/attachments/"+url.PathEscape(id), nil, nil, nil)
}

func postPath(id uint64) string {
	return "/posts/" + strconv.FormatUint(id, 10)
}

func commentPath(id uint64) string {
	return "/comments/" + strconv.FormatUint(id, 10)
}
