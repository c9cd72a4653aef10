package model

import (
	"time"
)

// PostKind 帖子类型
type PostKind string

const (
	PostKindNews         PostKind = "news"
	PostKindAnnouncement PostKind = "announcement"
	PostKindEvent        PostKind = "event"
)

// PostStatus 帖子状态
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
	PostStatusRemoved   PostStatus = "removed"
)

// CanTransition 状态机：draft → published → archived 单向推进，
// removed 从任意状态可达且为终态
func (s PostStatus) CanTransition(next PostStatus) bool {
	if s == next {
		return false
	}
	if s == PostStatusRemoved {
		return false
	}
	if next == PostStatusRemoved {
		return true
	}
	switch s {
	case PostStatusDraft:
		return next == PostStatusPublished
	case PostStatusPublished:
		return next == PostStatusArchived
	default:
		return false
	}
}

// Visibility 可见范围
type Visibility string

const (
	VisibilityEveryone   Visibility = "everyone"
	VisibilityDepartment Visibility = "department"
	VisibilitySpecific   Visibility = "specific"
)

// Post 帖子
type Post struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ContentHTML string     `json:"content_html,omitempty"`
	AuthorID    uint64     `json:"author_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Kind        PostKind   `json:"kind"`
	Status      PostStatus `json:"status"`
	Visibility  Visibility `json:"visibility"`
	Recipients  []uint64   `json:"recipients,omitempty"`
	Tags        []string   `json:"tags,omitempty"`

	LikesCount    int `json:"likes_count"`
	CommentsCount int `json:"comments_count"`
	ViewsCount    int `json:"views_count"`
	SharesCount   int `json:"shares_count"`

	Metadata    map[string]string   `json:"metadata,omitempty"`
	Attachments []*Attachment       `json:"attachments,omitempty"`
	Mentions    []Mention           `json:"mentions,omitempty"`
	Reactions   []ReactionAggregate `json:"reactions,omitempty"`

	CommentsAllowed bool `json:"comments_allowed"`
	Pinned          bool `json:"pinned"`
	// Pinned 为 true 时有效，在置顶集合内唯一；取消置顶时清零
	PinOrder int `json:"pin_order,omitempty"`
}
