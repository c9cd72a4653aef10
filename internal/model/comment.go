package model

import (
	"time"
)

// Comment 评论。ParentID 为 0 表示一级评论，
// 非零时必须指向同一帖子下的另一条评论
type Comment struct {
	ID          uint64    `json:"id"`
	PostID      uint64    `json:"post_id"`
	AuthorID    uint64    `json:"author_id"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ParentID    uint64    `json:"parent_id,omitempty"`

	RepliesCount int                 `json:"replies_count"`
	Reactions    []ReactionAggregate `json:"reactions,omitempty"`
	Mentions     []Mention           `json:"mentions,omitempty"`
	Attachments  []*Attachment       `json:"attachments,omitempty"`
	Edited       bool                `json:"edited"`
}

// TopLevel 是否为一级评论
func (c *Comment) TopLevel() bool {
	return c.ParentID == 0
}
