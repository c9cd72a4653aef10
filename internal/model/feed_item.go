package model

import (
	"time"
)

// SortKey 排序维度
type SortKey string

const (
	SortRecent     SortKey = "recent"
	SortRelevance  SortKey = "relevance"
	SortEngagement SortKey = "engagement"
	SortViews      SortKey = "views"
)

// ValidSortKey 判断排序维度是否合法
func ValidSortKey(k SortKey) bool {
	switch k {
	case SortRecent, SortRelevance, SortEngagement, SortViews:
		return true
	}
	return false
}

// FeedItemMeta 渲染侧元信息
type FeedItemMeta struct {
	Viewed         bool       `json:"viewed"`
	ViewedAt       *time.Time `json:"viewed_at,omitempty"`
	Saved          bool       `json:"saved"`
	RelevanceScore float64    `json:"relevance_score"`
}

// FeedItem UI 实际渲染的组合视图：Post 联结作者与当前用户视角，
// 派生自 Post，不独立存储
type FeedItem struct {
	Post

	Author        Author       `json:"author"`
	LikedByCaller bool         `json:"liked_by_caller"`
	Comments      []*Comment   `json:"comments,omitempty"`
	Meta          FeedItemMeta `json:"meta"`
}
