// Package store 是同步核心：分页拉取结果与推送事件唯一的可写缓存，
// UI 只从这里读。所有写路径统一走合并规则，乱序到达的记录被丢弃而非报错
package store

import (
	"Harbor/internal/model"
	log "log/slog"
	"sort"
	"sync"

	"github.com/jinzhu/copier"
)

type Store struct {
	mu sync.RWMutex

	sortKey model.SortKey
	order   []uint64
	items   map[uint64]*model.FeedItem
	// postID → commentID → comment，评论独立于帖子记录缓存，
	// 部分负载（如 pin/react 的返回）不会冲掉已加载的评论
	comments    map[uint64]map[uint64]*model.Comment
	commentPost map[uint64]uint64

	// 墓碑：已删除实体的 id，压制其后到达的任何过期更新
	postTombs    map[uint64]struct{}
	commentTombs map[uint64]struct{}
}

// New 构造 Sync Store，依赖全部显式注入，实例间不共享状态
func New(sortKey model.SortKey) *Store {
	if !model.ValidSortKey(sortKey) {
		sortKey = model.SortRecent
	}
	return &Store{
		sortKey:      sortKey,
		items:        make(map[uint64]*model.FeedItem),
		comments:     make(map[uint64]map[uint64]*model.Comment),
		commentPost:  make(map[uint64]uint64),
		postTombs:    make(map[uint64]struct{}),
		commentTombs: make(map[uint64]struct{}),
	}
}

// SetSortKey 切换生效排序维度并重排
func (s *Store) SetSortKey(k model.SortKey) {
	if !model.ValidSortKey(k) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sortKey != k {
		s.sortKey = k
		s.resortLocked()
	}
}

// Len 缓存中的帖子数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get 按 id 读取快照副本
func (s *Store) Get(id uint64) (*model.FeedItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return s.composeLocked(item), true
}

// Items 按缓存序读取全部快照副本，UI 的唯一读取面
func (s *Store) Items() []*model.FeedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.FeedItem, 0, len(s.order))
	for _, id := range s.order {
		if item, ok := s.items[id]; ok {
			out = append(out, s.composeLocked(item))
		}
	}
	return out
}

// Comment 按 id 读取评论快照副本
func (s *Store) Comment(id uint64) (*model.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	postID, ok := s.commentPost[id]
	if !ok {
		return nil, false
	}
	c, ok := s.comments[postID][id]
	if !ok {
		return nil, false
	}
	return cloneComment(c), true
}

// CommentsOf 某帖子已缓存评论的副本，created_at 升序
func (s *Store) CommentsOf(postID uint64) []*model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commentsOfLocked(postID)
}

func (s *Store) commentsOfLocked(postID uint64) []*model.Comment {
	byID := s.comments[postID]
	if len(byID) == 0 {
		return nil
	}
	out := make([]*model.Comment, 0, len(byID))
	for _, c := range byID {
		out = append(out, cloneComment(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// composeLocked 帖子副本 + 评论副本组合为渲染视图
func (s *Store) composeLocked(item *model.FeedItem) *model.FeedItem {
	out := cloneItem(item)
	out.Comments = s.commentsOfLocked(item.ID)
	return out
}

// resortLocked 重算缓存序：置顶按 pin_order 升序在前，
// 其余按生效排序维度，同值按 id 保证确定性
func (s *Store) resortLocked() {
	pinned := make([]*model.FeedItem, 0, 4)
	rest := make([]*model.FeedItem, 0, len(s.items))
	for _, item := range s.items {
		if item.Pinned {
			pinned = append(pinned, item)
		} else {
			rest = append(rest, item)
		}
	}

	sort.Slice(pinned, func(i, j int) bool {
		if pinned[i].PinOrder != pinned[j].PinOrder {
			return pinned[i].PinOrder < pinned[j].PinOrder
		}
		return pinned[i].ID < pinned[j].ID
	})
	sort.Slice(rest, func(i, j int) bool {
		return s.lessLocked(rest[i], rest[j])
	})

	s.order = s.order[:0]
	for _, item := range pinned {
		s.order = append(s.order, item.ID)
	}
	for _, item := range rest {
		s.order = append(s.order, item.ID)
	}
}

func (s *Store) lessLocked(a, b *model.FeedItem) bool {
	switch s.sortKey {
	case model.SortEngagement:
		ea := a.LikesCount + a.CommentsCount + a.SharesCount
		eb := b.LikesCount + b.CommentsCount + b.SharesCount
		if ea != eb {
			return ea > eb
		}
	case model.SortViews:
		if a.ViewsCount != b.ViewsCount {
			return a.ViewsCount > b.ViewsCount
		}
	case model.SortRelevance:
		if a.Meta.RelevanceScore != b.Meta.RelevanceScore {
			return a.Meta.RelevanceScore > b.Meta.RelevanceScore
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}

func cloneItem(in *model.FeedItem) *model.FeedItem {
	out := &model.FeedItem{}
	if err := copier.Copy(out, in); err != nil {
		log.Error("clone feed item failed", "postID", in.ID, "err", err)
		cp := *in
		return &cp
	}
	return out
}

func cloneComment(in *model.Comment) *model.Comment {
	out := &model.Comment{}
	if err := copier.Copy(out, in); err != nil {
		log.Error("clone comment failed", "commentID", in.ID, "err", err)
		cp := *in
		return &cp
	}
	return out
}
