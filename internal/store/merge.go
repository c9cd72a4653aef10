package store

import (
	"Harbor/internal/model"
	log "log/slog"
	"time"
)

// MergeItem 合并一条帖子记录，拉取结果与推送事件走同一条路。
// 规则：墓碑压制一切；updated_at 不比缓存新则丢弃；替换记录时
// 保留已缓存而本次负载未携带的评论。返回是否生效
func (s *Store) MergeItem(in *model.FeedItem) bool {
	if in == nil || in.ID == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dead := s.postTombs[in.ID]; dead {
		log.Debug("丢弃墓碑帖子的过期更新", "postID", in.ID)
		return false
	}
	if cur, ok := s.items[in.ID]; ok && !in.UpdatedAt.After(cur.UpdatedAt) {
		log.Debug("丢弃乱序到达的帖子记录",
			"postID", in.ID, "incoming", in.UpdatedAt, "cached", cur.UpdatedAt)
		return false
	}

	item := cloneItem(in)
	// 评论独立缓存，负载里的评论逐条走评论合并
	preloaded := item.Comments
	item.Comments = nil
	s.items[item.ID] = item
	for _, c := range preloaded {
		s.mergeCommentLocked(c)
	}

	s.resortLocked()
	return true
}

// MergePage 合并一页拉取结果，返回生效条数
func (s *Store) MergePage(items []*model.FeedItem) int {
	applied := 0
	for _, item := range items {
		if s.MergeItem(item) {
			applied++
		}
	}
	return applied
}

// MergeComment 合并一条评论记录，维护父楼 replies_count 与
// 帖子 comments_count 聚合
func (s *Store) MergeComment(c *model.Comment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mergeCommentLocked(c) {
		return false
	}
	s.resortLocked()
	return true
}

func (s *Store) mergeCommentLocked(c *model.Comment) bool {
	if c == nil || c.ID == 0 || c.PostID == 0 {
		return false
	}
	if _, dead := s.commentTombs[c.ID]; dead {
		log.Debug("丢弃墓碑评论的过期更新", "commentID", c.ID)
		return false
	}
	if _, dead := s.postTombs[c.PostID]; dead {
		return false
	}
	item, ok := s.items[c.PostID]
	if !ok {
		// 未缓存帖子的评论事件直接丢弃，下一次重拉会补齐
		log.Debug("丢弃未缓存帖子的评论", "postID", c.PostID, "commentID", c.ID)
		return false
	}

	byID := s.comments[c.PostID]
	if byID == nil {
		byID = make(map[uint64]*model.Comment)
		s.comments[c.PostID] = byID
	}

	cur, exists := byID[c.ID]
	if exists && !c.UpdatedAt.After(cur.UpdatedAt) {
		log.Debug("丢弃乱序到达的评论记录", "commentID", c.ID)
		return false
	}

	byID[c.ID] = cloneComment(c)
	s.commentPost[c.ID] = c.PostID

	if !exists {
		// 快照计数已包含存量评论，入缓存时不重复累加；
		// 只有晚于记录时间戳的新评论才精确 +1
		if c.CreatedAt.After(item.UpdatedAt) {
			item.CommentsCount++
		} else if n := len(byID); n > item.CommentsCount {
			item.CommentsCount = n
		}
		if c.ParentID != 0 {
			if parent, ok := byID[c.ParentID]; ok {
				if c.CreatedAt.After(parent.UpdatedAt) {
					parent.RepliesCount++
				} else if n := cachedReplies(byID, c.ParentID); n > parent.RepliesCount {
					parent.RepliesCount = n
				}
			}
		}
	}
	return true
}

// cachedReplies 某楼层已缓存回复数
func cachedReplies(byID map[uint64]*model.Comment, parentID uint64) int {
	n := 0
	for _, c := range byID {
		if c.ParentID == parentID {
			n++
		}
	}
	return n
}

// MergePostReactions 以服务端权威聚合替换帖子的表态聚合
func (s *Store) MergePostReactions(postID uint64, aggs []model.ReactionAggregate, updatedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dead := s.postTombs[postID]; dead {
		return false
	}
	item, ok := s.items[postID]
	if !ok {
		return false
	}
	if !updatedAt.IsZero() && !updatedAt.After(item.UpdatedAt) {
		log.Debug("丢弃乱序到达的表态聚合", "postID", postID)
		return false
	}

	s.setPostReactionsLocked(item, aggs)
	if !updatedAt.IsZero() {
		item.UpdatedAt = updatedAt
	}
	s.resortLocked()
	return true
}

// MergeCommentReactions 以服务端权威聚合替换评论的表态聚合
func (s *Store) MergeCommentReactions(commentID uint64, aggs []model.ReactionAggregate, updatedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cachedCommentLocked(commentID)
	if !ok {
		return false
	}
	if !updatedAt.IsZero() && !updatedAt.After(c.UpdatedAt) {
		return false
	}
	c.Reactions = append([]model.ReactionAggregate(nil), aggs...)
	if !updatedAt.IsZero() {
		c.UpdatedAt = updatedAt
	}
	return true
}

// SetPostReactions 本地乐观写，不推进 updated_at，
// 服务端确认后的权威记录因此总能覆盖它
func (s *Store) SetPostReactions(postID uint64, aggs []model.ReactionAggregate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[postID]
	if !ok {
		return false
	}
	s.setPostReactionsLocked(item, aggs)
	s.resortLocked()
	return true
}

// SetCommentReactions 评论表态的本地乐观写
func (s *Store) SetCommentReactions(commentID uint64, aggs []model.ReactionAggregate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cachedCommentLocked(commentID)
	if !ok {
		return false
	}
	c.Reactions = append([]model.ReactionAggregate(nil), aggs...)
	return true
}

// SetPinned 置顶状态的本地乐观写，不推进 updated_at
func (s *Store) SetPinned(postID uint64, pinned bool, order int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[postID]
	if !ok {
		return false
	}
	item.Pinned = pinned
	if pinned {
		item.PinOrder = order
	} else {
		item.PinOrder = 0
	}
	s.resortLocked()
	return true
}

func (s *Store) setPostReactionsLocked(item *model.FeedItem, aggs []model.ReactionAggregate) {
	item.Reactions = append([]model.ReactionAggregate(nil), aggs...)
	item.LikesCount = model.TotalReactions(item.Reactions)
	item.LikedByCaller = model.ReactedByCaller(item.Reactions)
}

func (s *Store) cachedCommentLocked(commentID uint64) (*model.Comment, bool) {
	postID, ok := s.commentPost[commentID]
	if !ok {
		return nil, false
	}
	c, ok := s.comments[postID][commentID]
	return c, ok
}

// RemovePost 帖子墓碑：移除记录及其评论，此后同 id 的任何更新被压制
func (s *Store) RemovePost(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.postTombs[id] = struct{}{}
	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	for commentID := range s.comments[id] {
		delete(s.commentPost, commentID)
	}
	delete(s.comments, id)
	s.resortLocked()
}

// RemoveComment 评论墓碑，维护聚合计数
func (s *Store) RemoveComment(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commentTombs[id] = struct{}{}
	postID, ok := s.commentPost[id]
	if !ok {
		return
	}
	byID := s.comments[postID]
	c := byID[id]
	delete(byID, id)
	delete(s.commentPost, id)

	if item, ok := s.items[postID]; ok && item.CommentsCount > 0 {
		item.CommentsCount--
	}
	if c != nil && c.ParentID != 0 {
		if parent, ok := byID[c.ParentID]; ok && parent.RepliesCount > 0 {
			parent.RepliesCount--
		}
	}
	s.resortLocked()
}
