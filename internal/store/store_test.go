package store

import (
	"Harbor/internal/model"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newItem(id uint64, updatedAt time.Time) *model.FeedItem {
	return &model.FeedItem{
		Post: model.Post{
			ID:        id,
			Title:     "标题",
			Content:   "正文",
			Status:    model.PostStatusPublished,
			CreatedAt: updatedAt,
			UpdatedAt: updatedAt,
		},
	}
}

func newComment(id, postID, parentID uint64, at time.Time) *model.Comment {
	return &model.Comment{
		ID:        id,
		PostID:    postID,
		ParentID:  parentID,
		Content:   "评论",
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestMergeItemMonotonic(t *testing.T) {
	s := New(model.SortRecent)

	older := newItem(1, baseTime)
	older.Title = "旧"
	newer := newItem(1, baseTime.Add(time.Minute))
	newer.Title = "新"

	// 正序到达
	assert.Equal(t, s.MergeItem(older), true)
	assert.Equal(t, s.MergeItem(newer), true)
	got, ok := s.Get(1)
	assert.Equal(t, ok, true)
	assert.Equal(t, got.Title, "新")

	// 乱序到达，旧记录被丢弃
	s2 := New(model.SortRecent)
	assert.Equal(t, s2.MergeItem(newer), true)
	assert.Equal(t, s2.MergeItem(older), false)
	got, _ = s2.Get(1)
	assert.Equal(t, got.Title, "新")

	// 相同 updated_at 同样丢弃
	same := newItem(1, baseTime.Add(time.Minute))
	same.Title = "同刻"
	assert.Equal(t, s2.MergeItem(same), false)
}

func TestMergeItemPreservesComments(t *testing.T) {
	s := New(model.SortRecent)
	s.MergeItem(newItem(1, baseTime))
	s.MergeComment(newComment(10, 1, 0, baseTime))

	// 部分负载（不带评论）替换帖子记录，已缓存评论不受影响
	partial := newItem(1, baseTime.Add(time.Minute))
	assert.Equal(t, s.MergeItem(partial), true)

	got, _ := s.Get(1)
	assert.Equal(t, len(got.Comments), 1)
	assert.Equal(t, got.Comments[0].ID, uint64(10))
}

func TestMergeItemPreloadedComments(t *testing.T) {
	s := New(model.SortRecent)
	item := newItem(1, baseTime)
	item.Comments = []*model.Comment{
		newComment(10, 1, 0, baseTime),
		newComment(11, 1, 10, baseTime.Add(time.Second)),
	}
	s.MergeItem(item)

	assert.Equal(t, len(s.CommentsOf(1)), 2)
	got, _ := s.Get(1)
	assert.Equal(t, got.CommentsCount, 2)
}

func TestPostTombstoneFinal(t *testing.T) {
	s := New(model.SortRecent)
	s.MergeItem(newItem(1, baseTime))
	s.MergeComment(newComment(10, 1, 0, baseTime))

	s.RemovePost(1)
	_, ok := s.Get(1)
	assert.Equal(t, ok, false)
	assert.Equal(t, len(s.CommentsOf(1)), 0)

	// 墓碑之后到达的更新被压制，无论多新
	late := newItem(1, baseTime.Add(time.Hour))
	assert.Equal(t, s.MergeItem(late), false)
	assert.Equal(t, s.MergeComment(newComment(11, 1, 0, baseTime.Add(time.Hour))), false)
}

func TestCommentTombstone(t *testing.T) {
	s := New(model.SortRecent)
	s.MergeItem(newItem(1, baseTime))
	s.MergeComment(newComment(10, 1, 0, baseTime))
	s.MergeComment(newComment(11, 1, 10, baseTime.Add(time.Second)))

	got, _ := s.Get(1)
	assert.Equal(t, got.CommentsCount, 2)

	s.RemoveComment(11)
	got, _ = s.Get(1)
	assert.Equal(t, got.CommentsCount, 1)
	top, _ := s.Comment(10)
	assert.Equal(t, top.RepliesCount, 0)

	late := newComment(11, 1, 10, baseTime.Add(time.Hour))
	assert.Equal(t, s.MergeComment(late), false)
}

func TestMergeCommentKeepsSnapshotCounts(t *testing.T) {
	s := New(model.SortRecent)
	item := newItem(1, baseTime)
	item.CommentsCount = 2
	s.MergeItem(item)

	// 快照已计入的存量评论入缓存，计数保持不变
	s.MergeComment(newComment(10, 1, 0, baseTime.Add(-time.Hour)))
	s.MergeComment(newComment(11, 1, 0, baseTime.Add(-time.Minute)))
	got, _ := s.Get(1)
	assert.Equal(t, got.CommentsCount, 2)

	// 晚于记录时间戳的新评论精确 +1
	s.MergeComment(newComment(12, 1, 0, baseTime.Add(time.Minute)))
	got, _ = s.Get(1)
	assert.Equal(t, got.CommentsCount, 3)
}

func TestMergeCommentKeepsSnapshotReplyCounts(t *testing.T) {
	s := New(model.SortRecent)
	s.MergeItem(newItem(1, baseTime))

	parent := newComment(10, 1, 0, baseTime.Add(-time.Hour))
	parent.UpdatedAt = baseTime.Add(-30 * time.Minute)
	parent.RepliesCount = 1
	s.MergeComment(parent)

	// 父楼快照已计入的存量回复不重复累加
	s.MergeComment(newComment(11, 1, 10, baseTime.Add(-40*time.Minute)))
	top, _ := s.Comment(10)
	assert.Equal(t, top.RepliesCount, 1)

	s.MergeComment(newComment(12, 1, 10, baseTime.Add(time.Minute)))
	top, _ = s.Comment(10)
	assert.Equal(t, top.RepliesCount, 2)
}

func TestMergeCommentUncachedPostDropped(t *testing.T) {
	s := New(model.SortRecent)
	assert.Equal(t, s.MergeComment(newComment(10, 99, 0, baseTime)), false)
	assert.Equal(t, len(s.CommentsOf(99)), 0)
}

func TestPinnedOrdering(t *testing.T) {
	s := New(model.SortRecent)
	for i := uint64(1); i <= 4; i++ {
		s.MergeItem(newItem(i, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	s.SetPinned(2, true, 2)
	s.SetPinned(1, true, 1)

	items := s.Items()
	assert.Equal(t, items[0].ID, uint64(1))
	assert.Equal(t, items[1].ID, uint64(2))
	// 其余按时间倒序
	assert.Equal(t, items[2].ID, uint64(4))
	assert.Equal(t, items[3].ID, uint64(3))

	s.SetPinned(1, false, 0)
	items = s.Items()
	assert.Equal(t, items[0].ID, uint64(2))
	got, _ := s.Get(1)
	assert.Equal(t, got.PinOrder, 0)
}

func TestSortKeys(t *testing.T) {
	s := New(model.SortEngagement)
	a := newItem(1, baseTime)
	a.LikesCount = 1
	b := newItem(2, baseTime.Add(time.Minute))
	b.LikesCount = 5
	b.CommentsCount = 3
	s.MergeItem(a)
	s.MergeItem(b)

	items := s.Items()
	assert.Equal(t, items[0].ID, uint64(2))

	s.SetSortKey(model.SortRecent)
	items = s.Items()
	assert.Equal(t, items[0].ID, uint64(2))

	c := newItem(3, baseTime.Add(2*time.Minute))
	s.MergeItem(c)
	items = s.Items()
	assert.Equal(t, items[0].ID, uint64(3))
}

func TestMergePostReactions(t *testing.T) {
	s := New(model.SortRecent)
	s.MergeItem(newItem(1, baseTime))

	aggs := []model.ReactionAggregate{
		{Kind: model.ReactionLike, Count: 3, ReactedByCaller: true},
		{Kind: model.ReactionLove, Count: 2},
	}
	ok := s.MergePostReactions(1, aggs, baseTime.Add(time.Minute))
	assert.Equal(t, ok, true)

	got, _ := s.Get(1)
	assert.Equal(t, got.LikesCount, 5)
	assert.Equal(t, got.LikedByCaller, true)

	// 过期聚合被丢弃
	stale := []model.ReactionAggregate{{Kind: model.ReactionLike, Count: 1}}
	assert.Equal(t, s.MergePostReactions(1, stale, baseTime), false)
	got, _ = s.Get(1)
	assert.Equal(t, got.LikesCount, 5)
}

func TestOptimisticSetDoesNotAdvanceUpdatedAt(t *testing.T) {
	s := New(model.SortRecent)
	s.MergeItem(newItem(1, baseTime))

	s.SetPostReactions(1, []model.ReactionAggregate{
		{Kind: model.ReactionLike, Count: 1, ReactedByCaller: true},
	})
	got, _ := s.Get(1)
	assert.Equal(t, got.LikesCount, 1)
	assert.Equal(t, got.UpdatedAt, baseTime)

	// 权威记录总能覆盖乐观写
	auth := newItem(1, baseTime.Add(time.Second))
	assert.Equal(t, s.MergeItem(auth), true)
}

func TestSnapshotIsolation(t *testing.T) {
	s := New(model.SortRecent)
	s.MergeItem(newItem(1, baseTime))

	got, _ := s.Get(1)
	got.Title = "外部修改"

	again, _ := s.Get(1)
	assert.Equal(t, again.Title, "标题")
}

func TestMergeCommentReactions(t *testing.T) {
	s := New(model.SortRecent)
	s.MergeItem(newItem(1, baseTime))
	s.MergeComment(newComment(10, 1, 0, baseTime))

	aggs := []model.ReactionAggregate{{Kind: model.ReactionLike, Count: 2}}
	assert.Equal(t, s.MergeCommentReactions(10, aggs, baseTime.Add(time.Minute)), true)
	c, _ := s.Comment(10)
	assert.Equal(t, len(c.Reactions), 1)

	assert.Equal(t, s.MergeCommentReactions(99, aggs, baseTime.Add(time.Minute)), false)
}
