package feed

import (
	"Harbor/internal/model"
	"Harbor/internal/push"
	"Harbor/internal/store"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

var engineTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClient 可注入错误的 Client 打桩
type fakeClient struct {
	Client

	listPages    []*PostPage
	reactionErr  error
	reactionRes  *ReactionResult
	reactionHook func()
	pinErr      error
	pinItem     *model.FeedItem
	comment     *model.Comment
	commentIn   *CommentInput

	listCalls int
}

func (f *fakeClient) ListPosts(_ context.Context, _ *ListQuery) (*PostPage, error) {
	f.listCalls++
	if len(f.listPages) == 0 {
		return &PostPage{}, nil
	}
	page := f.listPages[0]
	if len(f.listPages) > 1 {
		f.listPages = f.listPages[1:]
	}
	return page, nil
}

func (f *fakeClient) AddReaction(_ context.Context, _ uint64, _ model.ReactionKind) (*ReactionResult, error) {
	if f.reactionHook != nil {
		f.reactionHook()
	}
	if f.reactionErr != nil {
		return nil, f.reactionErr
	}
	return f.reactionRes, nil
}

func (f *fakeClient) RemoveReaction(_ context.Context, _ uint64, _ model.ReactionKind) (*ReactionResult, error) {
	if f.reactionErr != nil {
		return nil, f.reactionErr
	}
	return f.reactionRes, nil
}

func (f *fakeClient) TogglePin(_ context.Context, _ uint64, _ bool, _ int) (*model.FeedItem, error) {
	if f.pinErr != nil {
		return nil, f.pinErr
	}
	return f.pinItem, nil
}

func (f *fakeClient) AddComment(_ context.Context, in *CommentInput) (*model.Comment, error) {
	f.commentIn = in
	return f.comment, nil
}

func feedItem(id uint64, at time.Time) *model.FeedItem {
	return &model.FeedItem{
		Post: model.Post{
			ID:              id,
			Title:           "标题",
			Content:         "正文",
			Status:          model.PostStatusPublished,
			CommentsAllowed: true,
			CreatedAt:       at,
			UpdatedAt:       at,
		},
	}
}

func newTestEngine(client *fakeClient) (*Engine, *store.Store) {
	st := store.New(model.SortRecent)
	return NewEngine(client, st, nil, nil, 1, 20), st
}

func TestEngineReactionRollback(t *testing.T) {
	client := &fakeClient{reactionErr: &ConflictError{Message: "帖子已归档"}}
	e, st := newTestEngine(client)
	st.MergeItem(feedItem(1, engineTime))

	err := e.AddReaction(context.Background(), 1, model.ReactionLike)
	assert.Equal(t, IsConflict(err), true)

	// 明确拒绝后本地回滚，计数恢复原状
	got, _ := st.Get(1)
	assert.Equal(t, got.LikesCount, 0)
	assert.Equal(t, got.LikedByCaller, false)
}

func TestEngineRollbackPreservesConcurrentAuthoritative(t *testing.T) {
	client := &fakeClient{reactionErr: &ConflictError{Message: "帖子已归档"}}
	e, st := newTestEngine(client)
	st.MergeItem(feedItem(1, engineTime))

	// 写入在途时推送送达权威聚合，回滚不得把它冲掉
	client.reactionHook = func() {
		st.MergePostReactions(1, []model.ReactionAggregate{
			{Kind: model.ReactionLike, Count: 5},
		}, engineTime.Add(time.Minute))
	}

	err := e.AddReaction(context.Background(), 1, model.ReactionLike)
	assert.Equal(t, IsConflict(err), true)

	got, _ := st.Get(1)
	assert.Equal(t, got.LikesCount, 5)
	assert.Equal(t, got.LikedByCaller, false)
}

func TestEngineReactionAuthoritativeWins(t *testing.T) {
	client := &fakeClient{reactionRes: &ReactionResult{
		Reactions: []model.ReactionAggregate{
			{Kind: model.ReactionLike, Count: 8, ReactedByCaller: true},
		},
		UpdatedAt: engineTime.Add(time.Minute),
	}}
	e, st := newTestEngine(client)
	st.MergeItem(feedItem(1, engineTime))

	err := e.AddReaction(context.Background(), 1, model.ReactionLike)
	assert.Equal(t, err, nil)

	// 服务端聚合整体替换乐观值
	got, _ := st.Get(1)
	assert.Equal(t, got.LikesCount, 8)
	assert.Equal(t, got.UpdatedAt, engineTime.Add(time.Minute))
}

func TestEngineReactionTransportErrorKeepsLocal(t *testing.T) {
	client := &fakeClient{reactionErr: &TransportError{Op: "PUT", Err: errors.New("超时")}}
	e, st := newTestEngine(client)
	st.MergeItem(feedItem(1, engineTime))

	err := e.AddReaction(context.Background(), 1, model.ReactionLike)
	assert.Equal(t, IsTransport(err), true)

	// 网络失败不回滚，下一次校正以权威为准
	got, _ := st.Get(1)
	assert.Equal(t, got.LikesCount, 1)
}

func TestEngineReactionUnknownPost(t *testing.T) {
	e, _ := newTestEngine(&fakeClient{})
	err := e.AddReaction(context.Background(), 99, model.ReactionLike)
	assert.Equal(t, errors.Is(err, ErrPostNotFound), true)
}

func TestEnginePinRollback(t *testing.T) {
	client := &fakeClient{pinErr: &ValidationError{Message: "置顶槽位已占用"}}
	e, st := newTestEngine(client)
	st.MergeItem(feedItem(1, engineTime))

	err := e.TogglePin(context.Background(), 1, true, 1)
	assert.Equal(t, IsValidation(err), true)

	got, _ := st.Get(1)
	assert.Equal(t, got.Pinned, false)
}

func TestEngineAddCommentGuards(t *testing.T) {
	client := &fakeClient{comment: &model.Comment{
		ID: 10, PostID: 1, Content: "评论",
		CreatedAt: engineTime, UpdatedAt: engineTime,
	}}
	e, st := newTestEngine(client)

	closed := feedItem(1, engineTime)
	closed.CommentsAllowed = false
	st.MergeItem(closed)

	_, err := e.AddComment(context.Background(), &CommentInput{PostID: 1, Content: "评论"})
	assert.Equal(t, errors.Is(err, ErrCommentsDisabled), true)

	open := feedItem(1, engineTime.Add(time.Second))
	st.MergeItem(open)
	c, err := e.AddComment(context.Background(), &CommentInput{PostID: 1, Content: "评论"})
	assert.Equal(t, err, nil)
	assert.Equal(t, c.ID, uint64(10))

	got, _ := st.Get(1)
	assert.Equal(t, got.CommentsCount, 1)
}

func TestEngineCollapsesDeepReply(t *testing.T) {
	client := &fakeClient{comment: &model.Comment{
		ID: 12, PostID: 1, ParentID: 10, Content: "回复",
		CreatedAt: engineTime, UpdatedAt: engineTime,
	}}
	e, st := newTestEngine(client)
	st.MergeItem(feedItem(1, engineTime))
	st.MergeComment(&model.Comment{
		ID: 10, PostID: 1, AuthorID: 5,
		CreatedAt: engineTime, UpdatedAt: engineTime,
	})
	st.MergeComment(&model.Comment{
		ID: 11, PostID: 1, ParentID: 10, AuthorID: 6,
		CreatedAt: engineTime.Add(time.Second), UpdatedAt: engineTime.Add(time.Second),
	})

	// 对回复的回复重定位到一级楼层，并提及原回复对象
	_, err := e.AddComment(context.Background(), &CommentInput{
		PostID: 1, Content: "回复", ParentID: 11,
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, client.commentIn.ParentID, uint64(10))
	assert.Equal(t, client.commentIn.Mentions[0].UserID, uint64(6))
}

func TestEngineSinkEvents(t *testing.T) {
	e, st := newTestEngine(&fakeClient{})

	e.OnPost(feedItem(1, engineTime))
	assert.Equal(t, st.Len(), 1)

	e.OnComment(&model.Comment{
		ID: 10, PostID: 1, CreatedAt: engineTime, UpdatedAt: engineTime,
	})
	assert.Equal(t, len(st.CommentsOf(1)), 1)

	e.OnReaction(&push.ReactionEvent{
		Target: "post", PostID: 1,
		Reactions: []model.ReactionAggregate{{Kind: model.ReactionLike, Count: 4}},
		UpdatedAt: engineTime.Add(time.Minute),
	})
	got, _ := st.Get(1)
	assert.Equal(t, got.LikesCount, 4)

	e.OnDelete(&push.DeleteEvent{Kind: "comment", ID: 10})
	assert.Equal(t, len(st.CommentsOf(1)), 0)

	e.OnDelete(&push.DeleteEvent{Kind: "post", ID: 1})
	assert.Equal(t, st.Len(), 0)
}

func TestEngineRefreshUsesActiveQuery(t *testing.T) {
	client := &fakeClient{listPages: []*PostPage{
		{Items: []*model.FeedItem{feedItem(1, engineTime)}},
		{Items: []*model.FeedItem{feedItem(2, engineTime.Add(time.Minute))}},
	}}
	e, st := newTestEngine(client)

	_, err := e.ListPosts(context.Background(), &ListQuery{Tag: "通知"})
	assert.Equal(t, err, nil)
	assert.Equal(t, st.Len(), 1)

	err = e.Refresh(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, st.Len(), 2)
	assert.Equal(t, client.listCalls, 2)
}
