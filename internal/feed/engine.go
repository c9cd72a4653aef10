package feed

import (
	"Harbor/internal/attachment"
	"Harbor/internal/model"
	"Harbor/internal/push"
	"Harbor/internal/store"
	"context"
	log "log/slog"
	"sync"
	"time"
)

// onConnectResyncTimeout 重连补拉的超时时间
const onConnectResyncTimeout = 15 * time.Second

// Engine Feed 引擎：对 UI 的唯一入口。读走缓存快照，写走
// 乐观更新加权威合并，推送事件经 Sink 回灌缓存
type Engine struct {
	client   Client
	store    *store.Store
	source   push.Source
	pipeline *attachment.Pipeline
	selfID   uint64

	mu          sync.Mutex
	activeQuery *ListQuery
	pageSize    int
}

func NewEngine(client Client, st *store.Store, source push.Source, pipeline *attachment.Pipeline, selfID uint64, pageSize int) *Engine {
	return &Engine{
		client:   client,
		store:    st,
		source:   source,
		pipeline: pipeline,
		selfID:   selfID,
		pageSize: pageSize,
	}
}

// Subscribe 启动推送订阅，阻塞直到 ctx 取消
func (e *Engine) Subscribe(ctx context.Context) error {
	if e.source == nil {
		log.Warn("未配置推送源，实时更新不可用")
		<-ctx.Done()
		return ctx.Err()
	}
	return e.source.Run(ctx, e)
}

// ListPosts 拉取一页并合并进缓存。本次查询成为生效查询，
// 其排序维度同时切换缓存序
func (e *Engine) ListPosts(ctx context.Context, q *ListQuery) (*PostPage, error) {
	if q == nil {
		q = &ListQuery{}
	}
	if q.PageSize == 0 {
		q.PageSize = e.pageSize
	}

	page, err := e.client.ListPosts(ctx, q)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	cp := *q
	e.activeQuery = &cp
	e.mu.Unlock()

	e.store.SetSortKey(q.Canonical().SortKey())
	e.store.MergePage(page.Items)
	return page, nil
}

// Refresh 重拉生效查询的第一页，补齐缓存。断线重连与周期性
// 校正走同一条路
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	q := &ListQuery{PageSize: e.pageSize}
	if e.activeQuery != nil {
		cp := *e.activeQuery
		q = &cp
	}
	e.mu.Unlock()
	q.Page = 1

	page, err := e.client.ListPosts(ctx, q)
	if err != nil {
		return err
	}
	e.store.MergePage(page.Items)
	return nil
}

// Items 缓存序的帖子快照，UI 的唯一读取面
func (e *Engine) Items() []*model.FeedItem {
	return e.store.Items()
}

// Item 按 id 读取缓存快照
func (e *Engine) Item(id uint64) (*model.FeedItem, bool) {
	return e.store.Get(id)
}

// Thread 某帖子已缓存评论的楼层视图
func (e *Engine) Thread(postID uint64) []*ThreadNode {
	return AssembleThread(postID, e.store.CommentsOf(postID))
}

// GetPost 拉取单条帖子（可携带评论）并合并进缓存
func (e *Engine) GetPost(ctx context.Context, id uint64, includeComments bool) (*model.FeedItem, error) {
	item, err := e.client.GetPost(ctx, id, includeComments)
	if err != nil {
		return nil, err
	}
	e.store.MergeItem(item)
	if cached, ok := e.store.Get(id); ok {
		return cached, nil
	}
	return item, nil
}

// CreatePost 创建帖子，成功后绑定暂存附件
func (e *Engine) CreatePost(ctx context.Context, in *CreatePostInput, isDraft bool) (*model.FeedItem, error) {
	item, err := e.client.CreatePost(ctx, in, isDraft)
	if err != nil {
		return nil, err
	}
	e.store.MergeItem(item)
	if e.pipeline != nil {
		e.pipeline.MarkPublished(in.AttachmentIDs, item.ID, 0)
	}
	return item, nil
}

// UpdatePost 修改帖子，权威返回整体覆盖本地
func (e *Engine) UpdatePost(ctx context.Context, id uint64, patch *UpdatePostInput) (*model.FeedItem, error) {
	item, err := e.client.UpdatePost(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	e.store.MergeItem(item)
	if e.pipeline != nil {
		e.pipeline.MarkPublished(patch.AttachmentIDs, id, 0)
	}
	return item, nil
}

// ArchivePost 归档帖子，本地先按状态机拦截非法变更
func (e *Engine) ArchivePost(ctx context.Context, id uint64) (*model.FeedItem, error) {
	if cur, ok := e.store.Get(id); ok {
		if !cur.Status.CanTransition(model.PostStatusArchived) {
			return nil, ErrInvalidTransition
		}
	}
	item, err := e.client.ArchivePost(ctx, id)
	if err != nil {
		return nil, err
	}
	e.store.MergeItem(item)
	return item, nil
}

// TogglePin 置顶/取消置顶的乐观写：本地立即生效，被服务端
// 拒绝时恢复原状，权威返回总是最终覆盖
func (e *Engine) TogglePin(ctx context.Context, id uint64, pinned bool, order int) error {
	if pinned && order <= 0 {
		return ErrPinOrderRequired
	}
	prev, cached := e.store.Get(id)
	if cached {
		e.store.SetPinned(id, pinned, order)
	}

	item, err := e.client.TogglePin(ctx, id, pinned, order)
	if err != nil {
		if cached && Rejected(err) {
			e.store.SetPinned(id, prev.Pinned, prev.PinOrder)
		}
		return err
	}
	e.store.MergeItem(item)
	return nil
}

// DeletePost 删除帖子，成功后立墓碑
func (e *Engine) DeletePost(ctx context.Context, id uint64) error {
	if err := e.client.DeletePost(ctx, id); err != nil {
		return err
	}
	e.store.RemovePost(id)
	return nil
}

// AddReaction 帖子表态的乐观写
func (e *Engine) AddReaction(ctx context.Context, postID uint64, kind model.ReactionKind) error {
	return e.reactPost(ctx, postID, kind, ReactionAdd)
}

// RemoveReaction 撤销帖子表态的乐观写
func (e *Engine) RemoveReaction(ctx context.Context, postID uint64, kind model.ReactionKind) error {
	return e.reactPost(ctx, postID, kind, ReactionRemove)
}

func (e *Engine) reactPost(ctx context.Context, postID uint64, kind model.ReactionKind, op ReactionOp) error {
	if !model.ValidPostReaction(kind) {
		return ErrReactionKindInvalid
	}
	cur, ok := e.store.Get(postID)
	if !ok {
		return ErrPostNotFound
	}

	next := ApplyReaction(cur.Reactions, kind, op, true)
	e.store.SetPostReactions(postID, next)

	var (
		res *ReactionResult
		err error
	)
	if op == ReactionAdd {
		res, err = e.client.AddReaction(ctx, postID, kind)
	} else {
		res, err = e.client.RemoveReaction(ctx, postID, kind)
	}
	if err != nil {
		if Rejected(err) {
			// 以回滚时刻的缓存为基准求逆，期间到达的权威聚合不被冲掉
			if now, ok := e.store.Get(postID); ok {
				e.store.SetPostReactions(postID, ApplyReaction(now.Reactions, kind, InverseOp(op), true))
			}
		}
		return err
	}
	e.store.MergePostReactions(postID, res.Reactions, res.UpdatedAt)
	return nil
}

// AddCommentReaction 评论表态的乐观写
func (e *Engine) AddCommentReaction(ctx context.Context, commentID uint64, kind model.ReactionKind) error {
	return e.reactComment(ctx, commentID, kind, ReactionAdd)
}

// RemoveCommentReaction 撤销评论表态的乐观写
func (e *Engine) RemoveCommentReaction(ctx context.Context, commentID uint64, kind model.ReactionKind) error {
	return e.reactComment(ctx, commentID, kind, ReactionRemove)
}

func (e *Engine) reactComment(ctx context.Context, commentID uint64, kind model.ReactionKind, op ReactionOp) error {
	if !model.ValidCommentReaction(kind) {
		return ErrReactionKindInvalid
	}
	cur, ok := e.store.Comment(commentID)
	if !ok {
		return ErrCommentNotFound
	}

	next := ApplyReaction(cur.Reactions, kind, op, true)
	e.store.SetCommentReactions(commentID, next)

	var (
		res *ReactionResult
		err error
	)
	if op == ReactionAdd {
		res, err = e.client.AddCommentReaction(ctx, commentID, kind)
	} else {
		res, err = e.client.RemoveCommentReaction(ctx, commentID, kind)
	}
	if err != nil {
		if Rejected(err) {
			if now, ok := e.store.Comment(commentID); ok {
				e.store.SetCommentReactions(commentID, ApplyReaction(now.Reactions, kind, InverseOp(op), true))
			}
		}
		return err
	}
	e.store.MergeCommentReactions(commentID, res.Reactions, res.UpdatedAt)
	return nil
}

// ListComments 拉取一页评论并合并进缓存
func (e *Engine) ListComments(ctx context.Context, postID uint64, page int, parentID uint64) (*CommentPage, error) {
	out, err := e.client.ListComments(ctx, postID, page, parentID)
	if err != nil {
		return nil, err
	}
	for _, c := range out.Items {
		e.store.MergeComment(c)
	}
	return out, nil
}

// AddComment 发表评论。关闭评论的帖子本地直接拒绝；对回复的
// 回复折叠到最近的一级祖先楼层下，原回复对象以提及保留语境
func (e *Engine) AddComment(ctx context.Context, in *CommentInput) (*model.Comment, error) {
	if item, ok := e.store.Get(in.PostID); ok && !item.CommentsAllowed {
		return nil, ErrCommentsDisabled
	}
	if in.ParentID != 0 {
		e.collapseReply(in)
	}

	c, err := e.client.AddComment(ctx, in)
	if err != nil {
		return nil, err
	}
	e.store.MergeComment(c)
	if e.pipeline != nil {
		e.pipeline.MarkPublished(in.AttachmentIDs, 0, c.ID)
	}
	return c, nil
}

// collapseReply 父评论非一级时重定位到一级祖先并补充提及
func (e *Engine) collapseReply(in *CommentInput) {
	parent, ok := e.store.Comment(in.ParentID)
	if !ok || parent.TopLevel() {
		return
	}

	in.Mentions = append(in.Mentions, model.Mention{UserID: parent.AuthorID})

	cur := parent
	for i := 0; i < maxThreadHops; i++ {
		anc, ok := e.store.Comment(cur.ParentID)
		if !ok {
			return
		}
		if anc.TopLevel() {
			in.ParentID = anc.ID
			return
		}
		cur = anc
	}
}

// UpdateComment 修改评论
func (e *Engine) UpdateComment(ctx context.Context, id uint64, content string) (*model.Comment, error) {
	c, err := e.client.UpdateComment(ctx, id, content)
	if err != nil {
		return nil, err
	}
	e.store.MergeComment(c)
	return c, nil
}

// DeleteComment 删除评论，成功后立墓碑
func (e *Engine) DeleteComment(ctx context.Context, id uint64) error {
	if err := e.client.DeleteComment(ctx, id); err != nil {
		return err
	}
	e.store.RemoveComment(id)
	return nil
}

// StageAttachment 暂存一个文件附件
func (e *Engine) StageAttachment(ctx context.Context, in *attachment.StageInput) (*model.Attachment, error) {
	return e.pipeline.Stage(ctx, in)
}

// StageLink 暂存一个链接附件
func (e *Engine) StageLink(ctx context.Context, rawURL string) (*model.Attachment, error) {
	return e.pipeline.StageLink(ctx, rawURL)
}

// DiscardAttachment 丢弃一个待发布附件
func (e *Engine) DiscardAttachment(ctx context.Context, id string) error {
	return e.pipeline.Discard(ctx, id)
}

// OnConnect 通道建立（含重连）后异步补拉第一页，
// 修复断线窗口内丢失的事件
func (e *Engine) OnConnect() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), onConnectResyncTimeout)
		defer cancel()
		if err := e.Refresh(ctx); err != nil {
			log.Warn("重连补拉失败", "err", err)
		}
	}()
}

// OnPost 推送的帖子记录回灌缓存
func (e *Engine) OnPost(item *model.FeedItem) {
	e.store.MergeItem(item)
}

// OnComment 推送的评论记录回灌缓存
func (e *Engine) OnComment(c *model.Comment) {
	e.store.MergeComment(c)
}

// OnReaction 推送的表态聚合回灌缓存
func (e *Engine) OnReaction(ev *push.ReactionEvent) {
	switch ev.Target {
	case "post":
		e.store.MergePostReactions(ev.PostID, ev.Reactions, ev.UpdatedAt)
	case "comment":
		e.store.MergeCommentReactions(ev.CommentID, ev.Reactions, ev.UpdatedAt)
	default:
		log.Warn("忽略未知的表态事件目标", "target", ev.Target)
	}
}

// OnDelete 推送的删除墓碑回灌缓存
func (e *Engine) OnDelete(ev *push.DeleteEvent) {
	switch ev.Kind {
	case "post":
		e.store.RemovePost(ev.ID)
	case "comment":
		e.store.RemoveComment(ev.ID)
	default:
		log.Warn("忽略未知的删除事件目标", "kind", ev.Kind)
	}
}
