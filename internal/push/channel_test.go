package push

import (
	"Harbor/internal/model"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/goccy/go-json"
)

// recordSink 录制收到的事件
type recordSink struct {
	connects  int
	posts     []*model.FeedItem
	comments  []*model.Comment
	reactions []*ReactionEvent
	deletes   []*DeleteEvent
}

func (r *recordSink) OnConnect()                 { r.connects++ }
func (r *recordSink) OnPost(item *model.FeedItem) { r.posts = append(r.posts, item) }
func (r *recordSink) OnComment(c *model.Comment)  { r.comments = append(r.comments, c) }
func (r *recordSink) OnReaction(ev *ReactionEvent) {
	r.reactions = append(r.reactions, ev)
}
func (r *recordSink) OnDelete(ev *DeleteEvent) { r.deletes = append(r.deletes, ev) }

func envelope(t *testing.T, kind EventKind, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	assert.Equal(t, err, nil)
	payload, err := json.Marshal(&Envelope{Kind: kind, Data: raw})
	assert.Equal(t, err, nil)
	return payload
}

func TestDispatchRouting(t *testing.T) {
	sink := &recordSink{}

	Dispatch(envelope(t, EventPost, &model.FeedItem{Post: model.Post{ID: 1}}), sink)
	Dispatch(envelope(t, EventComment, &model.Comment{ID: 10, PostID: 1}), sink)
	Dispatch(envelope(t, EventReaction, &ReactionEvent{
		Target: "post", PostID: 1, UpdatedAt: time.Now(),
	}), sink)
	Dispatch(envelope(t, EventDelete, &DeleteEvent{Kind: "post", ID: 1}), sink)

	assert.Equal(t, len(sink.posts), 1)
	assert.Equal(t, sink.posts[0].ID, uint64(1))
	assert.Equal(t, len(sink.comments), 1)
	assert.Equal(t, len(sink.reactions), 1)
	assert.Equal(t, sink.reactions[0].Target, "post")
	assert.Equal(t, len(sink.deletes), 1)
}

func TestDispatchIgnoresUnknownKind(t *testing.T) {
	sink := &recordSink{}

	Dispatch(envelope(t, EventKind("typing"), map[string]any{"user_id": 7}), sink)
	Dispatch([]byte("not json"), sink)
	Dispatch(envelope(t, EventPost, "坏负载"), sink)

	// 未知类型与坏负载都被忽略，缓存保持可用
	assert.Equal(t, len(sink.posts), 0)
	assert.Equal(t, len(sink.comments), 0)
	assert.Equal(t, len(sink.reactions), 0)
	assert.Equal(t, len(sink.deletes), 0)
}
