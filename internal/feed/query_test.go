package feed

import (
	"Harbor/internal/model"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestCanonicalOmitsUnspecified(t *testing.T) {
	q := &ListQuery{}
	desc := q.Canonical()

	assert.Equal(t, desc.Encode(), "")
	assert.Equal(t, desc.SortKey(), model.SortRecent)
}

func TestCanonicalDeterministic(t *testing.T) {
	a := &ListQuery{
		Kinds:    []model.PostKind{model.PostKindNews, model.PostKindEvent, model.PostKindNews},
		Tag:      "公告",
		Page:     2,
		PageSize: 20,
	}
	b := &ListQuery{
		Kinds:    []model.PostKind{model.PostKindEvent, model.PostKindNews},
		Tag:      "公告",
		Page:     2,
		PageSize: 20,
	}

	// 字段顺序与重复不影响查询身份
	assert.Equal(t, a.Canonical().Encode(), b.Canonical().Encode())
}

func TestCanonicalValues(t *testing.T) {
	from := time.Date(2026, 1, 2, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	q := &ListQuery{
		AuthorID: 7,
		From:     from,
		Sort:     model.SortEngagement,
		Statuses: []model.PostStatus{model.PostStatusPublished, model.PostStatusDraft},
	}
	v := q.Canonical().Values()

	assert.Equal(t, v.Get("author_id"), "7")
	// 时间统一为 UTC
	assert.Equal(t, v.Get("from"), "2026-01-02T00:00:00Z")
	assert.Equal(t, v.Get("sort"), "engagement")
	assert.Equal(t, v.Get("statuses"), "draft,published")
	assert.Equal(t, q.Canonical().SortKey(), model.SortEngagement)
}
