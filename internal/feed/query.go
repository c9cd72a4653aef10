package feed

import (
	"Harbor/internal/model"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ListQuery 列表过滤/排序/分页请求，零值字段视为未指定
type ListQuery struct {
	Page       int
	PageSize   int
	Kinds      []model.PostKind
	Tag        string
	AuthorID   uint64
	Department string
	From       time.Time
	To         time.Time
	Search     string
	Sort       model.SortKey
	Statuses   []model.PostStatus
}

// QueryDescriptor 规范化后的查询描述：多值字段去重排序，
// 未指定的维度完全省略，服务端不得据此过滤
type QueryDescriptor struct {
	values url.Values
	sort   model.SortKey
}

// Canonical 生成规范化查询描述，纯函数
func (q *ListQuery) Canonical() *QueryDescriptor {
	v := url.Values{}

	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if kinds := normalizeSet(q.Kinds); len(kinds) > 0 {
		v.Set("kinds", strings.Join(kinds, ","))
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.AuthorID > 0 {
		v.Set("author_id", strconv.FormatUint(q.AuthorID, 10))
	}
	if q.Department != "" {
		v.Set("department", q.Department)
	}
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	if statuses := normalizeSet(q.Statuses); len(statuses) > 0 {
		v.Set("statuses", strings.Join(statuses, ","))
	}

	return &QueryDescriptor{values: v, sort: q.Sort}
}

// SortKey 生效的排序维度，未指定时默认按时间倒序
func (d *QueryDescriptor) SortKey() model.SortKey {
	if d.sort == "" {
		return model.SortRecent
	}
	return d.sort
}

// Values 查询参数，调用方不得修改
func (d *QueryDescriptor) Values() url.Values {
	return d.values
}

// Encode 确定性编码（url.Values 按键名排序），可作为查询身份
func (d *QueryDescriptor) Encode() string {
	return d.values.Encode()
}

// normalizeSet 去重并排序，消除字段顺序差异
func normalizeSet[T ~string](in []T) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, item := range in {
		s := string(item)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
