package feed

import (
	"Harbor/internal/model"
	"sort"
)

// maxThreadHops 向上回溯父链的上限，防御数据环
const maxThreadHops = 32

// ThreadNode 评论树节点
type ThreadNode struct {
	Comment *model.Comment
	Replies []*ThreadNode
}

// AssembleThread 将平铺评论组装为楼层视图：一级评论按 created_at
// 升序，楼内回复同序。渲染深度固定为两层，对回复的回复折叠到
// 最近的一级祖先楼层下（原回复对象通过 Mentions 保留语境）。
// 跨帖子的脏数据与父评论缺失的回复直接丢弃
func AssembleThread(postID uint64, comments []*model.Comment) []*ThreadNode {
	byID := make(map[uint64]*model.Comment, len(comments))
	for _, c := range comments {
		if c == nil || c.PostID != postID {
			continue
		}
		byID[c.ID] = c
	}

	roots := make([]*ThreadNode, 0, len(byID))
	nodeByID := make(map[uint64]*ThreadNode, len(byID))

	for _, c := range byID {
		if c.TopLevel() {
			node := &ThreadNode{Comment: c}
			nodeByID[c.ID] = node
			roots = append(roots, node)
		}
	}

	for _, c := range byID {
		if c.TopLevel() {
			continue
		}
		root := topLevelAncestor(c, byID)
		if root == nil {
			continue
		}
		parent, ok := nodeByID[root.ID]
		if !ok {
			continue
		}
		parent.Replies = append(parent.Replies, &ThreadNode{Comment: c})
	}

	sortNodes(roots)
	for _, r := range roots {
		sortNodes(r.Replies)
	}
	return roots
}

// topLevelAncestor 沿父链回溯到一级评论，链断裂或成环返回 nil
func topLevelAncestor(c *model.Comment, byID map[uint64]*model.Comment) *model.Comment {
	cur := c
	for i := 0; i < maxThreadHops; i++ {
		parent, ok := byID[cur.ParentID]
		if !ok || parent.PostID != c.PostID {
			return nil
		}
		if parent.TopLevel() {
			return parent
		}
		cur = parent
	}
	return nil
}

func sortNodes(nodes []*ThreadNode) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i].Comment, nodes[j].Comment
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
