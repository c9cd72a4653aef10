package model

// ReactionKind 表态类型
type ReactionKind string

const (
	ReactionLike       ReactionKind = "like"
	ReactionLove       ReactionKind = "love"
	ReactionCelebrate  ReactionKind = "celebrate"
	ReactionSupport    ReactionKind = "support"
	ReactionInsightful ReactionKind = "insightful"
	ReactionCurious    ReactionKind = "curious"
)

// PostReactionKinds 帖子支持的表态类型
var PostReactionKinds = []ReactionKind{
	ReactionLike, ReactionLove, ReactionCelebrate,
	ReactionSupport, ReactionInsightful, ReactionCurious,
}

// CommentReactionKinds 评论支持的表态类型
var CommentReactionKinds = []ReactionKind{
	ReactionLike, ReactionLove,
}

// ReactionAggregate 按类型聚合的表态计数，客户端不持有明细行
type ReactionAggregate struct {
	Kind            ReactionKind `json:"kind"`
	Count           int          `json:"count"`
	ReactedByCaller bool         `json:"reacted_by_caller"`
}

// ValidPostReaction 判断类型是否允许用于帖子
func ValidPostReaction(kind ReactionKind) bool {
	for _, k := range PostReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ValidCommentReaction 判断类型是否允许用于评论
func ValidCommentReaction(kind ReactionKind) bool {
	for _, k := range CommentReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// TotalReactions 聚合总数
func TotalReactions(aggs []ReactionAggregate) int {
	total := 0
	for _, a := range aggs {
		total += a.Count
	}
	return total
}

// ReactedByCaller 当前用户是否持有任意一种表态
func ReactedByCaller(aggs []ReactionAggregate) bool {
	for _, a := range aggs {
		if a.ReactedByCaller {
			return true
		}
	}
	return false
}
