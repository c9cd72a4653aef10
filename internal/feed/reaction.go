package feed

import (
	"Harbor/internal/model"
)

// ReactionOp 表态操作
type ReactionOp string

const (
	ReactionAdd    ReactionOp = "add"
	ReactionRemove ReactionOp = "remove"
)

// InverseOp 求逆操作，用于乐观更新被拒绝后的回滚
func InverseOp(op ReactionOp) ReactionOp {
	if op == ReactionAdd {
		return ReactionRemove
	}
	return ReactionAdd
}

// ApplyReaction 将一次表态操作应用到聚合上，返回新切片，不修改入参。
// 当前用户重复 add 同一类型为幂等空操作，remove 未持有的类型同理；
// 计数永不为负。计数归零且无本人标记的条目从聚合中移除
func ApplyReaction(aggs []model.ReactionAggregate, kind model.ReactionKind, op ReactionOp, isSelf bool) []model.ReactionAggregate {
	out := make([]model.ReactionAggregate, 0, len(aggs)+1)
	found := false

	for _, a := range aggs {
		if a.Kind != kind {
			out = append(out, a)
			continue
		}
		found = true

		switch op {
		case ReactionAdd:
			if isSelf && a.ReactedByCaller {
				// 幂等：已持有
				out = append(out, a)
				continue
			}
			a.Count++
			if isSelf {
				a.ReactedByCaller = true
			}
		case ReactionRemove:
			if isSelf && !a.ReactedByCaller {
				out = append(out, a)
				continue
			}
			if a.Count > 0 {
				a.Count--
			}
			if isSelf {
				a.ReactedByCaller = false
			}
		}

		if a.Count > 0 || a.ReactedByCaller {
			out = append(out, a)
		}
	}

	if !found && op == ReactionAdd {
		out = append(out, model.ReactionAggregate{
			Kind:            kind,
			Count:           1,
			ReactedByCaller: isSelf,
		})
	}

	return out
}
