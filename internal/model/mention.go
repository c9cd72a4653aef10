package model

// Mention 正文文本范围上的 @ 标注，不影响权限
type Mention struct {
	UserID      uint64 `json:"user_id"`
	DisplayName string `json:"display_name"`
	StartIndex  int    `json:"start_index"`
	EndIndex    int    `json:"end_index"`
}
