package consts

const (
	// DefaultPageSize 列表默认页大小
	DefaultPageSize = 20
	// MaxPageSize 列表页大小上限
	MaxPageSize = 100
)

const (
	// ThumbnailMaxEdge 图片附件缩略图最长边
	ThumbnailMaxEdge = 320
)

const (
	// DefaultFeedChannel Redis 推送源默认频道
	DefaultFeedChannel = "feed:events"
)
