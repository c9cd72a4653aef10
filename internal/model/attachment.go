package model

// AttachmentKind 附件类型
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentDocument AttachmentKind = "document"
	AttachmentLink     AttachmentKind = "link"
)

// Attachment 附件，发布后归属于且仅归属于一个帖子或评论，归属后不可变
type Attachment struct {
	ID           string            `json:"id"`
	Kind         AttachmentKind    `json:"kind"`
	URL          string            `json:"url"`
	Name         string            `json:"name"`
	SizeBytes    int64             `json:"size_bytes,omitempty"`
	MimeType     string            `json:"mime_type,omitempty"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`

	// 归属：二者最多其一非零，待发布的附件二者均为零
	OwnerPostID    uint64 `json:"owner_post_id,omitempty"`
	OwnerCommentID uint64 `json:"owner_comment_id,omitempty"`
}

// Owned 是否已绑定归属
func (a *Attachment) Owned() bool {
	return a.OwnerPostID != 0 || a.OwnerCommentID != 0
}
