// Package attachment 附件管线：发布前的校验与暂存。暂存的附件在
// 归属的帖子/评论发布前对他人不可见，发布前丢弃必须连带清理
// 服务端已产生的上传，不留孤儿对象
package attachment

import (
	"Harbor/internal/model"
	"context"
	"errors"
	"io"
	log "log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFileNotSupported = errors.New("不支持的文件类型")
	ErrFileTooLarge     = errors.New("文件大小超过限制")
	ErrNotPending       = errors.New("附件不在暂存区")
	ErrAttachmentOwned  = errors.New("附件已绑定内容")
)

const (
	metaObjectKey    = "object_key"
	metaThumbnailKey = "thumbnail_key"
)

// Uploader 文件存储协作方
type Uploader interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
}

// API 附件登记接口，由 Feed Client 满足
type API interface {
	UploadAttachment(ctx context.Context, att *model.Attachment) (*model.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
}

// Policy 按类型的大小上限，策略值来自配置
type Policy struct {
	MaxImageBytes    int64
	MaxVideoBytes    int64
	MaxDocumentBytes int64
}

// MaxBytes 指定类型的大小上限，零值表示不限制
func (p Policy) MaxBytes(kind model.AttachmentKind) int64 {
	switch kind {
	case model.AttachmentImage:
		return p.MaxImageBytes
	case model.AttachmentVideo:
		return p.MaxVideoBytes
	case model.AttachmentDocument:
		return p.MaxDocumentBytes
	}
	return 0
}

// StageInput 待暂存的文件
type StageInput struct {
	Name     string
	MimeType string
	Size     int64
	Kind     model.AttachmentKind
	Reader   io.Reader
}

// Pipeline 附件管线
type Pipeline struct {
	uploader Uploader
	api      API
	policy   Policy
	preview  *linkPreviewer

	mu      sync.Mutex
	pending map[string]*model.Attachment
}

func NewPipeline(uploader Uploader, api API, policy Policy) *Pipeline {
	return &Pipeline{
		uploader: uploader,
		api:      api,
		policy:   policy,
		preview:  newLinkPreviewer(),
		pending:  make(map[string]*model.Attachment),
	}
}

// Stage 校验、上传并登记一个附件，返回待发布记录
func (p *Pipeline) Stage(ctx context.Context, in *StageInput) (*model.Attachment, error) {
	if err := p.validate(in); err != nil {
		return nil, err
	}

	att := &model.Attachment{
		Kind:      in.Kind,
		Name:      in.Name,
		SizeBytes: in.Size,
		MimeType:  in.MimeType,
		Metadata:  map[string]string{},
	}

	reader := in.Reader
	if in.Kind == model.AttachmentImage {
		// 缩略图在客户端生成，原图与缩略图一并上传
		data, err := io.ReadAll(io.LimitReader(in.Reader, in.Size))
		if err != nil {
			return nil, err
		}
		reader = strings.NewReader(string(data))

		if thumb, thumbSize, err := makeThumbnail(strings.NewReader(string(data))); err != nil {
			log.WarnContext(ctx, "缩略图生成失败，跳过", "name", in.Name, "err", err)
		} else {
			thumbKey := objectName(".jpg")
			if _, err := p.uploader.Upload(ctx, thumbKey, thumb, thumbSize, "image/jpeg"); err != nil {
				return nil, err
			}
			att.ThumbnailURL = p.uploader.PublicURL(thumbKey)
			att.Metadata[metaThumbnailKey] = thumbKey
		}
	}

	key := objectName(filepath.Ext(in.Name))
	if _, err := p.uploader.Upload(ctx, key, reader, in.Size, in.MimeType); err != nil {
		// 原图上传失败时清掉已落库的缩略图
		p.deleteObjects(att)
		return nil, err
	}
	att.URL = p.uploader.PublicURL(key)
	att.Metadata[metaObjectKey] = key

	registered, err := p.api.UploadAttachment(ctx, att)
	if err != nil {
		// 登记失败，立即清理已落库的对象
		p.deleteObjects(att)
		return nil, err
	}

	p.mu.Lock()
	p.pending[registered.ID] = registered
	p.mu.Unlock()
	return registered, nil
}

// StageLink 抓取页面元信息，暂存一个链接附件
func (p *Pipeline) StageLink(ctx context.Context, rawURL string) (*model.Attachment, error) {
	att, err := p.preview.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	registered, err := p.api.UploadAttachment(ctx, att)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.pending[registered.ID] = registered
	p.mu.Unlock()
	return registered, nil
}

// Discard 丢弃一个待发布附件：删除登记记录与存储对象。
// 已绑定归属的附件只能随归属者一起删除
func (p *Pipeline) Discard(ctx context.Context, id string) error {
	p.mu.Lock()
	att, ok := p.pending[id]
	p.mu.Unlock()
	if !ok {
		return ErrNotPending
	}
	if att.Owned() {
		return ErrAttachmentOwned
	}

	if err := p.api.DeleteAttachment(ctx, id); err != nil {
		return err
	}

	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()

	go p.deleteObjects(att)
	return nil
}

// MarkPublished 发布成功后绑定归属并移出暂存区。
// postID 与 commentID 恰有其一非零
func (p *Pipeline) MarkPublished(ids []string, postID, commentID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		att, ok := p.pending[id]
		if !ok {
			continue
		}
		att.OwnerPostID = postID
		att.OwnerCommentID = commentID
		delete(p.pending, id)
	}
}

// PendingCount 暂存区大小
func (p *Pipeline) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Pipeline) validate(in *StageInput) error {
	if in == nil || in.Reader == nil || in.Name == "" {
		return ErrFileNotSupported
	}
	if !mimeMatches(in.Kind, in.MimeType) {
		return ErrFileNotSupported
	}
	if limit := p.policy.MaxBytes(in.Kind); limit > 0 && in.Size > limit {
		return ErrFileTooLarge
	}
	return nil
}

func (p *Pipeline) deleteObjects(att *model.Attachment) {
	bgCtx := context.Background()
	if key := att.Metadata[metaObjectKey]; key != "" {
		_ = p.uploader.Delete(bgCtx, key)
	}
	if key := att.Metadata[metaThumbnailKey]; key != "" {
		_ = p.uploader.Delete(bgCtx, key)
	}
}

// mimeMatches 类型与 MIME 的匹配规则；link 不走文件暂存
func mimeMatches(kind model.AttachmentKind, mime string) bool {
	switch kind {
	case model.AttachmentImage:
		return strings.HasPrefix(mime, "image/")
	case model.AttachmentVideo:
		return strings.HasPrefix(mime, "video/")
	case model.AttachmentDocument:
		return mime != "" &&
			!strings.HasPrefix(mime, "image/") &&
			!strings.HasPrefix(mime, "video/")
	}
	return false
}

func objectName(ext string) string {
	return time.Now().Format("2006/01/02/") + uuid.NewString() + ext
}
