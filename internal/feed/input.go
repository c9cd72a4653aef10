package feed

import (
	"Harbor/internal/model"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CreatePostInput 帖子 - 新增
type CreatePostInput struct {
	Title           string            `json:"title" validate:"required,min=1,max=255"`
	Content         string            `json:"content" validate:"required,min=1,max=5000"`
	ContentHTML     string            `json:"content_html,omitempty"`
	Kind            model.PostKind    `json:"kind" validate:"required,oneof=news announcement event"`
	Visibility      model.Visibility  `json:"visibility" validate:"omitempty,oneof=everyone department specific"`
	Recipients      []uint64          `json:"recipients,omitempty"`
	Tags            []string          `json:"tags,omitempty" validate:"max=10,dive,min=1,max=32"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	AttachmentIDs   []string          `json:"attachment_ids,omitempty" validate:"max=9"`
	Mentions        []model.Mention   `json:"mentions,omitempty"`
	CommentsAllowed bool              `json:"comments_allowed"`
}

// UpdatePostInput 帖子 - 修改，nil 字段不下发
type UpdatePostInput struct {
	Title           *string           `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Content         *string           `json:"content,omitempty" validate:"omitempty,min=1,max=5000"`
	ContentHTML     *string           `json:"content_html,omitempty"`
	Visibility      *model.Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=everyone department specific"`
	Recipients      []uint64          `json:"recipients,omitempty"`
	Tags            []string          `json:"tags,omitempty" validate:"max=10,dive,min=1,max=32"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	AttachmentIDs   []string          `json:"attachment_ids,omitempty" validate:"max=9"`
	Mentions        []model.Mention   `json:"mentions,omitempty"`
	CommentsAllowed *bool             `json:"comments_allowed,omitempty"`
}

// CommentInput 评论 - 新增
type CommentInput struct {
	PostID        uint64          `json:"post_id" validate:"required"`
	Content       string          `json:"content" validate:"required,min=1,max=1000"`
	ContentHTML   string          `json:"content_html,omitempty"`
	ParentID      uint64          `json:"parent_id,omitempty"`
	AttachmentIDs []string        `json:"attachment_ids,omitempty" validate:"max=4"`
	Mentions      []model.Mention `json:"mentions,omitempty"`
}

var validate = validator.New()

// validateInput 本地预校验，失败映射为字段级 ValidationError
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	fields := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = fmt.Sprintf("规则 [%s] 校验失败", fe.Tag())
	}
	return &ValidationError{Message: ErrParamInvalid.Error(), Fields: fields}
}
