package dto

import (
	"strings"

	"github.com/BloggingApp/writerspace/internal/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	validCategories = []interface{}{model.PostCategoryBlog, model.PostCategoryPoetry}
	validStatuses   = []interface{}{model.PostStatusDraft, model.PostStatusPublished}
)

// notBlank rejects strings made only of whitespace; nil pointers are left to Required/NilOrNotEmpty.
var notBlank = validation.By(func(value interface{}) error {
	v, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	if s, ok := v.(string); ok && s != "" && strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

type CreatePostRequest struct {
	Title         string             `json:"title"`
	Content       string             `json:"content"`
	Excerpt       string             `json:"excerpt"`
	Category      model.PostCategory `json:"category"`
	Status        model.PostStatus   `json:"status"`
	Tags          []string           `json:"tags"`
	ImageURL      *string            `json:"image_url"`
	IsRecommended bool               `json:"is_recommended"`
}

func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required.Error("title is required"), notBlank, validation.Length(1, 200)),
		validation.Field(&r.Content, validation.Required.Error("content is required"), notBlank),
		validation.Field(&r.Excerpt, validation.Length(0, 500)),
		validation.Field(&r.Category, validation.In(validCategories...).Error("category must be blog or poetry")),
		validation.Field(&r.Status, validation.In(validStatuses...).Error("status must be draft or published")),
		validation.Field(&r.Tags, validation.Each(validation.Length(0, 50))),
		validation.Field(&r.ImageURL, is.URL),
	)
}

// UpdatePostRequest is a partial update; absent fields keep their stored value.
type UpdatePostRequest struct {
	Title         *string             `json:"title"`
	Content       *string             `json:"content"`
	Excerpt       *string             `json:"excerpt"`
	Category      *model.PostCategory `json:"category"`
	Status        *model.PostStatus   `json:"status"`
	Tags          []string            `json:"tags"`
	ImageURL      *string             `json:"image_url"`
	IsRecommended *bool               `json:"is_recommended"`
}

func (r UpdatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty.Error("title cannot be blank"), notBlank, validation.Length(1, 200)),
		validation.Field(&r.Content, validation.NilOrNotEmpty.Error("content cannot be blank"), notBlank),
		validation.Field(&r.Excerpt, validation.Length(0, 500)),
		validation.Field(&r.Category, validation.In(validCategories...).Error("category must be blog or poetry")),
		validation.Field(&r.Status, validation.In(validStatuses...).Error("status must be draft or published")),
		validation.Field(&r.Tags, validation.Each(validation.Length(0, 50))),
		validation.Field(&r.ImageURL, is.URL),
	)
}
