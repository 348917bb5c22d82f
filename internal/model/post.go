package model

import (
	"time"

	"github.com/google/uuid"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

type PostCategory string

const (
	PostCategoryBlog   PostCategory = "blog"
	PostCategoryPoetry PostCategory = "poetry"
)

type ReactionType string

const (
	ReactionLikes    ReactionType = "likes"
	ReactionDislikes ReactionType = "dislikes"
	ReactionShares   ReactionType = "shares"
)

// ReactionTypes is the lookup order used when reporting a device's reaction.
var ReactionTypes = []ReactionType{ReactionLikes, ReactionDislikes, ReactionShares}

func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLikes, ReactionDislikes, ReactionShares:
		return true
	}
	return false
}

type Reactions struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Shares   int64 `json:"shares"`
}

type Post struct {
	ID            uuid.UUID    `json:"id"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	Excerpt       string       `json:"excerpt"`
	Author        string       `json:"author"`
	AuthorID      uuid.UUID    `json:"author_id"`
	Category      PostCategory `json:"category"`
	Status        PostStatus   `json:"status"`
	Tags          []string     `json:"tags"`
	ReadTime      int          `json:"read_time"`
	ImageURL      *string      `json:"image_url"`
	IsRecommended bool         `json:"is_recommended"`
	Reactions     Reactions    `json:"reactions"`
	PublishedAt   time.Time    `json:"published_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostUpdate carries the editable fields of a post; nil means unchanged.
type PostUpdate struct {
	Title         *string
	Content       *string
	Excerpt       *string
	Category      *PostCategory
	Status        *PostStatus
	Tags          []string
	ReadTime      *int
	ImageURL      *string
	IsRecommended *bool
}

type PostStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
	Blog      int `json:"blog"`
	Poetry    int `json:"poetry"`
}
