package dto

import (
	"time"

	"github.com/google/uuid"
)

type MQPostPublishedMsg struct {
	PostID      uuid.UUID `json:"post_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	PostTitle   string    `json:"post_title"`
	PostURL     string    `json:"post_url"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"published_at"`
}
