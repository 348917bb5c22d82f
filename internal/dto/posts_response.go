package dto

import (
	"github.com/BloggingApp/writerspace/internal/model"
)

type PostsResponse struct {
	Posts []model.Post `json:"posts"`
	Error string       `json:"error,omitempty"`
}

type ReactionResponse struct {
	Recorded bool               `json:"recorded"`
	Reaction model.ReactionType `json:"reaction,omitempty"`
}

// DeviceReactionsResponse reports each reaction type a device has recorded on a post.
type DeviceReactionsResponse struct {
	Likes    bool               `json:"likes"`
	Dislikes bool               `json:"dislikes"`
	Shares   bool               `json:"shares"`
	Reaction model.ReactionType `json:"reaction,omitempty"`
}
