package model

import (
	"time"

	"github.com/google/uuid"
)

type Subscriber struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at"`
	Active       bool      `json:"active"`
}

type SendStatus string

const (
	SendPending SendStatus = "pending"
	SendSent    SendStatus = "sent"
	SendFailed  SendStatus = "failed"
)

// SendResult is the outcome of one recipient's email; it never leaves sent or failed.
type SendResult struct {
	Email  string     `json:"email"`
	Status SendStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

type NotificationRecord struct {
	ID              uuid.UUID `json:"id"`
	PostTitle       string    `json:"post_title"`
	PostExcerpt     string    `json:"post_excerpt"`
	PostURL         string    `json:"post_url"`
	SubscriberCount int       `json:"subscriber_count"`
	SuccessCount    int       `json:"success_count"`
	FailureCount    int       `json:"failure_count"`
	SentAt          time.Time `json:"sent_at"`
}
