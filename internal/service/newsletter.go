package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/BloggingApp/writerspace/internal/mailer"
	"github.com/BloggingApp/writerspace/internal/metrics"
	"github.com/BloggingApp/writerspace/internal/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SubscriberStore is satisfied by both the Postgres and the Redis subscriber repositories.
type SubscriberStore interface {
	FindActive(ctx context.Context, email string) (*model.Subscriber, error)
	Create(ctx context.Context, subscriber model.Subscriber) error
	Deactivate(ctx context.Context, email string) error
	ListActive(ctx context.Context) ([]model.Subscriber, error)
}

type NotificationLog interface {
	Append(ctx context.Context, record model.NotificationRecord) error
}

const (
	storePrimary  = "primary"
	storeFallback = "fallback"
)

// fallbackSubscribers tries primary first and only touches fallback when primary errors.
type fallbackSubscribers struct {
	logger   *zap.Logger
	primary  SubscriberStore
	fallback SubscriberStore
}

func (s *fallbackSubscribers) FindActive(ctx context.Context, email string) (*model.Subscriber, error) {
	sub, err := s.primary.FindActive(ctx, email)
	if err == nil {
		metrics.NewsletterStoreOpsTotal.WithLabelValues("find", storePrimary).Inc()
		return sub, nil
	}
	s.logger.Sugar().Errorf("failed to find subscriber in primary store, using local list: %s", err.Error())
	metrics.NewsletterStoreOpsTotal.WithLabelValues("find", storeFallback).Inc()
	return s.fallback.FindActive(ctx, email)
}

func (s *fallbackSubscribers) Create(ctx context.Context, subscriber model.Subscriber) error {
	err := s.primary.Create(ctx, subscriber)
	if err == nil {
		metrics.NewsletterStoreOpsTotal.WithLabelValues("create", storePrimary).Inc()
		return nil
	}
	s.logger.Sugar().Errorf("failed to store subscriber in primary store, using local list: %s", err.Error())
	metrics.NewsletterStoreOpsTotal.WithLabelValues("create", storeFallback).Inc()
	return s.fallback.Create(ctx, subscriber)
}

func (s *fallbackSubscribers) Deactivate(ctx context.Context, email string) error {
	err := s.primary.Deactivate(ctx, email)
	if err == nil {
		metrics.NewsletterStoreOpsTotal.WithLabelValues("deactivate", storePrimary).Inc()
		return nil
	}
	s.logger.Sugar().Errorf("failed to deactivate subscriber in primary store, using local list: %s", err.Error())
	metrics.NewsletterStoreOpsTotal.WithLabelValues("deactivate", storeFallback).Inc()
	return s.fallback.Deactivate(ctx, email)
}

func (s *fallbackSubscribers) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	subs, err := s.primary.ListActive(ctx)
	if err == nil {
		metrics.NewsletterStoreOpsTotal.WithLabelValues("list", storePrimary).Inc()
		return subs, nil
	}
	s.logger.Sugar().Errorf("failed to list subscribers from primary store, using local list: %s", err.Error())
	metrics.NewsletterStoreOpsTotal.WithLabelValues("list", storeFallback).Inc()
	return s.fallback.ListActive(ctx)
}

type fallbackNotifications struct {
	logger   *zap.Logger
	primary  NotificationLog
	fallback NotificationLog
}

func (l *fallbackNotifications) Append(ctx context.Context, record model.NotificationRecord) error {
	err := l.primary.Append(ctx, record)
	if err == nil {
		metrics.NewsletterStoreOpsTotal.WithLabelValues("append", storePrimary).Inc()
		return nil
	}
	l.logger.Sugar().Errorf("failed to append notification record to primary store, using local log: %s", err.Error())
	metrics.NewsletterStoreOpsTotal.WithLabelValues("append", storeFallback).Inc()
	return l.fallback.Append(ctx, record)
}

type newsletterService struct {
	logger        *zap.Logger
	subscribers   SubscriberStore
	notifications NotificationLog
	mailer        mailer.Sender
	concurrency   int
	publicOrigin  string
}

func newNewsletterService(logger *zap.Logger, subscribers SubscriberStore, notifications NotificationLog, sender mailer.Sender, concurrency int, publicOrigin string) Newsletter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &newsletterService{
		logger:        logger,
		subscribers:   subscribers,
		notifications: notifications,
		mailer:        sender,
		concurrency:   concurrency,
		publicOrigin:  strings.TrimRight(publicOrigin, "/"),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return validation.Errors{"email": err}
	}
	return nil
}

func (s *newsletterService) Subscribe(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	existing, err := s.subscribers.FindActive(ctx, email)
	if err != nil {
		s.logger.Sugar().Errorf("failed to look up subscriber(%s): %s", email, err.Error())
		return ErrInternal
	}
	if existing != nil {
		return nil
	}

	if err := s.subscribers.Create(ctx, model.Subscriber{
		ID:           uuid.New(),
		Email:        email,
		SubscribedAt: time.Now().UTC(),
		Active:       true,
	}); err != nil {
		s.logger.Sugar().Errorf("failed to create subscriber(%s): %s", email, err.Error())
		return ErrInternal
	}

	return nil
}

func (s *newsletterService) Unsubscribe(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	if err := s.subscribers.Deactivate(ctx, email); err != nil {
		s.logger.Sugar().Errorf("failed to deactivate subscriber(%s): %s", email, err.Error())
		return ErrInternal
	}

	return nil
}

// Notify emails every active subscriber once and records the totals. It waits for every
// send to finish, and the caller's cancellation does not stop it.
func (s *newsletterService) Notify(ctx context.Context, title, excerpt, postURL string) (*model.NotificationRecord, error) {
	ctx = context.WithoutCancel(ctx)
	metrics.NewsletterFanoutsTotal.Inc()

	subscribers, err := s.subscribers.ListActive(ctx)
	if err != nil {
		s.logger.Sugar().Errorf("failed to list subscribers for %q: %s", title, err.Error())
		return nil, ErrInternal
	}

	results := make([]model.SendResult, len(subscribers))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, sub := range subscribers {
		results[i] = model.SendResult{Email: sub.Email, Status: model.SendPending}
		g.Go(func() error {
			params := s.templateParams(sub.Email, title, excerpt, postURL)
			if err := s.mailer.Send(ctx, params); err != nil {
				results[i].Status = model.SendFailed
				results[i].Reason = err.Error()
				return nil
			}
			results[i].Status = model.SendSent
			return nil
		})
	}
	_ = g.Wait()

	record := model.NotificationRecord{
		ID:              uuid.New(),
		PostTitle:       title,
		PostExcerpt:     excerpt,
		PostURL:         postURL,
		SubscriberCount: len(subscribers),
		SentAt:          time.Now().UTC(),
	}
	for _, res := range results {
		metrics.NewsletterSendsTotal.WithLabelValues(string(res.Status)).Inc()
		if res.Status == model.SendSent {
			record.SuccessCount++
			continue
		}
		record.FailureCount++
		s.logger.Sugar().Errorf("failed to send newsletter for %q to %s: %s", title, res.Email, res.Reason)
	}

	s.logger.Sugar().Infof("newsletter for %q sent to %d/%d subscribers", title, record.SuccessCount, record.SubscriberCount)

	if err := s.notifications.Append(ctx, record); err != nil {
		s.logger.Sugar().Errorf("failed to record newsletter notification for %q: %s", title, err.Error())
		return &record, ErrInternal
	}

	return &record, nil
}

func (s *newsletterService) templateParams(email, title, excerpt, postURL string) mailer.TemplateParams {
	return mailer.TemplateParams{
		"to_email":        email,
		"post_title":      title,
		"post_excerpt":    excerpt,
		"post_url":        postURL,
		"unsubscribe_url": s.publicOrigin + "/unsubscribe?email=" + url.QueryEscape(email),
	}
}
