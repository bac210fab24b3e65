// Package newsletter provides database operations for newsletter
// subscriptions.
//
// # Usage
//
//	repo := newsletter.NewRepository(db)
//	reactivated, err := repo.Subscribe(ctx, newsletter.Subscription{Email: "a@b.co"})
//	stats, err := repo.Stats(ctx, time.Now())
package newsletter

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/apperr"
	"github.com/newtechs/backend/internal/entities"
)

// GrowthWindow is how far back a subscription counts as recent.
const GrowthWindow = 30 * 24 * time.Hour

// Subscription holds a normalized subscribe request.
type Subscription struct {
	Email     string
	Source    string
	IPAddress string
	UserAgent string
}

// Stats are subscriber counts at a point in time.
type Stats struct {
	Active int64
	Recent int64
}

// GrowthRate is the percentage of recent subscribers relative to the
// earlier ones, rounded to one decimal. Without earlier subscribers it is
// 100.
func (s Stats) GrowthRate() float64 {
	previous := s.Active - s.Recent
	if previous <= 0 {
		return 100
	}
	rate := float64(s.Recent) / float64(previous) * 100
	return math.Round(rate*10) / 10
}

// Repository handles all newsletter database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new newsletter repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Subscribe adds an active subscriber or reactivates a lapsed one. It
// reports whether an existing subscription was reactivated.
func (r *Repository) Subscribe(ctx context.Context, sub Subscription) (bool, error) {
	db := r.db.WithContext(ctx)
	now := time.Now().UTC()

	var existing entities.NewsletterSubscriber
	err := db.Where("email = ?", sub.Email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == entities.SubscriberStatusActive {
			return false, apperr.Conflict("Email already subscribed")
		}
		err := db.Model(&existing).Updates(map[string]any{
			"status":          entities.SubscriberStatusActive,
			"subscribed_at":   now,
			"unsubscribed_at": nil,
		}).Error
		return err == nil, err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	source := sub.Source
	if source == "" {
		source = entities.DefaultSubscriberSource
	}
	subscriber := &entities.NewsletterSubscriber{
		Email:        sub.Email,
		Status:       entities.SubscriberStatusActive,
		Source:       source,
		IPAddress:    sub.IPAddress,
		UserAgent:    sub.UserAgent,
		SubscribedAt: now,
	}
	if err := db.Create(subscriber).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return false, apperr.Conflict("Email already subscribed")
		}
		return false, err
	}
	return false, nil
}

// Unsubscribe marks a subscription as unsubscribed.
func (r *Repository) Unsubscribe(ctx context.Context, email string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.NewsletterSubscriber{}).
		Where("email = ?", email).
		Updates(map[string]any{
			"status":          entities.SubscriberStatusUnsubscribed,
			"unsubscribed_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Email")
	}
	return nil
}

// Stats counts active subscribers and those who subscribed within
// GrowthWindow before now.
func (r *Repository) Stats(ctx context.Context, now time.Time) (Stats, error) {
	db := r.db.WithContext(ctx)
	var stats Stats

	active := db.Model(&entities.NewsletterSubscriber{}).Where("status = ?", entities.SubscriberStatusActive)
	if err := active.Session(&gorm.Session{}).Count(&stats.Active).Error; err != nil {
		return Stats{}, err
	}
	err := active.Where("subscribed_at >= ?", now.Add(-GrowthWindow).UTC()).Count(&stats.Recent).Error
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}
