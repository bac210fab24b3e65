package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newtechs/backend/internal/database/newsletter"
	"github.com/newtechs/backend/internal/mailer"
)

// SubscriberStore provides newsletter subscription access.
type SubscriberStore interface {
	Subscribe(ctx context.Context, sub newsletter.Subscription) (bool, error)
	Unsubscribe(ctx context.Context, email string) error
	Stats(ctx context.Context, now time.Time) (newsletter.Stats, error)
}

type NewsletterController struct {
	store  SubscriberStore
	mailer mailer.StatsProvider
	logger *zap.Logger
	now    func() time.Time
}

func NewNewsletterController(store SubscriberStore, stats mailer.StatsProvider, logger *zap.Logger) *NewsletterController {
	return &NewsletterController{store: store, mailer: stats, logger: logger, now: time.Now}
}

// SubscribeRequest is the body of POST /api/newsletter/subscribe.
type SubscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

// UnsubscribeRequest is the body of POST /api/newsletter/unsubscribe.
type UnsubscribeRequest struct {
	Email string `json:"email"`
}

// NewsletterStats is the body of GET /api/analytics/newsletter-stats.
type NewsletterStats struct {
	Subscribers int64   `json:"subscribers"`
	OpenRate    float64 `json:"openRate"`
	ClickRate   float64 `json:"clickRate"`
	Growth      float64 `json:"growth"`
}

// Subscribe handles POST /api/newsletter/subscribe
func (nc *NewsletterController) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	_ = c.ShouldBindJSON(&req)

	email := normalizeEmail(req.Email)
	if email == "" || !validEmail(email) {
		respondBadRequest(c, "Valid email is required")
		return
	}

	reactivated, err := nc.store.Subscribe(c.Request.Context(), newsletter.Subscription{
		Email:     email,
		Source:    req.Source,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondAppError(c, nc.logger, err, "subscribe")
		return
	}

	if reactivated {
		respondMessage(c, "Subscription reactivated")
		return
	}
	respondMessage(c, "Successfully subscribed to newsletter")
}

// Unsubscribe handles POST /api/newsletter/unsubscribe
func (nc *NewsletterController) Unsubscribe(c *gin.Context) {
	var req UnsubscribeRequest
	_ = c.ShouldBindJSON(&req)

	email := normalizeEmail(req.Email)
	if email == "" {
		respondBadRequest(c, "Email is required")
		return
	}

	if err := nc.store.Unsubscribe(c.Request.Context(), email); err != nil {
		respondAppError(c, nc.logger, err, "unsubscribe")
		return
	}
	respondMessage(c, "Successfully unsubscribed from newsletter")
}

// Stats handles GET /api/analytics/newsletter-stats
func (nc *NewsletterController) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := nc.store.Stats(ctx, nc.now())
	if err != nil {
		respondInternalError(c, nc.logger, err, "newsletter stats")
		return
	}

	rates, err := nc.mailer.Stats(ctx)
	if err != nil {
		respondInternalError(c, nc.logger, err, "mailer stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": NewsletterStats{
			Subscribers: stats.Active,
			OpenRate:    rates.OpenRate,
			ClickRate:   rates.ClickRate,
			Growth:      stats.GrowthRate(),
		},
	})
}
