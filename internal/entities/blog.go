package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

const (
	DefaultPrimaryColor   = "#0066FF"
	DefaultSecondaryColor = "#00D4FF"
)

type Blog struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Slug           string     `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Tagline        string     `gorm:"size:300" json:"tagline"`
	LogoURL        string     `gorm:"size:500" json:"logo_url"`
	PrimaryColor   string     `gorm:"size:7;default:'#0066FF'" json:"primary_color"`
	SecondaryColor string     `gorm:"size:7;default:'#00D4FF'" json:"secondary_color"`
	IsActive       bool       `gorm:"index;default:true" json:"is_active"`
	Posts          []Post     `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE" json:"-"`
	Categories     []Category `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Author names are not unique; email is when present.
type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name"`
	Email     *string   `gorm:"uniqueIndex;size:120" json:"email"`
	Bio       string    `gorm:"type:text" json:"bio"`
	AvatarURL string    `gorm:"size:500" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex:idx_categories_blog_name;size:100;not null" json:"name"`
	Slug        string    `gorm:"size:100;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	BlogID      uint      `gorm:"uniqueIndex:idx_categories_blog_name;not null" json:"blog_id"`
	Posts       []Post    `gorm:"many2many:post_categories;" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:300;not null" json:"title"`
	Slug            string     `gorm:"uniqueIndex:idx_posts_blog_slug;size:300;not null" json:"slug"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	Excerpt         string     `gorm:"type:text" json:"excerpt"`
	FeaturedImage   string     `gorm:"size:500" json:"featured_image"`
	Status          PostStatus `gorm:"index;size:20;default:'published'" json:"status"`
	BlogID          uint       `gorm:"uniqueIndex:idx_posts_blog_slug;not null" json:"blog_id"`
	AuthorID        uint       `gorm:"index;not null" json:"author_id"`
	Views           int        `gorm:"default:0" json:"views"`
	IsFeatured      bool       `gorm:"default:false" json:"is_featured"`
	MetaTitle       string     `gorm:"size:300" json:"meta_title"`
	MetaDescription string     `gorm:"size:500" json:"meta_description"`
	OriginURL       string     `gorm:"size:500" json:"origin_url,omitempty"`
	OriginID        *string    `gorm:"uniqueIndex;size:255" json:"origin_id,omitempty"` // atom:id of imported posts
	PublishedAt     time.Time  `gorm:"index" json:"published_at"`
	Blog            Blog       `gorm:"foreignKey:BlogID" json:"-"`
	Author          Author     `gorm:"foreignKey:AuthorID" json:"-"`
	Categories      []Category `gorm:"many2many:post_categories;" json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PostCategory is the join row between posts and categories.
type PostCategory struct {
	PostID     uint `gorm:"primaryKey"`
	CategoryID uint `gorm:"primaryKey"`
}

func (Blog) TableName() string {
	return "blogs"
}

func (Author) TableName() string {
	return "authors"
}

func (Category) TableName() string {
	return "categories"
}

func (Post) TableName() string {
	return "posts"
}

func (PostCategory) TableName() string {
	return "post_categories"
}

type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusSpam     CommentStatus = "spam"
	CommentStatusDeleted  CommentStatus = "deleted"
)

type Comment struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	PostID      uint          `gorm:"index;not null" json:"post_id"`
	ParentID    *string       `gorm:"index;size:36" json:"parent_id"`
	AuthorName  string        `gorm:"size:100;not null" json:"author_name"`
	AuthorEmail string        `gorm:"size:120" json:"author_email"`
	Content     string        `gorm:"type:text;not null" json:"content"`
	Status      CommentStatus `gorm:"index;size:20;default:'pending'" json:"status"`
	IPAddress   string        `gorm:"size:45" json:"-"`
	UserAgent   string        `gorm:"size:500" json:"-"`
	AvatarURL   string        `gorm:"size:500" json:"avatar_url"`
	Post        Post          `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (Comment) TableName() string {
	return "comments"
}

type SubscriberStatus string

const (
	SubscriberStatusActive       SubscriberStatus = "active"
	SubscriberStatusUnsubscribed SubscriberStatus = "unsubscribed"
	SubscriberStatusBounced      SubscriberStatus = "bounced"
)

const DefaultSubscriberSource = "website"

type NewsletterSubscriber struct {
	ID                string           `gorm:"primaryKey;size:36" json:"id"`
	Email             string           `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Status            SubscriberStatus `gorm:"index;size:20;default:'active'" json:"status"`
	Source            string           `gorm:"size:50;default:'website'" json:"source"` // website, popup, api, import
	IPAddress         string           `gorm:"size:45" json:"-"`
	UserAgent         string           `gorm:"size:500" json:"-"`
	ConfirmationToken string           `gorm:"size:100" json:"-"`
	ConfirmedAt       *time.Time       `json:"confirmed_at"`
	SubscribedAt      time.Time        `gorm:"index" json:"subscribed_at"`
	UnsubscribedAt    *time.Time       `json:"unsubscribed_at"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"-"`
}

func (s *NewsletterSubscriber) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = time.Now().UTC()
	}
	return nil
}

func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscribers"
}
