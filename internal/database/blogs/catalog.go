package blogs

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/newtechs/backend/internal/entities"
	"github.com/newtechs/backend/internal/textnorm"
)

// LogoPathPrefix is where the catalog's logo images are served from.
const LogoPathPrefix = "/design_assets/"

// Catalog is the fixed set of blogs created by SetupCatalog, in order.
var Catalog = []NewBlog{
	{
		Name:           "NewTechs",
		Title:          "NewTechs - The Coolest Techs on Ice",
		Description:    "Stay ahead of the tech curve with cutting-edge insights, reviews, and analysis.",
		Tagline:        "The Coolest Techs on Ice",
		LogoURL:        LogoPathPrefix + "newtechs_logo_main.png",
		PrimaryColor:   "#0066FF",
		SecondaryColor: "#00D4FF",
	},
	{
		Name:           "Crypto Updates",
		Title:          "Crypto Updates",
		Description:    "Cryptocurrency news, analysis, and market insights.",
		Tagline:        "There ain't no party like a crypto party",
		LogoURL:        LogoPathPrefix + "crypto_updates_logo.png",
		PrimaryColor:   "#FFD700",
		SecondaryColor: "#FF8C00",
	},
	{
		Name:           "TechSpot365",
		Title:          "TechSpot365",
		Description:    "Tech news and updates 24/7.",
		Tagline:        "Tech news and updates 24/7",
		LogoURL:        LogoPathPrefix + "techspot365_logo.png",
		PrimaryColor:   "#00FF88",
		SecondaryColor: "#0066FF",
	},
	{
		Name:           "TheMasterMinds",
		Title:          "TheMasterMinds",
		Description:    "Tech insights and analysis from industry experts.",
		Tagline:        "Tech insights and analysis",
		LogoURL:        LogoPathPrefix + "masterminds_logo.png",
		PrimaryColor:   "#8B5CF6",
		SecondaryColor: "#C0C0C0",
	},
	{
		Name:           "The Gambia Network",
		Title:          "The Gambia Network",
		Description:    "Connecting tech innovation in The Gambia.",
		Tagline:        "Connecting tech in The Gambia",
		LogoURL:        LogoPathPrefix + "gambia_network_logo.png",
		PrimaryColor:   "#FF0000",
		SecondaryColor: "#00AA00",
	},
	{
		Name:           "The Grand Bantaba",
		Title:          "The Grand Bantaba",
		Description:    "A place for tech community discussions and knowledge sharing.",
		Tagline:        "Community discussions",
		LogoURL:        LogoPathPrefix + "bantaba_logo.png",
		PrimaryColor:   "#FF6B35",
		SecondaryColor: "#8B4513",
	},
	{
		Name:           "dibz inc",
		Title:          "dibz inc",
		Description:    "Startup stories, business insights, and entrepreneurship in tech.",
		Tagline:        "Business and startup content",
		LogoURL:        LogoPathPrefix + "dibz_inc_logo.png",
		PrimaryColor:   "#1E40AF",
		SecondaryColor: "#10B981",
	},
}

// SetupCatalog creates every catalog blog whose slug is not taken yet and
// returns all catalog blogs, existing ones included. Running it again
// changes nothing.
func (r *Repository) SetupCatalog(ctx context.Context) ([]entities.Blog, error) {
	result := make([]entities.Blog, 0, len(Catalog))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range Catalog {
			slug := textnorm.Slugify(item.Name)

			var blog entities.Blog
			err := tx.Where("slug = ?", slug).First(&blog).Error
			if err == nil {
				result = append(result, blog)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			blog = entities.Blog{
				Name:           item.Name,
				Slug:           slug,
				Title:          item.Title,
				Description:    item.Description,
				Tagline:        item.Tagline,
				LogoURL:        item.LogoURL,
				PrimaryColor:   item.PrimaryColor,
				SecondaryColor: item.SecondaryColor,
				IsActive:       true,
			}
			if err := tx.Create(&blog).Error; err != nil {
				return err
			}
			result = append(result, blog)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BlogTotals is one row of the per-blog content breakdown.
type BlogTotals struct {
	Blog       entities.Blog
	Posts      int64
	Categories int64
}

// Totals summarizes all stored content.
type Totals struct {
	Blogs      int
	Posts      int64
	Categories int64
	Authors    int64
	Breakdown  []BlogTotals
}

// Totals counts blogs, posts, categories and authors, with a per-blog
// breakdown covering inactive blogs too.
func (r *Repository) Totals(ctx context.Context) (*Totals, error) {
	db := r.db.WithContext(ctx)

	var blogs []entities.Blog
	if err := db.Order("id").Find(&blogs).Error; err != nil {
		return nil, err
	}

	totals := &Totals{Blogs: len(blogs), Breakdown: make([]BlogTotals, 0, len(blogs))}
	if err := db.Model(&entities.Post{}).Count(&totals.Posts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entities.Category{}).Count(&totals.Categories).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entities.Author{}).Count(&totals.Authors).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, len(blogs))
	for i, blog := range blogs {
		ids[i] = blog.ID
	}
	posts, err := countBy(db.Model(&entities.Post{}), "blog_id", ids)
	if err != nil {
		return nil, err
	}
	categories, err := countBy(db.Model(&entities.Category{}), "blog_id", ids)
	if err != nil {
		return nil, err
	}

	for _, blog := range blogs {
		totals.Breakdown = append(totals.Breakdown, BlogTotals{
			Blog:       blog,
			Posts:      posts[blog.ID],
			Categories: categories[blog.ID],
		})
	}
	return totals, nil
}
