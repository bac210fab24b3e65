// Package auth guards the mutating endpoints of the API.
//
// Access control is optional. When ADMIN_TOKEN_HASH holds a bcrypt hash,
// requests to guarded routes must present the matching token:
//
//	Authorization: Bearer <token>
//
// Repeated wrong tokens from the same client IP are locked out for a while
// by RateLimiter.
//
// # Configuration
//
// Generate a token and its hash with the CLI:
//
//	newtechs hash-admin-token
//
// then set:
//
//	ADMIN_TOKEN_HASH='$2a$12$...'
//
// # Usage
//
//	limiter := auth.NewRateLimiter(auth.DefaultRateLimitConfig())
//	guard := auth.NewAdminGuard(cfg.Admin.TokenHash, limiter, logger)
//	router.POST("/blogs", guard.Handler(), blogs.Create)
package auth
