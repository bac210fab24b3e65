// Package textnorm derives slugs, clean markup, excerpts and read-time
// estimates from post text.
//
// Every function is pure and total: no I/O, no panics, no error returns.
// The markup functions are pattern based and tolerate partial or malformed
// HTML; they are cleaners, not parsers.
//
//	slug := textnorm.Slugify("Hello, World! 2024")     // "hello-world-2024"
//	body := textnorm.SanitizeMarkup(entry.Content)
//	excerpt := textnorm.Excerpt(body)                  // at most ~203 runes
//	minutes := textnorm.EstimateReadMinutes(body)
package textnorm
