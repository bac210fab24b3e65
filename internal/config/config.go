package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ModerationMode string

const (
	ModerationAuto   ModerationMode = "auto"   // Comments are approved on creation (default)
	ModerationManual ModerationMode = "manual" // Comments wait in pending until moderated
)

type (
	Config struct {
		HTTP
		Global
		Database
		Feed
		ImportSync
		Redis
		Comments
		Logging
		Tasks
		Admin
	}

	HTTP struct {
		Port           int32
		Host           string
		AllowedOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver   string // sqlite, postgres or mysql
		Path     string // SQLite file path
		DSN      string // Connection string for postgres and mysql
		LogLevel string // silent, error, warn, info
	}
	Feed struct {
		RootDir          string
		ReadTimeout      time.Duration
		FetchConcurrency int
		S3               S3
	}
	S3 struct {
		Region          string
		Endpoint        string
		AccessKeyID     string
		SecretAccessKey string
		PathStyle       bool
	}
	ImportSync struct {
		Enabled  bool
		Schedule string            // Cron format: "0 3 * * *" = daily at 03:00
		Mapping  map[string]string // source identifier -> blog slug
	}
	Redis struct {
		URL     string // Enables the distributed import lock when set
		LockTTL time.Duration
	}
	Comments struct {
		Moderation ModerationMode
		MaxDepth   int
	}
	Logging struct {
		Level  string
		Format string // json or console
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Admin struct {
		TokenHash string // bcrypt hash of the admin bearer token; empty disables the guard
	}
)

// ParseMapping parses "source=blog,source2=blog2" into a mapping.
// Malformed pairs are ignored.
func ParseMapping(raw string) map[string]string {
	mapping := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		source, blog, ok := strings.Cut(strings.TrimSpace(pair), "=")
		source = strings.TrimSpace(source)
		blog = strings.TrimSpace(blog)
		if !ok || source == "" || blog == "" {
			continue
		}
		mapping[source] = blog
	}
	return mapping
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("feed_root_dir", DefaultFeedRootDir)
	v.SetDefault("feed_read_timeout", "30s")
	v.SetDefault("feed_fetch_concurrency", 4)
	v.SetDefault("feed_s3_region", "us-east-1")
	v.SetDefault("feed_s3_path_style", false)

	v.SetDefault("import_sync_enabled", false)
	v.SetDefault("import_sync_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("import_sync_mapping", "")

	v.SetDefault("redis_url", "")
	v.SetDefault("import_lock_ttl", "30m")

	v.SetDefault("comment_moderation", string(ModerationAuto))
	v.SetDefault("comment_max_depth", 8)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "30m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("admin_token_hash", "")

	return &Config{
		HTTP: HTTP{
			Port:           v.GetInt32("PORT"),
			Host:           v.GetString("HOST"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Feed: Feed{
			RootDir:          v.GetString("FEED_ROOT_DIR"),
			ReadTimeout:      v.GetDuration("FEED_READ_TIMEOUT"),
			FetchConcurrency: v.GetInt("FEED_FETCH_CONCURRENCY"),
			S3: S3{
				Region:          v.GetString("FEED_S3_REGION"),
				Endpoint:        v.GetString("FEED_S3_ENDPOINT"),
				AccessKeyID:     v.GetString("FEED_S3_ACCESS_KEY_ID"),
				SecretAccessKey: v.GetString("FEED_S3_SECRET_ACCESS_KEY"),
				PathStyle:       v.GetBool("FEED_S3_PATH_STYLE"),
			},
		},
		ImportSync: ImportSync{
			Enabled:  v.GetBool("IMPORT_SYNC_ENABLED"),
			Schedule: v.GetString("IMPORT_SYNC_SCHEDULE"),
			Mapping:  ParseMapping(v.GetString("IMPORT_SYNC_MAPPING")),
		},
		Redis: Redis{
			URL:     v.GetString("REDIS_URL"),
			LockTTL: v.GetDuration("IMPORT_LOCK_TTL"),
		},
		Comments: Comments{
			Moderation: ModerationMode(strings.ToLower(v.GetString("COMMENT_MODERATION"))),
			MaxDepth:   v.GetInt("COMMENT_MAX_DEPTH"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Admin: Admin{
			TokenHash: v.GetString("ADMIN_TOKEN_HASH"),
		},
	}
}
