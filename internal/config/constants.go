package config

// Default paths and driver names
const (
	// DefaultDatabasePath is the default path for the SQLite content database
	DefaultDatabasePath = "./newtechs.db"

	// DefaultFeedRootDir holds one directory per Blogger export, each containing feed.atom
	DefaultFeedRootDir = "./feeds"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)
