package config

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		MinSize:         "1MB",
		MaxDepth:        0, // unlimited
		Categories:      []string{},
		IncludeGlobal:   false,
		ExcludePatterns: []string{},
		ProtectedPaths:  []string{},
		TopN:            10,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# cacheclean configuration
# Location: ~/.cacheclean/config.yaml

# Ignore matches smaller than this (B, KB, MB, GB, TB)
min_size: "1MB"

# How many directory levels below the scan root to visit (0 = unlimited)
max_depth: 0

# Restrict scans to these categories (empty = all)
# Run "cacheclean types" for the list
categories: []

# Also report npm, yarn, pip, cargo and go caches in the home directory
include_global: false

# Wildcard patterns matched against absolute paths; matches are skipped
exclude_patterns:
  - "*/vendor/*"

# Paths that are never deleted, in addition to system directories
protected_paths: []

# Rows in the "largest items" table
top_n: 10

log:
  file: ""          # default ~/.cacheclean/cacheclean.log
  level: "info"     # debug, info, warn, error
  max_size_mb: 5
  max_backups: 3
  max_age_days: 28
`
}
