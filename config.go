package slidedeck

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Config holds all configuration for the slidedeck engine.
type Config struct {
	// DBPath is the full path to the SQLite cache database.
	// If empty, defaults to ~/.slidedeck/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "slidedeck".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.slidedeck/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// CacheEnabled stores every successful parse keyed by content and options.
	CacheEnabled bool `json:"cache_enabled" yaml:"cache_enabled"`

	// Processing is the default set of parse options.
	Processing Options `json:"processing" yaml:"processing"`

	// MaxUploadBytes caps the size of a presentation accepted by ParseFile
	// and the HTTP server. Zero means no limit.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	// Logger receives engine and parser logs. Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with every extraction enabled and the
// cache stored in ~/.slidedeck/slidedeck.db.
func DefaultConfig() Config {
	return Config{
		DBName:         "slidedeck",
		StorageDir:     "home",
		CacheEnabled:   true,
		Processing:     DefaultOptions(),
		MaxUploadBytes: 100 << 20,
	}
}

// LoadConfig reads a JSON config file over DefaultConfig. Fields missing
// from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	switch c.StorageDir {
	case "", "home", "local", "cwd":
	default:
		return fmt.Errorf("%w: unknown storage_dir %q", ErrInvalidConfig, c.StorageDir)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("%w: max_upload_bytes must not be negative", ErrInvalidConfig)
	}
	if q := c.Processing.ImageQuality; q < 0 || q > 100 {
		return fmt.Errorf("%w: image quality %d out of range", ErrInvalidConfig, q)
	}
	return nil
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "slidedeck"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".slidedeck", name+".db")
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
