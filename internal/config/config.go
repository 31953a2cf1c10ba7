package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var ErrJiraNotConfigured = errors.New("jira credentials not configured (set JIRA_URL, JIRA_EMAIL and JIRA_API_TOKEN)")

const (
	HistoryExec  = "exec"
	HistoryGoGit = "go-git"
)

type Config struct {
	DatabasePath   string `toml:"database_path"`
	HistoryBackend string `toml:"history_backend"`
	DashboardAddr  string `toml:"dashboard_addr"`
	TimelineDays   int    `toml:"timeline_days"`
	RecentCommits  int    `toml:"recent_commits"`
}

type JiraCredentials struct {
	URL      string
	Email    string
	APIToken string
}

func DefaultConfig() *Config {
	return &Config{
		DatabasePath:   ".ai-metrics.db",
		HistoryBackend: HistoryExec,
		DashboardAddr:  ":3000",
		TimelineDays:   30,
		RecentCommits:  15,
	}
}

// Dir is ~/.aimetrics unless AIMETRICS_HOME points elsewhere.
func Dir() (string, error) {
	if dir := os.Getenv("AIMETRICS_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".aimetrics"), nil
}

func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func ErrorLogPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "errors.log"), nil
}

func EnsureDirectories() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := EnsureDirectories(); err != nil {
			return nil, err
		}
		if err := Save(cfg); err != nil {
			return nil, err
		}
	} else if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
	}

	if path := os.Getenv("AIMETRICS_DB"); path != "" {
		cfg.DatabasePath = path
	}
	cfg.DatabasePath = expandPath(cfg.DatabasePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

func (c *Config) Validate() error {
	switch c.HistoryBackend {
	case HistoryExec, HistoryGoGit:
	default:
		return fmt.Errorf("unknown history_backend %q (expected %q or %q)", c.HistoryBackend, HistoryExec, HistoryGoGit)
	}
	if c.TimelineDays <= 0 {
		return fmt.Errorf("timeline_days must be positive, got %d", c.TimelineDays)
	}
	if c.RecentCommits <= 0 {
		return fmt.Errorf("recent_commits must be positive, got %d", c.RecentCommits)
	}
	return nil
}

// LoadEnv reads ./.env into the process environment. A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Jira returns the issue tracker credentials from the environment.
func Jira() (JiraCredentials, error) {
	creds := JiraCredentials{
		URL:      os.Getenv("JIRA_URL"),
		Email:    os.Getenv("JIRA_EMAIL"),
		APIToken: os.Getenv("JIRA_API_TOKEN"),
	}
	if creds.URL == "" || creds.Email == "" || creds.APIToken == "" {
		return JiraCredentials{}, ErrJiraNotConfigured
	}
	return creds, nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
