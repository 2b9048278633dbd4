package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	// WorkspaceDir is the parent of per-job scratch directories. Empty means
	// the operating system temp directory.
	WorkspaceDir string `toml:"workspace_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
	HealthBind   string `toml:"health_bind"`
}

// AWS contains the shared AWS client settings used by storage and queue.
type AWS struct {
	Region          string `toml:"region"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// Storage contains the blob bucket holding manual videos and screenshots.
type Storage struct {
	Bucket       string `toml:"bucket"`
	Endpoint     string `toml:"endpoint"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// Queue contains the SQS queue the worker consumes.
type Queue struct {
	Endpoint          string `toml:"endpoint"`
	AccountNumber     string `toml:"account_number"`
	Name              string `toml:"name"`
	WaitSeconds       int    `toml:"wait_seconds"`
	VisibilityTimeout int    `toml:"visibility_timeout"`
	MaxMessages       int    `toml:"max_messages"`
}

// Gemini contains the generative model settings used for title synthesis.
type Gemini struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxOutputTokens int    `toml:"max_output_tokens"`
}

// FFmpeg contains the frame extraction binary settings.
type FFmpeg struct {
	Binary         string `toml:"binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Worker contains listener fan-out and lease timing.
type Worker struct {
	Listeners           int `toml:"listeners"`
	HeartbeatInterval   int `toml:"heartbeat_interval"`
	LeaseTimeout        int `toml:"lease_timeout"`
	ReapInterval        int `toml:"reap_interval"`
	StaleWorkspaceHours int `toml:"stale_workspace_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Failures       bool   `toml:"failures"`
	Reclaims       bool   `toml:"reclaims"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`

	// RetentionDays prunes rotated worker logs older than this; 0 disables pruning.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for the systemqa worker.
//
// Configuration sections by subsystem:
//   - Paths: workspace, state and log directories plus the health bind address
//   - AWS: region and optional static credentials
//   - Storage: S3 bucket for videos and screenshots
//   - Queue: SQS queue carrying manual job messages
//   - Gemini: title synthesis model
//   - FFmpeg: frame extraction and source probe binaries
//   - Worker: listener count and lease timing
//   - Notifications: ntfy push notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	AWS           AWS           `toml:"aws"`
	Storage       Storage       `toml:"storage"`
	Queue         Queue         `toml:"queue"`
	Gemini        Gemini        `toml:"gemini"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Worker        Worker        `toml:"worker"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/systemqa/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("systemqa.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for worker operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Paths.WorkspaceDir) != "" {
		dirs = append(dirs, c.Paths.WorkspaceDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file holding manual processing state.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "manuals.db")
}

// LockPath returns the worker single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "worker.lock")
}

// WorkspaceRoot returns the parent directory for job workspaces.
func (c *Config) WorkspaceRoot() string {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return os.TempDir()
	}
	return c.Paths.WorkspaceDir
}

// QueueURL builds the SQS queue URL from endpoint, account number and name.
func (c *Config) QueueURL() string {
	endpoint := strings.TrimRight(strings.TrimSpace(c.Queue.Endpoint), "/")
	return fmt.Sprintf("%s/%s/%s", endpoint, strings.TrimSpace(c.Queue.AccountNumber), strings.TrimSpace(c.Queue.Name))
}

// HeartbeatInterval returns the lease renewal period.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Worker.HeartbeatInterval) * time.Second
}

// LeaseTimeout returns how long a PROCESSING claim stays valid without renewal.
func (c *Config) LeaseTimeout() time.Duration {
	return time.Duration(c.Worker.LeaseTimeout) * time.Second
}

// ReapInterval returns how often expired leases are reclaimed.
func (c *Config) ReapInterval() time.Duration {
	return time.Duration(c.Worker.ReapInterval) * time.Second
}

// FFmpegTimeout returns the per-frame capture timeout.
func (c *Config) FFmpegTimeout() time.Duration {
	return time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
