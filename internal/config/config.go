package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultWebPort      = 8080
	DefaultTimerMinutes = 30
	MinTimerMinutes     = 5
	MaxTimerMinutes     = 120
	DefaultTargetCGPA   = 9.0
	DefaultBackupCron   = "0 * * * *"
)

type Config struct {
	DBPath       string  `json:"db_path"`
	WebEnabled   bool    `json:"web_enabled"`
	WebPort      int     `json:"web_port"`
	LogLevel     string  `json:"log_level"`
	LogFormat    string  `json:"log_format"`
	BackupCron   string  `json:"backup_cron"`
	BackupDir    string  `json:"backup_dir"`
	TimerMinutes int     `json:"timer_minutes"`
	TargetCGPA   float64 `json:"target_cgpa"`
}

func Default() Config {
	cfg := Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills zero or out-of-range values so configs written by older
// builds keep working.
func (c *Config) Normalize() {
	if c.WebPort <= 0 || c.WebPort > 65535 {
		c.WebPort = DefaultWebPort
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		c.LogFormat = "console"
	}
	if c.BackupCron == "" {
		c.BackupCron = DefaultBackupCron
	}
	if c.TimerMinutes < MinTimerMinutes || c.TimerMinutes > MaxTimerMinutes {
		c.TimerMinutes = DefaultTimerMinutes
	}
	if c.TargetCGPA <= 0 || c.TargetCGPA > 10 {
		c.TargetCGPA = DefaultTargetCGPA
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "studyboard", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	config.Normalize()
	return config, nil
}

// Save replaces the file at path through a temp file in the same directory.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if err := EnsureDir(path); err != nil {
		return err
	}
	cfg.Normalize()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".studyboard-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// LogPath is where the terminal UI writes its log, next to the config file.
func LogPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "studyboard.log")
}

// ResolveBackupDir defaults to a backups directory beside the config file.
func (c Config) ResolveBackupDir(configPath string) string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(configPath), "backups")
}
