// Package config loads the m365admin configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration.
type Config struct {
	// TenantID is the directory (tenant) ID, informational in logs.
	TenantID string `toml:"tenant_id"`
	// ClientID is the app registration used to obtain tokens out-of-band.
	ClientID string `toml:"client_id"`
	// GraphEndpoint overrides the Graph base URL (sovereign clouds, tests).
	GraphEndpoint string `toml:"graph_endpoint"`

	Upload  UploadConfig  `toml:"upload"`
	Rooms   RoomsConfig   `toml:"rooms"`
	Audit   AuditConfig   `toml:"audit"`
	Mailbox MailboxConfig `toml:"mailbox"`
}

// UploadConfig holds the SharePoint upload destination.
type UploadConfig struct {
	// SiteEndpoint is the Graph URL of the destination site,
	// e.g. https://graph.microsoft.com/v1.0/sites/{site-id}.
	SiteEndpoint string `toml:"site_endpoint"`
	// Folder is the destination folder under the document library root.
	Folder string `toml:"folder"`
}

// RoomsConfig holds the meeting-room report settings.
type RoomsConfig struct {
	// Rooms are the room mailbox addresses to report on.
	Rooms []string `toml:"rooms"`
	// LookbackDays is the report window ending now.
	LookbackDays int `toml:"lookback_days"`
	// TopN caps the organizer and attendee tallies.
	TopN int `toml:"top_n"`
}

// AuditConfig holds the directory-audit report settings.
type AuditConfig struct {
	// Categories filters audit entries (e.g. RoleManagement, GroupManagement).
	Categories []string `toml:"categories"`
	// LookbackDays is the report window ending now.
	LookbackDays int `toml:"lookback_days"`
}

// MailboxConfig holds the mailbox item-count report settings.
type MailboxConfig struct {
	// Users are the mailboxes to count.
	Users []string `toml:"users"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Rooms: RoomsConfig{
			LookbackDays: 30,
			TopN:         10,
		},
		Audit: AuditConfig{
			Categories:   []string{"RoleManagement"},
			LookbackDays: 7,
		},
	}
}

// DefaultPath is the configuration file location under the user's home.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".m365admin", "config.toml"), nil
}

// Load reads the TOML file at path, applying defaults for absent keys.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Rooms.LookbackDays <= 0 {
		cfg.Rooms.LookbackDays = 30
	}
	if cfg.Rooms.TopN <= 0 {
		cfg.Rooms.TopN = 10
	}
	if cfg.Audit.LookbackDays <= 0 {
		cfg.Audit.LookbackDays = 7
	}

	return cfg, nil
}
