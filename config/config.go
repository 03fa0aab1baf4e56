// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment overrides, so credentials can stay out of the config file.
const (
	EnvImapHost = "IMAP_ARCHIVER_HOST"
	EnvUser     = "IMAP_ARCHIVER_USER"
	EnvPassword = "IMAP_ARCHIVER_PASSWORD"
)

type Config struct {
	ImapHost string
	User     string
	Password string

	// StartTLS upgrades a plaintext connection instead of dialing with
	// implicit TLS.
	StartTLS bool

	SourceFolder  string
	ArchiveFolder string
	BatchSize     int
	RetentionDays int

	// RetryLimit bounds move retries per chunk; 0 retries indefinitely.
	RetryLimit int

	DialTimeoutSeconds    int
	CommandTimeoutSeconds int

	DryRun   bool
	Progress bool
	Database string

	Loglevel *string
}

func ReadConfig(filename string) (*Config, error) {
	config := &Config{
		SourceFolder:          "INBOX",
		ArchiveFolder:         "Archive",
		BatchSize:             500,
		RetentionDays:         7,
		DialTimeoutSeconds:    30,
		CommandTimeoutSeconds: 60,
		Progress:              true,
		Database:              "archiver.db",
		DryRun:                true,
	}

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	applyEnvOverrides(config)

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv(EnvImapHost); v != "" {
		c.ImapHost = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.User = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Password = v
	}
}

func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}

func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

func (c *Config) validate() error {
	if err := validateNonEmptyStringField(c.ImapHost, "ImapHost must not be empty, set to host:port of the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.User, "User must not be empty, set to username on the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Password, "Password must not be empty, set to password of User on the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.SourceFolder, "SourceFolder must not be empty"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.ArchiveFolder, "ArchiveFolder must not be empty"); err != nil {
		return err
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("BatchSize must be positive, got %d", c.BatchSize)
	}

	if c.RetentionDays <= 0 {
		return fmt.Errorf("RetentionDays must be positive, got %d", c.RetentionDays)
	}

	if c.RetryLimit < 0 {
		return fmt.Errorf("RetryLimit cannot be negative, use 0 to retry indefinitely")
	}

	return nil
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
