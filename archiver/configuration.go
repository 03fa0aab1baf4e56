// SPDX-License-Identifier: GPL-3.0-or-later
package archiver

import "fmt"

type ConfigFunc func(c *configuration) error

func SourceFolder(folder string) ConfigFunc {
	return func(c *configuration) error {
		if len(folder) == 0 {
			return fmt.Errorf("SourceFolder cannot be empty")
		}

		c.SourceFolder = folder
		return nil
	}
}

func ArchiveFolder(folder string) ConfigFunc {
	return func(c *configuration) error {
		if len(folder) == 0 {
			return fmt.Errorf("ArchiveFolder cannot be empty")
		}

		c.ArchiveFolder = folder
		return nil
	}
}

func BatchSize(size int) ConfigFunc {
	return func(c *configuration) error {
		if size <= 0 {
			return fmt.Errorf("BatchSize must be positive")
		}

		c.BatchSize = size
		return nil
	}
}

func RetentionDays(days int) ConfigFunc {
	return func(c *configuration) error {
		if days <= 0 {
			return fmt.Errorf("RetentionDays must be positive")
		}

		c.RetentionDays = days
		return nil
	}
}

func RetryLimit(limit int) ConfigFunc {
	return func(c *configuration) error {
		if limit < 0 {
			return fmt.Errorf("RetryLimit cannot be negative, use 0 to retry indefinitely")
		}

		c.RetryLimit = limit
		return nil
	}
}

func DryRun() ConfigFunc {
	return func(c *configuration) error {
		c.DryRun = true

		return nil
	}
}

type configuration struct {
	SourceFolder  string
	ArchiveFolder string
	BatchSize     int
	RetentionDays int
	RetryLimit    int
	DryRun        bool
}

func defaultConfiguration() *configuration {
	return &configuration{
		SourceFolder:  "INBOX",
		ArchiveFolder: "Archive",
		BatchSize:     500,
		RetentionDays: 7,
	}
}
