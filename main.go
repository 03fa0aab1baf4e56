// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"os"

	"github.com/mailboxtools/go-imap-archiver/archiver"
	"github.com/mailboxtools/go-imap-archiver/config"
	"github.com/mailboxtools/go-imap-archiver/domain"
	"github.com/mailboxtools/go-imap-archiver/imapconnection"
	"github.com/mailboxtools/go-imap-archiver/log"
	"github.com/mailboxtools/go-imap-archiver/persistence"
	"github.com/mailboxtools/go-imap-archiver/progress"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional, real environment variables win either way
	_ = godotenv.Load()

	log.InitLogging("info")
	logger := log.Logger(log.LOG_MAIN)

	configFile := "config.toml"
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	conf, err := config.ReadConfig(configFile)
	if err != nil {
		logger.WithField("error", err).Error("Could not load config")
		return 1
	}

	if conf.Loglevel != nil {
		log.SetLogLevel(*conf.Loglevel)
	}

	var journal domain.RunJournal
	if conf.Database != "" {
		j, err := persistence.NewJournal(conf.Database)
		if err != nil {
			logger.WithField("error", err).Error("Could not open run journal")
			return 1
		}
		defer func() {
			if err := j.Close(); err != nil {
				logger.WithField("error", err).Warn("Could not close run journal")
			}
		}()
		journal = j
	}

	imapConn, err := imapconnection.NewImapConnection(imapconnection.Settings{
		Host:           conf.ImapHost,
		User:           conf.User,
		Password:       conf.Password,
		StartTLS:       conf.StartTLS,
		DialTimeout:    conf.DialTimeout(),
		CommandTimeout: conf.CommandTimeout(),
	})
	if err != nil {
		logger.WithField("error", err).Error("Could not connect to imap server")
		return 1
	}
	// Logout is attempted no matter how the run ends
	defer func() {
		if err := imapConn.Close(); err != nil {
			logger.WithField("error", err).Warn("Logout failed")
		}
	}()

	configs := []archiver.ConfigFunc{
		archiver.SourceFolder(conf.SourceFolder),
		archiver.ArchiveFolder(conf.ArchiveFolder),
		archiver.BatchSize(conf.BatchSize),
		archiver.RetentionDays(conf.RetentionDays),
		archiver.RetryLimit(conf.RetryLimit),
	}
	if conf.DryRun {
		configs = append(configs, archiver.DryRun())
	}

	tracker := archiver.NewTracker()
	bar := progress.New(conf.Progress)
	tracker.Subscribe(bar.Observe)
	defer bar.Stop()

	arch, err := archiver.NewArchiver(imapConn, journal, tracker, configs...)
	if err != nil {
		logger.WithField("error", err).Error("Could not create archiver")
		return 1
	}

	if conf.DryRun {
		logger.Warn("Skipping moves due to dry-run")
	}

	summary, err := arch.Run()
	bar.Stop()
	if err != nil {
		logger.WithField("error", err).Error("Archival run failed")
		return 1
	}

	if summary.ArchiveMissing {
		logger.WithField("archivefolder", conf.ArchiveFolder).Warn("Archive folder missing, moved nothing")
		return 0
	}

	logger.WithFields(logrus.Fields{
		"moved":     summary.MovedCount,
		"pages":     summary.Pages,
		"estimated": summary.EstimatedTotal,
		"cutoff":    summary.Cutoff.Format("2006-01-02"),
	}).Info("Done")
	return 0
}
