// SPDX-License-Identifier: GPL-3.0-or-later
package archiver

import (
	"fmt"
	"strings"
	"time"

	"github.com/mailboxtools/go-imap-archiver/domain"
	"github.com/mailboxtools/go-imap-archiver/log"

	"github.com/sirupsen/logrus"
)

type Archiver struct {
	imapConnection domain.ImapConnector
	journal        domain.RunJournal
	tracker        *Tracker

	configuration *configuration

	l *logrus.Logger
}

func NewArchiver(imapConnection domain.ImapConnector, journal domain.RunJournal, tracker *Tracker, configFunc ...ConfigFunc) (*Archiver, error) {
	config := defaultConfiguration()
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	if tracker == nil {
		tracker = NewTracker()
	}

	return &Archiver{
		imapConnection: imapConnection,
		journal:        journal,
		tracker:        tracker,
		configuration:  config,
		l:              log.Logger(log.LOG_ARCHIVER),
	}, nil
}

func (a *Archiver) Tracker() *Tracker {
	return a.tracker
}

// Summary reports how a run ended. MovedCount reflects confirmed chunk
// moves only; on a dry-run it counts the mails that would have moved.
type Summary struct {
	Cutoff         time.Time
	EstimatedTotal uint32
	MovedCount     int
	Pages          int
	ArchiveMissing bool
	DryRun         bool
}

// Run performs one end-to-end archival pass: select the source folder,
// confirm the archive folder exists, snapshot the folder size for
// progress estimation, then page over the sequence space and move every
// matching chunk. The caller owns the connection and is responsible for
// logging out, also when Run returns an error.
func (a *Archiver) Run() (*Summary, error) {
	cutoff := Cutoff(time.Now(), a.configuration.RetentionDays)
	summary := &Summary{Cutoff: cutoff, DryRun: a.configuration.DryRun}

	a.l.WithFields(logrus.Fields{
		"source":      a.configuration.SourceFolder,
		"destination": a.configuration.ArchiveFolder,
		"cutoff":      cutoff.Format("2006-01-02"),
		"batchsize":   a.configuration.BatchSize,
		"dryrun":      a.configuration.DryRun,
	}).Info("Starting archival run")

	runId := a.beginRun(cutoff)

	err := a.imapConnection.Select(a.configuration.SourceFolder)
	if err != nil {
		return summary, a.fail(runId, fmt.Errorf("could not open source folder %s: %w", a.configuration.SourceFolder, err))
	}

	archiveExists, err := a.archiveFolderExists()
	if err != nil {
		return summary, a.fail(runId, err)
	}

	if !archiveExists {
		a.l.WithField("archivefolder", a.configuration.ArchiveFolder).Warn("Archive folder does not exist, nothing to do")
		summary.ArchiveMissing = true
		a.finishRun(runId, domain.RunArchiveMissing, 0)
		return summary, nil
	}

	if !a.configuration.DryRun {
		notMoveReadyReason, err := a.imapConnection.MoveReady()
		if err != nil {
			return summary, a.fail(runId, fmt.Errorf("could not check for move readiness: %w", err))
		}
		if notMoveReadyReason != nil {
			return summary, a.fail(runId, fmt.Errorf("folder is not ready for moving: %w", notMoveReadyReason))
		}
	}

	estimate, err := a.imapConnection.MessageCount(a.configuration.SourceFolder)
	if err != nil {
		// The estimate only feeds progress reporting, a run without one
		// is still correct.
		a.l.WithField("error", err).Warn("Could not estimate folder size, progress totals will be unreliable")
	} else {
		a.tracker.SetEstimate(estimate)
		summary.EstimatedTotal = estimate
	}

	mover := &batchMover{
		conn:          a.imapConnection,
		journal:       a.journal,
		tracker:       a.tracker,
		archiveFolder: a.configuration.ArchiveFolder,
		chunkSize:     a.configuration.BatchSize,
		retryLimit:    a.configuration.RetryLimit,
		dryRun:        a.configuration.DryRun,
		runId:         runId,
		newBackOff:    defaultBackOff,
		l:             a.l,
	}
	pag := newPaginator(a.imapConnection, cutoff, uint32(a.configuration.BatchSize))

	for {
		page, err := pag.nextPage()
		if err != nil {
			return summary, a.fail(runId, err)
		}
		summary.Pages++

		if len(page) > 0 {
			err = mover.movePage(page)
			if err != nil {
				return summary, a.fail(runId, err)
			}
		}

		if pag.done() {
			break
		}
	}

	summary.MovedCount = a.tracker.Snapshot().MovedCount
	a.finishRun(runId, domain.RunCompleted, summary.MovedCount)
	a.l.WithFields(logrus.Fields{"moved": summary.MovedCount, "pages": summary.Pages, "estimated": summary.EstimatedTotal}).Info("Archival run finished")

	return summary, nil
}

// archiveFolderExists matches the archive folder name case-insensitively
// so that e.g. "archive" and "ARCHIVE" count as present.
func (a *Archiver) archiveFolderExists() (bool, error) {
	folders, err := a.imapConnection.ListFolders()
	if err != nil {
		return false, fmt.Errorf("could not list folders: %w", err)
	}

	for _, folder := range folders {
		if strings.EqualFold(folder, a.configuration.ArchiveFolder) {
			return true, nil
		}
	}

	return false, nil
}

func (a *Archiver) beginRun(cutoff time.Time) int64 {
	if a.journal == nil {
		return 0
	}

	runId, err := a.journal.BeginRun(domain.RunRecord{
		StartedAt:     time.Now(),
		Cutoff:        cutoff,
		SourceFolder:  a.configuration.SourceFolder,
		ArchiveFolder: a.configuration.ArchiveFolder,
		DryRun:        a.configuration.DryRun,
	})
	if err != nil {
		a.l.WithField("error", err).Warn("Could not journal run start")
		return 0
	}

	return runId
}

func (a *Archiver) finishRun(runId int64, outcome domain.RunOutcome, movedCount int) {
	if a.journal == nil || runId == 0 {
		return
	}

	err := a.journal.FinishRun(runId, outcome, movedCount)
	if err != nil {
		a.l.WithField("error", err).Warn("Could not journal run outcome")
	}
}

func (a *Archiver) fail(runId int64, err error) error {
	a.finishRun(runId, domain.RunFailed, a.tracker.Snapshot().MovedCount)
	return err
}
