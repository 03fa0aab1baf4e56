// SPDX-License-Identifier: GPL-3.0-or-later
package archiver

import (
	"fmt"
	"time"

	"github.com/mailboxtools/go-imap-archiver/domain"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// batchMover re-chunks a page to the configured chunk size and moves the
// chunks strictly in order, one outstanding move request at a time. A
// failed chunk is retried with the exact same uid set; the cursor never
// advances past an unconfirmed chunk. With retryLimit 0 the retrying
// never stops, matching the at-least-once bias of the original design.
// A positive retryLimit turns a persistently failing chunk into a fatal
// error after that many attempts, which changes completion semantics
// from "never give up" to "best effort within a bound".
type batchMover struct {
	conn    domain.ImapConnector
	journal domain.RunJournal
	tracker *Tracker

	archiveFolder string
	chunkSize     int
	retryLimit    int
	dryRun        bool

	runId      int64
	newBackOff func() backoff.BackOff

	l *logrus.Logger
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute
	// Retry duration is bounded by attempts, not elapsed time
	bo.MaxElapsedTime = 0
	return bo
}

func (bm *batchMover) movePage(uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}

	chunks := partitionUids(uids, bm.chunkSize)
	for _, chunk := range chunks {
		err := bm.moveChunk(chunk)
		if err != nil {
			return err
		}
	}

	return nil
}

func (bm *batchMover) moveChunk(chunk []uint32) error {
	if bm.dryRun {
		bm.l.WithFields(logrus.Fields{"chunksize": len(chunk), "destination": bm.archiveFolder}).Info("Not moving chunk due to dry-run")
		bm.tracker.RecordMoved(len(chunk))
		return nil
	}

	bo := bm.newBackOff()
	for attempt := 1; ; attempt++ {
		err := bm.conn.Move(chunk, bm.archiveFolder)
		if err == nil {
			bm.tracker.RecordMoved(len(chunk))
			bm.l.WithFields(logrus.Fields{"chunksize": len(chunk), "attempt": attempt}).Debug("Moved chunk")
			return nil
		}

		bm.l.WithFields(logrus.Fields{"chunksize": len(chunk), "firstuid": chunk[0], "attempt": attempt, "error": err}).Warn("Could not move chunk, will retry the same uids")
		if bm.journal != nil {
			journalErr := bm.journal.RecordChunkFailure(bm.runId, chunk[0], len(chunk), attempt, err.Error())
			if journalErr != nil {
				bm.l.WithField("error", journalErr).Warn("Could not journal chunk failure")
			}
		}

		if bm.retryLimit > 0 && attempt >= bm.retryLimit {
			return fmt.Errorf("giving up on chunk after %d attempts: %w", attempt, err)
		}

		time.Sleep(bo.NextBackOff())
	}
}

// taken from https://github.com/golang/go/wiki/SliceTricks
func partitionUids(uids []uint32, partitionSize int) [][]uint32 {
	batches := make([][]uint32, 0, (len(uids)+partitionSize-1)/partitionSize)

	for partitionSize < len(uids) {
		uids, batches = uids[partitionSize:], append(batches, uids[0:partitionSize:partitionSize])
	}
	batches = append(batches, uids)

	return batches
}
