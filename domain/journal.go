// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "time"

//go:generate mockgen -destination=mocks/journal.go -package=mocks . RunJournal

type RunOutcome string

const (
	RunCompleted      = RunOutcome("completed")
	RunFailed         = RunOutcome("failed")
	RunArchiveMissing = RunOutcome("archive-missing")
)

// RunRecord describes one archival run at the moment it starts. The
// journal is observational only, the engine never reads it back to make
// decisions.
type RunRecord struct {
	StartedAt     time.Time
	Cutoff        time.Time
	SourceFolder  string
	ArchiveFolder string
	DryRun        bool
}

type RunJournal interface {
	Close() error
	BeginRun(run RunRecord) (int64, error)
	FinishRun(runId int64, outcome RunOutcome, movedCount int) error
	RecordChunkFailure(runId int64, firstUid uint32, chunkSize int, attempt int, cause string) error
}
