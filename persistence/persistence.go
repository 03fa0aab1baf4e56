// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"fmt"
	"time"

	"github.com/mailboxtools/go-imap-archiver/domain"
	"github.com/mailboxtools/go-imap-archiver/log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

// Journal records archival runs and chunk failures in a local sqlite
// database for after-the-fact diagnosis. It is write-only from the
// engine's point of view, nothing in here ever influences what a run
// does.
type Journal struct {
	db *sqlx.DB
	l  *logrus.Logger
}

var migrationSource = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-runs",
			Up: []string{`CREATE TABLE runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				startedat DATETIME NOT NULL,
				finishedat DATETIME,
				cutoff DATETIME NOT NULL,
				sourcefolder TEXT NOT NULL,
				archivefolder TEXT NOT NULL,
				dryrun BOOLEAN NOT NULL,
				outcome TEXT,
				movedcount INTEGER NOT NULL DEFAULT 0
			)`},
			Down: []string{`DROP TABLE runs`},
		},
		{
			Id: "2-chunk-failures",
			Up: []string{`CREATE TABLE chunk_failures (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				runid INTEGER NOT NULL REFERENCES runs(id),
				occurredat DATETIME NOT NULL,
				firstuid INTEGER NOT NULL,
				chunksize INTEGER NOT NULL,
				attempt INTEGER NOT NULL,
				cause TEXT NOT NULL
			)`},
			Down: []string{`DROP TABLE chunk_failures`},
		},
	},
}

func NewJournal(datasource string) (*Journal, error) {
	db, err := sqlx.Connect("sqlite3", datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := log.Logger(log.LOG_PERSISTENCE)
	l.WithField("file", datasource).Info("Connected")

	_, err = db.Exec(`PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	_, err = db.Exec(`PRAGMA synchronous=normal`)
	if err != nil {
		return nil, fmt.Errorf("could not set synchronous mode: %w", err)
	}

	appliedMigrations, err := migrate.Exec(db.DB, "sqlite3", migrationSource, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("could not migrate to newest version: %w", err)
	}

	l.WithField("migrations", appliedMigrations).Debug("Executed migrations")

	return &Journal{
		db: db,
		l:  l,
	}, nil
}

func (j *Journal) Close() error {
	err := j.db.Close()
	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}
	j.l.Info("Disconnected")
	return nil
}

func (j *Journal) BeginRun(run domain.RunRecord) (int64, error) {
	result, err := j.db.Exec(
		"INSERT INTO runs (startedat, cutoff, sourcefolder, archivefolder, dryrun) VALUES (?, ?, ?, ?, ?)",
		run.StartedAt,
		run.Cutoff,
		run.SourceFolder,
		run.ArchiveFolder,
		run.DryRun,
	)
	if err != nil {
		return 0, fmt.Errorf("could not save run: %w", err)
	}

	runId, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("could not get run id: %w", err)
	}

	j.l.WithFields(logrus.Fields{"run": runId, "source": run.SourceFolder, "cutoff": run.Cutoff}).Debug("Journaled run start")
	return runId, nil
}

func (j *Journal) FinishRun(runId int64, outcome domain.RunOutcome, movedCount int) error {
	result, err := j.db.Exec(
		"UPDATE runs SET finishedat = ?, outcome = ?, movedcount = ? WHERE id = ?",
		time.Now(),
		string(outcome),
		movedCount,
		runId,
	)
	if err != nil {
		return fmt.Errorf("could not finish run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get num of affected rows: %w", err)
	}

	if affected != 1 {
		return fmt.Errorf("unexpected number of affected rows, expected 1 got %d", affected)
	}

	j.l.WithFields(logrus.Fields{"run": runId, "outcome": outcome, "moved": movedCount}).Info("Journaled run outcome")
	return nil
}

func (j *Journal) RecordChunkFailure(runId int64, firstUid uint32, chunkSize int, attempt int, cause string) error {
	_, err := j.db.Exec(
		"INSERT INTO chunk_failures (runid, occurredat, firstuid, chunksize, attempt, cause) VALUES (?, ?, ?, ?, ?, ?)",
		runId,
		time.Now(),
		firstUid,
		chunkSize,
		attempt,
		cause,
	)
	if err != nil {
		return fmt.Errorf("could not save chunk failure: %w", err)
	}

	return nil
}
