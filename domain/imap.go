// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "time"

//go:generate mockgen -destination=mocks/imap.go -package=mocks . ImapConnector

// SeqWindow is a fixed-size window over the 1-based message sequence
// numbers of the selected mailbox, covering [Start, Start+Size).
type SeqWindow struct {
	Start uint32
	Size  uint32
}

// End returns the last sequence number covered by the window, inclusive.
func (w SeqWindow) End() uint32 {
	return w.Start + w.Size - 1
}

type ImapConnector interface {
	Select(folder string) error
	SearchBefore(before time.Time, window SeqWindow) ([]uint32, error)
	ListFolders() ([]string, error)
	MessageCount(folder string) (uint32, error)
	MoveReady() (error, error)
	Move(uids []uint32, folder string) error

	Close() error
}
