// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import "github.com/emersion/go-imap"

//go:generate mockgen -destination=strategy_mocks_test.go -package=imapconnection -source strategies.go

// Consolidated file for the mover and expunger interfaces used by
// imapconnection plus the client capabilities they need. Unexported
// interfaces do not allow for reflection mode but source-mode mockgen
// fails if embedded interfaces are spread over multiple source files.

type mover interface {
	move(uids []uint32, folder string) error
	moveReady() (error, error)
}

type expunger interface {
	expunge(uids []uint32) error
	expungeReady() (error, error)
}

type moveClient interface {
	UidMove(seqset *imap.SeqSet, dest string) error
}

type copyClient interface {
	UidCopy(seqset *imap.SeqSet, dest string) error
}

type deletedFlagger interface {
	flagDeleted(uids []uint32) (*imap.SeqSet, error)
}

type uidExpungeClient interface {
	UidExpunge(seqSet *imap.SeqSet, ch chan uint32) error
}

type expungeSearchClient interface {
	Expunge(ch chan uint32) error
	UidSearch(criteria *imap.SearchCriteria) (uids []uint32, err error)
}
