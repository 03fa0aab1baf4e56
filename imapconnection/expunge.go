// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"

	"github.com/emersion/go-imap"
)

// uidPlusExpunger removes the source copies of moved mails via UIDPLUS
// UID EXPUNGE, which only touches the given uids.
type uidPlusExpunger struct {
	flagger       deletedFlagger
	uidplusClient uidExpungeClient
}

func (u *uidPlusExpunger) expunge(uids []uint32) error {
	seqset, err := u.flagger.flagDeleted(uids)
	if err != nil {
		return fmt.Errorf("could not flag items as deleted: %w", err)
	}

	out := make(chan uint32)
	done := make(chan error, 1)
	go func() {
		done <- u.uidplusClient.UidExpunge(seqset, out)
	}()

	expunged := []uint32{}
	for uid := range out {
		expunged = append(expunged, uid)
	}

	err = <-done
	if err != nil {
		return fmt.Errorf("could not expunge mails: %w", err)
	}

	if len(expunged) != len(uids) {
		return fmt.Errorf("unexpected number of expunges, expected %d got %d", len(uids), len(expunged))
	}

	return nil
}

func (u *uidPlusExpunger) expungeReady() (error, error) {
	// UIDPLUS can expunge by uid and is therefore always ready
	return nil, nil
}

// compatibilityExpunger falls back to flag&expunge. A full EXPUNGE
// removes every flagged mail in the folder, so it is only safe when no
// unrelated mail carries the deleted flag.
type compatibilityExpunger struct {
	flagger deletedFlagger
	client  expungeSearchClient
}

func (c *compatibilityExpunger) expunge(uids []uint32) error {
	notExpungeReadyReason, err := c.expungeReady()
	if err != nil {
		return fmt.Errorf("could not check for expunge readiness: %w", err)
	}

	if notExpungeReadyReason != nil {
		return fmt.Errorf("folder is not ready for expunge: %w", notExpungeReadyReason)
	}

	_, err = c.flagger.flagDeleted(uids)
	if err != nil {
		return fmt.Errorf("could not set deleted flag: %w", err)
	}

	out := make(chan uint32)
	done := make(chan error, 1)
	go func() {
		done <- c.client.Expunge(out)
	}()

	expunged := []uint32{}
	for uid := range out {
		expunged = append(expunged, uid)
	}

	err = <-done
	if err != nil {
		return fmt.Errorf("could not expunge mails: %w", err)
	}

	if len(expunged) != len(uids) {
		return fmt.Errorf("unexpected number of expunges, expected %d got %d", len(uids), len(expunged))
	}

	return nil
}

var ItemsWithDeletedFlagPresent = fmt.Errorf("folder has previous items with delete flag set")

func (c *compatibilityExpunger) expungeReady() (error, error) {
	// Get all UIDs in folder with DeletedFlag set
	criteria := imap.NewSearchCriteria()
	criteria.WithFlags = []string{imap.DeletedFlag}
	ids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not search for deleted in folder: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}
	return ItemsWithDeletedFlagPresent, nil
}
