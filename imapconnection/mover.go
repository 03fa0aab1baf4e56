// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"

	"github.com/emersion/go-imap"
)

type moveMover struct {
	moveClient moveClient
}

func (m *moveMover) move(uids []uint32, folder string) error {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	return m.moveClient.UidMove(seqset, folder)
}

func (m *moveMover) moveReady() (error, error) {
	// MOVE implements move directly and is therefore ready to move all the time
	return nil, nil
}

type copyExpungeMover struct {
	copyClient copyClient
	expunger   expunger
}

func (c *copyExpungeMover) move(uids []uint32, folder string) error {
	notExpungeReadyReason, err := c.moveReady()
	if err != nil {
		return fmt.Errorf("could not check for expunge readiness to move: %w", err)
	}

	if notExpungeReadyReason != nil {
		return fmt.Errorf("folder is not ready for expunge, cannot move (copy&expunge): %w", notExpungeReadyReason)
	}

	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	err = c.copyClient.UidCopy(seqset, folder)
	if err != nil {
		return fmt.Errorf("could not copy mails: %w", err)
	}

	err = c.expunger.expunge(uids)
	if err != nil {
		return fmt.Errorf("could not expunge copied mails: %w", err)
	}

	return nil
}

func (c *copyExpungeMover) moveReady() (error, error) {
	return c.expunger.expungeReady()
}
