// SPDX-License-Identifier: GPL-3.0-or-later
package archiver

import (
	"fmt"
	"time"

	"github.com/mailboxtools/go-imap-archiver/domain"
)

// paginator drives fixed-size windows over the sequence-number space of
// the selected folder, one search per window.
//
// Termination is length-based: a page with fewer matches than the window
// size (including none at all) is treated as the last page. This assumes
// the server never returns a short page except at the end of the mailbox,
// which is an approximation rather than a protocol guarantee, but it is
// the behavior downstream accounting depends on.
type paginator struct {
	conn       domain.ImapConnector
	before     time.Time
	windowSize uint32

	nextStart uint32
	exhausted bool
}

func newPaginator(conn domain.ImapConnector, before time.Time, windowSize uint32) *paginator {
	return &paginator{
		conn:       conn,
		before:     before,
		windowSize: windowSize,
		nextStart:  1,
	}
}

// nextPage issues one windowed search and advances the cursor past the
// window. The short page that ends pagination is still returned and must
// be processed by the caller.
func (p *paginator) nextPage() ([]uint32, error) {
	if p.exhausted {
		return nil, nil
	}

	window := domain.SeqWindow{Start: p.nextStart, Size: p.windowSize}
	uids, err := p.conn.SearchBefore(p.before, window)
	if err != nil {
		return nil, fmt.Errorf("could not search window starting at %d: %w", window.Start, err)
	}

	if uint32(len(uids)) < p.windowSize {
		p.exhausted = true
	} else {
		p.nextStart += p.windowSize
	}

	return uids, nil
}

func (p *paginator) done() bool {
	return p.exhausted
}
