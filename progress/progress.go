// SPDX-License-Identifier: GPL-3.0-or-later
package progress

import (
	"sync"

	"github.com/mailboxtools/go-imap-archiver/archiver"
	"github.com/mailboxtools/go-imap-archiver/log"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
)

// Bar renders a terminal progress bar fed by the archiver's progress
// tracker. It is an observer only, the engine works the same with the
// bar disabled.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	enabled bool
	mu      sync.Mutex

	l *logrus.Logger
}

func New(enabled bool) *Bar {
	return &Bar{
		enabled: enabled,
		l:       log.Logger(log.LOG_PROGRESS),
	}
}

// Observe is an archiver.Observer. The bar starts lazily on the first
// snapshot carrying an estimate; with no estimate there is no total to
// render against and the bar stays off.
func (b *Bar) Observe(snapshot archiver.Snapshot) {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pb == nil {
		if snapshot.EstimatedTotal == 0 {
			return
		}

		pb, err := pterm.DefaultProgressbar.
			WithTotal(int(snapshot.EstimatedTotal)).
			WithTitle("Archiving messages").
			Start()
		if err != nil {
			b.l.WithField("error", err).Warn("Could not start progress bar")
			b.enabled = false
			return
		}
		b.pb = pb
	}

	if snapshot.MovedCount > b.pb.Current {
		b.pb.Add(snapshot.MovedCount - b.pb.Current)
	}
}

func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled || b.pb == nil {
		return
	}

	_, err := b.pb.Stop()
	if err != nil {
		b.l.WithField("error", err).Warn("Could not stop progress bar")
	}
	b.pb = nil
	b.enabled = false
}
