// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"
	"net"
	"time"

	"github.com/mailboxtools/go-imap-archiver/domain"
	"github.com/mailboxtools/go-imap-archiver/log"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap-move"
	"github.com/emersion/go-imap-uidplus"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

// Settings are the connection parameters resolved by the caller. The
// connection itself never reads ambient process state.
type Settings struct {
	Host     string
	User     string
	Password string

	// StartTLS dials in plaintext and upgrades via STARTTLS instead of
	// using implicit TLS.
	StartTLS bool

	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

type ImapConnection struct {
	connection *client.Client
	mailMover  mover

	host, user string

	selectedFolder string

	l *logrus.Logger
}

func NewImapConnection(settings Settings) (*ImapConnection, error) {
	dialer := &net.Dialer{Timeout: settings.DialTimeout}

	var imapClient *client.Client
	var err error
	if settings.StartTLS {
		imapClient, err = client.DialWithDialer(dialer, settings.Host)
		if err != nil {
			return nil, fmt.Errorf("could not dial to imap: %w", err)
		}
		err = imapClient.StartTLS(nil)
		if err != nil {
			return nil, fmt.Errorf("could not upgrade connection via starttls: %w", err)
		}
	} else {
		imapClient, err = client.DialWithDialerTLS(dialer, settings.Host, nil)
		if err != nil {
			return nil, fmt.Errorf("could not dial to imap: %w", err)
		}
	}

	imapClient.Timeout = settings.CommandTimeout

	err = imapClient.Login(settings.User, settings.Password)
	if err != nil {
		return nil, fmt.Errorf("could not login to imap: %w", err)
	}

	uidPlusClient := uidplus.NewClient(imapClient)
	uidPlusSupported, err := uidPlusClient.SupportUidPlus()
	if err != nil {
		return nil, fmt.Errorf("could not check for UIDPLUS support: %w", err)
	}

	moveClient := move.NewClient(imapClient)
	moveSupported, err := moveClient.SupportMove()
	if err != nil {
		return nil, fmt.Errorf("could not check for MOVE support: %w", err)
	}

	conn := &ImapConnection{
		connection: imapClient,
		host:       settings.Host,
		user:       settings.User,
		l:          log.Logger(log.LOG_IMAP),
	}

	baseLogger := conn.l.WithFields(logrus.Fields{"host": settings.Host})
	baseLogger.Debug("Logged in to server")

	if moveSupported {
		baseLogger.Debug("MOVE supported on server")
		conn.mailMover = &moveMover{
			moveClient: moveClient,
		}
	} else {
		baseLogger.Info("MOVE not supported on server, falling back to copy&expunge")
		var exp expunger
		if uidPlusSupported {
			baseLogger.Debug("UIDPLUS supported on server, using UID expunge for copy&expunge")
			exp = &uidPlusExpunger{
				flagger:       conn,
				uidplusClient: uidPlusClient,
			}
		} else {
			baseLogger.Info("UIDPLUS not supported on server, falling back to flag&expunge for copy&expunge")
			exp = &compatibilityExpunger{
				flagger: conn,
				client:  imapClient,
			}
		}
		conn.mailMover = &copyExpungeMover{
			copyClient: imapClient,
			expunger:   exp,
		}
	}

	return conn, nil
}

func (ic *ImapConnection) Select(folder string) error {
	_, err := ic.connection.Select(folder, false)
	if err != nil {
		return fmt.Errorf("could not select folder: %w", err)
	}

	ic.selectedFolder = folder
	return nil
}

// SearchBefore lists uids of messages in the given sequence window whose
// internal date is before the cutoff. Result order is server-defined.
func (ic *ImapConnection) SearchBefore(before time.Time, window domain.SeqWindow) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Before = before

	seqset := &imap.SeqSet{}
	seqset.AddRange(window.Start, window.End())
	criteria.SeqNum = seqset

	uids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not search folder: %w", err)
	}

	ic.l.WithFields(logrus.Fields{"folder": ic.selectedFolder, "start": window.Start, "end": window.End(), "matches": len(uids)}).Debug("Searched window")

	return uids, nil
}

func (ic *ImapConnection) ListFolders() ([]string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.List("", "*", mailboxes)
	}()

	names := []string{}
	for m := range mailboxes {
		names = append(names, m.Name)
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not list folders: %w", err)
	}

	return names, nil
}

func (ic *ImapConnection) MessageCount(folder string) (uint32, error) {
	status, err := ic.connection.Status(folder, []imap.StatusItem{imap.StatusMessages})
	if err != nil {
		return 0, fmt.Errorf("could not get folder status: %w", err)
	}

	return status.Messages, nil
}

func (ic *ImapConnection) MoveReady() (error, error) {
	return ic.mailMover.moveReady()
}

func (ic *ImapConnection) Move(uids []uint32, folder string) error {
	return ic.mailMover.move(uids, folder)
}

func (ic *ImapConnection) Close() error {
	return ic.connection.Logout()
}

func (ic *ImapConnection) flagDeleted(uids []uint32) (*imap.SeqSet, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	err := ic.connection.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), []interface{}{imap.DeletedFlag}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not set delete flag: %w", err)
	}

	return seqset, nil
}
