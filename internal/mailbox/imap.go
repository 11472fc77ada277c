// Package mailbox provides the scoped IMAP session the poller opens
// once per iteration.
package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Settings carries the connection and search parameters for the
// mailbox that receives instant update emails. Passed by value, never
// mutated.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
	Sender   string // FROM filter, the vendor's notification address
	Subject  string // SUBJECT substring filter
}

func (s Settings) addr() string {
	port := s.Port
	if port == 0 {
		port = 993
	}
	return fmt.Sprintf("%s:%d", s.Host, port)
}

// ConnectError means the mailbox host could not be reached.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string { return fmt.Sprintf("imap connect %s: %v", e.Addr, e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// AuthError means the server rejected the credentials. Callers should
// stop polling rather than retry into an account lockout.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string { return fmt.Sprintf("imap login as %s: %v", e.Username, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// Session is a connection scoped to a single poll iteration: dial,
// login and mailbox select happen in Dial, logout and close in Close.
// Nothing is carried across iterations.
type Session struct {
	client  *imapclient.Client
	sender  string
	subject string
}

// Dial connects over TLS, logs in, and selects the configured mailbox.
// The connection is torn down on context cancellation so a hung server
// cannot pin an iteration past its timeout.
func Dial(ctx context.Context, st Settings) (*Session, error) {
	if st.Host == "" {
		return nil, errors.New("imap host is required")
	}
	if st.Username == "" || st.Password == "" {
		return nil, errors.New("imap username/password is required")
	}

	c, err := imapclient.DialTLS(st.addr(), &imapclient.Options{
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: st.Host,
		},
	})
	if err != nil {
		return nil, &ConnectError{Addr: st.addr(), Err: err}
	}

	// Best-effort close on context cancel.
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(st.Username, st.Password).Wait(); err != nil {
		_ = c.Close()
		return nil, &AuthError{Username: st.Username, Err: err}
	}

	mbox := st.Mailbox
	if mbox == "" {
		mbox = "INBOX"
	}
	if _, err := c.Select(mbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		_ = c.Logout().Wait()
		_ = c.Close()
		return nil, fmt.Errorf("imap select %q: %w", mbox, err)
	}

	return &Session{client: c, sender: st.Sender, subject: st.Subject}, nil
}

// Search returns the UIDs of unseen messages from the vendor whose
// subject contains the marker phrase, in the order the server returned
// them.
func (s *Session) Search(ctx context.Context) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: s.sender},
			{Key: "Subject", Value: s.subject},
		},
		NotFlag: []imap.Flag{imap.FlagSeen},
	}

	data, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}

	uids := data.AllUIDs()
	out := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		out = append(out, uint32(uid))
	}
	return out, nil
}

// Fetch returns the full raw RFC822 bytes of one message. Fetched with
// BODY.PEEK[] so the server does not set \Seen as a side effect; the
// flag is only ever set explicitly via MarkSeen.
func (s *Session) Fetch(ctx context.Context, uid uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := s.client.Fetch(imap.UIDSetNum(imap.UID(uid)), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("imap fetch: uid %d not found", uid)
	}
	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("imap fetch collect: %w", err)
	}

	raw := buf.FindBodySection(bodyAll)
	if raw == nil {
		return nil, fmt.Errorf("imap fetch: uid %d returned no body", uid)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return append([]byte(nil), raw...), nil
}

// MarkSeen sets \Seen on one message so a later unseen search never
// returns it again.
func (s *Session) MarkSeen(uid uint32) error {
	cmd := s.client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

// Close logs out and closes the connection. Safe to call on every exit
// path, including after a failed search or fetch.
func (s *Session) Close() {
	_ = s.client.Logout().Wait()
	_ = s.client.Close()
}
