package poll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/swang373/zillowbot/internal/domain"
	"github.com/swang373/zillowbot/internal/logging"
	"github.com/swang373/zillowbot/internal/mailbox"
)

type fakeSession struct {
	uids      []uint32
	msgs      map[uint32][]byte
	seen      []uint32
	closed    bool
	searchErr error
}

func (f *fakeSession) Search(context.Context) ([]uint32, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.uids, nil
}

func (f *fakeSession) Fetch(_ context.Context, uid uint32) ([]byte, error) {
	raw, ok := f.msgs[uid]
	if !ok {
		return nil, fmt.Errorf("uid %d not found", uid)
	}
	return raw, nil
}

func (f *fakeSession) MarkSeen(uid uint32) error {
	f.seen = append(f.seen, uid)
	return nil
}

func (f *fakeSession) Close() { f.closed = true }

type fakeNotifier struct {
	got []domain.Listing
	err error
}

func (f *fakeNotifier) Notify(_ context.Context, l domain.Listing) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, l)
	return nil
}

// fakeExtract treats the raw bytes as the address; the literal "bad"
// simulates a malformed email.
func fakeExtract(raw []byte) (domain.Listing, error) {
	s := string(raw)
	if s == "bad" {
		return domain.Listing{}, errors.New("malformed")
	}
	return domain.Listing{URL: "https://www.zillow.com/homedetails/" + s, Address: s}, nil
}

func newTestPoller(sess Session, n Notifier) *Poller {
	return &Poller{
		Dial:     func(context.Context) (Session, error) { return sess, nil },
		Extract:  fakeExtract,
		Notifier: n,
		Log:      logging.New(io.Discard, false),
	}
}

func TestPollOnce_OrderAndMarkSeen(t *testing.T) {
	sess := &fakeSession{
		uids: []uint32{7, 3, 9}, // server order, deliberately not sorted
		msgs: map[uint32][]byte{
			7: []byte("123 Main St"),
			3: []byte("9 Elm St"),
			9: []byte("42 Oak Ave"),
		},
	}
	n := &fakeNotifier{}

	posted, err := newTestPoller(sess, n).PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if posted != 3 {
		t.Errorf("posted = %d, want 3", posted)
	}

	wantAddrs := []string{"123 Main St", "9 Elm St", "42 Oak Ave"}
	if len(n.got) != len(wantAddrs) {
		t.Fatalf("notified %d listings, want %d", len(n.got), len(wantAddrs))
	}
	for i, want := range wantAddrs {
		if n.got[i].Address != want {
			t.Errorf("notify[%d].Address = %q, want %q (server order must be preserved)", i, n.got[i].Address, want)
		}
	}

	wantSeen := []uint32{7, 3, 9}
	if len(sess.seen) != len(wantSeen) {
		t.Fatalf("marked %d seen, want %d", len(sess.seen), len(wantSeen))
	}
	for i, want := range wantSeen {
		if sess.seen[i] != want {
			t.Errorf("seen[%d] = %d, want %d", i, sess.seen[i], want)
		}
	}
	if !sess.closed {
		t.Error("session was not closed")
	}
}

func TestPollOnce_MalformedSkippedAndLeftUnseen(t *testing.T) {
	sess := &fakeSession{
		uids: []uint32{1, 2, 3},
		msgs: map[uint32][]byte{
			1: []byte("123 Main St"),
			2: []byte("bad"),
			3: []byte("42 Oak Ave"),
		},
	}
	n := &fakeNotifier{}

	posted, err := newTestPoller(sess, n).PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if posted != 2 {
		t.Errorf("posted = %d, want 2", posted)
	}
	if len(n.got) != 2 || n.got[0].Address != "123 Main St" || n.got[1].Address != "42 Oak Ave" {
		t.Errorf("unexpected notifications: %+v", n.got)
	}
	for _, uid := range sess.seen {
		if uid == 2 {
			t.Error("malformed message must not be marked seen")
		}
	}
	if len(sess.seen) != 2 {
		t.Errorf("marked %d seen, want 2", len(sess.seen))
	}
}

func TestPollOnce_DeliveryFailureDropsRecord(t *testing.T) {
	sess := &fakeSession{
		uids: []uint32{5},
		msgs: map[uint32][]byte{5: []byte("123 Main St")},
	}
	n := &fakeNotifier{err: errors.New("channel unavailable")}

	posted, err := newTestPoller(sess, n).PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if posted != 0 {
		t.Errorf("posted = %d, want 0", posted)
	}
	// The message was consumed before the send was attempted.
	if len(sess.seen) != 1 || sess.seen[0] != 5 {
		t.Errorf("seen = %v, want [5]", sess.seen)
	}
}

func TestPollOnce_NoMessages(t *testing.T) {
	sess := &fakeSession{}
	n := &fakeNotifier{}

	posted, err := newTestPoller(sess, n).PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if posted != 0 || len(n.got) != 0 {
		t.Errorf("posted = %d, notified = %d, want 0 and 0", posted, len(n.got))
	}
	if !sess.closed {
		t.Error("session must still be opened and closed on an empty cycle")
	}
}

func TestPollOnce_SearchErrorStillClosesSession(t *testing.T) {
	sess := &fakeSession{searchErr: errors.New("server sad")}

	_, err := newTestPoller(sess, &fakeNotifier{}).PollOnce(context.Background())
	if err == nil {
		t.Fatal("expected search error to propagate")
	}
	if !sess.closed {
		t.Error("session was not closed after search failure")
	}
}

func TestRun_StopsOnAuthError(t *testing.T) {
	p := &Poller{
		Dial: func(context.Context) (Session, error) {
			return nil, &mailbox.AuthError{Username: "u", Err: errors.New("bad credentials")}
		},
		Extract:  fakeExtract,
		Notifier: &fakeNotifier{},
		Interval: 10 * time.Millisecond,
		Log:      logging.New(io.Discard, false),
	}

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	select {
	case err := <-done:
		var authErr *mailbox.AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("Run returned %v, want AuthError", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on auth failure")
	}
}

func TestRun_CancelledDuringWait(t *testing.T) {
	sess := &fakeSession{}
	p := newTestPoller(sess, &fakeNotifier{})
	p.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not observe cancellation during the wait")
	}

	st := p.Status()
	if st.Running {
		t.Error("status still reports running after shutdown")
	}
}
