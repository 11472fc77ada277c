// Package poll drives the fetch → extract → mark seen → notify cycle.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/swang373/zillowbot/internal/domain"
	"github.com/swang373/zillowbot/internal/events"
)

// Session is the slice of a mailbox connection one iteration uses.
// *mailbox.Session implements it; tests substitute fakes.
type Session interface {
	Search(ctx context.Context) ([]uint32, error)
	Fetch(ctx context.Context, uid uint32) ([]byte, error)
	MarkSeen(uid uint32) error
	Close()
}

// DialFunc opens a fresh session. Called once per iteration.
type DialFunc func(ctx context.Context) (Session, error)

// ExtractFunc turns raw message bytes into a listing.
type ExtractFunc func(raw []byte) (domain.Listing, error)

// Notifier delivers one listing to the channel.
type Notifier interface {
	Notify(ctx context.Context, l domain.Listing) error
}

// PollOnce runs a single iteration: open a scoped session, search for
// unseen instant update emails, and process each in server order. A
// message is marked seen only after its extraction succeeded, and only
// then notified, so the emitted order matches the search order.
//
// Extraction failures are logged and skipped with the message left
// unseen; one malformed email must not block the rest of the batch.
// Delivery failures are logged and the record dropped (the message is
// already consumed and there is no requeue).
func (p *Poller) PollOnce(ctx context.Context) (posted int, err error) {
	timeout := p.IterationTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := p.Dial(ctx)
	if err != nil {
		return 0, err
	}
	defer sess.Close()

	uids, err := sess.Search(ctx)
	if err != nil {
		return 0, fmt.Errorf("search: %w", err)
	}
	p.Log.Debugf("[poll] search found %d unseen messages", len(uids))

	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return posted, err
		}

		raw, err := sess.Fetch(ctx, uid)
		if err != nil {
			return posted, fmt.Errorf("fetch uid %d: %w", uid, err)
		}

		listing, err := p.Extract(raw)
		if err != nil {
			p.Log.Printf("[poll] skip uid %d: %v", uid, err)
			continue
		}

		if err := sess.MarkSeen(uid); err != nil {
			return posted, fmt.Errorf("mark seen uid %d: %w", uid, err)
		}

		if err := p.Notifier.Notify(ctx, listing); err != nil {
			p.Log.Printf("[poll] delivery failed for %q: %v", listing.Address, err)
			continue
		}
		posted++
		p.Log.Printf("[poll] posted listing at %q", listing.Address)
		if p.Hub != nil {
			p.Hub.Publish(events.Make("listing_posted", listing))
		}
	}

	return posted, nil
}
