package gamestate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CmdViewState asks the game bot for the full state view.
const CmdViewState = "!سباق عرض"

const (
	defaultReplyTimeout = 15 * time.Second
	defaultFreshFor     = 60 * time.Second
	defaultWarmup       = 2 * time.Second
)

// ErrRefreshInFlight is returned when a refresh is requested while an
// earlier one for the same counterpart has not settled yet. Callers must
// serialize refreshes; overlapping ones are rejected, not queued.
var ErrRefreshInFlight = errors.New("state refresh already in flight")

// Sender sends a private message over the chat transport.
type Sender interface {
	SendPrivate(ctx context.Context, recipientID int64, text string) error
}

// Reader owns the cached game-state snapshot. Get refreshes it by sending
// the view command to the game bot and correlating the next inbound
// private reply from that same sender, with a hard reply deadline. A
// reply timeout is not an error: the last known snapshot (possibly nil)
// is returned and the caller decides how to degrade.
type Reader struct {
	sender      Sender
	counterpart int64

	replyTimeout time.Duration
	freshFor     time.Duration
	warmup       time.Duration
	now          func() time.Time

	mu      sync.Mutex
	snap    *Snapshot
	pending map[int64]chan string
	warmed  bool
}

func NewReader(sender Sender, counterpart int64) *Reader {
	return &Reader{
		sender:       sender,
		counterpart:  counterpart,
		replyTimeout: defaultReplyTimeout,
		freshFor:     defaultFreshFor,
		warmup:       defaultWarmup,
		now:          time.Now,
		pending:      make(map[int64]chan string),
	}
}

// MarkReconnected arms the warm-up delay again. It must be called on
// every transport (re)connect so the first read does not race the
// connection handshake.
func (r *Reader) MarkReconnected() {
	r.mu.Lock()
	r.warmed = false
	r.mu.Unlock()
}

// HandleMessage feeds an inbound private message into the reader. If a
// refresh is waiting on this sender the body settles it; anything else is
// ignored.
func (r *Reader) HandleMessage(senderID int64, body string) {
	r.mu.Lock()
	ch, ok := r.pending[senderID]
	if ok {
		delete(r.pending, senderID)
	}
	r.mu.Unlock()
	if ok {
		ch <- body
	}
}

// Last returns the cached snapshot without refreshing. Nil until the
// first successful parse.
func (r *Reader) Last() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Get returns the current snapshot, refreshing it when forced, never
// populated, or older than the freshness window.
func (r *Reader) Get(ctx context.Context, force bool) (*Snapshot, error) {
	r.mu.Lock()
	if !force && r.snap != nil && r.now().Sub(r.snap.FetchedAt) < r.freshFor {
		snap := r.snap
		r.mu.Unlock()
		return snap, nil
	}
	r.mu.Unlock()
	return r.refresh(ctx)
}

func (r *Reader) refresh(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	if _, busy := r.pending[r.counterpart]; busy {
		r.mu.Unlock()
		return nil, ErrRefreshInFlight
	}
	reply := make(chan string, 1)
	r.pending[r.counterpart] = reply
	warm := !r.warmed
	r.warmed = true
	r.mu.Unlock()

	settled := false
	defer func() {
		if !settled {
			r.mu.Lock()
			delete(r.pending, r.counterpart)
			r.mu.Unlock()
		}
	}()

	if warm {
		select {
		case <-time.After(r.warmup):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := r.sender.SendPrivate(ctx, r.counterpart, CmdViewState); err != nil {
		return nil, fmt.Errorf("send view command: %w", err)
	}

	select {
	case body := <-reply:
		settled = true
		snap := Parse(body)
		snap.FetchedAt = r.now()
		r.mu.Lock()
		r.snap = &snap
		r.mu.Unlock()
		return &snap, nil
	case <-time.After(r.replyTimeout):
		log.Debug().Int64("counterpart", r.counterpart).Msg("gamestate: reply timeout, keeping last known")
		return r.Last(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
