// Package ledger is an in-memory reference implementation of the change
// lifecycle. It implements the collaborator contract with its own rules so
// the model has something independent to be checked against.
//
// Entity ids are assigned in creation order starting with the seeded root
// header at id 0, the same numbering the model uses for its Changes.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
	"github.com/roach88/changeoracle/internal/replay"
)

// Revert reasons.
const (
	ReasonUnknownEntity   = "unknown entity"
	ReasonWrongKind       = "wrong entity kind"
	ReasonNotOpen         = "not open"
	ReasonAlreadyFunded   = "already funded"
	ReasonDefunding       = "defunding started"
	ReasonAlreadyJudged   = "already judged"
	ReasonNotResolved     = "not resolved"
	ReasonNotRejected     = "not rejected"
	ReasonWindowClosed    = "dispute window closed"
	ReasonWindowOpen      = "dispute window open"
	ReasonAlreadyDisputed = "already disputed"
	ReasonDisputePending  = "dispute pending"
	ReasonDisputeSettled  = "dispute settled"
	ReasonAlreadyEnacted  = "already enacted"
	ReasonNotEnacted      = "not enacted"
	ReasonAlreadyClaimed  = "already claimed"
	ReasonNotClaimed      = "not claimed"
	ReasonAlreadyExited   = "already exited"
	ReasonNotExitable     = "qa not exitable"
	ReasonNotFunded       = "not funded"
	ReasonNotDefunding    = "not defunding"
	ReasonDefundLocked    = "defund window open"
	ReasonAlreadyTraded   = "already traded"
)

// Entity is the ledger's view of one change.
type Entity struct {
	ID     record.Ref
	Kind   record.ChangeType
	Uplink record.Ref

	Funded, FundedEth, FundedDai bool

	Resolved, Rejected bool
	JudgedAt           int
	Enacted            bool

	DefundStarted, DefundStopped, DefundExited bool
	DefundAt                                   int

	FundsTraded, ContentTraded, MedallionTraded bool

	Claimed, QaClaimed, Exited bool

	// dispute entities
	DisputeKind model.Event
	Upheld      bool
	Dismissed   bool

	// target entities
	DisputedResolve, DisputedRejection, DisputedShares bool

	DoubleSolved bool
}

func (e *Entity) judgeable() bool {
	return e.Kind == record.Header || e.Kind == record.Solution || e.Kind == record.Edit
}

func (e *Entity) judged() bool {
	return e.Resolved || e.Rejected
}

// open is true while the entity can still be funded or judged.
func (e *Entity) open() bool {
	return !e.Enacted && !(e.judgeable() && e.judged())
}

func (e *Entity) defunding() bool {
	return e.DefundStarted && !e.DefundStopped && !e.DefundExited
}

// Ledger is safe for concurrent use, though replay drives one ledger from a
// single path at a time.
type Ledger struct {
	mu       sync.Mutex
	entities []*Entity
	time     int

	qaExitable bool
	qaExited   bool

	log    []replay.Emitted
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(led *Ledger) {
		led.logger = l
	}
}

// New returns a ledger seeded with one root header proposal.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.create(record.Header, record.NoRef)
	return l
}

// Entity returns a copy of the entity with id.
func (l *Ledger) Entity(id record.Ref) (Entity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.get(id)
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Len returns the number of entities.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entities)
}

// Log returns every event emitted so far.
func (l *Ledger) Log() []replay.Emitted {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]replay.Emitted(nil), l.log...)
}

// QaExited reports the global QA exit flag.
func (l *Ledger) QaExited() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.qaExited
}

// Do implements replay.Collaborator.
func (l *Ledger) Do(ctx context.Context, op replay.Operation) (replay.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return replay.Outcome{}, err
	}
	h, ok := handlers[op.Event]
	if !ok {
		return replay.Outcome{}, fmt.Errorf("ledger: unsupported operation %s", op.Event)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	emitted, reason := h(l, op.Target)
	if reason != "" {
		l.logger.Debug("operation reverted", "event", op.Event, "target", op.Target, "reason", reason)
		return replay.Outcome{Reason: reason}, nil
	}
	l.log = append(l.log, emitted...)
	l.logger.Debug("operation applied", "event", op.Event, "target", op.Target, "emitted", len(emitted))
	return replay.Outcome{Emitted: emitted}, nil
}

func (l *Ledger) get(id record.Ref) (*Entity, bool) {
	if id < 0 || int(id) >= len(l.entities) {
		return nil, false
	}
	return l.entities[id], true
}

func (l *Ledger) create(kind record.ChangeType, uplink record.Ref) *Entity {
	e := &Entity{ID: record.Ref(len(l.entities)), Kind: kind, Uplink: uplink}
	l.entities = append(l.entities, e)
	return e
}

// pendingDispute reports an undecided dispute raised against id.
func (l *Ledger) pendingDispute(id record.Ref) bool {
	for _, e := range l.entities {
		if e.Kind == record.Dispute && e.Uplink == id && !e.Upheld && !e.Dismissed {
			return true
		}
	}
	return false
}
