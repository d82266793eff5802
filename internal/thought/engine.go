// Package thought implements free-form sequential thinking as a branching,
// revisable graph of caller-numbered thoughts.
package thought

import (
	"errors"
	"time"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/session"
	"github.com/kokistudios/thinker/internal/snapshot"
)

// Options resolves the numbering questions the protocol leaves open.
type Options struct {
	// StrictSequence requires each thought to be numbered above every earlier
	// thought of its branch. Off by default: numbers may be sparse and arrive
	// out of order; views are always sorted.
	StrictSequence bool
	// AllowTotalDecrease lets a caller lower estimated_total_thoughts.
	AllowTotalDecrease bool
}

func DefaultOptions() Options {
	return Options{AllowTotalDecrease: true}
}

// Params carries everything about a thought except its content.
type Params struct {
	SessionID                  string
	SequenceNumber             int
	EstimatedTotalThoughts     int
	ContinuationExpected       bool
	NeedsMoreThoughts          bool
	IsRevision                 bool
	RevisesSequenceNumber      *int
	BranchID                   string
	BranchesFromSequenceNumber *int
	// ParentBranchID names the branch a new branch forks from; empty means the main line.
	ParentBranchID string
}

type Result struct {
	SessionID string
	Created   bool
	Node      Node
	Snapshot  snapshot.Snapshot
}

// Observer is notified of each stored thought after the session lock is released.
type Observer func(sessionID string, n Node)

type Engine struct {
	reg       *session.Registry
	opts      Options
	now       func() time.Time
	observers []Observer
}

type EngineOption func(*Engine)

func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(reg *session.Registry, opts Options, eopts ...EngineOption) *Engine {
	e := &Engine{
		reg:  reg,
		opts: opts,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, o := range eopts {
		o(e)
	}
	return e
}

// Append validates and stores one thought. An empty SessionID starts a new
// session; an unknown one starts a session under that id.
func (e *Engine) Append(content string, p Params) (Result, error) {
	if p.SessionID != "" {
		res, err := e.appendExisting(content, p)
		if !errors.Is(err, fault.ErrNotFound) {
			return e.notify(res, err)
		}
	}
	res, err := e.appendNew(content, p)
	if errors.Is(err, fault.ErrValidation) && p.SessionID != "" {
		// Lost a creation race for a caller-chosen id.
		if _, getErr := e.reg.Get(p.SessionID); getErr == nil {
			res, err = e.appendExisting(content, p)
		}
	}
	return e.notify(res, err)
}

func (e *Engine) appendExisting(content string, p Params) (Result, error) {
	var res Result
	err := e.reg.WithExclusiveAccess(p.SessionID, func(s *session.Session) error {
		if s.Kind != session.KindThoughtGraph {
			return fault.Validationf("session %q is a %s session, not %s", s.ID, s.Kind, session.KindThoughtGraph)
		}
		g := s.State.(*Graph)
		now := e.now()
		node, err := g.append(content, p, now)
		if err != nil {
			return err
		}
		s.Touch(now, statusFor(node))
		res = Result{SessionID: s.ID, Node: node, Snapshot: snapshot.Take(s)}
		return nil
	})
	return res, err
}

func (e *Engine) appendNew(content string, p Params) (Result, error) {
	g := newGraph(e.opts)
	node, err := g.append(content, p, e.now())
	if err != nil {
		return Result{}, err
	}
	// Project before registering: once g is shared, other appends may land.
	var snap snapshot.Snapshot
	g.Project(&snap)
	sum, err := e.reg.Create(session.KindThoughtGraph,
		session.WithID(p.SessionID),
		session.WithTitle(session.Headline(content, 60)),
		session.WithState(g),
		session.WithStatus(statusFor(node)),
	)
	if err != nil {
		return Result{}, err
	}
	snap.Session = sum
	return Result{SessionID: sum.ID, Created: true, Node: node, Snapshot: snap}, nil
}

func (e *Engine) notify(res Result, err error) (Result, error) {
	if err == nil {
		for _, o := range e.observers {
			o(res.SessionID, res.Node)
		}
	}
	return res, err
}

func statusFor(n Node) session.Status {
	if n.ContinuationExpected {
		return session.StatusActive
	}
	return session.StatusCompleted
}

// Graph returns the snapshot of a thought-graph session.
func (e *Engine) Graph(id string) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	err := e.reg.WithSharedAccess(id, func(s *session.Session) error {
		if s.Kind != session.KindThoughtGraph {
			return fault.NotFoundf("no %s session %q", session.KindThoughtGraph, id)
		}
		snap = snapshot.Take(s)
		return nil
	})
	return snap, err
}

func (e *Engine) List() []session.Summary {
	return e.reg.List(session.KindThoughtGraph)
}
