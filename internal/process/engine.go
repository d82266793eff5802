package process

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/session"
	"github.com/kokistudios/thinker/internal/snapshot"
)

type Options struct {
	FiveWhy FiveWhyOptions
	Scamper ScamperOptions
}

type FiveWhyOptions struct {
	DefaultMaxDepth int
	// MaxDepthLimit caps the max_depth a caller may request.
	MaxDepthLimit int
}

type ScamperOptions struct {
	// AllowComprehensiveAfterPartial lets generateComprehensive fill in the
	// techniques not yet applied instead of requiring a fresh session.
	AllowComprehensiveAfterPartial bool
}

func DefaultOptions() Options {
	return Options{
		FiveWhy: FiveWhyOptions{DefaultMaxDepth: 5, MaxDepthLimit: 10},
	}
}

// Step is a follow-up transition applied atomically with Start.
type Step struct {
	Action  string
	Payload any
}

type Result struct {
	SessionID string
	State     State
	Record    *Record
	Snapshot  snapshot.Snapshot
}

// Instance is the session state of a process session.
type Instance struct {
	machine *Machine
	state   State
	subject any
	history []Record
}

func (in *Instance) view(now time.Time) View {
	return View{State: in.state, Subject: in.subject, History: slices.Clip(in.history), Now: now}
}

func (in *Instance) status() session.Status {
	if in.machine.IsTerminal(in.state) {
		return session.StatusCompleted
	}
	return session.StatusActive
}

func (in *Instance) Project(s *snapshot.Snapshot) {
	hist := make([]snapshot.Record, len(in.history))
	for i, r := range in.history {
		hist[i] = snapshot.Record{
			Seq:    r.Seq,
			Action: r.Action,
			From:   string(r.From),
			To:     string(r.To),
			At:     r.At,
			Data:   cloneData(r.Data),
		}
	}
	p := &snapshot.Process{
		State:          string(in.state),
		Terminal:       in.machine.IsTerminal(in.state),
		Subject:        cloneData(in.subject),
		History:        hist,
		AllowedActions: in.machine.Allowed(in.state),
	}
	if in.machine.Progress != nil {
		p.Progress = in.machine.Progress(in.view(time.Time{}))
	}
	s.Process = p
}

type Engine struct {
	reg      *session.Registry
	machines map[session.Kind]*Machine
	validate *validator.Validate
	now      func() time.Time
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine builds the engine with every declared machine. It panics if a
// machine table is malformed.
func NewEngine(reg *session.Registry, opts Options, eopts ...EngineOption) *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	e := &Engine{
		reg:      reg,
		machines: make(map[session.Kind]*Machine),
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range eopts {
		o(e)
	}
	for _, m := range []*Machine{
		StepwiseMachine(),
		FiveWhyMachine(opts.FiveWhy),
		DialecticalMachine(),
		ScamperMachine(opts.Scamper),
	} {
		if err := m.Check(); err != nil {
			panic(fmt.Sprintf("process: invalid machine: %v", err))
		}
		e.machines[m.Kind] = m
	}
	return e
}

func (e *Engine) Machine(kind session.Kind) (*Machine, bool) {
	m, ok := e.machines[kind]
	return m, ok
}

func (e *Engine) machine(kind session.Kind) (*Machine, error) {
	m, ok := e.machines[kind]
	if !ok {
		return nil, fault.Validationf("%q is not a process session kind", kind)
	}
	return m, nil
}

// Start opens a session of kind with payload, applies then in order, and
// registers the session only if every step succeeded.
func (e *Engine) Start(kind session.Kind, payload any, then ...Step) (Result, error) {
	m, err := e.machine(kind)
	if err != nil {
		return Result{}, err
	}
	now := e.now()
	in := &Instance{machine: m, state: m.Initial}
	out, err := e.apply(in, &m.Start, payload, now)
	if err != nil {
		return Result{}, err
	}
	in.subject = out.Data
	in.state = out.Next

	var last *Record
	for _, st := range then {
		if last, err = e.step(in, st.Action, st.Payload, now); err != nil {
			return Result{}, err
		}
	}

	var snap snapshot.Snapshot
	in.Project(&snap)
	sum, err := e.reg.Create(kind,
		session.WithTitle(out.Title),
		session.WithState(in),
		session.WithStatus(in.status()),
	)
	if err != nil {
		return Result{}, err
	}
	snap.Session = sum
	return Result{SessionID: sum.ID, State: in.state, Record: last, Snapshot: snap}, nil
}

// Transition applies action to session id. Nothing changes unless it succeeds.
func (e *Engine) Transition(kind session.Kind, id, action string, payload any) (Result, error) {
	var res Result
	err := e.reg.WithExclusiveAccess(id, func(s *session.Session) error {
		in, err := instanceOf(s, kind)
		if err != nil {
			return err
		}
		now := e.now()
		rec, err := e.step(in, action, payload, now)
		if err != nil {
			return err
		}
		s.Touch(now, in.status())
		res = Result{SessionID: s.ID, State: in.state, Record: rec, Snapshot: snapshot.Take(s)}
		return nil
	})
	return res, err
}

func (e *Engine) Get(kind session.Kind, id string) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	err := e.reg.WithSharedAccess(id, func(s *session.Session) error {
		if _, err := instanceOf(s, kind); err != nil {
			return err
		}
		snap = snapshot.Take(s)
		return nil
	})
	return snap, err
}

// ListSnapshots returns snapshots of every session of kind, oldest first.
func (e *Engine) ListSnapshots(kind session.Kind) []snapshot.Snapshot {
	sums := e.reg.List(kind)
	out := make([]snapshot.Snapshot, 0, len(sums))
	for _, sum := range sums {
		if snap, err := e.Get(kind, sum.ID); err == nil {
			out = append(out, snap)
		}
	}
	return out
}

func (e *Engine) List(kind session.Kind) []session.Summary {
	return e.reg.List(kind)
}

func instanceOf(s *session.Session, kind session.Kind) (*Instance, error) {
	if s.Kind != kind {
		return nil, fault.NotFoundf("no %s session %q", kind, s.ID)
	}
	in, ok := s.State.(*Instance)
	if !ok {
		panic(fmt.Sprintf("process: session %s holds %T", s.ID, s.State))
	}
	return in, nil
}

func (e *Engine) step(in *Instance, action string, payload any, now time.Time) (*Record, error) {
	r, ok := in.machine.rule(in.state, action)
	if !ok {
		if in.machine.Refuse != nil {
			if err := in.machine.Refuse(in.view(now), action); err != nil {
				return nil, err
			}
		}
		allowed := in.machine.Allowed(in.state)
		if len(allowed) == 0 {
			return nil, fault.New(fault.InvalidTransition, "%s is not allowed: session is %s", action, in.state)
		}
		return nil, fault.New(fault.InvalidTransition, "%s is not allowed in state %s (allowed: %s)", action, in.state, strings.Join(allowed, ", "))
	}
	out, err := e.apply(in, r, payload, now)
	if err != nil {
		return nil, err
	}
	rec := Record{
		Seq:    len(in.history) + 1,
		Action: action,
		From:   in.state,
		To:     out.Next,
		At:     now,
		Data:   out.Data,
	}
	in.history = append(in.history, rec)
	in.state = out.Next
	return &rec, nil
}

func (e *Engine) apply(in *Instance, r *Rule, payload any, now time.Time) (Outcome, error) {
	if err := e.check(payload); err != nil {
		return Outcome{}, err
	}
	out, err := r.Apply(in.view(now), payload)
	if err != nil {
		return Outcome{}, err
	}
	switch {
	case out.Next == "":
		out.Next = r.To
	case out.Next != r.To && !slices.Contains(r.Alt, out.Next):
		panic(fmt.Sprintf("process: %s %s chose undeclared target %s", in.machine.Kind, r.Action, out.Next))
	}
	return out, nil
}

func (e *Engine) check(payload any) error {
	if payload == nil {
		return fault.Validationf("payload is required")
	}
	err := e.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, describe(fe))
		}
		return fault.Validationf("%s", strings.Join(msgs, "; "))
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return fault.Validationf("payload must be a struct, got %T", payload)
	}
	return fault.Validationf("%v", err)
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s allows at most %s item(s)", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}
