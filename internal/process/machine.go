// Package process drives every structured thinking mode through a declared
// finite state machine. A Machine is pure data plus effects; the Engine owns
// locking, payload validation and history.
package process

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kokistudios/thinker/internal/fault"
	"github.com/kokistudios/thinker/internal/session"
)

type State string

// Record is one accepted transition. Records are never changed once appended.
type Record struct {
	Seq    int
	Action string
	From   State
	To     State
	At     time.Time
	Data   any
}

// View is the read-only input to an effect.
type View struct {
	State   State
	Subject any
	History []Record
	Now     time.Time
}

// Outcome is what an effect produces. Next selects the target state; empty
// means the rule's To. For a start rule Data becomes the session subject.
type Outcome struct {
	Data  any
	Next  State
	Title string
}

// Effect validates a payload beyond its struct tags and builds the record data.
// It must not retain or mutate anything reachable from the View.
type Effect func(v View, payload any) (Outcome, error)

// Rule declares that Action is legal from any of From and leads to To, or to
// one of Alt when the effect chooses so.
type Rule struct {
	Action string
	From   []State
	To     State
	Alt    []State
	Apply  Effect
}

type Machine struct {
	Kind     session.Kind
	States   []State
	Initial  State
	Terminal []State
	// Start opens a session from Initial. Its payload becomes the subject and
	// it produces no history record.
	Start Rule
	Rules []Rule
	// Progress derives a kind-specific summary for snapshots.
	Progress func(View) any
	// Refuse, when set, may explain an action no rule accepts. A nil return
	// falls back to invalid_transition.
	Refuse func(v View, action string) error
}

func (m *Machine) rule(from State, action string) (*Rule, bool) {
	for i := range m.Rules {
		r := &m.Rules[i]
		if r.Action == action && slices.Contains(r.From, from) {
			return r, true
		}
	}
	return nil, false
}

// Allowed lists the actions legal from state, in declaration order.
func (m *Machine) Allowed(state State) []string {
	out := []string{}
	for _, r := range m.Rules {
		if slices.Contains(r.From, state) {
			out = append(out, r.Action)
		}
	}
	return out
}

func (m *Machine) IsTerminal(s State) bool {
	return slices.Contains(m.Terminal, s)
}

// Actions lists every action name the machine knows, start included.
func (m *Machine) Actions() []string {
	out := []string{m.Start.Action}
	for _, r := range m.Rules {
		if !slices.Contains(out, r.Action) {
			out = append(out, r.Action)
		}
	}
	return out
}

// Check verifies the table is well formed.
func (m *Machine) Check() error {
	var errs []error
	known := func(s State, where string) {
		if !slices.Contains(m.States, s) {
			errs = append(errs, fmt.Errorf("%s: undeclared state %q in %s", m.Kind, s, where))
		}
	}
	known(m.Initial, "initial")
	for _, s := range m.Terminal {
		known(s, "terminal")
	}
	if m.Start.Apply == nil {
		errs = append(errs, fmt.Errorf("%s: start rule %q has no effect", m.Kind, m.Start.Action))
	}
	if !slices.Equal(m.Start.From, []State{m.Initial}) {
		errs = append(errs, fmt.Errorf("%s: start rule must leave from the initial state only", m.Kind))
	}
	known(m.Start.To, "start")

	type key struct {
		from   State
		action string
	}
	seen := map[key]bool{}
	for _, r := range m.Rules {
		if r.Apply == nil {
			errs = append(errs, fmt.Errorf("%s: rule %q has no effect", m.Kind, r.Action))
		}
		if len(r.From) == 0 {
			errs = append(errs, fmt.Errorf("%s: rule %q has no source state", m.Kind, r.Action))
		}
		for _, f := range r.From {
			known(f, r.Action)
			if m.IsTerminal(f) {
				errs = append(errs, fmt.Errorf("%s: rule %q leaves terminal state %q", m.Kind, r.Action, f))
			}
			k := key{f, r.Action}
			if seen[k] {
				errs = append(errs, fmt.Errorf("%s: duplicate rule %q from %q", m.Kind, r.Action, f))
			}
			seen[k] = true
		}
		known(r.To, r.Action)
		for _, a := range r.Alt {
			known(a, r.Action)
		}
	}
	return errors.Join(errs...)
}

// typed adapts a function over a concrete payload type into an Effect.
func typed[P any](fn func(v View, p P) (Outcome, error)) Effect {
	return func(v View, payload any) (Outcome, error) {
		if p, ok := payload.(P); ok {
			return fn(v, p)
		}
		if pp, ok := payload.(*P); ok && pp != nil {
			return fn(v, *pp)
		}
		var zero P
		return Outcome{}, fault.Validationf("payload must be %T, got %T", zero, payload)
	}
}

// cloner is implemented by record data holding slices, so snapshots never
// alias history.
type cloner interface {
	clone() any
}

func cloneData(d any) any {
	if c, ok := d.(cloner); ok {
		return c.clone()
	}
	return d
}

// dataOf collects the record data of type T in history order.
func dataOf[T any](history []Record) []T {
	var out []T
	for _, r := range history {
		if d, ok := r.Data.(T); ok {
			out = append(out, d)
		}
	}
	return out
}
