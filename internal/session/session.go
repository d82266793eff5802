package session

import (
	"strings"
	"sync"
	"time"
)

type Kind string

const (
	KindThoughtGraph Kind = "thought_graph"
	KindStepwise     Kind = "stepwise"
	KindFiveWhy      Kind = "five_why"
	KindDialectical  Kind = "dialectical"
	KindScamper      Kind = "scamper"
)

// Kinds lists every session kind in display order.
var Kinds = []Kind{KindThoughtGraph, KindStepwise, KindFiveWhy, KindDialectical, KindScamper}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is a registry entry. ID, Kind, Title and CreatedAt never change after
// creation. Status, UpdatedAt and State belong to whoever holds the session's
// lock through Registry.WithExclusiveAccess.
type Session struct {
	ID        string
	Kind      Kind
	Title     string
	CreatedAt time.Time

	Status    Status
	UpdatedAt time.Time
	State     any

	mu sync.RWMutex
}

// Summary is a lock-free copy of a session's metadata.
type Summary struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary must be called with the session lock held.
func (s *Session) Summary() Summary {
	return Summary{
		ID:        s.ID,
		Kind:      s.Kind,
		Title:     s.Title,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Touch records a mutation at t and sets the status.
func (s *Session) Touch(t time.Time, status Status) {
	s.UpdatedAt = t
	s.Status = status
}

type CreateOption func(*createOptions)

type createOptions struct {
	id     string
	title  string
	state  any
	status Status
}

// WithID uses a caller-chosen identifier instead of a generated one.
func WithID(id string) CreateOption {
	return func(o *createOptions) {
		o.id = id
	}
}

func WithTitle(title string) CreateOption {
	return func(o *createOptions) {
		o.title = title
	}
}

// WithState installs the engine state atomically with registration.
func WithState(state any) CreateOption {
	return func(o *createOptions) {
		o.state = state
	}
}

func WithStatus(status Status) CreateOption {
	return func(o *createOptions) {
		o.status = status
	}
}

// Headline trims text to its first line and at most n runes, for titles.
func Headline(text string, n int) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
