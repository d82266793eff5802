// Package snapshot projects live session state into immutable,
// serialization-ready values.
package snapshot

import (
	"fmt"
	"time"

	"github.com/kokistudios/thinker/internal/session"
)

// Projectable is implemented by every engine-owned session state.
type Projectable interface {
	// Project fills the kind-specific part of a snapshot. It must copy
	// everything it exposes and must not mutate the receiver.
	Project(*Snapshot)
}

type Snapshot struct {
	Session session.Summary `json:"session"`
	Graph   *Graph          `json:"graph,omitempty"`
	Process *Process        `json:"process,omitempty"`
}

type Graph struct {
	MainLine               []Node            `json:"main_line"`
	Branches               map[string]Branch `json:"branches"`
	NodeCount              int               `json:"node_count"`
	BranchCount            int               `json:"branch_count"`
	EstimatedTotalThoughts int               `json:"estimated_total_thoughts"`
	LastSequenceNumber     int               `json:"last_sequence_number"`
	ContinuationExpected   bool              `json:"continuation_expected"`
}

type Branch struct {
	ID         string `json:"id"`
	Parent     string `json:"parent,omitempty"`
	ForkedFrom int    `json:"forked_from"`
	Nodes      []Node `json:"nodes"`
}

type Node struct {
	SequenceNumber             int       `json:"sequence_number"`
	BranchID                   string    `json:"branch_id,omitempty"`
	Content                    string    `json:"content"`
	IsRevision                 bool      `json:"is_revision"`
	RevisesSequenceNumber      *int      `json:"revises_sequence_number,omitempty"`
	BranchesFromSequenceNumber *int      `json:"branches_from_sequence_number,omitempty"`
	EstimatedTotalThoughts     int       `json:"estimated_total_thoughts"`
	ContinuationExpected       bool      `json:"continuation_expected"`
	NeedsMoreThoughts          bool      `json:"needs_more_thoughts,omitempty"`
	CreatedAt                  time.Time `json:"created_at"`
}

type Process struct {
	State          string   `json:"state"`
	Terminal       bool     `json:"terminal"`
	Subject        any      `json:"subject,omitempty"`
	History        []Record `json:"history"`
	AllowedActions []string `json:"allowed_actions"`
	Progress       any      `json:"progress,omitempty"`
}

type Record struct {
	Seq    int       `json:"seq"`
	Action string    `json:"action"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
	Data   any       `json:"data,omitempty"`
}

// Take projects s. The caller must hold the session's shared or exclusive lock.
func Take(s *session.Session) Snapshot {
	snap := Snapshot{Session: s.Summary()}
	p, ok := s.State.(Projectable)
	if !ok {
		panic(fmt.Sprintf("snapshot: session %s holds unprojectable state %T", s.ID, s.State))
	}
	p.Project(&snap)
	return snap
}

// IntPtr copies an optional integer so a snapshot never aliases engine state.
func IntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
