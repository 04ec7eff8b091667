package narrative

import (
	"errors"
	"fmt"
	"time"
)

// NoTransitionError indicates the current node has no usable edge for the
// supplied choice. With valid content this never happens; it is a
// content-authoring bug, not a runtime condition to recover from.
type NoTransitionError struct {
	NodeID   string
	ChoiceID string
}

func (e *NoTransitionError) Error() string {
	if e.ChoiceID == "" {
		return fmt.Sprintf("no valid transition from node %q", e.NodeID)
	}
	return fmt.Sprintf("no valid transition from node %q for choice %q", e.NodeID, e.ChoiceID)
}

// ErrEmptyHistory is returned by GoBack when no transition has happened.
var ErrEmptyHistory = errors.New("history is empty")

// HistoryEntry records one executed transition. From is always the
// pre-transition node.
type HistoryEntry struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChoiceID  string    `json:"choice_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Machine walks a state graph. It owns only its cursor and history; node
// data is immutable content. The machine knows nothing of rendering or AI.
type Machine struct {
	graph   *Graph
	current string
	history []HistoryEntry
}

// NewMachine creates a machine positioned at the graph's entry node.
func NewMachine(g *Graph) (*Machine, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid state graph: %w", err)
	}
	return &Machine{
		graph:   g,
		current: g.Entry,
		history: make([]HistoryEntry, 0),
	}, nil
}

// Current returns the node under the cursor.
func (m *Machine) Current() *Node {
	node := m.graph.Nodes[m.current]
	return &node
}

// CurrentID returns the id of the node under the cursor.
func (m *Machine) CurrentID() string {
	return m.current
}

// IsFinished reports whether the cursor is on the exit node.
func (m *Machine) IsFinished() bool {
	return m.current == m.graph.Exit
}

// History returns the executed transitions in order.
func (m *Machine) History() []HistoryEntry {
	return m.history
}

// Restore positions the machine at a previously saved cursor and history,
// used when resuming a persisted playthrough.
func (m *Machine) Restore(current string, history []HistoryEntry) error {
	if _, ok := m.graph.Nodes[current]; !ok {
		return fmt.Errorf("cannot restore to undefined node %q", current)
	}
	m.current = current
	m.history = append([]HistoryEntry(nil), history...)
	return nil
}

// Transition moves the cursor along the edge selected by choiceID
// (empty for no choice). Resolution order depends on the node type:
// scene nodes match choices first and fall back to transitions when no
// choice was supplied; hub nodes auto-advance when no choice was supplied;
// aiDialogue and system nodes always take their first transition. One
// history record is appended before the cursor moves.
func (m *Machine) Transition(choiceID string) (*Node, error) {
	node := m.graph.Nodes[m.current]

	var next string
	switch node.Type {
	case NodeScene:
		if choiceID != "" {
			for _, c := range node.Choices {
				if c.ID == choiceID {
					next = c.Next
					break
				}
			}
		} else if len(node.Transitions) > 0 {
			next = node.Transitions[0].To
		}
	case NodeHub:
		if choiceID == "" && len(node.Transitions) > 0 {
			next = node.Transitions[0].To
		}
	case NodeAIDialogue, NodeSystem:
		if len(node.Transitions) > 0 {
			next = node.Transitions[0].To
		}
	}

	if next == "" {
		return nil, &NoTransitionError{NodeID: m.current, ChoiceID: choiceID}
	}

	m.history = append(m.history, HistoryEntry{
		From:      m.current,
		To:        next,
		ChoiceID:  choiceID,
		Timestamp: time.Now(),
	})
	m.current = next

	return m.Current(), nil
}

// GoBack pops the most recent history record and restores the cursor to
// its From node. The backward move itself is not logged.
func (m *Machine) GoBack() (*Node, error) {
	if len(m.history) == 0 {
		return nil, ErrEmptyHistory
	}
	last := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.current = last.From
	return m.Current(), nil
}
