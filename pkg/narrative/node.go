package narrative

import "fmt"

// NodeType discriminates the narrative node union.
type NodeType string

const (
	NodeScene      NodeType = "scene"
	NodeHub        NodeType = "hub"
	NodeAIDialogue NodeType = "aiDialogue"
	NodeSystem     NodeType = "system"
)

// Choice is one selectable branch out of a scene node.
type Choice struct {
	ID   string `json:"id"`
	Next string `json:"next"`
	Text string `json:"text,omitempty"`
}

// Transition is an automatic edge, used when no explicit choice applies.
type Transition struct {
	To string `json:"to"`
}

// AIDialogueRef names the character a hub node offers a free-text
// conversation with before auto-advancing.
type AIDialogueRef struct {
	CharacterID string `json:"character_id"`
}

// Node is one immutable node in the state graph. Only the fields relevant
// to its type are populated; the state machine never mutates node data.
type Node struct {
	ID          string         `json:"id"`
	Type        NodeType       `json:"type"`
	Choices     []Choice       `json:"choices,omitempty"`
	Transitions []Transition   `json:"transitions,omitempty"`
	AIDialogue  *AIDialogueRef `json:"ai_dialogue,omitempty"`
}

// Graph is a narrative module's full state graph.
type Graph struct {
	Entry string          `json:"entry"`
	Exit  string          `json:"exit"`
	Nodes map[string]Node `json:"nodes"`
}

// Validate checks the graph for authoring errors: missing entry/exit,
// dangling choice or transition targets, and unknown node types.
func (g *Graph) Validate() error {
	if g.Entry == "" {
		return fmt.Errorf("graph has no entry node")
	}
	if g.Exit == "" {
		return fmt.Errorf("graph has no exit node")
	}
	if _, ok := g.Nodes[g.Entry]; !ok {
		return fmt.Errorf("entry node %q is not defined", g.Entry)
	}
	if _, ok := g.Nodes[g.Exit]; !ok {
		return fmt.Errorf("exit node %q is not defined", g.Exit)
	}

	for id, node := range g.Nodes {
		switch node.Type {
		case NodeScene, NodeHub, NodeAIDialogue, NodeSystem:
		default:
			return fmt.Errorf("node %q has unknown type %q", id, node.Type)
		}
		for _, c := range node.Choices {
			if _, ok := g.Nodes[c.Next]; !ok {
				return fmt.Errorf("node %q choice %q targets undefined node %q", id, c.ID, c.Next)
			}
		}
		for _, tr := range node.Transitions {
			if _, ok := g.Nodes[tr.To]; !ok {
				return fmt.Errorf("node %q transition targets undefined node %q", id, tr.To)
			}
		}
	}
	return nil
}
