package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/envoy-engine/pkg/character"
	"github.com/avelichko/envoy-engine/pkg/content"
	"github.com/avelichko/envoy-engine/pkg/dialogue"
	"github.com/avelichko/envoy-engine/pkg/diplomacy"
	"github.com/avelichko/envoy-engine/pkg/narrative"
	"github.com/avelichko/envoy-engine/pkg/textfilter"
)

// LLMClient is the completion interface the engine needs from a model
// vendor. Implementations own their transport and timeouts.
type LLMClient interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Config holds per-deployment engine settings.
type Config struct {
	Module      string
	AIEnabled   bool
	FilterInput bool
	MaxTokens   int
	Guard       diplomacy.GuardConfig
}

// Manifest is a narrative module's declaration of its world: the factions,
// player traits, and characters whose scores exist from turn one.
type Manifest struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Factions   []string `json:"factions"`
	Traits     []string `json:"traits"`
	Characters []string `json:"characters"`
}

// Scene is the authored presentation content for one graph node.
type Scene struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

// Playthrough is one player's complete session state: cursor position,
// transition history, and the diplomacy scores accumulated so far. It is
// the unit of persistence.
type Playthrough struct {
	ID        uuid.UUID                `json:"id"`
	Module    string                   `json:"module"`
	Current   string                   `json:"current"`
	History   []narrative.HistoryEntry `json:"history"`
	State     *diplomacy.GameState     `json:"state"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Engine drives playthroughs of one narrative module. It is stateless
// across requests; all mutable state lives in the Playthrough.
type Engine struct {
	cfg      Config
	store    *content.Store
	graph    *narrative.Graph
	manifest *Manifest
	resolver *character.Resolver
	rules    *diplomacy.Engine
	analyzer *dialogue.Analyzer
	filter   *textfilter.Filter
	llm      LLMClient
	logger   *slog.Logger
}

// New loads the module's graph and manifest and wires up the engine.
// llm may be nil; free-text dialogue then uses the local keyword analyzer.
func New(cfg Config, store *content.Store, llm LLMClient, logger *slog.Logger) (*Engine, error) {
	var graph narrative.Graph
	if err := store.LoadInto("modules/"+cfg.Module+"/graph", &graph); err != nil {
		return nil, fmt.Errorf("loading module graph: %w", err)
	}
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("module %q graph: %w", cfg.Module, err)
	}

	var manifest Manifest
	if err := store.LoadInto("modules/"+cfg.Module+"/module", &manifest); err != nil {
		return nil, fmt.Errorf("loading module manifest: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		store:    store,
		graph:    &graph,
		manifest: &manifest,
		resolver: character.NewResolver(store, logger),
		rules:    diplomacy.NewEngine(store, cfg.Module, cfg.Guard, logger),
		analyzer: dialogue.NewAnalyzer(),
		filter:   textfilter.New(),
		llm:      llm,
		logger:   logger,
	}, nil
}

// Module returns the manifest of the loaded module.
func (e *Engine) Module() *Manifest {
	return e.manifest
}

// NewPlaythrough starts a fresh playthrough at the graph's entry node with
// every faction, trait, and character score seeded at zero.
func (e *Engine) NewPlaythrough() *Playthrough {
	now := time.Now().UTC()
	return &Playthrough{
		ID:        uuid.New(),
		Module:    e.cfg.Module,
		Current:   e.graph.Entry,
		History:   []narrative.HistoryEntry{},
		State:     diplomacy.NewGameState(e.manifest.Factions, e.manifest.Traits, e.manifest.Characters),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Resume validates a persisted playthrough against the loaded module.
func (e *Engine) Resume(p *Playthrough) error {
	if p.Module != e.cfg.Module {
		return fmt.Errorf("playthrough belongs to module %q, engine runs %q", p.Module, e.cfg.Module)
	}
	if _, ok := e.graph.Nodes[p.Current]; !ok {
		return fmt.Errorf("playthrough cursor %q is not in the module graph", p.Current)
	}
	if p.State == nil {
		return fmt.Errorf("playthrough has no game state")
	}
	return nil
}

// machineFor reconstructs the state machine at the playthrough's cursor.
func (e *Engine) machineFor(p *Playthrough) (*narrative.Machine, error) {
	m, err := narrative.NewMachine(e.graph)
	if err != nil {
		return nil, err
	}
	if err := m.Restore(p.Current, p.History); err != nil {
		return nil, err
	}
	return m, nil
}

// Choose executes a deterministic player choice: the graph transition plus
// the choice's diplomacy effects.
func (e *Engine) Choose(p *Playthrough, choiceID string) (*narrative.Node, *diplomacy.EffectDelta, error) {
	m, err := e.machineFor(p)
	if err != nil {
		return nil, nil, err
	}

	sceneID := m.CurrentID()
	node, err := m.Transition(choiceID)
	if err != nil {
		return nil, nil, err
	}
	delta := e.rules.ApplyChoice(p.State, sceneID, choiceID)

	e.commit(p, m)
	return node, delta, nil
}

// Advance moves past a node that offers no choice: auto-advancing scenes,
// skipped hubs, and system nodes.
func (e *Engine) Advance(p *Playthrough) (*narrative.Node, error) {
	m, err := e.machineFor(p)
	if err != nil {
		return nil, err
	}
	node, err := m.Transition("")
	if err != nil {
		return nil, err
	}
	e.commit(p, m)
	return node, nil
}

// Back undoes the most recent transition. Diplomacy effects already applied
// are deliberately not rolled back; words spoken stay spoken.
func (e *Engine) Back(p *Playthrough) (*narrative.Node, error) {
	m, err := e.machineFor(p)
	if err != nil {
		return nil, err
	}
	node, err := m.GoBack()
	if err != nil {
		return nil, err
	}
	e.commit(p, m)
	return node, nil
}

// IsFinished reports whether the playthrough has reached the exit node.
func (e *Engine) IsFinished(p *Playthrough) bool {
	return p.Current == e.graph.Exit
}

func (e *Engine) commit(p *Playthrough, m *narrative.Machine) {
	p.Current = m.CurrentID()
	p.History = m.History()
	p.UpdatedAt = time.Now().UTC()
}

// ScenePayload is everything a renderer needs to present the current node.
type ScenePayload struct {
	Node      *narrative.Node    `json:"node"`
	Scene     *Scene             `json:"scene,omitempty"`
	Choices   []narrative.Choice `json:"choices,omitempty"`
	CanTalk   bool               `json:"can_talk"`
	TalkWith  string             `json:"talk_with,omitempty"`
	Finished  bool               `json:"finished"`
	Relations map[string]string  `json:"relations"`
}

// CurrentScene assembles the render payload for the playthrough's current
// node. Nodes without an authored scene document render from the node alone.
func (e *Engine) CurrentScene(p *Playthrough) (*ScenePayload, error) {
	node, ok := e.graph.Nodes[p.Current]
	if !ok {
		return nil, fmt.Errorf("playthrough cursor %q is not in the module graph", p.Current)
	}

	payload := &ScenePayload{
		Node:      &node,
		Choices:   node.Choices,
		Finished:  e.IsFinished(p),
		Relations: make(map[string]string, len(e.manifest.Characters)),
	}
	for _, id := range e.manifest.Characters {
		payload.Relations[id] = string(p.State.RelationshipTier(id))
	}

	ref := dialogueRef(&node)
	if ref != nil {
		allowed, err := e.resolver.IsAllowedInScene(ref.CharacterID, node.ID)
		if err == nil && allowed {
			payload.CanTalk = true
			payload.TalkWith = ref.CharacterID
		}
	}

	key := "modules/" + e.cfg.Module + "/scenes/" + node.ID
	if e.store.Exists(key) {
		var scene Scene
		if err := e.store.LoadInto(key, &scene); err != nil {
			return nil, err
		}
		payload.Scene = &scene
	}
	return payload, nil
}

func dialogueRef(node *narrative.Node) *narrative.AIDialogueRef {
	if node.AIDialogue != nil {
		return node.AIDialogue
	}
	return nil
}
