package diplomacy

import (
	"encoding/json"
	"log/slog"

	"github.com/avelichko/envoy-engine/pkg/content"
)

// AnalysisView is the minimal read interface the rule engine needs from a
// dialogue analysis. It avoids an import cycle with the dialogue package.
type AnalysisView interface {
	// Field returns the analysis values for a named field, as a list.
	// Single-valued fields return a one-element list; unknown fields nil.
	Field(name string) []string
}

// ValueSet is a condition's expected values for one analysis field.
// Content may author it as a single string or a list of strings.
type ValueSet []string

func (vs *ValueSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*vs = ValueSet{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*vs = ValueSet(many)
	return nil
}

// ChoiceEffect binds a deterministic player choice to its state delta.
type ChoiceEffect struct {
	ID      string       `json:"id"`
	Effects *EffectDelta `json:"effects"`
}

// AIRule maps a dialogue-analysis condition to a state delta. Conditions
// AND across keys; within one key, any expected value may match.
type AIRule struct {
	Condition map[string]ValueSet `json:"condition"`
	Effects   *EffectDelta        `json:"effects"`
}

// EffectTable is a scene's diplomacy effect table.
type EffectTable struct {
	Choices []ChoiceEffect `json:"choices,omitempty"`
	AIRules []AIRule       `json:"ai_rules,omitempty"`
}

// GuardConfig holds the anti-spiral thresholds. The defaults match the
// shipped content; modules may tune them per deployment.
type GuardConfig struct {
	SoftLockThreshold int // predicted opinion below this softens the delta
	HardLockThreshold int // predicted opinion below this neutralizes it
	SoftenedDelta     int // worst opinion delta allowed past the soft lock
}

// DefaultGuardConfig returns the standard -40/-80 thresholds with a -3 floor.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		SoftLockThreshold: -40,
		HardLockThreshold: -80,
		SoftenedDelta:     -3,
	}
}

// Engine looks up per-scene effect tables and applies the resulting deltas
// to a playthrough's game state.
type Engine struct {
	store  *content.Store
	module string
	guard  GuardConfig
	logger *slog.Logger
}

// NewEngine creates a rule engine for one narrative module.
func NewEngine(store *content.Store, module string, guard GuardConfig, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		module: module,
		guard:  guard,
		logger: logger,
	}
}

// table loads a scene's effect table, or nil when the scene has none.
// Scenes without diplomacy consequences are normal, not errors.
func (e *Engine) table(sceneID string) *EffectTable {
	key := "modules/" + e.module + "/diplomacy/" + sceneID
	if !e.store.Exists(key) {
		return nil
	}
	var t EffectTable
	if err := e.store.LoadInto(key, &t); err != nil {
		if e.logger != nil {
			e.logger.Warn("Unreadable effect table", "scene", sceneID, "error", err)
		}
		return nil
	}
	return &t
}

// ApplyChoice applies the effects of a deterministic player choice to gs.
// An unknown scene or choice id is a no-op with a warning.
func (e *Engine) ApplyChoice(gs *GameState, sceneID, choiceID string) *EffectDelta {
	t := e.table(sceneID)
	if t == nil {
		if e.logger != nil {
			e.logger.Warn("No effect table for scene", "scene", sceneID, "choice", choiceID)
		}
		return NewEffectDelta()
	}
	for _, entry := range t.Choices {
		if entry.ID == choiceID {
			delta := entry.Effects.Clone().normalized()
			gs.ApplyEffects(delta)
			return delta
		}
	}
	if e.logger != nil {
		e.logger.Warn("No effects for choice", "scene", sceneID, "choice", choiceID)
	}
	return NewEffectDelta()
}

// DialogueDelta computes the delta for a classified free-text exchange in
// sceneID without applying it. The first rule in document order whose
// condition fully matches wins; no match yields an empty neutral delta.
func (e *Engine) DialogueDelta(sceneID string, analysis AnalysisView) *EffectDelta {
	t := e.table(sceneID)
	if t == nil {
		return NewEffectDelta()
	}
	return MatchAIRule(t.AIRules, analysis)
}

// ApplyAIDialogue computes the dialogue delta, runs the anti-spiral guard
// for characterID, applies the result to gs, and returns it.
func (e *Engine) ApplyAIDialogue(gs *GameState, sceneID, characterID, fallbackRule string, analysis AnalysisView) *EffectDelta {
	delta := e.DialogueDelta(sceneID, analysis)
	e.ApplyFallbackProtections(gs, characterID, fallbackRule, delta)
	gs.ApplyEffects(delta)
	return delta
}

// MatchAIRule returns the effects of the first rule whose condition is
// satisfied by the analysis. Every condition key must match (AND); within
// one key, the analysis value must equal any of the expected values (OR),
// with match-any semantics when the analysis value is itself a list.
func MatchAIRule(rules []AIRule, analysis AnalysisView) *EffectDelta {
	for _, rule := range rules {
		if ruleMatches(rule, analysis) {
			return rule.Effects.Clone().normalized()
		}
	}
	return NewEffectDelta()
}

func ruleMatches(rule AIRule, analysis AnalysisView) bool {
	if len(rule.Condition) == 0 {
		return false
	}
	for field, expected := range rule.Condition {
		got := analysis.Field(field)
		if !anyOverlap(got, expected) {
			return false
		}
	}
	return true
}

func anyOverlap(got []string, expected ValueSet) bool {
	for _, g := range got {
		for _, e := range expected {
			if g == e {
				return true
			}
		}
	}
	return false
}

// ApplyFallbackProtections dampens a negative opinion delta that would push
// the relationship past the soft-lock threshold, and neutralizes it past
// the hard-lock threshold. Positive deltas and other sub-maps are never
// touched; the guard only ever makes a negative delta less negative.
func (e *Engine) ApplyFallbackProtections(gs *GameState, characterID, fallbackRule string, delta *EffectDelta) {
	d, ok := delta.NPCOpinions[characterID]
	if !ok || d >= 0 {
		return
	}

	current := gs.NPCOpinions[characterID]
	predicted := current + d

	if predicted < e.guard.SoftLockThreshold && d < e.guard.SoftenedDelta {
		delta.NPCOpinions[characterID] = e.guard.SoftenedDelta
		d = e.guard.SoftenedDelta
		if e.logger != nil {
			e.logger.Info("Soft-lock guard softened opinion delta",
				"character", characterID,
				"predicted", predicted,
				"softened_to", d,
				"fallback_rule", fallbackRule)
		}
	}

	if predicted < e.guard.HardLockThreshold && d < 0 {
		delta.NPCOpinions[characterID] = 0
		if e.logger != nil {
			e.logger.Info("Hard-lock guard neutralized opinion delta",
				"character", characterID,
				"predicted", predicted,
				"fallback_rule", fallbackRule)
		}
	}
}
