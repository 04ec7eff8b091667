package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelichko/envoy-engine/pkg/character"
	"github.com/avelichko/envoy-engine/pkg/dialogue"
	"github.com/avelichko/envoy-engine/pkg/diplomacy"
)

// ErrNoDialogue indicates the current node offers no free-text conversation.
var ErrNoDialogue = errors.New("current node offers no free-text dialogue")

// DialogueUnavailableError indicates the character cannot hold a free-text
// conversation here: missing backing data or a scene outside its scope.
type DialogueUnavailableError struct {
	CharacterID string
	Reason      string
}

func (e *DialogueUnavailableError) Error() string {
	return fmt.Sprintf("dialogue with %s unavailable: %s", e.CharacterID, e.Reason)
}

// DialogueResult is one completed free-text exchange: the character's reply,
// its analysis, and the diplomacy effects it produced.
type DialogueResult struct {
	CharacterID string                 `json:"character_id"`
	Response    string                 `json:"response"`
	Analysis    *dialogue.Analysis     `json:"analysis"`
	Delta       *diplomacy.EffectDelta `json:"delta"`
	Tier        diplomacy.Tier         `json:"tier"`
}

// Converse runs one free-text exchange with the character offered by the
// current node. Model failures degrade to the canned fallback reply; the
// exchange itself never fails once the character is cleared to speak.
func (e *Engine) Converse(ctx context.Context, p *Playthrough, utterance string) (*DialogueResult, error) {
	node, ok := e.graph.Nodes[p.Current]
	if !ok {
		return nil, fmt.Errorf("playthrough cursor %q is not in the module graph", p.Current)
	}
	ref := dialogueRef(&node)
	if ref == nil {
		return nil, ErrNoDialogue
	}
	charID := ref.CharacterID

	allowed, err := e.resolver.IsAllowedInScene(charID, node.ID)
	if err != nil {
		var missing *character.DataMissingError
		if errors.As(err, &missing) {
			return nil, &DialogueUnavailableError{CharacterID: charID, Reason: "character data missing"}
		}
		return nil, err
	}
	if !allowed {
		return nil, &DialogueUnavailableError{CharacterID: charID, Reason: "scene not in persona scope"}
	}

	profile, err := e.resolver.ResolveStrict(charID)
	if err != nil {
		return nil, err
	}

	input := utterance
	if e.cfg.FilterInput {
		input = e.filter.Clean(input)
	}

	var reply *dialogue.Reply
	if e.cfg.AIEnabled && e.llm != nil {
		reply = e.modelReply(ctx, profile, p, input)
	} else {
		reply = e.localReply(profile, input)
	}

	fallbackRule := "ai_dialogue"
	if profile.Persona != nil && profile.Persona.FallbackRule != "" {
		fallbackRule = profile.Persona.FallbackRule
	}

	delta := e.rules.ApplyAIDialogue(p.State, node.ID, charID, fallbackRule, reply.Analysis)
	p.UpdatedAt = time.Now().UTC()

	return &DialogueResult{
		CharacterID: charID,
		Response:    reply.Response,
		Analysis:    reply.Analysis,
		Delta:       delta,
		Tier:        p.State.RelationshipTier(charID),
	}, nil
}

// modelReply completes one turn against the model. Transport failures and
// unparseable output both degrade to the fallback reply.
func (e *Engine) modelReply(ctx context.Context, profile *character.Profile, p *Playthrough, input string) *dialogue.Reply {
	system := dialogue.BuildSystemPrompt(profile, p.State)
	raw, err := e.llm.Complete(ctx, system, input, e.cfg.MaxTokens)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("Model completion failed", "character", profile.ID, "error", err)
		}
		return dialogue.FallbackReply()
	}
	return dialogue.ParseModelReply(raw, e.logger)
}

// localLines maps a detected tone to a short in-character acknowledgement
// for the model-less path.
var localLines = map[string]string{
	"loyal":       "%s inclines their head. \"Your sense of duty does you credit.\"",
	"concerned":   "%s studies you for a moment. \"Caution is wise, in times like these.\"",
	"defiant":     "%s's expression hardens. \"I would choose my next words carefully.\"",
	"cooperative": "%s nods slowly. \"Then perhaps we understand each other.\"",
}

// localReply classifies the utterance with the keyword analyzer and renders
// a canned acknowledgement in the character's voice.
func (e *Engine) localReply(profile *character.Profile, input string) *dialogue.Reply {
	analysis := e.analyzer.Analyze(input)

	line := "%s considers your words without comment."
	if len(analysis.OverallTone) > 0 {
		if l, ok := localLines[analysis.OverallTone[0]]; ok {
			line = l
		}
	}
	return &dialogue.Reply{
		Response: fmt.Sprintf(line, profile.Name),
		Analysis: analysis,
	}
}
