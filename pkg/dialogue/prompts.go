package dialogue

import (
	"fmt"
	"strings"

	"github.com/avelichko/envoy-engine/pkg/character"
)

// StateView is the minimal read interface prompt building needs from the
// diplomacy state. It avoids an import cycle with the diplomacy package.
type StateView interface {
	TraitScore(name string) int
	FactionStanding(name string) int
}

// MaxActiveBehaviors bounds how many satisfied alignment behaviors are
// injected into a prompt. This is a token/latency budget, not a
// correctness rule.
const MaxActiveBehaviors = 2

// EnvelopeInstructions tells the model to answer in the strict JSON
// envelope the reducer expects. No markdown fencing.
const EnvelopeInstructions = `Respond with ONLY a JSON object, no markdown fencing and no text outside it:
{"response": "<your in-character reply>", "analysis": {"overall_tone": ["<tone>"], "detected_stance_towards_russia": "<supportive|neutral|critical|hostile>", "cooperativeness": "<low|medium|high>"}}
- "response" is what the character says, in character, 1-3 sentences.
- "overall_tone" lists one or two words describing the player's tone.
- Always include every field.`

// BaseCharacterPrompt frames the roleplay for the model.
const BaseCharacterPrompt = `You are %s, a character in a diplomatic interactive fiction. Stay in character at all times. Do not acknowledge being an AI. Do not invent plot events; only converse.

Personality: %s
Background: %s`

// BuildSystemPrompt constructs the system instructions for a free-text
// dialogue with the given character, biased by at most the first two
// satisfied alignment behaviors.
func BuildSystemPrompt(profile *character.Profile, state StateView) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(BaseCharacterPrompt, profile.Name, profile.Personality, profile.Background))

	if profile.Motivations != "" {
		sb.WriteString("\nMotivations: " + profile.Motivations)
	}
	if profile.Role != "" {
		sb.WriteString("\nRole: " + profile.Role)
	}

	if p := profile.Persona; p != nil {
		if p.Tone != "" {
			sb.WriteString("\nSpeaking tone: " + p.Tone)
		}
		if p.Register != "" {
			sb.WriteString("\nRegister: " + p.Register)
		}
		if len(p.ExamplePhrases) > 0 {
			sb.WriteString("\nExample phrases: " + strings.Join(p.ExamplePhrases, " / "))
		}
		for _, rule := range p.Always {
			sb.WriteString("\nALWAYS: " + rule)
		}
		for _, rule := range p.Never {
			sb.WriteString("\nNEVER: " + rule)
		}
		for _, bias := range ActiveAlignmentBehaviors(p, state, MaxActiveBehaviors) {
			sb.WriteString("\nCurrent disposition: " + bias)
		}
	}

	sb.WriteString("\n\n" + EnvelopeInstructions)
	return sb.String()
}

// ActiveAlignmentBehaviors returns the bias strings of satisfied alignment
// behaviors, in declaration order, capped at max. A behavior is satisfied
// when any single threshold in its condition is met.
func ActiveAlignmentBehaviors(p *character.Persona, state StateView, max int) []string {
	if p == nil || state == nil {
		return nil
	}
	var active []string
	for _, b := range p.AlignmentBehaviors {
		if len(active) >= max {
			break
		}
		if behaviorSatisfied(b.Condition, state) {
			active = append(active, b.Bias)
		}
	}
	return active
}

func behaviorSatisfied(c character.AlignmentCondition, state StateView) bool {
	for trait, min := range c.MinTraits {
		if state.TraitScore(trait) >= min {
			return true
		}
	}
	for faction, min := range c.MinFactions {
		if state.FactionStanding(faction) >= min {
			return true
		}
	}
	return false
}
