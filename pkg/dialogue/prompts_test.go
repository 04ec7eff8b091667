package dialogue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelichko/envoy-engine/pkg/character"
)

// stubState implements StateView for testing.
type stubState struct {
	traits   map[string]int
	factions map[string]int
}

func (s *stubState) TraitScore(name string) int      { return s.traits[name] }
func (s *stubState) FactionStanding(name string) int { return s.factions[name] }

func TestActiveAlignmentBehaviors(t *testing.T) {
	persona := &character.Persona{
		AlignmentBehaviors: []character.AlignmentBehavior{
			{
				Condition: character.AlignmentCondition{MinTraits: map[string]int{"independence": 5}},
				Bias:      "Respect the player's independence.",
			},
			{
				Condition: character.AlignmentCondition{MinFactions: map[string]int{"hardliners": 20}},
				Bias:      "Treat the player as a fellow hardliner.",
			},
			{
				Condition: character.AlignmentCondition{MinTraits: map[string]int{"loyalty": 1}},
				Bias:      "Speak warmly.",
			},
		},
	}
	state := &stubState{
		traits:   map[string]int{"independence": 7, "loyalty": 3},
		factions: map[string]int{"hardliners": 25},
	}

	// All three are satisfied; only the first two in declaration order
	// are included.
	active := ActiveAlignmentBehaviors(persona, state, MaxActiveBehaviors)
	assert.Equal(t, []string{
		"Respect the player's independence.",
		"Treat the player as a fellow hardliner.",
	}, active)
}

func TestActiveAlignmentBehaviorsAnyThreshold(t *testing.T) {
	persona := &character.Persona{
		AlignmentBehaviors: []character.AlignmentBehavior{
			{
				Condition: character.AlignmentCondition{
					MinTraits:   map[string]int{"independence": 50},
					MinFactions: map[string]int{"reformists": 10},
				},
				Bias: "Nod approvingly.",
			},
		},
	}

	// The trait threshold is unmet but the faction threshold is met;
	// meeting any single threshold satisfies the condition.
	state := &stubState{factions: map[string]int{"reformists": 15}}
	active := ActiveAlignmentBehaviors(persona, state, MaxActiveBehaviors)
	assert.Equal(t, []string{"Nod approvingly."}, active)

	state = &stubState{}
	assert.Empty(t, ActiveAlignmentBehaviors(persona, state, MaxActiveBehaviors))
}

func TestBuildSystemPrompt(t *testing.T) {
	profile := &character.Profile{
		ID:          "orlov",
		Name:        "Ambassador Orlov",
		Personality: "measured and formal",
		Background:  "Thirty years in the foreign service.",
		Motivations: "Keep the summit from collapsing.",
		Persona: &character.Persona{
			Tone:           "wary",
			Register:       "formal",
			ExamplePhrases: []string{"As you well know..."},
			Never:          []string{"reveal the cipher"},
			Always:         []string{"address the player by title"},
			AlignmentBehaviors: []character.AlignmentBehavior{
				{
					Condition: character.AlignmentCondition{MinTraits: map[string]int{"independence": 3}},
					Bias:      "Show grudging respect.",
				},
			},
		},
	}
	state := &stubState{traits: map[string]int{"independence": 4}}

	prompt := BuildSystemPrompt(profile, state)

	assert.Contains(t, prompt, "Ambassador Orlov")
	assert.Contains(t, prompt, "measured and formal")
	assert.Contains(t, prompt, "Keep the summit from collapsing.")
	assert.Contains(t, prompt, "NEVER: reveal the cipher")
	assert.Contains(t, prompt, "ALWAYS: address the player by title")
	assert.Contains(t, prompt, "Show grudging respect.")
	assert.Contains(t, prompt, `"detected_stance_towards_russia"`)
	assert.True(t, strings.Contains(prompt, "no markdown fencing"))
}

func TestBuildSystemPromptWithoutPersona(t *testing.T) {
	profile := &character.Profile{
		ID:          "volkova",
		Name:        "Attaché Volkova",
		Personality: "clipped and precise",
		Background:  "A junior attaché.",
	}

	prompt := BuildSystemPrompt(profile, &stubState{})
	assert.Contains(t, prompt, "Attaché Volkova")
	assert.Contains(t, prompt, EnvelopeInstructions)
}
