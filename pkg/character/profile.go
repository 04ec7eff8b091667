package character

// AlignmentCondition holds minimum thresholds on player traits or faction
// standings. A condition is satisfied when any single threshold is met.
type AlignmentCondition struct {
	MinTraits   map[string]int `json:"min_traits,omitempty"`
	MinFactions map[string]int `json:"min_factions,omitempty"`
}

// AlignmentBehavior is a conditional behavioral bias for an AI persona.
// When its condition is satisfied, Bias is injected into the dialogue prompt.
type AlignmentBehavior struct {
	Condition AlignmentCondition `json:"condition"`
	Bias      string             `json:"bias"`
}

// Persona is the AI-specific behavioral overlay on a character profile.
type Persona struct {
	Tone               string              `json:"tone,omitempty"`
	Register           string              `json:"register,omitempty"`
	ExamplePhrases     []string            `json:"example_phrases,omitempty"`
	Never              []string            `json:"never,omitempty"`
	Always             []string            `json:"always,omitempty"`
	AlignmentBehaviors []AlignmentBehavior `json:"alignment_behaviors,omitempty"`
	SceneScope         []string            `json:"scene_scope,omitempty"`
	FallbackRule       string              `json:"fallback_rule,omitempty"`
}

// AllowsScene reports whether the persona declares sceneID in its scope.
func (p *Persona) AllowsScene(sceneID string) bool {
	for _, id := range p.SceneScope {
		if id == sceneID {
			return true
		}
	}
	return false
}

// Profile is the canonical merged view of a character, built from up to
// three source records: built-in fallback, base content record, and the
// AI-persona record.
type Profile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Personality string   `json:"personality,omitempty"`
	Background  string   `json:"background,omitempty"`
	Motivations string   `json:"motivations,omitempty"`
	SpeechStyle string   `json:"speech_style,omitempty"`
	Role        string   `json:"role,omitempty"`
	Persona     *Persona `json:"persona,omitempty"`
}

// Record is a normalized character source record. Localized field names are
// mapped to these canonical fields at the load boundary (see normalize).
type Record struct {
	Name        string   `json:"name,omitempty"`
	Personality string   `json:"personality,omitempty"`
	Background  string   `json:"background,omitempty"`
	Motivations string   `json:"motivations,omitempty"`
	SpeechStyle string   `json:"speech_style,omitempty"`
	Role        string   `json:"role,omitempty"`
	Persona     *Persona `json:"persona,omitempty"`
}

// merge overlays src onto the profile field-by-field. Empty source fields
// never erase values set by a lower-precedence record.
func (p *Profile) merge(src *Record) {
	if src == nil {
		return
	}
	if src.Name != "" {
		p.Name = src.Name
	}
	if src.Personality != "" {
		p.Personality = src.Personality
	}
	if src.Background != "" {
		p.Background = src.Background
	}
	if src.Motivations != "" {
		p.Motivations = src.Motivations
	}
	if src.SpeechStyle != "" {
		p.SpeechStyle = src.SpeechStyle
	}
	if src.Role != "" {
		p.Role = src.Role
	}
	if src.Persona != nil {
		p.Persona = src.Persona
	}
}

// canonicalize fills derived fields after all records are merged. Prompt
// building reads Personality, so a speech style supplied by any source
// stands in when no personality was given; generic defaults apply only
// when no record supplied either field.
func (p *Profile) canonicalize() {
	if p.Personality == "" {
		if p.SpeechStyle != "" {
			p.Personality = p.SpeechStyle
		} else {
			p.Personality = "formal and diplomatic"
		}
	}
	if p.Background == "" {
		p.Background = "a career official in the diplomatic service"
	}
}
