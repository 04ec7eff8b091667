package dialogue

import "strings"

// Sentiment values produced by analysis.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Analysis is the structured reduction of one player utterance and its
// reply: tone, stance, and themes. It is produced fresh per utterance and
// consumed by a single effect calculation.
type Analysis struct {
	OverallTone     []string `json:"overall_tone"`
	Stance          string   `json:"detected_stance_towards_russia"`
	Cooperativeness string   `json:"cooperativeness,omitempty"`
	Sentiment       string   `json:"sentiment,omitempty"`
	Themes          []string `json:"themes,omitempty"`
}

// Field exposes analysis values by their wire name for rule-condition
// matching. Single-valued fields come back as one-element lists.
func (a *Analysis) Field(name string) []string {
	switch name {
	case "overall_tone", "tone":
		return a.OverallTone
	case "detected_stance_towards_russia", "stance":
		if a.Stance == "" {
			return nil
		}
		return []string{a.Stance}
	case "cooperativeness":
		if a.Cooperativeness == "" {
			return nil
		}
		return []string{a.Cooperativeness}
	case "sentiment":
		if a.Sentiment == "" {
			return nil
		}
		return []string{a.Sentiment}
	case "themes":
		return a.Themes
	default:
		return nil
	}
}

// NeutralAnalysis is the defined neutral result used whenever no
// classification is possible.
func NeutralAnalysis() *Analysis {
	return &Analysis{
		OverallTone:     []string{"neutral"},
		Stance:          "neutral",
		Cooperativeness: "medium",
		Sentiment:       SentimentNeutral,
	}
}

// KeywordFamily classifies an utterance by keyword scan. Families are
// content, not architecture: the lists below are tuned for the shipped
// module and are replaceable per Analyzer.
type KeywordFamily struct {
	Tone      string
	Theme     string
	Sentiment string
	Keywords  []string
}

// DefaultFamilies returns the standard four-family classification, in
// priority order. The first family with any keyword hit wins.
func DefaultFamilies() []KeywordFamily {
	return []KeywordFamily{
		{
			Tone:      "loyal",
			Theme:     "duty",
			Sentiment: SentimentPositive,
			Keywords:  []string{"duty", "orders", "obey", "serve", "loyal", "honor", "motherland"},
		},
		{
			Tone:      "concerned",
			Theme:     "caution",
			Sentiment: SentimentNeutral,
			Keywords:  []string{"careful", "caution", "risk", "danger", "worried", "afraid", "uncertain"},
		},
		{
			Tone:      "defiant",
			Theme:     "resistance",
			Sentiment: SentimentNegative,
			Keywords:  []string{"refuse", "never", "won't", "resist", "against", "no way", "defy"},
		},
		{
			Tone:      "cooperative",
			Theme:     "agreement",
			Sentiment: SentimentPositive,
			Keywords:  []string{"agree", "understand", "yes", "of course", "certainly", "together"},
		},
	}
}

// Analyzer classifies free-text player input without a model. It is the
// local fallback path when no LLM is reachable.
type Analyzer struct {
	families []KeywordFamily
}

// NewAnalyzer creates an analyzer with the default keyword families.
func NewAnalyzer() *Analyzer {
	return &Analyzer{families: DefaultFamilies()}
}

// NewAnalyzerWithFamilies creates an analyzer with a custom policy.
func NewAnalyzerWithFamilies(families []KeywordFamily) *Analyzer {
	return &Analyzer{families: families}
}

// Analyze scans the lowercased utterance against each family in priority
// order. The first family with a keyword hit wins; no hit is neutral.
func (a *Analyzer) Analyze(utterance string) *Analysis {
	lower := strings.ToLower(utterance)
	for _, family := range a.families {
		for _, kw := range family.Keywords {
			if strings.Contains(lower, kw) {
				return &Analysis{
					OverallTone: []string{family.Tone},
					Stance:      "neutral",
					Sentiment:   family.Sentiment,
					Themes:      []string{family.Theme},
				}
			}
		}
	}
	return &Analysis{
		OverallTone: []string{"neutral"},
		Stance:      "neutral",
		Sentiment:   SentimentNeutral,
	}
}
