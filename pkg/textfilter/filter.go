package textfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Player utterances are forwarded verbatim into model prompts, so crude
// language is softened before it leaves the engine. Replacements keep the
// sentence readable rather than redacting it.
var replacements = map[string]string{
	"fuck":     "fudge",
	"shit":     "shoot",
	"damn":     "dang",
	"hell":     "heck",
	"ass":      "butt",
	"bitch":    "jerk",
	"bastard":  "jerk",
	"bullshit": "nonsense",
	"asshole":  "jerk",
	"goddamn":  "gosh-dang",
	"prick":    "jerk",
	"crap":     "crud",
}

// Filter softens profanity in free-text input with word-boundary matching.
type Filter struct {
	patterns map[string]*regexp.Regexp
}

// New creates a filter with the word patterns pre-compiled.
func New() *Filter {
	f := &Filter{patterns: make(map[string]*regexp.Regexp, len(replacements))}
	for word := range replacements {
		f.patterns[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return f
}

// Clean replaces each matched word, preserving the original casing.
func (f *Filter) Clean(text string) string {
	result := text
	for word, re := range f.patterns {
		replacement := replacements[word]
		result = re.ReplaceAllStringFunc(result, func(match string) string {
			return matchCase(match, replacement)
		})
	}
	return result
}

// Contains reports whether any filtered word appears in the text.
func (f *Filter) Contains(text string) bool {
	for _, re := range f.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.English)

// matchCase applies the case shape of original to replacement: all caps,
// title case, or lowercase.
func matchCase(original, replacement string) string {
	switch {
	case original == strings.ToUpper(original):
		return strings.ToUpper(replacement)
	case original == titleCaser.String(strings.ToLower(original)):
		return titleCaser.String(replacement)
	default:
		return replacement
	}
}
