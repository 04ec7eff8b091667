package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelReply(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantResponse string
		wantTone     []string
		wantFallback bool
	}{
		{
			name:         "plain envelope",
			raw:          `{"response": "Indeed.", "analysis": {"overall_tone": ["loyal"], "detected_stance_towards_russia": "supportive", "cooperativeness": "high"}}`,
			wantResponse: "Indeed.",
			wantTone:     []string{"loyal"},
		},
		{
			name:         "fenced envelope",
			raw:          "```json\n{\"response\": \"Very well.\", \"analysis\": {\"overall_tone\": [\"curt\"], \"detected_stance_towards_russia\": \"neutral\"}}\n```",
			wantResponse: "Very well.",
			wantTone:     []string{"curt"},
		},
		{
			name:         "prose around envelope",
			raw:          "Here is my reply:\n{\"response\": \"Hm.\", \"analysis\": {\"overall_tone\": [\"guarded\"], \"detected_stance_towards_russia\": \"critical\"}}\nHope that helps!",
			wantResponse: "Hm.",
			wantTone:     []string{"guarded"},
		},
		{
			name:         "not JSON at all",
			raw:          "The ambassador shrugs and walks away.",
			wantFallback: true,
		},
		{
			name:         "invalid JSON",
			raw:          `{"response": "oops`,
			wantFallback: true,
		},
		{
			name:         "missing overall_tone",
			raw:          `{"response": "Fine.", "analysis": {"detected_stance_towards_russia": "neutral"}}`,
			wantFallback: true,
		},
		{
			name:         "missing analysis",
			raw:          `{"response": "Fine."}`,
			wantFallback: true,
		},
		{
			name:         "missing stance",
			raw:          `{"response": "Fine.", "analysis": {"overall_tone": ["flat"]}}`,
			wantFallback: true,
		},
		{
			name:         "empty string",
			raw:          "",
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := ParseModelReply(tt.raw, nil)
			require.NotNil(t, reply)
			require.NotNil(t, reply.Analysis)

			if tt.wantFallback {
				assert.Equal(t, FallbackResponse, reply.Response)
				assert.Equal(t, []string{"neutral"}, reply.Analysis.OverallTone)
				assert.Equal(t, "neutral", reply.Analysis.Stance)
				assert.Equal(t, "medium", reply.Analysis.Cooperativeness)
				return
			}
			assert.Equal(t, tt.wantResponse, reply.Response)
			assert.Equal(t, tt.wantTone, reply.Analysis.OverallTone)
		})
	}
}

func TestParseModelReplyDefaultsCooperativeness(t *testing.T) {
	reply := ParseModelReply(`{"response": "Da.", "analysis": {"overall_tone": ["warm"], "detected_stance_towards_russia": "supportive"}}`, nil)
	assert.Equal(t, "medium", reply.Analysis.Cooperativeness)
}
