package dialogue

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// FallbackResponse is the canned reply used when model output cannot be
// parsed or a transport failure occurs.
const FallbackResponse = "The official regards you in silence for a moment, then changes the subject."

// Reply is a parsed model turn: the in-character response text and its
// structured self-analysis.
type Reply struct {
	Response string    `json:"response"`
	Analysis *Analysis `json:"analysis"`
}

// FallbackReply returns the fixed neutral reply and analysis.
func FallbackReply() *Reply {
	return &Reply{
		Response: FallbackResponse,
		Analysis: NeutralAnalysis(),
	}
}

// ParseModelReply reduces raw model output to a Reply. The model is
// instructed to emit a strict JSON envelope, but its output is untrusted:
// code fences are stripped, the envelope is validated, and any failure
// degrades to the neutral fallback. This function never returns an error;
// malformed model output must not crash a playthrough.
func ParseModelReply(raw string, logger *slog.Logger) *Reply {
	body := extractJSON(raw)
	if body == "" {
		if logger != nil {
			logger.Warn("Model reply contained no JSON envelope", "raw_len", len(raw))
		}
		return FallbackReply()
	}

	var reply Reply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		if logger != nil {
			logger.Warn("Model reply envelope failed to parse", "error", err)
		}
		return FallbackReply()
	}

	if reply.Response == "" || reply.Analysis == nil ||
		len(reply.Analysis.OverallTone) == 0 || reply.Analysis.Stance == "" {
		if logger != nil {
			logger.Warn("Model reply envelope missing required fields")
		}
		return FallbackReply()
	}

	if reply.Analysis.Cooperativeness == "" {
		reply.Analysis.Cooperativeness = "medium"
	}
	return &reply
}

// extractJSON strips markdown code fences and any surrounding prose,
// returning the outermost JSON object in the text.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
