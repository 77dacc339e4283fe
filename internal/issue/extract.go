package issue

import (
	"encoding/json"
	"regexp"
	"strings"
)

// FallbackTitle is used when the model output cannot be parsed.
const FallbackTitle = "Issue from Discord conversation"

// TriageLabel marks an issue that needs manual cleanup.
const TriageLabel = "needs-triage"

// The closing fence must start its own line. Newlines inside JSON strings
// are escaped, so a fence embedded in the body cannot end the block.
var fencedJSON = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")

// draft is the issue shape the model is asked to return.
type draft struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// extractDraft pulls an issue object out of model output. A fenced json
// block wins; the first balanced {...} object is only used when no fence
// is present.
func extractDraft(text string) (*draft, bool) {
	var raw string
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if obj, ok := firstObject(text); ok {
		raw = obj
	} else {
		return nil, false
	}

	var d draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, false
	}
	if strings.TrimSpace(d.Title) == "" {
		return nil, false
	}
	d.Labels = uniqueLabels(d.Labels)
	return &d, true
}

// uniqueLabels drops repeated labels, keeping first-seen order.
func uniqueLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// fallbackDraft wraps unparseable model output so the user can edit it.
func fallbackDraft(response string) *draft {
	return &draft{
		Title:  FallbackTitle,
		Body:   response,
		Labels: []string{TriageLabel},
	}
}

// firstObject returns the first brace-balanced object in s. Braces inside
// JSON strings are ignored.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
