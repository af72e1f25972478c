package llm

import (
	"encoding/json"
	"strings"
)

// Section markers clients split PPDT evaluations on.
const (
	MarkerEvaluation = "EVALUATION:"
	MarkerExample    = "POSITIVE STORY EXAMPLE:"
)

// StoryFeedback is a PPDT evaluation split into its two logical parts.
type StoryFeedback struct {
	Evaluation      string
	PositiveExample string
	Fallback        bool
}

// Text renders the marker-delimited form. Fallback results are returned
// as-is, without markers.
func (s StoryFeedback) Text() string {
	if s.Fallback {
		return s.Evaluation
	}
	return MarkerEvaluation + "\n" + s.Evaluation + "\n\n" + MarkerExample + "\n" + s.PositiveExample
}

type storyReply struct {
	Evaluation      string `json:"evaluation"`
	PositiveExample string `json:"positive_story_example"`
}

// ParseStoryFeedback reads a provider reply. A JSON object with evaluation
// and positive_story_example fields wins; otherwise the text is split on the
// section markers.
func ParseStoryFeedback(text string) StoryFeedback {
	if r, ok := parseStoryJSON(text); ok {
		return StoryFeedback{
			Evaluation:      strings.TrimSpace(r.Evaluation),
			PositiveExample: strings.TrimSpace(r.PositiveExample),
		}
	}
	eval, example := SplitEvaluation(text)
	return StoryFeedback{Evaluation: eval, PositiveExample: example}
}

// parseStoryJSON accepts a reply that is itself a JSON object, optionally
// inside a code fence. JSON fragments quoted inside prose are ignored.
func parseStoryJSON(text string) (storyReply, bool) {
	body := stripFence(strings.TrimSpace(text))
	if !strings.HasPrefix(body, "{") {
		return storyReply{}, false
	}
	var r storyReply
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&r); err != nil {
		return storyReply{}, false
	}
	if strings.TrimSpace(r.Evaluation) == "" {
		return storyReply{}, false
	}
	return r, true
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	_, body, ok := strings.Cut(text, "\n")
	if !ok {
		return text
	}
	body = strings.TrimSpace(body)
	return strings.TrimSpace(strings.TrimSuffix(body, "```"))
}

// SplitEvaluation separates marker-delimited text into the evaluation and
// the positive story example. Each section runs until the next marker of
// either kind, so the order of the markers does not matter and repeated
// sections are joined. Text before any marker belongs to the evaluation.
func SplitEvaluation(text string) (evaluation, example string) {
	var evalParts, exampleParts []string
	current := &evalParts
	rest := text
	for {
		next, marker, target := -1, "", current
		ei := strings.Index(rest, MarkerEvaluation)
		xi := strings.Index(rest, MarkerExample)
		switch {
		case ei >= 0 && (xi < 0 || ei < xi):
			next, marker, target = ei, MarkerEvaluation, &evalParts
		case xi >= 0:
			next, marker, target = xi, MarkerExample, &exampleParts
		}
		if next < 0 {
			*current = appendSection(*current, rest)
			break
		}
		*current = appendSection(*current, rest[:next])
		current = target
		rest = rest[next+len(marker):]
	}
	return strings.Join(evalParts, "\n"), strings.Join(exampleParts, "\n")
}

func appendSection(parts []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		parts = append(parts, s)
	}
	return parts
}
