// Package extract recovers structured data from free-text LLM replies.
//
// Every semantic component funnels its reply parsing through this package so
// all callers share the same fallback chain: a fenced block labeled json, any
// fenced block, the widest brace-delimited substring, then the whole trimmed
// text. Extraction never fails with an error - a reply that yields nothing
// parseable produces an Empty result and the caller follows its degrade path.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Result is the tagged outcome of an extraction attempt.
type Result struct {
	parsed bool
	raw    string
}

// Parsed reports whether a candidate substring decoded into the target.
func (r Result) Parsed() bool {
	return r.parsed
}

// IsEmpty reports whether no candidate could be decoded.
func (r Result) IsEmpty() bool {
	return !r.parsed
}

// Raw returns the candidate text that decoded successfully, or "" for Empty.
func (r Result) Raw() string {
	return r.raw
}

var (
	fenceLabeledRegex = regexp.MustCompile("(?s)```(?:json|JSON)\\s*\\n(.*?)\\n\\s*```")
	fenceAnyRegex     = regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n\\s*```")
)

// JSON attempts to decode structured data from a raw reply into v.
//
// Candidates are tried in fixed priority order; the first that decodes wins.
// On an Empty result the contents of v are undefined and must not be used -
// pass a fresh zero value and branch on the result.
func JSON(text string, v interface{}) Result {
	for _, candidate := range candidates(text) {
		if candidate == "" {
			continue
		}
		if !json.Valid([]byte(candidate)) {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return Result{parsed: true, raw: candidate}
		}
	}
	return Result{}
}

// candidates returns the extraction attempts in priority order:
// labeled fence, any fence, brace scan, whole trimmed text.
func candidates(text string) []string {
	out := make([]string, 0, 4)

	if m := fenceLabeledRegex.FindStringSubmatch(text); len(m) > 1 {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if m := fenceAnyRegex.FindStringSubmatch(text); len(m) > 1 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	// Widest brace-delimited substring: first '{' through last '}'.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		out = append(out, text[start:end+1])
	}

	out = append(out, strings.TrimSpace(text))
	return out
}
