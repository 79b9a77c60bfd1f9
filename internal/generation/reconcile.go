package generation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/llm"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
)

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	looseObjectRe   = regexp.MustCompile(`(?s)\{.*\}`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

	summaryFieldRe = regexp.MustCompile(`"summary"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	titleFieldRe   = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// Reconcile recovers a structured result from raw model output. Candidates
// are tried in order of decreasing confidence: a fenced code block, the
// outermost brace-delimited slice, a loose brace-delimited match, and finally
// the verbatim trimmed text. Each candidate is repaired (when the completion
// was cut off at the token limit) and cleaned of trailing commas before
// parsing. Returns ok=false only when every candidate fails; it never panics
// or returns an error.
func Reconcile(raw, finishReason string) (model.GenerationResult, bool) {
	for _, candidate := range candidates(raw) {
		if finishReason == llm.FinishReasonLength {
			candidate = repairTruncated(candidate)
		}
		candidate = trailingCommaRe.ReplaceAllString(candidate, "$1")

		if result, ok := parseCandidate(candidate); ok {
			return result, true
		}
	}
	return model.GenerationResult{}, false
}

func candidates(raw string) []string {
	var out []string

	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		out = append(out, m[1])
	}

	if first, last := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); first >= 0 && last > first {
		out = append(out, raw[first:last+1])
	}

	if m := looseObjectRe.FindString(raw); m != "" {
		out = append(out, m)
	}

	return append(out, strings.TrimSpace(raw))
}

// parseCandidate requires a non-null JSON object. A missing or malformed
// tests field is coerced to an empty list rather than failing the candidate.
func parseCandidate(candidate string) (model.GenerationResult, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &obj); err != nil || obj == nil {
		return model.GenerationResult{}, false
	}

	result := model.GenerationResult{Tests: []model.TestCase{}}
	if raw, ok := obj["summary"]; ok {
		_ = json.Unmarshal(raw, &result.Summary)
	}
	if raw, ok := obj["tests"]; ok {
		var tests []model.TestCase
		if err := json.Unmarshal(raw, &tests); err == nil && tests != nil {
			result.Tests = tests
		}
	}
	return result, true
}

// repairTruncated structurally repairs output that was cut off mid-payload.
// An unterminated trailing string is closed first (odd count of unescaped
// quotes with the last quote after the last comma), then unmatched braces
// and brackets are closed in reverse nesting order.
func repairTruncated(s string) string {
	count, lastQuote := scanQuotes(s)
	if count%2 == 1 && lastQuote > strings.LastIndex(s, ",") {
		s += `"`
	}

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

func scanQuotes(s string) (count, last int) {
	last = -1
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			count++
			last = i
		}
	}
	return count, last
}

// ScrapeFallback is the last resort once every reconciliation attempt has
// been exhausted: targeted pattern searches over the last raw response pull
// out a summary and any test titles that survive in the text. The result
// always carries the error flag, but recovered titles ride along — degraded
// never means empty.
func ScrapeFallback(raw string) model.GenerationResult {
	result := model.GenerationResult{
		Summary: "Test generation completed with errors; the model response could not be fully parsed.",
		Tests:   []model.TestCase{},
		Error:   true,
	}

	if m := summaryFieldRe.FindStringSubmatch(raw); m != nil {
		if s, ok := unquoteField(m[1]); ok && s != "" {
			result.Summary = s
		}
	}

	for _, m := range titleFieldRe.FindAllStringSubmatch(raw, -1) {
		if t, ok := unquoteField(m[1]); ok && t != "" {
			result.Tests = append(result.Tests, model.TestCase{Title: t})
		}
	}

	return result
}

func unquoteField(inner string) (string, bool) {
	var s string
	if err := json.Unmarshal([]byte(`"`+inner+`"`), &s); err != nil {
		return "", false
	}
	return s, true
}
