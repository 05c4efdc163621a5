package quizgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseResult is the outcome of extracting drafts from one backend reply.
type ParseResult struct {
	Drafts []QuestionDraft

	// Entries counts the candidate entries found, kept or not.
	Entries int

	// Dropped tallies discarded entries by reason.
	Dropped DiscardCounts
}

// Field aliases accepted in backend entries, in lookup order.
var (
	promptKeys      = []string{"prompt", "question", "question_text", "text", "stem"}
	typeKeys        = []string{"type", "question_type", "questionType", "kind"}
	optionKeys      = []string{"options", "choices"}
	answerKeys      = []string{"correct_answer", "correctAnswer", "answer", "correct"}
	explanationKeys = []string{"explanation", "rationale", "reason"}
	envelopeKeys    = []string{"questions", "items", "quiz", "data"}
)

// ParseResponse extracts question drafts from raw backend output. Bad
// entries are dropped one at a time and counted; the call fails with a
// ParseError only when nothing usable survives. The returned result is
// populated even on failure.
func ParseResponse(raw string) (ParseResult, error) {
	res := ParseResult{Dropped: DiscardCounts{}}

	entries, ok := extractJSONEntries(raw)
	if !ok {
		entries = extractTextEntries(raw)
	}
	res.Entries = len(entries)

	for _, entry := range entries {
		draft, reason := draftFromEntry(entry)
		if reason != "" {
			res.Dropped[reason]++
			continue
		}
		res.Drafts = append(res.Drafts, draft)
	}

	if len(res.Drafts) == 0 {
		msg := "no question entries found in backend output"
		if res.Entries > 0 {
			msg = fmt.Sprintf("all %d entries in backend output were unusable", res.Entries)
		}
		return res, newError(ErrParse, msg, nil)
	}
	return res, nil
}

// extractJSONEntries finds question entries in JSON output, tolerating
// code fences, surrounding prose and NDJSON.
func extractJSONEntries(raw string) ([]any, bool) {
	for _, candidate := range jsonCandidates(raw) {
		if v, err := decodeJSON(candidate); err == nil {
			if entries, ok := entriesFrom(v); ok {
				return entries, true
			}
		}
	}

	// NDJSON: one object per line.
	var entries []any
	for _, line := range strings.Split(stripFences(raw), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
		if !strings.HasPrefix(line, "{") {
			continue
		}
		v, err := decodeJSON(line)
		if err != nil {
			// Keep the broken line as an entry so the drop is counted.
			entries = append(entries, line)
			continue
		}
		entries = append(entries, v)
	}
	if len(entries) > 0 {
		return entries, true
	}
	return nil, false
}

// jsonCandidates returns substrings of raw likely to hold the JSON payload,
// most specific first.
func jsonCandidates(raw string) []string {
	text := strings.TrimSpace(raw)
	candidates := []string{text}

	if body := stripFences(text); body != text {
		candidates = append(candidates, body)
	}

	// Outermost bracketed span, for replies wrapped in prose.
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start >= 0 && end > start {
			candidates = append(candidates, text[start:end+1])
		}
	}
	return candidates
}

// stripFences returns the body of the first Markdown code fence, or the
// input unchanged when there is none.
func stripFences(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	body := text[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the info string, e.g. "json".
		if !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeJSON decodes exactly one JSON value, keeping numbers as
// json.Number for the schema validator.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}

// entriesFrom unwraps the common envelopes: a bare array, an object with a
// questions-like array (possibly nested once), or a single question.
func entriesFrom(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		for _, key := range envelopeKeys {
			switch inner := t[key].(type) {
			case []any:
				return inner, true
			case map[string]any:
				if entries, ok := entriesFrom(inner); ok {
					return entries, true
				}
			}
		}
		if firstString(t, promptKeys) != "" || firstString(t, typeKeys) != "" {
			return []any{t}, true
		}
	}
	return nil, false
}

// draftFromEntry converts one decoded entry into a draft, or names the
// reason it has to be dropped.
func draftFromEntry(entry any) (QuestionDraft, DiscardReason) {
	m, ok := entry.(map[string]any)
	if !ok {
		return QuestionDraft{}, DiscardMalformedEntry
	}

	schema, err := compileEntrySchema()
	if err != nil {
		// The entry schema is static; failing to compile it is a bug.
		panic(fmt.Sprintf("quizgen: compile entry schema: %v", err))
	}
	if err := schema.Validate(m); err != nil {
		return QuestionDraft{}, DiscardMalformedOptions
	}

	prompt := strings.TrimSpace(firstString(m, promptKeys))
	if prompt == "" {
		return QuestionDraft{}, DiscardMissingPrompt
	}

	rawType := strings.TrimSpace(firstString(m, typeKeys))
	if _, ok := ParseQuestionType(rawType); !ok {
		return QuestionDraft{}, DiscardUnknownType
	}

	options, flagged, ok := readOptions(m)
	if !ok {
		return QuestionDraft{}, DiscardMalformedOptions
	}

	answer, ok := readAnswer(m, options)
	if !ok {
		return QuestionDraft{}, DiscardMalformedOptions
	}
	switch {
	case len(flagged) > 1:
		return QuestionDraft{}, DiscardMalformedOptions
	case len(flagged) == 1 && answer == "":
		answer = flagged[0]
	case len(flagged) == 1 && !sameText(answer, flagged[0]):
		return QuestionDraft{}, DiscardMalformedOptions
	}

	return QuestionDraft{
		RawType:       rawType,
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   strings.TrimSpace(firstString(m, explanationKeys)),
	}, ""
}

// readOptions returns the option texts and the texts of options flagged
// correct. Options may be strings or {"text", "correct"} objects.
func readOptions(m map[string]any) (options, flagged []string, ok bool) {
	var list []any
	for _, key := range optionKeys {
		if v, present := m[key]; present && v != nil {
			l, isList := v.([]any)
			if !isList {
				return nil, nil, false
			}
			list = l
			break
		}
	}

	for _, item := range list {
		switch o := item.(type) {
		case string:
			options = append(options, strings.TrimSpace(o))
		case map[string]any:
			text, _ := o["text"].(string)
			text = strings.TrimSpace(text)
			options = append(options, text)
			if correct, _ := o["correct"].(bool); correct {
				flagged = append(flagged, text)
			}
		default:
			return nil, nil, false
		}
	}
	return options, flagged, true
}

// readAnswer normalizes the correct answer. Numbers are 0-based option
// indexes and booleans become "True"/"False". A lone letter selects an
// option when no option text matches it literally.
func readAnswer(m map[string]any, options []string) (string, bool) {
	for _, key := range answerKeys {
		v, present := m[key]
		if !present || v == nil {
			continue
		}
		switch a := v.(type) {
		case string:
			return resolveLetter(strings.TrimSpace(a), options), true
		case bool:
			if a {
				return "True", true
			}
			return "False", true
		case json.Number:
			idx, err := a.Int64()
			if err != nil || idx < 0 || int(idx) >= len(options) {
				return "", false
			}
			return options[idx], true
		case float64:
			idx := int(a)
			if float64(idx) != a || idx < 0 || idx >= len(options) {
				return "", false
			}
			return options[idx], true
		default:
			return "", false
		}
	}
	return "", true
}

func resolveLetter(answer string, options []string) string {
	letter := strings.TrimRight(answer, ").:")
	if len(letter) != 1 || len(options) == 0 {
		return answer
	}
	for _, o := range options {
		if sameText(o, answer) {
			return answer
		}
	}
	c := letter[0] | 0x20 // ASCII lower-case
	if c >= 'a' && int(c-'a') < len(options) {
		return options[c-'a']
	}
	return answer
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// sameText compares answer texts case- and whitespace-insensitively.
func sameText(a, b string) bool {
	return normalizePrompt(a) == normalizePrompt(b)
}
