package quizgen

import (
	"regexp"
	"strings"
)

var (
	// "Question: ...", "Q: ...", "Correct answer: ..."
	textFieldRe = regexp.MustCompile(`^(?i)(q|question|prompt|type|question type|options|choices|answer|correct answer|correct|explanation|rationale)\s*[:=]\s*(.*)$`)

	// "A) text", "b. text", "- text", "* text"; a leading "*" or a
	// trailing "(correct)" marks the right option.
	textOptionRe = regexp.MustCompile(`^(\*\s*)?(?:[A-Za-z][\)\.]|[-•])\s+(.+)$`)

	// "1. ..." or "Q3) ..." question numbering.
	textNumberRe = regexp.MustCompile(`^(?i)q?\d+[\)\.:]\s+`)

	correctMarkRe = regexp.MustCompile(`(?i)\s*(\(correct\)|\[correct\]|\*)$`)
)

// extractTextEntries parses the plain-text block format: one question per
// blank-line separated block, with "Field: value" lines and option lines.
// Blocks with no recognised field are treated as prose and skipped.
func extractTextEntries(raw string) []any {
	var entries []any
	for _, block := range splitBlocks(stripFences(raw)) {
		if entry, ok := parseTextBlock(block); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func splitBlocks(text string) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// parseTextBlock turns a block into the same map shape a JSON entry has,
// so both formats share draftFromEntry.
func parseTextBlock(lines []string) (map[string]any, bool) {
	entry := map[string]any{}
	var (
		options   []any
		lastField string
		known     bool
	)

	for _, line := range lines {
		line = textNumberRe.ReplaceAllString(line, "")

		if m := textFieldRe.FindStringSubmatch(line); m != nil {
			known = true
			field := strings.ToLower(m[1])
			value := strings.TrimSpace(m[2])
			switch field {
			case "q", "question", "prompt":
				entry["prompt"] = value
				lastField = "prompt"
			case "type", "question type":
				entry["type"] = value
				lastField = ""
			case "options", "choices":
				lastField = "options"
			case "answer", "correct answer", "correct":
				entry["correct_answer"] = value
				lastField = ""
			case "explanation", "rationale":
				entry["explanation"] = value
				lastField = "explanation"
			}
			continue
		}

		if m := textOptionRe.FindStringSubmatch(line); m != nil && (lastField == "options" || lastField == "prompt") {
			text := m[2]
			correct := m[1] != ""
			if loc := correctMarkRe.FindStringIndex(text); loc != nil {
				text = text[:loc[0]]
				correct = true
			}
			options = append(options, map[string]any{"text": strings.TrimSpace(text), "correct": correct})
			lastField = "options"
			continue
		}

		// Continuation of a multi-line prompt or explanation.
		if lastField == "prompt" || lastField == "explanation" {
			prev, _ := entry[lastField].(string)
			entry[lastField] = strings.TrimSpace(prev + " " + line)
		}
	}

	if !known {
		return nil, false
	}
	if len(options) > 0 {
		entry["options"] = options
	}
	return entry, true
}
