package quizgen

import (
	"strings"
	"time"
)

// QuestionType identifies the answer mechanics of a question.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	Essay          QuestionType = "ESSAY"
	FillInBlank    QuestionType = "FILL_IN_BLANK"
)

// AllQuestionTypes lists every question type in canonical order.
var AllQuestionTypes = []QuestionType{MultipleChoice, TrueFalse, ShortAnswer, Essay, FillInBlank}

// typeSynonyms maps folded spellings seen in backend output to a type.
// Keys are lower-case with spaces, dashes and slashes folded to "_".
var typeSynonyms = map[string]QuestionType{
	"multiple_choice":   MultipleChoice,
	"multiplechoice":    MultipleChoice,
	"multi_choice":      MultipleChoice,
	"multichoice":       MultipleChoice,
	"mcq":               MultipleChoice,
	"mc":                MultipleChoice,
	"choice":            MultipleChoice,
	"single_choice":     MultipleChoice,
	"true_false":        TrueFalse,
	"truefalse":         TrueFalse,
	"true_or_false":     TrueFalse,
	"tf":                TrueFalse,
	"t_f":               TrueFalse,
	"boolean":           TrueFalse,
	"yes_no":            TrueFalse,
	"short_answer":      ShortAnswer,
	"shortanswer":       ShortAnswer,
	"short":             ShortAnswer,
	"sa":                ShortAnswer,
	"open":              ShortAnswer,
	"essay":             Essay,
	"long_answer":       Essay,
	"long":              Essay,
	"open_ended":        Essay,
	"free_response":     Essay,
	"fill_in_blank":     FillInBlank,
	"fill_in_the_blank": FillInBlank,
	"fill_in_blanks":    FillInBlank,
	"fill_blank":        FillInBlank,
	"fillintheblank":    FillInBlank,
	"fillinblank":       FillInBlank,
	"fib":               FillInBlank,
	"cloze":             FillInBlank,
	"blank":             FillInBlank,
}

// ParseQuestionType resolves a raw type label case-insensitively,
// accepting common synonyms such as "mcq" or "true/false".
func ParseQuestionType(raw string) (QuestionType, bool) {
	key := foldTypeLabel(raw)
	if key == "" {
		return "", false
	}
	t, ok := typeSynonyms[key]
	return t, ok
}

func foldTypeLabel(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", "/", "_", " ", "_", ".", "").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// Difficulty is the requested difficulty of every question in a quiz.
type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
)

// ParseDifficulty resolves a difficulty name case-insensitively.
func ParseDifficulty(raw string) (Difficulty, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "EASY":
		return Easy, true
	case "MEDIUM":
		return Medium, true
	case "HARD":
		return Hard, true
	}
	return "", false
}

// QuestionDraft is an untrusted question candidate extracted from backend
// output. Drafts never leave the package.
type QuestionDraft struct {
	RawType       string
	Prompt        string
	Options       []string
	CorrectAnswer string
	Explanation   string
}

// Question is a validated assessment item.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	Difficulty    Difficulty   `json:"difficulty"`
}

// Quiz is the validated result of one generation.
type Quiz struct {
	ID                 string     `json:"id"`
	Topic              string     `json:"topic"`
	Difficulty         Difficulty `json:"difficulty"`
	Questions          []Question `json:"questions"`
	IsPartial          bool       `json:"is_partial"`
	GenerationAttempts int        `json:"generation_attempts"`
	CreatedAt          time.Time  `json:"created_at"`
	Metadata           Metadata   `json:"metadata"`
}

// Metadata records how a quiz was produced.
type Metadata struct {
	Requested int           `json:"requested"`
	Shortfall int           `json:"shortfall"`
	Attempts  []Attempt     `json:"attempts"`
	Discards  DiscardCounts `json:"discards"`
	States    []State       `json:"states"`
}

// DiscardCounts tallies every draft or entry dropped during generation,
// keyed by reason.
type DiscardCounts map[DiscardReason]int

// DiscardReason names why a candidate did not make it into the quiz.
type DiscardReason string

const (
	DiscardMissingPrompt    DiscardReason = "missing_prompt"
	DiscardUnknownType      DiscardReason = "unknown_type"
	DiscardMalformedOptions DiscardReason = "malformed_options"
	DiscardMalformedEntry   DiscardReason = "malformed_entry"
	DiscardTypeNotAllowed   DiscardReason = "type_not_allowed"
	DiscardInvalidStructure DiscardReason = "invalid_structure"
	DiscardDuplicate        DiscardReason = "duplicate"
	DiscardOverflow         DiscardReason = "overflow"
)

// Total returns the number of discards across all reasons.
func (d DiscardCounts) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

func (d DiscardCounts) add(other DiscardCounts) {
	for k, v := range other {
		d[k] += v
	}
}

func (d DiscardCounts) clone() DiscardCounts {
	out := make(DiscardCounts, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of the quiz.
func (q *Quiz) Clone() *Quiz {
	if q == nil {
		return nil
	}
	out := *q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	out.Metadata.Attempts = make([]Attempt, len(q.Metadata.Attempts))
	for i, a := range q.Metadata.Attempts {
		a.Discarded = a.Discarded.clone()
		out.Metadata.Attempts[i] = a
	}
	out.Metadata.Discards = q.Metadata.Discards.clone()
	out.Metadata.States = append([]State(nil), q.Metadata.States...)
	return &out
}

// normalizePrompt folds case and whitespace so that trivially different
// prompts compare equal.
func normalizePrompt(prompt string) string {
	return strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
}
