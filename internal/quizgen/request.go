package quizgen

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	// MinQuestionCount and MaxQuestionCount bound the requested count.
	MinQuestionCount = 5
	MaxQuestionCount = 50
)

// RequestInput is the raw, caller-supplied form of a generation request.
type RequestInput struct {
	Topic         string   `json:"topic"`
	Difficulty    string   `json:"difficulty"`
	QuestionCount int      `json:"question_count"`
	QuestionTypes []string `json:"question_types"`
	CourseContext string   `json:"course_context,omitempty"`
}

// GenerationRequest is a validated, immutable set of generation
// constraints. The zero value is not a valid request; use BuildRequest.
type GenerationRequest struct {
	topic         string
	difficulty    Difficulty
	count         int
	types         []QuestionType
	courseContext string
	built         bool
}

// BuildRequest normalizes and validates raw input into a GenerationRequest.
// It performs no I/O.
func BuildRequest(in RequestInput) (GenerationRequest, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return GenerationRequest{}, newError(ErrInvalidRequest, "topic must not be empty", nil)
	}

	difficulty := Medium
	if strings.TrimSpace(in.Difficulty) != "" {
		d, ok := ParseDifficulty(in.Difficulty)
		if !ok {
			return GenerationRequest{}, newError(ErrInvalidRequest,
				fmt.Sprintf("unknown difficulty %q", in.Difficulty), nil)
		}
		difficulty = d
	}

	var types []QuestionType
	for _, raw := range in.QuestionTypes {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		t, ok := ParseQuestionType(raw)
		if !ok {
			return GenerationRequest{}, newError(ErrInvalidRequest,
				fmt.Sprintf("unknown question type %q", raw), nil)
		}
		if !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return GenerationRequest{}, newError(ErrInvalidRequest, "at least one question type is required", nil)
	}

	return GenerationRequest{
		topic:         topic,
		difficulty:    difficulty,
		count:         clampCount(in.QuestionCount),
		types:         canonicalOrder(types),
		courseContext: strings.TrimSpace(in.CourseContext),
		built:         true,
	}, nil
}

func clampCount(n int) int {
	return min(max(n, MinQuestionCount), MaxQuestionCount)
}

// canonicalOrder sorts types into AllQuestionTypes order so that equal sets
// produce equal requests.
func canonicalOrder(types []QuestionType) []QuestionType {
	out := make([]QuestionType, 0, len(types))
	for _, t := range AllQuestionTypes {
		if slices.Contains(types, t) {
			out = append(out, t)
		}
	}
	return out
}

func (r GenerationRequest) Topic() string          { return r.topic }
func (r GenerationRequest) Difficulty() Difficulty { return r.difficulty }
func (r GenerationRequest) QuestionCount() int     { return r.count }
func (r GenerationRequest) CourseContext() string  { return r.courseContext }

// QuestionTypes returns a copy of the allowed types in canonical order.
func (r GenerationRequest) QuestionTypes() []QuestionType {
	return slices.Clone(r.types)
}

// Allows reports whether t is one of the requested question types.
func (r GenerationRequest) Allows(t QuestionType) bool {
	return slices.Contains(r.types, t)
}

// Valid reports whether the request came out of BuildRequest.
func (r GenerationRequest) Valid() bool { return r.built }

// Key identifies requests that would produce interchangeable quizzes.
// Topic and context are compared case- and whitespace-insensitively.
func (r GenerationRequest) Key() string {
	var b strings.Builder
	b.WriteString(normalizePrompt(r.topic))
	b.WriteByte('|')
	b.WriteString(string(r.difficulty))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(r.count))
	for _, t := range r.types {
		b.WriteByte('|')
		b.WriteString(string(t))
	}
	b.WriteByte('|')
	b.WriteString(normalizePrompt(r.courseContext))
	return b.String()
}
