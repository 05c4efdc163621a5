package quizgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an experienced teacher writing assessment questions for an online course.

Rules:
- Generate exactly the requested number of questions about the given topic at the given difficulty.
- Use only the allowed question types, and spread questions across them.
- Every question must be self-contained and unambiguous.
- MULTIPLE_CHOICE: give 4 options as objects {"text", "correct"} with exactly one option marked correct. Distractors should reflect common misconceptions.
- TRUE_FALSE: options are "True" and "False"; correct_answer is "True" or "False".
- SHORT_ANSWER and FILL_IN_BLANK: no options; correct_answer is the expected answer. FILL_IN_BLANK prompts mark the gap with "____".
- ESSAY: no options; correct_answer may hold grading notes.
- Include a one or two sentence explanation for every question.
- Do not repeat any question from the "already covered" list.
- Respond with a JSON object {"questions": [...]} and nothing else.`

// typeLabels are the literal type names the backend is asked to emit.
var typeLabels = map[QuestionType]string{
	MultipleChoice: "MULTIPLE_CHOICE",
	TrueFalse:      "TRUE_FALSE",
	ShortAnswer:    "SHORT_ANSWER",
	Essay:          "ESSAY",
	FillInBlank:    "FILL_IN_BLANK",
}

// BuildPrompt derives the user prompt for one attempt. It is deterministic
// in its inputs: remaining is the number of questions still needed and
// avoid lists prompts already accepted in earlier attempts.
func BuildPrompt(req GenerationRequest, remaining int, avoid []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", req.Topic())
	fmt.Fprintf(&b, "Difficulty: %s\n", strings.ToLower(string(req.Difficulty())))
	fmt.Fprintf(&b, "Number of questions: %d\n", remaining)

	labels := make([]string, 0, len(req.types))
	for _, t := range req.types {
		labels = append(labels, typeLabels[t])
	}
	fmt.Fprintf(&b, "Allowed question types: %s\n", strings.Join(labels, ", "))

	if ctx := req.CourseContext(); ctx != "" {
		b.WriteString("\nCourse context:\n")
		b.WriteString(ctx)
		b.WriteString("\n")
	}

	b.WriteString("\nAlready covered:\n")
	b.WriteString(buildAvoidList(avoid))

	return b.String()
}

// buildAvoidList formats prior prompts, or "None" when there are none.
func buildAvoidList(prompts []string) string {
	if len(prompts) == 0 {
		return "None"
	}

	var b strings.Builder
	for i, p := range prompts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n")
}
