// Package render turns quizzes into terminal text.
package render

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizforge/internal/quizgen"
	"github.com/abhisek/quizforge/internal/ui/theme"
)

// Options controls quiz rendering.
type Options struct {
	// ShowAnswers prints the correct answer and explanation under each
	// question.
	ShowAnswers bool

	// Plain disables styling, for pipes and NO_COLOR terminals.
	Plain bool

	// Width is the coverage bar width. Zero means 40.
	Width int
}

const indent = "    "

type renderer struct {
	opts Options
}

func (r renderer) style(s lipgloss.Style, text string) string {
	if r.opts.Plain {
		return text
	}
	return s.Render(text)
}

// Quiz renders q with a header, a coverage bar for partial quizzes and
// each question in order.
func Quiz(q *quizgen.Quiz, opts Options) string {
	r := renderer{opts: opts}
	var b strings.Builder

	fmt.Fprintf(&b, "%s · %s\n", r.style(theme.Title, q.Topic), r.style(theme.Difficulty(string(q.Difficulty)), string(q.Difficulty)))
	fmt.Fprintf(&b, "%s\n", r.style(theme.Subtitle, fmt.Sprintf("quiz %s · %d questions · %d attempts",
		q.ID, len(q.Questions), q.GenerationAttempts)))

	if q.IsPartial {
		requested := q.Metadata.Requested
		fmt.Fprintf(&b, "%s\n", r.style(theme.Warning, fmt.Sprintf("Partial quiz: %d of %d questions",
			len(q.Questions), requested)))
		if requested > 0 {
			fmt.Fprintf(&b, "%s\n", r.coverage(float64(len(q.Questions))/float64(requested)))
		}
	}
	if discards := discardLine(q.Metadata.Discards); discards != "" {
		fmt.Fprintf(&b, "%s\n", r.style(theme.Hint, discards))
	}

	for i, question := range q.Questions {
		b.WriteString("\n")
		r.question(&b, i+1, question)
	}
	return b.String()
}

func (r renderer) question(b *strings.Builder, n int, q quizgen.Question) {
	fmt.Fprintf(b, "%s %s %s\n",
		r.style(theme.QuestionNumber, fmt.Sprintf("%d.", n)),
		r.style(theme.TypeBadge, "["+typeLabel(q.Type)+"]"),
		r.style(theme.Body, q.Prompt),
	)
	for i, opt := range q.Options {
		fmt.Fprintf(b, "%s\n", indent+r.style(theme.Option, fmt.Sprintf("%c) %s", 'A'+rune(i%26), opt)))
	}
	if !r.opts.ShowAnswers {
		return
	}
	if q.CorrectAnswer != "" {
		fmt.Fprintf(b, "%s\n", indent+r.style(theme.Answer, "Answer: "+q.CorrectAnswer))
	}
	if q.Explanation != "" {
		fmt.Fprintf(b, "%s\n", indent+r.style(theme.Explanation, q.Explanation))
	}
}

// coverage draws a bar for the delivered share of the requested count.
func (r renderer) coverage(frac float64) string {
	width := r.opts.Width
	if width <= 0 {
		width = 40
	}
	filled := min(max(int(float64(width)*frac), 0), width)
	pct := fmt.Sprintf("  %d%%", int(frac*100))

	if r.opts.Plain {
		return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]" + pct
	}
	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", width-filled)) +
		theme.Hint.Render(pct)
}

func typeLabel(t quizgen.QuestionType) string {
	switch t {
	case quizgen.MultipleChoice:
		return "multiple choice"
	case quizgen.TrueFalse:
		return "true/false"
	case quizgen.ShortAnswer:
		return "short answer"
	case quizgen.Essay:
		return "essay"
	case quizgen.FillInBlank:
		return "fill in the blank"
	}
	return strings.ToLower(string(t))
}

func discardLine(d quizgen.DiscardCounts) string {
	if len(d) == 0 {
		return ""
	}
	reasons := make([]string, 0, len(d))
	for reason, n := range d {
		if n > 0 {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}
	}
	if len(reasons) == 0 {
		return ""
	}
	slices.Sort(reasons)
	return "Discarded: " + strings.Join(reasons, ", ")
}
