package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/quizforge/internal/quizgen"
)

func sampleQuiz() *quizgen.Quiz {
	return &quizgen.Quiz{
		ID:         "01JQUIZ",
		Topic:      "Cells",
		Difficulty: quizgen.Hard,
		Questions: []quizgen.Question{
			{
				Type:          quizgen.MultipleChoice,
				Prompt:        "Which organelle produces ATP?",
				Options:       []string{"Nucleus", "Mitochondrion"},
				CorrectAnswer: "Mitochondrion",
				Explanation:   "Cellular respiration happens there.",
			},
			{Type: quizgen.FillInBlank, Prompt: "The ____ controls the cell.", CorrectAnswer: "nucleus"},
		},
		IsPartial:          true,
		GenerationAttempts: 3,
		Metadata: quizgen.Metadata{
			Requested: 4,
			Shortfall: 2,
			Discards:  quizgen.DiscardCounts{quizgen.DiscardDuplicate: 2, quizgen.DiscardUnknownType: 1},
		},
	}
}

func TestQuiz_Plain(t *testing.T) {
	out := Quiz(sampleQuiz(), Options{Plain: true, Width: 10})

	assert.Contains(t, out, "Cells · HARD")
	assert.Contains(t, out, "quiz 01JQUIZ · 2 questions · 3 attempts")
	assert.Contains(t, out, "Partial quiz: 2 of 4 questions")
	assert.Contains(t, out, "[#####.....]  50%")
	assert.Contains(t, out, "Discarded: duplicate=2, unknown_type=1")
	assert.Contains(t, out, "1. [multiple choice] Which organelle produces ATP?")
	assert.Contains(t, out, "    B) Mitochondrion")
	assert.Contains(t, out, "2. [fill in the blank] The ____ controls the cell.")
	assert.NotContains(t, out, "Answer:")
}

func TestQuiz_ShowAnswers(t *testing.T) {
	out := Quiz(sampleQuiz(), Options{Plain: true, ShowAnswers: true})

	assert.Contains(t, out, "Answer: Mitochondrion")
	assert.Contains(t, out, "Answer: nucleus")
	assert.Contains(t, out, "Cellular respiration happens there.")
}

func TestQuiz_CompleteHasNoBar(t *testing.T) {
	q := sampleQuiz()
	q.IsPartial = false
	q.Metadata.Discards = nil

	out := Quiz(q, Options{Plain: true})
	assert.NotContains(t, out, "Partial")
	assert.NotContains(t, out, "Discarded")
	assert.Equal(t, 2, strings.Count(out, "\n\n"))
}

func TestQuiz_Styled(t *testing.T) {
	out := Quiz(sampleQuiz(), Options{ShowAnswers: true})
	assert.Contains(t, out, "Mitochondrion")
}
