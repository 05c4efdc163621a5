package quizgen

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Assemble builds the quiz from accepted questions. Questions beyond the
// requested count are dropped in generation order and counted as overflow.
// The caller's slices are not retained.
func Assemble(req GenerationRequest, questions []Question, attempts []Attempt, states []State, now time.Time) *Quiz {
	target := req.QuestionCount()

	discards := DiscardCounts{}
	for _, a := range attempts {
		discards.add(a.Discarded)
	}

	kept := questions
	if len(kept) > target {
		discards[DiscardOverflow] += len(kept) - target
		kept = kept[:target]
	}

	out := make([]Question, len(kept))
	for i, q := range kept {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}

	history := make([]Attempt, len(attempts))
	for i, a := range attempts {
		a.Discarded = a.Discarded.clone()
		history[i] = a
	}

	return &Quiz{
		ID:                 newQuizID(now),
		Topic:              req.Topic(),
		Difficulty:         req.Difficulty(),
		Questions:          out,
		IsPartial:          len(out) < target,
		GenerationAttempts: len(attempts),
		CreatedAt:          now.UTC(),
		Metadata: Metadata{
			Requested: target,
			Shortfall: target - len(out),
			Attempts:  history,
			Discards:  discards,
			States:    append([]State(nil), states...),
		},
	}
}

// newQuizID returns a ULID so that quiz ids sort by creation time.
func newQuizID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
