package quizgen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photosynthesis(t *testing.T) GenerationRequest {
	return mustRequest(t, RequestInput{
		Topic:         "Photosynthesis",
		Difficulty:    "MEDIUM",
		QuestionCount: 10,
		QuestionTypes: []string{"MULTIPLE_CHOICE"},
	})
}

// twelveDrafts returns 12 entries: 9 valid, 2 malformed and 1 duplicate.
func twelveDrafts() string {
	entries := mcqEntries("Photosynthesis", 9)

	noPrompt := mcqEntry("")
	oneOption := mcqEntry("Which pigment is green?")
	oneOption["options"] = []any{"Chlorophyll"}
	dup := mcqEntry("  PHOTOSYNTHESIS   question 3? ")

	entries = append(entries, noPrompt, oneOption, dup)
	return batch(entries...)
}

func TestGenerate_ShortfallTriggersRetry(t *testing.T) {
	client := newScriptedClient(
		reply{raw: twelveDrafts()},
		reply{raw: batch(mcqEntry("Where does the Calvin cycle happen?"))},
	)
	s := newTestService(t, client, testConfig())

	quiz, err := s.Generate(context.Background(), photosynthesis(t))
	require.NoError(t, err)

	assert.Equal(t, 2, client.calls())
	assert.Len(t, quiz.Questions, 10)
	assert.False(t, quiz.IsPartial)
	assert.Equal(t, 2, quiz.GenerationAttempts)

	first := quiz.Metadata.Attempts[0]
	assert.Equal(t, 10, first.Requested)
	assert.Equal(t, OutcomeShortfall, first.Outcome)
	assert.Equal(t, 11, first.Parsed)
	assert.Equal(t, 9, first.Accepted)
	assert.Equal(t, 3, first.Discarded.Total())
	assert.Equal(t, 1, first.Discarded[DiscardMissingPrompt])
	assert.Equal(t, 1, first.Discarded[DiscardInvalidStructure])
	assert.Equal(t, 1, first.Discarded[DiscardDuplicate])

	second := quiz.Metadata.Attempts[1]
	assert.Equal(t, 1, second.Requested)
	assert.Equal(t, OutcomeComplete, second.Outcome)

	retryPrompt := client.prompt(1)
	assert.Contains(t, retryPrompt, "Number of questions: 1\n")
	assert.Contains(t, retryPrompt, "Photosynthesis question 1?")
}

func TestGenerate_RetriesExhaustedYieldsPartialQuiz(t *testing.T) {
	client := newScriptedClient(
		reply{raw: twelveDrafts()},
		reply{raw: batch(mcqEntry("Photosynthesis question 1?"))},
		reply{raw: "I cannot help with that."},
	)
	s := newTestService(t, client, testConfig())

	quiz, err := s.Generate(context.Background(), photosynthesis(t))
	require.NoError(t, err)

	assert.Equal(t, 3, client.calls())
	assert.Len(t, quiz.Questions, 9)
	assert.True(t, quiz.IsPartial)
	assert.Equal(t, 1, quiz.Metadata.Shortfall)
	assert.Equal(t, OutcomeParseError, quiz.Metadata.Attempts[2].Outcome)
	assert.Equal(t, StateDone, quiz.Metadata.States[len(quiz.Metadata.States)-1])
}

func TestGenerate_TimeoutOnEveryAttempt(t *testing.T) {
	timeout := &BackendError{Kind: BackendTimeout}
	client := newScriptedClient(reply{err: timeout}, reply{err: timeout}, reply{err: timeout})
	s := newTestService(t, client, testConfig())

	quiz, err := s.Generate(context.Background(), photosynthesis(t))
	require.Error(t, err)
	assert.Nil(t, quiz)
	assert.Equal(t, 3, client.calls())

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, ErrBackend, gerr.Kind)
	assert.Equal(t, BackendTimeout, gerr.Backend)
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Len(t, gerr.Attempts, 3)
	assert.Equal(t, StateFailed, gerr.States[len(gerr.States)-1])
}

func TestGenerate_BackendRecovers(t *testing.T) {
	client := newScriptedClient(
		reply{err: &BackendError{Kind: BackendRateLimited, RetryAfter: time.Millisecond}},
		reply{raw: batch(mcqEntries("Cells", 5)...)},
	)
	s := newTestService(t, client, testConfig())

	quiz, err := s.GenerateFromInput(context.Background(), RequestInput{
		Topic:         "Cells",
		QuestionTypes: []string{"mcq"},
	})
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, MinQuestionCount)
	assert.Equal(t, Medium, quiz.Difficulty)
	assert.Equal(t, BackendRateLimited, quiz.Metadata.Attempts[0].BackendKind)
	assert.Equal(t, time.Millisecond, quiz.Metadata.Attempts[0].Backoff)
}

func TestGenerate_ParseErrorRetriedOnce(t *testing.T) {
	client := newScriptedClient(
		reply{raw: "no questions here"},
		reply{raw: "still nothing"},
		reply{raw: batch(mcqEntries("Cells", 5)...)},
	)
	s := newTestService(t, client, testConfig())

	_, err := s.GenerateFromInput(context.Background(), RequestInput{
		Topic:         "Cells",
		QuestionTypes: []string{"MULTIPLE_CHOICE"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Equal(t, 2, client.calls())
}

func TestGenerate_ZeroValidQuestionsFails(t *testing.T) {
	onlyTrueFalse := batch(map[string]any{
		"type":           "TRUE_FALSE",
		"prompt":         "Plants need light.",
		"correct_answer": true,
	})
	client := newScriptedClient(reply{raw: onlyTrueFalse}, reply{raw: onlyTrueFalse}, reply{raw: onlyTrueFalse})
	s := newTestService(t, client, testConfig())

	_, err := s.Generate(context.Background(), photosynthesis(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, 1, gerr.Attempts[0].Discarded[DiscardTypeNotAllowed])
}

func TestGenerate_EmptyTopicMakesNoCalls(t *testing.T) {
	client := newScriptedClient()
	s := newTestService(t, client, testConfig())

	_, err := s.GenerateFromInput(context.Background(), RequestInput{
		Topic:         "   ",
		QuestionTypes: []string{"MULTIPLE_CHOICE"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, 0, client.calls())

	_, err = s.Generate(context.Background(), GenerationRequest{})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, 0, client.calls())
}

func TestGenerate_TruncatesOverflow(t *testing.T) {
	client := newScriptedClient(reply{raw: batch(mcqEntries("Cells", 7)...)})
	s := newTestService(t, client, testConfig())

	quiz, err := s.GenerateFromInput(context.Background(), RequestInput{
		Topic:         "Cells",
		QuestionCount: 5,
		QuestionTypes: []string{"MULTIPLE_CHOICE"},
	})
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 5)
	assert.Equal(t, "Cells question 1?", quiz.Questions[0].Prompt)
	assert.Equal(t, "Cells question 5?", quiz.Questions[4].Prompt)
	assert.Equal(t, 2, quiz.Metadata.Discards[DiscardOverflow])
	assert.False(t, quiz.IsPartial)
}

func TestGenerate_RecordsStateHistory(t *testing.T) {
	client := newScriptedClient(reply{raw: batch(mcqEntries("Cells", 5)...)})
	s := newTestService(t, client, testConfig())

	quiz, err := s.GenerateFromInput(context.Background(), RequestInput{
		Topic:         "Cells",
		QuestionTypes: []string{"MULTIPLE_CHOICE"},
	})
	require.NoError(t, err)
	assert.Equal(t, []State{
		StateIdle, StateBuilding, StateRequesting, StateParsing,
		StateValidating, StateAssembling, StateDone,
	}, quiz.Metadata.States)
}

func TestGenerate_InvariantsHold(t *testing.T) {
	mixed := []any{
		mcqEntry("What is ATP?"),
		mcqEntry("what is   atp?"),
		map[string]any{"type": "tf", "prompt": "Plants respire.", "answer": "true"},
		map[string]any{"type": "essay", "prompt": "Describe the light reactions."},
		map[string]any{"type": "short answer", "prompt": "Name the gas plants release.", "answer": "Oxygen"},
		map[string]any{"type": "cloze", "prompt": "Glucose is made in the ____ cycle.", "answer": "Calvin"},
	}
	client := newScriptedClient(reply{raw: batch(mixed...)})
	s := newTestService(t, client, testConfig())

	req := mustRequest(t, RequestInput{
		Topic:         "Photosynthesis",
		QuestionCount: 5,
		QuestionTypes: []string{"MULTIPLE_CHOICE", "TRUE_FALSE", "ESSAY", "SHORT_ANSWER", "FILL_IN_BLANK"},
	})
	quiz, err := s.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(quiz.Questions), req.QuestionCount())
	prompts := map[string]bool{}
	for _, q := range quiz.Questions {
		assert.True(t, req.Allows(q.Type), "type %s", q.Type)
		key := normalizePrompt(q.Prompt)
		assert.False(t, prompts[key], "duplicate prompt %q", q.Prompt)
		prompts[key] = true
		assert.NotEmpty(t, q.ID)
	}
	assert.Len(t, quiz.Questions, 5)
}

func TestGenerate_CancelDuringBackoff(t *testing.T) {
	cfg := testConfig()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour
	client := newScriptedClient(reply{err: &BackendError{Kind: BackendServiceUnavailable}})
	s := newTestService(t, client, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.GenerateAsync(ctx, photosynthesis(t))
	require.Eventually(t, func() bool { return client.calls() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.Nil(t, res.Quiz)
		assert.ErrorIs(t, res.Err, context.Canceled)
		var gerr *GenerationError
		assert.False(t, errors.As(res.Err, &gerr))
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not stop after cancel")
	}
	assert.Equal(t, 1, client.calls())
}

func TestGenerate_DebouncesIdenticalRequests(t *testing.T) {
	release := make(chan struct{})
	client := newScriptedClient(reply{raw: batch(mcqEntries("Photosynthesis", 10)...), wait: release})
	cfg := testConfig()
	cfg.DebounceWindow = time.Minute
	s := newTestService(t, client, cfg)
	req := photosynthesis(t)

	var (
		wg      sync.WaitGroup
		results [2]Result
	)
	start := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := s.Generate(context.Background(), req)
			results[i] = Result{Quiz: q, Err: err}
		}()
	}

	start(0)
	require.Eventually(t, func() bool { return client.calls() == 1 }, time.Second, time.Millisecond)
	start(1)
	require.Eventually(t, func() bool { return waiters(s, req.Key()) == 2 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, client.calls())
	for _, r := range results {
		require.NoError(t, r.Err)
		require.NotNil(t, r.Quiz)
	}
	assert.Equal(t, results[0].Quiz.ID, results[1].Quiz.ID)
	assert.NotSame(t, results[0].Quiz, results[1].Quiz)
}

func TestGenerate_CancelledFlightReleasesMemo(t *testing.T) {
	release := make(chan struct{})
	client := newScriptedClient(
		reply{raw: batch(mcqEntries("Photosynthesis", 10)...), wait: release},
		reply{raw: batch(mcqEntries("Photosynthesis", 10)...)},
	)
	cfg := testConfig()
	cfg.DebounceWindow = time.Minute
	s := newTestService(t, client, cfg)
	req := photosynthesis(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.GenerateAsync(ctx, req)
	require.Eventually(t, func() bool { return client.calls() == 1 }, time.Second, time.Millisecond)
	cancel()

	res := <-done
	assert.ErrorIs(t, res.Err, context.Canceled)
	require.Eventually(t, func() bool { return waiters(s, req.Key()) == -1 }, time.Second, time.Millisecond)

	quiz, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 10)
	assert.Equal(t, 2, client.calls())
}

// waiters returns the caller count of the in-flight generation for key,
// or -1 when there is none.
func waiters(s *Service, key string) int {
	s.debounce.mu.Lock()
	defer s.debounce.mu.Unlock()
	f, ok := s.debounce.flights[key]
	if !ok {
		return -1
	}
	return f.waiters
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 0
	_, err := New(newScriptedClient(), cfg)
	assert.Error(t, err)

	_, err = New(nil, DefaultConfig())
	assert.Error(t, err)
}
