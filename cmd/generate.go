package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/quizforge/internal/library"
	"github.com/abhisek/quizforge/internal/quizgen"
	"github.com/abhisek/quizforge/internal/ui/render"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz for a topic",
	Long: `Generate a quiz and print it.

Course material can be passed inline with --context or read from a file
with --context @notes.md. A quiz that could not be filled completely is
still printed and marked partial.`,
	Example: `  quizforge generate --topic "Photosynthesis" --count 10 --types mcq,tf
  quizforge generate --topic "Cell biology" --difficulty hard --context @lecture3.md --save`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("topic", "", "Quiz topic (required)")
	f.String("difficulty", "medium", "Difficulty: easy, medium or hard")
	f.Int("count", 10, fmt.Sprintf("Number of questions (%d-%d)", quizgen.MinQuestionCount, quizgen.MaxQuestionCount))
	f.StringSlice("types", []string{"multiple_choice"}, "Question types: multiple_choice, true_false, short_answer, essay, fill_in_blank")
	f.String("context", "", "Course material to ground questions in; @path reads a file")
	f.Bool("save", false, "Save the quiz to the library")
	f.Bool("json", false, "Print the quiz as JSON")
	f.Bool("answers", false, "Show answers and explanations")
	f.Bool("no-color", false, "Disable styled output")
	f.Bool("capture-bodies", false, "Record full prompts and replies with each LLM event")
	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	topic, _ := f.GetString("topic")
	difficulty, _ := f.GetString("difficulty")
	count, _ := f.GetInt("count")
	types, _ := f.GetStringSlice("types")
	courseContext, _ := f.GetString("context")
	save, _ := f.GetBool("save")
	asJSON, _ := f.GetBool("json")
	answers, _ := f.GetBool("answers")
	noColor, _ := f.GetBool("no-color")
	capture, _ := f.GetBool("capture-bodies")

	courseContext, err := readContext(courseContext)
	if err != nil {
		return err
	}

	req, err := quizgen.BuildRequest(quizgen.RequestInput{
		Topic:         topic,
		Difficulty:    difficulty,
		QuestionCount: count,
		QuestionTypes: types,
		CourseContext: courseContext,
	})
	if err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	svc, err := e.newService(ctx, capture)
	if err != nil {
		return err
	}

	quiz, err := svc.Generate(ctx, req)
	if err != nil {
		return describeFailure(err)
	}

	if save {
		if err := library.New(e.store.QuizRepo()).Save(ctx, quiz); err != nil {
			return fmt.Errorf("save quiz: %w", err)
		}
		e.logger.Info("quiz saved", zap.String("quiz_id", quiz.ID))
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(quiz)
	}
	fmt.Fprint(out, render.Quiz(quiz, render.Options{
		ShowAnswers: answers,
		Plain:       noColor || os.Getenv("NO_COLOR") != "",
	}))
	return nil
}

// readContext expands an @path argument into the file contents.
func readContext(v string) (string, error) {
	path, ok := strings.CutPrefix(v, "@")
	if !ok {
		return v, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read context file: %w", err)
	}
	return string(data), nil
}

// describeFailure adds the attempt count to generation errors.
func describeFailure(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("generation cancelled")
	}
	var ge *quizgen.GenerationError
	if errors.As(err, &ge) && len(ge.Attempts) > 0 {
		return fmt.Errorf("%w (after %d attempts)", err, len(ge.Attempts))
	}
	return err
}
