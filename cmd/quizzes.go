package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/library"
	"github.com/abhisek/quizforge/internal/store"
	"github.com/abhisek/quizforge/internal/ui/render"
)

var quizzesCmd = &cobra.Command{
	Use:   "quizzes",
	Short: "Manage saved quizzes",
}

var quizzesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved quizzes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		topic, _ := cmd.Flags().GetString("topic")

		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		quizzes, err := library.New(e.store.QuizRepo()).List(cmd.Context(), store.QuizListOpts{Limit: limit, Topic: topic})
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}
		if len(quizzes) == 0 {
			fmt.Println("No saved quizzes.")
			return nil
		}

		fmt.Printf("%-26s  %-19s  %-28s  %-6s  %5s  %s\n",
			"ID", "Created", "Topic", "Level", "Qs", "Partial")
		fmt.Println(strings.Repeat("─", 100))
		for _, q := range quizzes {
			partial := ""
			if q.IsPartial {
				partial = "yes"
			}
			fmt.Printf("%-26s  %-19s  %-28s  %-6s  %5d  %s\n",
				q.ID,
				q.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(q.Topic, 28),
				q.Difficulty,
				q.QuestionCount,
				partial,
			)
		}
		return nil
	},
}

var quizzesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		answers, _ := cmd.Flags().GetBool("answers")
		noColor, _ := cmd.Flags().GetBool("no-color")

		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		quiz, err := library.New(e.store.QuizRepo()).Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("quiz %s not found", args[0])
		}
		if err != nil {
			return err
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
	},
}

var quizzesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		err = library.New(e.store.QuizRepo()).Delete(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("quiz %s not found", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Deleted quiz %s.\n", args[0])
		return nil
	},
}

func init() {
	quizzesListCmd.Flags().IntP("limit", "n", 20, "Number of quizzes to show")
	quizzesListCmd.Flags().String("topic", "", "Only show quizzes for this topic")

	quizzesShowCmd.Flags().Bool("json", false, "Print the quiz as JSON")
	quizzesShowCmd.Flags().Bool("answers", false, "Show answers and explanations")
	quizzesShowCmd.Flags().Bool("no-color", false, "Disable styled output")

	quizzesCmd.AddCommand(quizzesListCmd)
	quizzesCmd.AddCommand(quizzesShowCmd)
	quizzesCmd.AddCommand(quizzesDeleteCmd)
}
