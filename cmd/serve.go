package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/library"
	"github.com/abhisek/quizforge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quiz generation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		capture, _ := cmd.Flags().GetBool("capture-bodies")

		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := e.newService(ctx, capture)
		if err != nil {
			return err
		}

		if e.cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		sc := e.cfg.Server
		srv := server.New(svc, library.New(e.store.QuizRepo()), e.logger.Named("http"), server.Options{
			Addr:            sc.Addr,
			ReadTimeout:     sc.ReadTimeout,
			WriteTimeout:    sc.WriteTimeout,
			ShutdownTimeout: sc.ShutdownTimeout,
			AutoSave:        sc.AutoSave,
		})
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().Bool("capture-bodies", false, "Record full prompts and replies with each LLM event")
	_ = settings.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
