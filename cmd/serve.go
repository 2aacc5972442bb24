package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/example/ieltsprep/internal/api"
	"github.com/example/ieltsprep/internal/bot"
	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/scheduler"
	"github.com/example/ieltsprep/internal/submission"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the Telegram bot and the reminder scheduler",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		links := database.NewTelegramLinkRepository(db)
		profiles := database.NewProgressRepository(db)

		svc := submission.NewService(submission.Deps{
			Tests:     database.NewTestRepository(db),
			Questions: database.NewQuestionRepository(db),
			Results:   database.NewTestResultRepository(db),
			Progress:  profiles,
			Log:       log,
			Location:  cfg.Location(),
		})

		if cfg.TelegramToken == "" {
			log.Warn("TELEGRAM_BOT_TOKEN is not set, bot and reminders are disabled")
		} else {
			b, err := bot.New(cfg.TelegramToken, links, svc, log)
			if err != nil {
				return err
			}
			if err := b.Connect(); err != nil {
				return err
			}
			svc.SetNotifier(b)

			go func() {
				if err := b.Run(ctx); err != nil {
					log.Error("Bot stopped", "error", err)
				}
			}()

			if cfg.SchedulerEnabled {
				s := scheduler.New(b, profiles, cfg.Location(), cfg.ReminderHour, log)
				if err := s.Start(); err != nil {
					return err
				}
				defer s.Stop()
			}
		}

		if cfg.LogMode == "prod" || cfg.LogMode == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.New(log, svc),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
