package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedback-backend/internal/config"
	"feedback-backend/internal/models"
	"feedback-backend/internal/server"
	"feedback-backend/internal/store"
	"feedback-backend/internal/tokens"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedbackd",
		Short: "Hotel feedback intake API",
		Long: `feedbackd collects guest and staff feedback, flags negative
submissions and alerts the on-call team by SMS, Slack or email.

Configuration is read from the environment (see ENV_STACK for .env files).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := openDB(); err != nil {
					return err
				}
				fmt.Println("Migrations applied")
				return nil
			},
		},
		createUserCmd(),
		issueTokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("feedbackd version %s\n", Version)
			},
		},
	)

	return cmd
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	srv := server.New(cfg)
	if err := srv.Initialize(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	srv.Echo.Logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDB loads config, connects and migrates
func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func createUserCmd() *cobra.Command {
	var (
		username string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a back-office user, e.g. the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("FEEDBACKD_PASSWORD")
			}

			u := &models.User{Username: username, Password: password, Role: models.Role(role)}
			if err := models.ValidateStruct(u); err != nil {
				return err
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			if err := db.Create(u).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("user %q already exists", username)
				}
				return fmt.Errorf("creating user: %w", err)
			}

			fmt.Printf("Created %s user %s (%s)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (defaults to $FEEDBACKD_PASSWORD)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleStaff), "Role (admin or staff)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func issueTokenCmd() *cobra.Command {
	var (
		loc       string
		id        string
		guestName string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Issue a one-time contextual submission token",
		Example: `  feedbackd issue-token --loc room --id 204 --guest "Ana Pérez"
  feedbackd issue-token --loc dining_table --id 12 --ttl 3h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			v := tokens.NewValidator(store.NewTokenStore(db), ttl, log.New("feedbackd"))
			t, err := v.Issue(cmd.Context(), tokens.IssueRequest{
				Loc:       loc,
				ID:        id,
				GuestName: guestName,
				CreatedBy: "cli",
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s\texpires %s\n", t.Token, t.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&loc, "loc", "", "Location type (room, dining_table, checkout, ...)")
	cmd.Flags().StringVar(&id, "id", "", "Location identifier, e.g. room number")
	cmd.Flags().StringVar(&guestName, "guest", "", "Guest name to pre-fill")
	cmd.Flags().DurationVar(&ttl, "ttl", models.DefaultSubmissionTokenTTL, "Token lifetime")
	_ = cmd.MarkFlagRequired("loc")

	return cmd
}
