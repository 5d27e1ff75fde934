package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ytscript-backend/internal/middleware"
	"ytscript-backend/internal/models"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		plan   string
		ttl    time.Duration
		secret string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				godotenv.Load()
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("no signing secret: pass --secret or set JWT_SECRET")
			}

			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				id = parsed
			}

			token, err := middleware.NewJWTAuth(secret).GenerateAccessToken(id, email, models.ParsePlan(plan), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (random when empty)")
	cmd.Flags().StringVar(&email, "email", "dev@localhost", "email claim")
	cmd.Flags().StringVar(&plan, "plan", "FREE", "plan claim (FREE or PRO)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to JWT_SECRET)")
	return cmd
}
