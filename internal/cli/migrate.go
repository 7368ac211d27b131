package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dqninh/classclash/internal/score"
	"github.com/dqninh/classclash/internal/server"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the scores schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pg := c.Postgres.Score
			db, err := server.ConnectPostgres(ctx, pg.Addr, pg.User, pg.Pass, pg.Name)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := score.Migrate(ctx, db); err != nil {
				return err
			}

			slog.InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}
