package score

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	grade           TEXT NOT NULL,
	category        TEXT NOT NULL,
	score           INT NOT NULL,
	total_questions INT NOT NULL,
	percentage      DOUBLE PRECISION NOT NULL,
	grade_letter    TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS scores_grade_idx ON scores (grade);
`

// Migrate creates the scores table if it does not exist.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply scores schema: %w", err)
	}
	return nil
}
