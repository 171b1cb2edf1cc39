package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_quiz_schema.sql
var createQuizSchemaSQL string

// Migrations holds the schema of the session store.
var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createQuizSchemaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
DROP TABLE IF EXISTS responses;
DROP TABLE IF EXISTS scores;
DROP TABLE IF EXISTS participants;
DROP TABLE IF EXISTS quiz_sessions;
DROP TABLE IF EXISTS questions;
DROP TABLE IF EXISTS quizzes;`)
			return err
		},
	)
}
