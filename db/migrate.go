package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate создаёт таблицы, если их ещё нет. Изменяемые агрегаты (команда
// зала, участники и матчи турнира) лежат в JSONB: схема записей
// сознательно свободная, ключевые таблицы — просто keyed-record store.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trainers (
			id         SERIAL PRIMARY KEY,
			nick       TEXT NOT NULL,
			password   TEXT NOT NULL,
			role       TEXT NOT NULL DEFAULT 'trainer',
			badges     TEXT[] NOT NULL DEFAULT '{}',
			skin_key   TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS trainers_nick_lower_key ON trainers (lower(nick))`,

		`CREATE TABLE IF NOT EXISTS gyms (
			tipo          TEXT PRIMARY KEY,
			lider         TEXT NOT NULL DEFAULT '',
			lider_skin    TEXT,
			team          JSONB NOT NULL,
			challengers   JSONB NOT NULL,
			active_battle JSONB NOT NULL DEFAULT 'null',
			history       JSONB NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS tournaments (
			id            SERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			format        TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'pending',
			participants  JSONB NOT NULL DEFAULT '[]',
			matches       JSONB NOT NULL DEFAULT '[]',
			current_round INTEGER NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS invites (
			id              SERIAL PRIMARY KEY,
			tournament_id   INTEGER NOT NULL,
			tournament_name TEXT NOT NULL,
			from_nick       TEXT NOT NULL,
			to_nick         TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'pending'
		)`,
		`CREATE INDEX IF NOT EXISTS invites_to_nick_pending_idx ON invites (lower(to_nick)) WHERE status = 'pending'`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
