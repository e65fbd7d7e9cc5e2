// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/progress"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for progress and lesson runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS xp_by_date (
			day TEXT PRIMARY KEY,
			xp INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS active_days (
			day TEXT PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS goal_reward_claims (
			day TEXT PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS wallet (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			lingots INTEGER NOT NULL,
			streak_freezes INTEGER NOT NULL,
			double_or_nothing INTEGER NOT NULL,
			goal_xp INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS lesson_runs (
			id TEXT PRIMARY KEY,
			lesson_id INTEGER NOT NULL,
			practice INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			xp INTEGER NOT NULL,
			completed INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lesson_runs_ended_at ON lesson_runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadState reads the saved progress snapshot. An empty database yields
// progress.NewState().
func (s *Store) LoadState(ctx context.Context) (progress.State, error) {
	state := progress.NewState()

	xpRows, err := s.db.QueryContext(ctx, `SELECT day, xp FROM xp_by_date`)
	if err != nil {
		return progress.State{}, err
	}
	err = scanRows(xpRows, func(rows *sql.Rows) error {
		var day string
		var xp int
		if err := rows.Scan(&day, &xp); err != nil {
			return err
		}
		state.XPByDate[progress.DateKey(day)] = xp
		return nil
	})
	if err != nil {
		return progress.State{}, err
	}

	days, err := s.listDays(ctx, `SELECT day FROM active_days ORDER BY day ASC`)
	if err != nil {
		return progress.State{}, err
	}
	state.ActiveDays = progress.ActiveDays(days)

	claimed, err := s.listDays(ctx, `SELECT day FROM goal_reward_claims ORDER BY day ASC`)
	if err != nil {
		return progress.State{}, err
	}
	state.GoalRewardClaimedDates = claimed

	var doubleOrNothing int
	var goal int
	err = s.db.QueryRowContext(ctx,
		`SELECT lingots, streak_freezes, double_or_nothing, goal_xp FROM wallet WHERE id = 1`,
	).Scan(&state.Wallet.Lingots, &state.Wallet.StreakFreezes, &doubleOrNothing, &goal)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return progress.State{}, err
	default:
		state.Wallet.DoubleOrNothing = doubleOrNothing != 0
		state.GoalXP = progress.GoalXP(goal)
	}
	return state, nil
}

func (s *Store) listDays(ctx context.Context, query string) ([]progress.DateKey, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	var days []progress.DateKey
	err = scanRows(rows, func(rows *sql.Rows) error {
		var day string
		if err := rows.Scan(&day); err != nil {
			return err
		}
		days = append(days, progress.DateKey(day))
		return nil
	})
	return days, err
}

// SaveState replaces the stored snapshot with state in one transaction.
func (s *Store) SaveState(ctx context.Context, state progress.State) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, table := range []string{"xp_by_date", "active_days", "goal_reward_claims"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	for day, xp := range state.XPByDate {
		if _, err = tx.ExecContext(ctx, `INSERT INTO xp_by_date (day, xp) VALUES (?, ?)`, string(day), xp); err != nil {
			return err
		}
	}
	for _, day := range state.ActiveDays {
		if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO active_days (day) VALUES (?)`, string(day)); err != nil {
			return err
		}
	}
	for _, day := range state.GoalRewardClaimedDates {
		if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO goal_reward_claims (day) VALUES (?)`, string(day)); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet (id, lingots, streak_freezes, double_or_nothing, goal_xp)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			lingots = excluded.lingots,
			streak_freezes = excluded.streak_freezes,
			double_or_nothing = excluded.double_or_nothing,
			goal_xp = excluded.goal_xp`,
		state.Wallet.Lingots,
		state.Wallet.StreakFreezes,
		boolInt(state.Wallet.DoubleOrNothing),
		int(state.GoalXP),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// InsertRun stores a lesson run, assigning an ID when it has none.
func (s *Store) InsertRun(ctx context.Context, run model.LessonRun) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lesson_runs (id, lesson_id, practice, started_at, ended_at, correct, incorrect, xp, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.LessonID,
		boolInt(run.Practice),
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.Correct,
		run.Incorrect,
		run.XP,
		boolInt(run.Completed),
	)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// ListRuns returns runs ending at or after since (all when nil), oldest first.
func (s *Store) ListRuns(ctx context.Context, since *time.Time) ([]model.LessonRun, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, lesson_id, practice, started_at, ended_at, correct, incorrect, xp, completed
		FROM lesson_runs
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var runs []model.LessonRun
	err = scanRows(rows, func(rows *sql.Rows) error {
		var run model.LessonRun
		var practice, completed int
		var startedAt, endedAt string
		if err := rows.Scan(&run.ID, &run.LessonID, &practice, &startedAt, &endedAt,
			&run.Correct, &run.Incorrect, &run.XP, &completed); err != nil {
			return err
		}
		var err error
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return err
		}
		if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return err
		}
		run.Practice = practice != 0
		run.Completed = completed != 0
		runs = append(runs, run)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// CompletedLessons returns the ids of lessons finished outside practice,
// ascending.
func (s *Store) CompletedLessons(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT lesson_id FROM lesson_runs
		WHERE completed = 1 AND practice = 0
		ORDER BY lesson_id ASC`)
	if err != nil {
		return nil, err
	}
	var ids []int
	err = scanRows(rows, func(rows *sql.Rows) error {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func scanRows(rows *sql.Rows, scan func(*sql.Rows) error) error {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
