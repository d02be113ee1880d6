package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps transactions and pragmas on the same handle.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                 TEXT PRIMARY KEY,
	full_name          TEXT NOT NULL DEFAULT '',
	email              TEXT NOT NULL DEFAULT '',
	company_name       TEXT NOT NULL DEFAULT '',
	role               TEXT NOT NULL DEFAULT '',
	industry           TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'NEW',
	pain_points        TEXT,
	buying_triggers    TEXT,
	persona            TEXT,
	company_size       TEXT,
	confidence_score   INTEGER,
	enrichment_source  TEXT,
	generated_messages TEXT,
	message_source     TEXT,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS dead_letters (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	stage      TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	error_type TEXT NOT NULL,
	attempts   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status, created_at);
CREATE INDEX IF NOT EXISTS idx_dead_letters_lead_id ON dead_letters(lead_id);
`

const sqliteLeadColumns = `id, full_name, email, company_name, role, industry, status,
	COALESCE(pain_points, ''), COALESCE(buying_triggers, ''), COALESCE(persona, ''),
	COALESCE(company_size, ''), COALESCE(confidence_score, 0), COALESCE(enrichment_source, ''),
	COALESCE(generated_messages, ''), COALESCE(message_source, ''), created_at, updated_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertLead(ctx context.Context, lead *model.Lead) error {
	if err := prepareLead(lead, time.Now().UTC()); err != nil {
		return err
	}
	args, err := insertValues(lead)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode lead")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (`+insertLeadColumns+`) VALUES (`+placeholders(len(args), sqlitePlaceholder)+`)`,
		args...,
	)
	return eris.Wrapf(err, "sqlite: insert lead %s", lead.ID)
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteLeadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get lead %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + sqliteLeadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by status iterate")
}

func (s *SQLiteStore) ApplyTransitions(ctx context.Context, transitions []model.Transition) (int, error) {
	if len(transitions) == 0 {
		return 0, nil
	}
	if err := validateTransitions(transitions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	applied := 0
	for _, t := range transitions {
		query, args, err := buildGuardedUpdate(t, now, sqlitePlaceholder)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: encode update %s", t.LeadID)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: update lead %s", t.LeadID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		if n == 0 {
			zap.L().Warn("store: lead status changed underneath, skipping",
				zap.String("lead_id", t.LeadID),
				zap.String("expected", string(t.From)),
			)
			continue
		}
		applied++

		if d := t.DeadLetter; d != nil {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO dead_letters (`+deadLetterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				d.ID, d.LeadID, d.Stage, d.Error, d.ErrorType, d.Attempts, d.CreatedAt,
			)
			if err != nil {
				return 0, eris.Wrapf(err, "sqlite: insert dead letter %s", t.LeadID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return applied, nil
}

func (s *SQLiteStore) RequeueFailed(ctx context.Context, ids []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if len(ids) == 0 {
		ids, err = s.failedIDs(ctx, tx)
		if err != nil {
			return 0, err
		}
	}

	now := time.Now().UTC()
	requeued := 0
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE leads SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(model.LeadStatusMessaged), now, id, string(model.LeadStatusFailed),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: requeue lead %s", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		if n == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM dead_letters WHERE lead_id = ?`, id); err != nil {
			return 0, eris.Wrapf(err, "sqlite: clear dead letters %s", id)
		}
		requeued++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return requeued, nil
}

func (s *SQLiteStore) failedIDs(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM leads WHERE status = ? ORDER BY created_at, id`, string(model.LeadStatusFailed))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list failed leads")
	}
	defer rows.Close() //nolint:errcheck

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan failed lead")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: list failed leads iterate")
}

func (s *SQLiteStore) ListDeadLetters(ctx context.Context, limit int) ([]model.DeadLetter, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deadLetterColumns+` FROM dead_letters ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list dead letters")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.DeadLetter
	for rows.Next() {
		d, err := scanDeadLetter(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan dead letter")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list dead letters iterate")
}
