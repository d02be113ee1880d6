package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool. Structured payloads are
// stored as JSONB.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	full_name          TEXT NOT NULL DEFAULT '',
	email              TEXT NOT NULL DEFAULT '',
	company_name       TEXT NOT NULL DEFAULT '',
	role               TEXT NOT NULL DEFAULT '',
	industry           TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'NEW',
	pain_points        JSONB,
	buying_triggers    JSONB,
	persona            TEXT,
	company_size       TEXT,
	confidence_score   INTEGER CHECK (confidence_score BETWEEN 75 AND 98),
	enrichment_source  TEXT,
	generated_messages JSONB,
	message_source     TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS dead_letters (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	stage      TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	error_type TEXT NOT NULL,
	attempts   INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status, created_at);
CREATE INDEX IF NOT EXISTS idx_dead_letters_lead_id ON dead_letters(lead_id);
`

const postgresLeadColumns = `id, full_name, email, company_name, role, industry, status,
	COALESCE(pain_points::text, ''), COALESCE(buying_triggers::text, ''), COALESCE(persona, ''),
	COALESCE(company_size, ''), COALESCE(confidence_score, 0), COALESCE(enrichment_source, ''),
	COALESCE(generated_messages::text, ''), COALESCE(message_source, ''), created_at, updated_at`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) InsertLead(ctx context.Context, lead *model.Lead) error {
	if err := prepareLead(lead, time.Now().UTC()); err != nil {
		return err
	}
	args, err := insertValues(lead)
	if err != nil {
		return eris.Wrap(err, "postgres: encode lead")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (`+insertLeadColumns+`) VALUES (`+placeholders(len(args), postgresPlaceholder)+`)`,
		args...,
	)
	return eris.Wrapf(err, "postgres: insert lead %s", lead.ID)
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresLeadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get lead %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + postgresLeadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = ` + postgresPlaceholder(len(args))
	}
	query += ` ORDER BY created_at, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT ` + postgresPlaceholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by status")
	}
	defer rows.Close()

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by status iterate")
}

func (s *PostgresStore) ApplyTransitions(ctx context.Context, transitions []model.Transition) (int, error) {
	if len(transitions) == 0 {
		return 0, nil
	}
	if err := validateTransitions(transitions); err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	applied := 0
	for _, t := range transitions {
		query, args, err := buildGuardedUpdate(t, now, postgresPlaceholder)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: encode update %s", t.LeadID)
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: update lead %s", t.LeadID)
		}
		if tag.RowsAffected() == 0 {
			zap.L().Warn("store: lead status changed underneath, skipping",
				zap.String("lead_id", t.LeadID),
				zap.String("expected", string(t.From)),
			)
			continue
		}
		applied++

		if d := t.DeadLetter; d != nil {
			_, err := tx.Exec(ctx,
				`INSERT INTO dead_letters (`+deadLetterColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				d.ID, d.LeadID, d.Stage, d.Error, d.ErrorType, d.Attempts, d.CreatedAt,
			)
			if err != nil {
				return 0, eris.Wrapf(err, "postgres: insert dead letter %s", t.LeadID)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit")
	}
	return applied, nil
}

func (s *PostgresStore) RequeueFailed(ctx context.Context, ids []string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if len(ids) == 0 {
		ids, err = failedIDsPostgres(ctx, tx)
		if err != nil {
			return 0, err
		}
	}

	now := time.Now().UTC()
	requeued := 0
	for _, id := range ids {
		tag, err := tx.Exec(ctx,
			`UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			string(model.LeadStatusMessaged), now, id, string(model.LeadStatusFailed),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: requeue lead %s", id)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `DELETE FROM dead_letters WHERE lead_id = $1`, id); err != nil {
			return 0, eris.Wrapf(err, "postgres: clear dead letters %s", id)
		}
		requeued++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit")
	}
	return requeued, nil
}

func failedIDsPostgres(ctx context.Context, tx pgx.Tx) ([]string, error) {
	rows, err := tx.Query(ctx,
		`SELECT id FROM leads WHERE status = $1 ORDER BY created_at, id`, string(model.LeadStatusFailed))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list failed leads")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan failed lead")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: list failed leads iterate")
}

func (s *PostgresStore) ListDeadLetters(ctx context.Context, limit int) ([]model.DeadLetter, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+deadLetterColumns+` FROM dead_letters ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list dead letters")
	}
	defer rows.Close()

	var out []model.DeadLetter
	for rows.Next() {
		d, err := scanDeadLetter(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan dead letter")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list dead letters iterate")
}
