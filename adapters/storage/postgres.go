package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/lib/pq" // register postgres driver

	"lease-analyzer/core/types"
	apperrors "lease-analyzer/internal/errors"
)

// Schema creates the analyses table. The full analysis is kept as a JSON
// document; the columns beside it are there for querying.
const Schema = `
CREATE TABLE IF NOT EXISTS lease_analyses (
	id            SERIAL PRIMARY KEY,
	request_id    TEXT NOT NULL DEFAULT '',
	car_model     TEXT NOT NULL,
	state         TEXT NOT NULL,
	total_cost    NUMERIC(14, 2) NOT NULL,
	market_value  NUMERIC(14, 2) NOT NULL,
	deal_quality  TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	document      JSONB NOT NULL
)`

// PostgresStore stores analyses in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects to dsn, checks the connection and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, apperrors.New(apperrors.TypeConfig, "postgres storage requires a DSN")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperrors.Storage("open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.Storage("ping postgres", err)
	}

	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the analyses table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return apperrors.Storage("create lease_analyses table", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, analysis *types.LeaseAnalysis) (*types.LeaseAnalysis, error) {
	stored := *analysis
	stored.ID = 0

	doc, err := json.Marshal(&stored)
	if err != nil {
		return nil, apperrors.Internal("encode lease analysis", err)
	}

	const query = `
		INSERT INTO lease_analyses (
			request_id, car_model, state, total_cost, market_value,
			deal_quality, created_at, document
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = s.db.QueryRowContext(ctx, query,
		stored.RequestID, stored.CarModel, stored.State,
		stored.TotalCost.StringFixed(2), stored.MarketValue.StringFixed(2),
		string(stored.Quality), stored.CreatedAt, doc,
	).Scan(&stored.ID)
	if err != nil {
		return nil, apperrors.Storage("insert lease analysis", err)
	}
	return &stored, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*types.LeaseAnalysis, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM lease_analyses WHERE id = $1`, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, apperrors.Storage("select lease analysis", err)
	}

	var a types.LeaseAnalysis
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, apperrors.Wrapf(apperrors.TypeStorage, err, "decode lease analysis %d", id)
	}
	a.ID = id
	return &a, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
