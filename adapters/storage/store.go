// Package storage persists finished lease analyses and assigns their ids.
// Supports two backends: in-process memory and PostgreSQL.
package storage

import (
	"context"
	"fmt"
	"io"

	"lease-analyzer/core/types"
	apperrors "lease-analyzer/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
)

// Store is the storage interface
type Store interface {
	// Save assigns the next id to a copy of the analysis and stores it.
	// Ids are positive, monotonic and never reused.
	Save(ctx context.Context, analysis *types.LeaseAnalysis) (*types.LeaseAnalysis, error)

	// Get retrieves an analysis by id
	Get(ctx context.Context, id int64) (*types.LeaseAnalysis, error)

	io.Closer
}

// Open creates a store for the given backend. dsn is only used by postgres.
func Open(ctx context.Context, backend Backend, dsn string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, apperrors.Newf(apperrors.TypeConfig, "unsupported storage backend: %s", backend)
	}
}

func notFound(id int64) error {
	return apperrors.NotFound("lease analysis", fmt.Sprint(id))
}
