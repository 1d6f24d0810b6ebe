package storage

import (
	"context"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// Open validates cfg and returns the Storage it selects:
//
//	"memory"   - in-process map (ephemeral, for tests)
//	"file"     - one JSON file per key in DataDir
//	"sqlite"   - DataDir/kennel.db
//	"postgres" - kennel_state table reached through DSN
//	"s3"       - objects in the configured bucket
func Open(ctx context.Context, cfg types.Config) (types.Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendMemory:
		return NewMemory(), nil
	case types.BackendFile:
		return NewFile(cfg.DataDir)
	case types.BackendSQLite:
		return OpenSQLite(ctx, cfg.DataDir)
	case types.BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case types.BackendS3:
		return OpenS3(ctx, cfg.S3)
	default:
		return nil, types.ErrBackendUnknown
	}
}
