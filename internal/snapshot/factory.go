package snapshot

import (
	"context"
	"fmt"

	"github.com/mdmarufa/cloudex/internal/config"
	"github.com/mdmarufa/cloudex/internal/snapshot/local"
	"github.com/mdmarufa/cloudex/internal/snapshot/postgres"
	s3store "github.com/mdmarufa/cloudex/internal/snapshot/s3"
	"github.com/mdmarufa/cloudex/internal/snapshot/sqlite"
)

// NewStoreFromConfig creates the Store selected by SNAPSHOT_BACKEND.
// "none" returns a nil store.
func NewStoreFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.SnapshotBackend {
	case "", "none":
		return nil, nil
	case "local":
		return local.New(cfg.SnapshotPath)
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseURL)
	case "sqlite":
		return sqlite.New(ctx, cfg.SQLitePath)
	case "s3":
		return s3store.New(ctx, s3store.Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			Key:       cfg.S3Key,
		})
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %s", cfg.SnapshotBackend)
	}
}
