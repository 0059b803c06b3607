package archive

import (
	"context"
	"fmt"

	"restoran-pos/internal/config"
)

// Open selects the Store named by cfg.BlobDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch Driver(cfg.BlobDriver) {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.BlobFSRoot)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.BlobDriver)
	}
}
