// Package storage picks and connects the backend that keeps uploads and results
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/UnendingLoop/ImageWatermarker/internal/appconfig"
	"github.com/UnendingLoop/ImageWatermarker/internal/storage/localstorage"
	"github.com/UnendingLoop/ImageWatermarker/internal/storage/miniostorage"
)

// ImgStorage - общий контракт бэкендов хранилища
type ImgStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// NewImgStorage - подключается к выбранному бэкенду, minio ретраится retries раз с паузой delay
func NewImgStorage(ctx context.Context, cfg appconfig.Config, retries int, delay time.Duration) (ImgStorage, error) {
	switch cfg.StorageBackend {
	case appconfig.BackendLocal:
		log.Printf("Using local IMG-storage at %q", cfg.StorageRoot)
		return localstorage.New(cfg.StorageRoot)
	case appconfig.BackendMinio:
		return connectMinio(ctx, cfg, retries, delay)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func connectMinio(ctx context.Context, cfg appconfig.Config, retries int, delay time.Duration) (ImgStorage, error) {
	var lastErr error

	for i := range retries {
		log.Printf("Connecting to IMG-storage, try #%d...", i+1)
		client, err := miniostorage.NewMinioClient(ctx, cfg)
		if err == nil {
			log.Println("Successfully connected IMG-storage!")
			return client, nil
		}
		lastErr = err
		log.Printf("Failed to init connection to IMG-storage: %v\nNext retry in %v...", err, delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("IMG-storage is unreachable after %d tries: %w", retries, lastErr)
}
