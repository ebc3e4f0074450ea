package storage

import (
	"context"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Archiver keeps copies of removed records in remote object storage.
type Archiver interface {
	Archive(ctx context.Context, name string, payload []byte) (string, error)
	List(ctx context.Context) ([]ObjectInfo, error)
}
