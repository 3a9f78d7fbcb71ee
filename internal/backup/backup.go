// Package backup copies exported state to a local directory or an S3 bucket
// and restores it from there.
package backup

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoSuchBackup is returned by sinks asked for a name they do not hold.
var ErrNoSuchBackup = errors.New("no such backup")

// Sink stores named backup files.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

// Source is the store being backed up or restored.
type Source interface {
	Export() ([]byte, error)
	Import(ctx context.Context, data []byte) error
}

// Name returns the file name of a backup taken at t.
func Name(t time.Time) string {
	return "billvault-" + t.UTC().Format("20060102T150405Z") + ".json"
}

// Backup exports src into sink and returns the name it was written under.
func Backup(ctx context.Context, src Source, sink Sink, now time.Time) (string, error) {
	data, err := src.Export()
	if err != nil {
		return "", fmt.Errorf("failed to export state: %w", err)
	}
	name := Name(now)
	if err := sink.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", name, err)
	}
	return name, nil
}

// Restore reads a backup from sink and imports it, replacing dst's state.
func Restore(ctx context.Context, dst Source, sink Sink, name string) error {
	data, err := sink.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", name, err)
	}
	return dst.Import(ctx, data)
}
