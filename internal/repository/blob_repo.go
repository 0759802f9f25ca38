package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

type BlobSQLite struct {
	db *sql.DB
}

func NewBlobSQLite(db *sql.DB) *BlobSQLite {
	return &BlobSQLite{db: db}
}

var _ BlobStore = (*BlobSQLite)(nil)

const (
	upsertBlobSQL = `
		INSERT INTO calibration_blobs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`

	selectBlobSQL = `SELECT value FROM calibration_blobs WHERE key = ?`
)

// GetBlob fetches the value stored under key. A missing row is not an error.
func (r *BlobSQLite) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, selectBlobSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select blob %q: %w", key, err)
	}
	return value, true, nil
}

// PutBlob inserts or replaces the value under key.
func (r *BlobSQLite) PutBlob(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, upsertBlobSQL, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert blob %q: %w", key, err)
	}
	return nil
}

// MemoryBlobs is a BlobStore held in process memory.
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[string][]byte)}
}

var _ BlobStore = (*MemoryBlobs)(nil)

func (m *MemoryBlobs) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBlobs) PutBlob(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key; used to simulate a partially written store.
func (m *MemoryBlobs) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
}
