package repository

import (
	"context"
	"database/sql"
	"time"

	"skull_controller/internal/models"
)

type Operators interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
}

// BlobStore is the key/value store calibration data is persisted to.
// GetBlob reports found=false for a key that was never written.
type BlobStore interface {
	GetBlob(ctx context.Context, key string) (value []byte, found bool, err error)
	PutBlob(ctx context.Context, key string, value []byte) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.ControllerEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ControllerEvent, error)
}

type Repository struct {
	Blobs     BlobStore
	EventRepo EventRepo
	Operators Operators
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Blobs:     NewBlobSQLite(db),
		EventRepo: NewEventSQLite(db),
		Operators: NewOperatorRepository(db),
	}
}
