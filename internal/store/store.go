// Package store provides Postgres persistence for tracker entities.
package store

import (
	"context"

	"github.com/wardenlabs/realm-tracker/internal/db"
	"github.com/wardenlabs/realm-tracker/internal/model"
)

// UploadFilter specifies criteria for listing uploads.
type UploadFilter struct {
	Status  model.UploadStatus `json:"status,omitempty"`
	Kingdom string             `json:"kingdom,omitempty"`
	Limit   int                `json:"limit,omitempty"`
	Offset  int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for tracker entities. Bulk
// snapshot writes go through internal/db directly; the store covers entity
// lifecycle and the read paths the API serves.
type Store interface {
	// Uploads
	CreateUpload(ctx context.Context, filename, kingdom string) (*model.Upload, error)
	CompleteUpload(ctx context.Context, id string, rowCount int, rowErrors []model.RowError) error
	FailUpload(ctx context.Context, id string, errMsg string) error
	GetUpload(ctx context.Context, id string) (*model.Upload, error)
	ListUploads(ctx context.Context, filter UploadFilter) ([]model.Upload, error)

	// Snapshots
	CreateSnapshot(ctx context.Context, snap *model.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	LatestSnapshots(ctx context.Context, kingdom string, n int) ([]model.Snapshot, error)

	// Players
	GetPlayer(ctx context.Context, lordID string) (*model.Player, error)
	SearchPlayers(ctx context.Context, query string, limit int) ([]model.Player, error)
	NameHistory(ctx context.Context, lordID string) ([]model.NameChange, error)
	AllianceHistory(ctx context.Context, lordID string) ([]model.AllianceChange, error)

	// Users
	CreateUser(ctx context.Context, username, passwordHash string, role model.Role) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// Lifecycle
	Pool() db.Pool
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
