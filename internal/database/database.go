// Package database provides the data access layer for snapshots and tracked calls.
package database

import (
	"context"
	"errors"

	"github.com/dallasopendata/incidents/internal/models"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("not found")

// Store defines the interface for data persistence.
type Store interface {
	// Active calls snapshots
	SaveSnapshot(ctx context.Context, snap *models.ActiveCallsSnapshot) error
	GetSnapshot(ctx context.Context, id string) (*models.ActiveCallsSnapshot, error)
	LatestSnapshot(ctx context.Context) (*models.ActiveCallsSnapshot, error)
	ListSnapshots(ctx context.Context, limit, offset int) ([]*models.SnapshotInfo, error)
	RecentSnapshots(ctx context.Context, limit int) ([]*models.ActiveCallsSnapshot, error)

	// Tracked calls
	SaveTrackedCall(ctx context.Context, call *models.TrackedCall) error
	GetTrackedCall(ctx context.Context, id string) (*models.TrackedCall, error)
	ListTrackedCalls(ctx context.Context, filter models.TrackedCallFilter) ([]*models.TrackedCall, error)
	DeleteTrackedCall(ctx context.Context, id string) error

	// Lifecycle
	Close() error
	Migrate() error
}
