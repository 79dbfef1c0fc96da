package cloud

import (
	"context"

	"github.com/pkg/errors"

	"homework-tracker/models"
)

var (
	ErrNotConfigured    = errors.New("cloud sync not configured")
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNoRemoteData means the user never pushed anything. It is a neutral
	// result: local state is kept as is.
	ErrNoRemoteData = errors.New("no remote data found")
)

// Content is the single remote record kept per user.
type Content struct {
	models.Snapshot
	LastUpdated string `json:"last_updated"`
}

// Remote stores one Content per user id.
type Remote interface {
	// Upsert replaces the user's record unconditionally.
	Upsert(ctx context.Context, userID string, content Content) error
	// Fetch returns ErrNoRemoteData when the user has no record.
	Fetch(ctx context.Context, userID string) (Content, error)
}
