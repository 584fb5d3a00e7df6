// Package cache keeps the storefront's catalog snapshot in Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// Snapshot is the product and offer list as last fetched from the catalog.
type Snapshot struct {
	Products []domain.Product `json:"products"`
	Offers   []domain.Offer   `json:"offers"`
	TakenAt  time.Time        `json:"taken_at"`
}

type SnapshotCache interface {
	Get(ctx context.Context) (*Snapshot, error)
	Set(ctx context.Context, s *Snapshot) error
	Delete(ctx context.Context) error
}
