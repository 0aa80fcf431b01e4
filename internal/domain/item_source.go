package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=item_source.go -destination=item_source_mock.go -package=domain

// ItemSource is the read-only pull boundary to the inventory subsystem.
type ItemSource interface {
	GetItems(ctx context.Context, ids []string) ([]*Item, error)
	GetItemsExpiringWithin(ctx context.Context, window time.Duration) ([]*Item, error)
}
