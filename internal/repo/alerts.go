package repo

import (
	"context"
	"time"
)

// AlertRecord holds last-known state and the last time we sent a
// notification for an alert key. Keys are target IDs for up/down alerts and
// "<id>:cert" for certificate-expiry alerts, so the two streams cool down
// independently.
type AlertRecord struct {
	Key        string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, key string) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt leaves LastSentAt unset.
	Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error
}
