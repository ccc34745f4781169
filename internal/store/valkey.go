package store

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeySlot stores the blob under a single key in a Valkey-compatible
// database, for clients that share their cache with other tooling.
type ValkeySlot struct {
	client valkey.Client
	key    string
}

var _ Slot = (*ValkeySlot)(nil)

// NewValkeySlot creates a slot stored under key. An empty key falls back to
// a default.
func NewValkeySlot(client valkey.Client, key string) *ValkeySlot {
	if key == "" {
		key = "glasscast:cached_cities"
	}
	return &ValkeySlot{client: client, key: key}
}

func (s *ValkeySlot) Write(data []byte) error {
	ctx, cancel := s.opContext()
	defer cancel()
	cmd := s.client.B().Set().Key(s.key).Value(string(data)).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeySlot) Read() ([]byte, bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	cmd := s.client.B().Get().Key(s.key).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(payload), true, nil
}

// The Slot contract carries no context; persistence is synchronous and
// short, so each operation gets its own bounded one.
func (s *ValkeySlot) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
