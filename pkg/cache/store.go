// Package cache is the key/value layer behind the client's local state:
// cart snapshots (cart_<email>), the encrypted session ("user") and
// preferences ("darkMode").
//
// Four drivers implement Store:
//
//	memory  process-local map, for tests and one-shot commands
//	disk    one file per key on a storage.Disk (local or S3)
//	redis   shared across machines, github.com/redis/go-redis/v9
//	sql     a gorm-managed table on sqlite/postgres/mysql/sqlserver
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/recordshop/pkg/metrics"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// Store is a byte-valued key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// GetJSON reads key into dest and reports whether it was present.
func GetJSON(ctx context.Context, s Store, key string, dest interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v JSON-encoded under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// Instrument counts every operation on s under the driver label.
func Instrument(s Store, driver string) Store {
	return &instrumented{Store: s, driver: driver}
}

type instrumented struct {
	Store
	driver string
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	metrics.StateOps.WithLabelValues(i.driver, "get").Inc()
	return i.Store.Get(ctx, key)
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte) error {
	metrics.StateOps.WithLabelValues(i.driver, "set").Inc()
	return i.Store.Set(ctx, key, value)
}

func (i *instrumented) Delete(ctx context.Context, keys ...string) error {
	metrics.StateOps.WithLabelValues(i.driver, "delete").Inc()
	return i.Store.Delete(ctx, keys...)
}
