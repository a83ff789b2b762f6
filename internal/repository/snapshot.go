package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "snapshot/"

// Namespaces of the persisted stores
const (
	NamespacePreferences = "renthunt-user-preferences"
	NamespaceApartments  = "renthunt-apartments"
	NamespaceShortlist   = "renthunt-shortlist"
	NamespaceViewings    = "renthunt-viewings"
	NamespaceFeedback    = "renthunt-feedback"
	NamespaceDevices     = "renthunt-devices"
)

// ErrSnapshotNotFound is returned when a namespace has never been written
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores one opaque JSON snapshot per store namespace
type SnapshotRepository struct {
	db *badger.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *badger.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func snapshotKey(namespace string) []byte {
	return []byte(keyPrefix + namespace)
}

// Save serializes v and replaces the namespace snapshot
func (r *SnapshotRepository) Save(ctx context.Context, namespace string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot %s: %w", namespace, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(namespace), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", namespace, err)
	}
	return nil
}

// Load decodes the namespace snapshot into v. It reports false when nothing was persisted yet.
func (r *SnapshotRepository) Load(ctx context.Context, namespace string, v interface{}) (bool, error) {
	data, err := r.Raw(ctx, namespace)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %s: %w", namespace, err)
	}
	return true, nil
}

// Raw returns the stored bytes of a namespace snapshot
func (r *SnapshotRepository) Raw(ctx context.Context, namespace string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(namespace))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%s: %w", namespace, ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", namespace, err)
	}
	return data, nil
}

// Delete removes a namespace snapshot
func (r *SnapshotRepository) Delete(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(namespace))
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", namespace, err)
	}
	return nil
}

// Namespaces lists every namespace with a stored snapshot
func (r *SnapshotRepository) Namespaces(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), keyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	sort.Strings(names)
	return names, nil
}
