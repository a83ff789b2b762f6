package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"renthunt-state/internal/models"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when a command targets an id the store does not hold
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps validation failures at the store boundary
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveFeedback is returned when a wizard step targets a viewing with no flow in progress
	ErrNoActiveFeedback = errors.New("no feedback in progress for viewing")
	// ErrPersonalFeedbackMissing is returned when the fairness step runs before the personal step
	ErrPersonalFeedbackMissing = errors.New("personal feedback has not been submitted")
)

// SnapshotStore persists one opaque snapshot per namespace
type SnapshotStore interface {
	Save(ctx context.Context, namespace string, v interface{}) error
	Load(ctx context.Context, namespace string, v interface{}) (bool, error)
}

// Notifier receives a change event after every store mutation
type Notifier interface {
	Publish(change models.StateChange)
}

// Option configures a store at construction
type Option func(*storeBase)

// WithClock replaces the wall clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(b *storeBase) {
		b.now = now
	}
}

// WithNotifier attaches a change notifier
func WithNotifier(n Notifier) Option {
	return func(b *storeBase) {
		b.notifier = n
	}
}

// storeBase carries the persistence contract shared by all stores
type storeBase struct {
	namespace string
	repo      SnapshotStore
	notifier  Notifier
	now       func() time.Time
}

func newStoreBase(namespace string, repo SnapshotStore, opts []Option) storeBase {
	b := storeBase{
		namespace: namespace,
		repo:      repo,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// restore merges the persisted snapshot over the defaults already held in snapshot
func (b *storeBase) restore(ctx context.Context, snapshot interface{}) (bool, error) {
	found, err := b.repo.Load(ctx, b.namespace, snapshot)
	if err != nil {
		return false, fmt.Errorf("failed to restore %s: %w", b.namespace, err)
	}
	log.Debug().Str("namespace", b.namespace).Bool("found", found).Msg("Store restored")
	return found, nil
}

// commit persists the whitelisted snapshot and announces the change.
// The in-memory mutation stands even when the write fails.
func (b *storeBase) commit(ctx context.Context, operation string, snapshot interface{}) error {
	storeMutations.WithLabelValues(b.namespace, operation).Inc()

	var persistErr error
	if err := b.repo.Save(ctx, b.namespace, snapshot); err != nil {
		snapshotWriteFailures.WithLabelValues(b.namespace).Inc()
		persistErr = fmt.Errorf("failed to persist %s: %w", b.namespace, err)
	}

	if b.notifier != nil {
		b.notifier.Publish(models.StateChange{
			Namespace: b.namespace,
			Operation: operation,
			ChangedAt: b.now(),
		})
	}
	return persistErr
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// toggleString adds v when absent and removes it when present
func toggleString(list []string, v string) []string {
	if !containsString(list, v) {
		return append(cloneStrings(list), v)
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
