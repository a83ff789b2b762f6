package repository

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// Options configures the on-device database
type Options struct {
	Path       string
	InMemory   bool
	SyncWrites bool
}

// badgerLogger routes badger's internal logging through zerolog
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Trace().Str("component", "badger").Msgf(format, args...)
}

// Open opens the badger database described by opts
func Open(opts Options) (*badger.DB, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", opts.Path, err)
		}
		bopts = badger.DefaultOptions(opts.Path)
	}

	bopts = bopts.
		WithSyncWrites(opts.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return db, nil
}

// OpenInMemory opens a throwaway database, used by tests
func OpenInMemory() (*badger.DB, error) {
	return Open(Options{InMemory: true})
}
