// Package db provides connectivity helpers and migration support for the
// SQLite snapshot store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// Hardened SQLite DSN parameters.
const (
	busyTimeoutMS = "5000"
	synchronous   = "NORMAL"
	journalMode   = "WAL"
)

// Store bundles the write pool (MaxOpenConns=1) and read pool for one
// SQLite snapshot file. Writers must go through Write; everything else
// reads through Read. This split is the standard way to run SQLite under
// a concurrent Go HTTP server.
type Store struct {
	Write *sql.DB
	Read  *sql.DB
}

// Open opens the snapshot store at path. readMaxOpen sizes the read pool
// (0 defaults to 4). Both pools use WAL journal, busy_timeout=5000ms,
// synchronous=NORMAL and foreign_keys=on; the write pool additionally
// takes immediate transaction locks.
func Open(path string, readMaxOpen int) (*Store, error) {
	writeDB, err := openPool(path, true, 1)
	if err != nil {
		return nil, err
	}

	if readMaxOpen <= 0 {
		readMaxOpen = 4
	}
	readDB, err := openPool(path, false, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, err
	}

	return &Store{Write: writeDB, Read: readDB}, nil
}

// Close closes both pools, returning the first error encountered.
func (s *Store) Close() error {
	rerr := s.Read.Close()
	werr := s.Write.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func openPool(path string, write bool, maxOpen int) (*sql.DB, error) {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMS)
	params.Set("_synchronous", synchronous)
	params.Set("_foreign_keys", "on")
	if write {
		params.Set("_txlock", "immediate")
	}

	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	// Verify the connection is usable.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return db, nil
}
