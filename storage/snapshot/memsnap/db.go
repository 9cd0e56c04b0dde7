// Package memsnap keeps the store snapshot in process memory. Used in DEV, tests and as the default driver.
package memsnap

import (
	"context"
	"sync"
)

type DB struct {
	sync.RWMutex
	table   map[string][]byte
	saveErr error
	saves   int
}

func Open() *DB {
	return &DB{table: make(map[string][]byte)}
}

// Load returns a copy of every stored entry.
func (db *DB) Load(_ context.Context) (map[string][]byte, error) {
	db.RLock()
	defer db.RUnlock()

	entries := make(map[string][]byte, len(db.table))
	for key, data := range db.table {
		entries[key] = append([]byte(nil), data...)
	}
	return entries, nil
}

func (db *DB) Save(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.Lock()
	defer db.Unlock()

	if db.saveErr != nil {
		return db.saveErr
	}
	db.saves++
	for key, data := range entries {
		db.table[key] = append([]byte(nil), data...)
	}
	return nil
}

// Get returns the stored document of key.
func (db *DB) Get(key string) ([]byte, bool) {
	db.RLock()
	defer db.RUnlock()
	data, ok := db.table[key]
	return data, ok
}

// FailSaves makes every following Save return err, until called with nil. Simulates a full or unreachable storage.
func (db *DB) FailSaves(err error) {
	db.Lock()
	db.saveErr = err
	db.Unlock()
}

// Saves returns the number of successful Save calls.
func (db *DB) Saves() int {
	db.RLock()
	defer db.RUnlock()
	return db.saves
}
