// Package credentials stores publishing credentials for destinations in a
// Pebble database, keyed by an opaque id handed to clients.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"animvid/logger"
	"animvid/utils"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned for an unknown credentials key.
var ErrNotFound = errors.New("credentials not found")

// Store holds credential maps such as {"bucket": ..., "region": ...}.
type Store struct {
	db *pebble.DB
}

// Open opens the Pebble DB for credentials at the specified path
func Open(dbPath string) (*Store, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		logger.Errorf("Failed to open credentials DB: %v", err)
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the DB
func (s *Store) Close() error {
	if s != nil && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the credentials stored under key.
func (s *Store) Get(key string) (map[string]string, error) {
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	defer closer.Close()
	creds := make(map[string]string)
	if err := json.Unmarshal(value, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// Put stores the credentials map under the given key
func (s *Store) Put(key string, creds map[string]string) error {
	encodedCreds, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.db.Set([]byte(key), encodedCreds, pebble.Sync)
}

// Add stores creds under a fresh random key and returns it.
func (s *Store) Add(creds map[string]string) (string, error) {
	key, err := utils.GenerateRandomHex(16)
	if err != nil {
		return "", fmt.Errorf("generate credentials key: %w", err)
	}
	if err := s.Put(key, creds); err != nil {
		return "", err
	}
	return key, nil
}

// Delete deletes the credentials for the given key
func (s *Store) Delete(key string) error {
	return s.db.Delete([]byte(key), pebble.Sync)
}
