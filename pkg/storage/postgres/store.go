// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sage-x-project/sage/pkg/storage"
)

// Store implements the storage.Store interface for PostgreSQL
type Store struct {
	pool     *pgxpool.Pool
	session  *SessionStore
	nonce    *NonceStore
	did      *DIDStore
	peerKey  *PeerKeyStore
	lastSent *LastSentStore
}

// Config holds PostgreSQL connection configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewStore creates a new PostgreSQL store
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStoreFromPool(pool), nil
}

// NewStoreFromPool builds a Store around an already-connected pool, for
// callers (such as cmd/sage-comms) that parse their own DSN and want
// control over the pool's lifecycle instead of going through Config.
func NewStoreFromPool(pool *pgxpool.Pool) *Store {
	store := &Store{pool: pool}

	store.session = &SessionStore{db: pool}
	store.nonce = &NonceStore{db: pool}
	store.did = &DIDStore{db: pool}
	store.peerKey = &PeerKeyStore{db: pool}
	store.lastSent = &LastSentStore{db: pool}

	return store
}

// SessionStore returns the session store
func (s *Store) SessionStore() storage.SessionStore {
	return s.session
}

// NonceStore returns the nonce store
func (s *Store) NonceStore() storage.NonceStore {
	return s.nonce
}

// DIDStore returns the DID store
func (s *Store) DIDStore() storage.DIDStore {
	return s.did
}

// PeerKeyStore returns the durable peer public-key store.
func (s *Store) PeerKeyStore() storage.PeerKeyStore {
	return s.peerKey
}

// LastSentStore returns the durable replay-defense nonce store.
func (s *Store) LastSentStore() storage.LastSentStore {
	return s.lastSent
}

// Close closes the database connection pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
