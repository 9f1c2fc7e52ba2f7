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
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sage-x-project/sage/pkg/storage"
)

// PeerKeyStore implements storage.PeerKeyStore for PostgreSQL, backing a
// comms.PubKeyDirectory so it survives process restarts.
type PeerKeyStore struct {
	db *pgxpool.Pool
}

// Put upserts a peer's public key record.
func (s *PeerKeyStore) Put(ctx context.Context, key *storage.PeerKey) error {
	query := `
		INSERT INTO peer_keys (common_name, public_key, learned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (common_name) DO UPDATE
		SET public_key = EXCLUDED.public_key, learned_at = EXCLUDED.learned_at
	`
	_, err := s.db.Exec(ctx, query, key.CommonName, key.PublicKey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert peer key: %w", err)
	}
	return nil
}

// Get retrieves a peer's public key by common name.
func (s *PeerKeyStore) Get(ctx context.Context, commonName string) (*storage.PeerKey, error) {
	query := `SELECT common_name, public_key, learned_at FROM peer_keys WHERE common_name = $1`

	var result storage.PeerKey
	err := s.db.QueryRow(ctx, query, commonName).Scan(&result.CommonName, &result.PublicKey, &result.LearnedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("peer key not found: %s", commonName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get peer key: %w", err)
	}
	return &result, nil
}

// List returns every known peer key, for directory warm-up at startup.
func (s *PeerKeyStore) List(ctx context.Context) ([]*storage.PeerKey, error) {
	query := `SELECT common_name, public_key, learned_at FROM peer_keys`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list peer keys: %w", err)
	}
	defer rows.Close()

	var keys []*storage.PeerKey
	for rows.Next() {
		var k storage.PeerKey
		if err := rows.Scan(&k.CommonName, &k.PublicKey, &k.LearnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan peer key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// Delete removes a peer's stored key.
func (s *PeerKeyStore) Delete(ctx context.Context, commonName string) error {
	query := `DELETE FROM peer_keys WHERE common_name = $1`
	_, err := s.db.Exec(ctx, query, commonName)
	if err != nil {
		return fmt.Errorf("failed to delete peer key: %w", err)
	}
	return nil
}
