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

// LastSentStore implements storage.LastSentStore for PostgreSQL, backing a
// comms.Communicator's replay-defense nonce per destination so a restarted
// process does not accept a replay of a frame it sent before the restart.
type LastSentStore struct {
	db *pgxpool.Pool
}

// Record upserts the most recent timestamp sent to destination.
func (s *LastSentStore) Record(ctx context.Context, destination string, timestamp uint64) error {
	query := `
		INSERT INTO last_sent (destination, timestamp, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (destination) DO UPDATE
		SET timestamp = EXCLUDED.timestamp, updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.Exec(ctx, query, destination, timestamp, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record last sent timestamp: %w", err)
	}
	return nil
}

// Get retrieves the last recorded timestamp for destination.
func (s *LastSentStore) Get(ctx context.Context, destination string) (*storage.LastSent, error) {
	query := `SELECT destination, timestamp, updated_at FROM last_sent WHERE destination = $1`

	var result storage.LastSent
	err := s.db.QueryRow(ctx, query, destination).Scan(&result.Destination, &result.Timestamp, &result.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no last-sent record for destination: %s", destination)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sent timestamp: %w", err)
	}
	return &result, nil
}
