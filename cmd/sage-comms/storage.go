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

package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sage-x-project/sage/pkg/storage"
	"github.com/sage-x-project/sage/pkg/storage/memory"
	"github.com/sage-x-project/sage/pkg/storage/postgres"
)

// durableStore bundles the peer-key and replay-nonce stores a Communicator
// needs to survive a process restart, plus a close function. With no
// --postgres-dsn it falls back to an in-memory store scoped to this single
// process invocation, so the wiring path is always exercised even without
// a database available.
type durableStore struct {
	peerKeys storage.PeerKeyStore
	lastSent storage.LastSentStore
	close    func()
}

func openDurableStore(ctx context.Context, postgresDSN string) (*durableStore, error) {
	if postgresDSN == "" {
		mem := memory.NewStore()
		return &durableStore{
			peerKeys: mem.PeerKeyStore(),
			lastSent: mem.LastSentStore(),
			close:    func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, postgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := postgres.NewStoreFromPool(pool)
	return &durableStore{
		peerKeys: store.PeerKeyStore(),
		lastSent: store.LastSentStore(),
		close:    func() { _ = store.Close() },
	}, nil
}
