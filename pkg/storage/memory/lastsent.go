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

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sage-x-project/sage/pkg/storage"
)

// LastSentStore implements storage.LastSentStore with an in-memory map.
type LastSentStore struct {
	mu      sync.RWMutex
	entries map[string]*storage.LastSent
}

// NewLastSentStore creates an empty in-memory last-sent store.
func NewLastSentStore() *LastSentStore {
	return &LastSentStore{entries: make(map[string]*storage.LastSent)}
}

func (s *LastSentStore) Record(ctx context.Context, destination string, timestamp uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[destination] = &storage.LastSent{
		Destination: destination,
		Timestamp:   timestamp,
		UpdatedAt:   time.Now(),
	}
	return nil
}

func (s *LastSentStore) Get(ctx context.Context, destination string) (*storage.LastSent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[destination]
	if !ok {
		return nil, fmt.Errorf("no last-sent record for destination: %s", destination)
	}
	cp := *entry
	return &cp, nil
}
