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

// PeerKeyStore implements storage.PeerKeyStore with an in-memory map, for
// tests and single-process deployments that do not need durability across
// restarts.
type PeerKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*storage.PeerKey
}

// NewPeerKeyStore creates an empty in-memory peer key store.
func NewPeerKeyStore() *PeerKeyStore {
	return &PeerKeyStore{keys: make(map[string]*storage.PeerKey)}
}

func (s *PeerKeyStore) Put(ctx context.Context, key *storage.PeerKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *key
	cp.LearnedAt = time.Now()
	cp.PublicKey = append([]byte(nil), key.PublicKey...)
	s.keys[key.CommonName] = &cp
	return nil
}

func (s *PeerKeyStore) Get(ctx context.Context, commonName string) (*storage.PeerKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[commonName]
	if !ok {
		return nil, fmt.Errorf("peer key not found: %s", commonName)
	}
	cp := *key
	return &cp, nil
}

func (s *PeerKeyStore) List(ctx context.Context) ([]*storage.PeerKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]*storage.PeerKey, 0, len(s.keys))
	for _, k := range s.keys {
		cp := *k
		keys = append(keys, &cp)
	}
	return keys, nil
}

func (s *PeerKeyStore) Delete(ctx context.Context, commonName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[commonName]; !ok {
		return fmt.Errorf("peer key not found: %s", commonName)
	}
	delete(s.keys, commonName)
	return nil
}
