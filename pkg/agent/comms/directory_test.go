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

package comms

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPubKeyDirectoryPutGet(t *testing.T) {
	dir := NewPubKeyDirectory(4)
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir.Put("peer.example", &priv.PublicKey)
	got, err := dir.Get("peer.example")
	require.NoError(t, err)
	require.Equal(t, &priv.PublicKey, got)
}

func TestPubKeyDirectoryMissIsNoCert(t *testing.T) {
	dir := NewPubKeyDirectory(4)
	_, err := dir.Get("nobody.example")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoCert))
}

func TestPubKeyDirectoryEvictsLRU(t *testing.T) {
	dir := NewPubKeyDirectory(2)
	k1, _ := rsa.GenerateKey(rand.Reader, 2048)
	k2, _ := rsa.GenerateKey(rand.Reader, 2048)
	k3, _ := rsa.GenerateKey(rand.Reader, 2048)

	dir.Put("a", &k1.PublicKey)
	dir.Put("b", &k2.PublicKey)
	dir.Put("c", &k3.PublicKey) // evicts "a" (least recently used)

	_, err := dir.Get("a")
	require.Error(t, err)

	_, err = dir.Get("b")
	require.NoError(t, err)
	_, err = dir.Get("c")
	require.NoError(t, err)
}
