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
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"time"

	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/sage-x-project/sage/internal/logger"
	"github.com/sage-x-project/sage/pkg/storage"
)

// PubKeyDirectory maps a peer common name to its RSA public key. It is the
// Communicator's only collaborator for attributing a signature or wrapping
// a session key to a specific peer.
//
// The cache is bounded: at capacity, the least-recently-used entry is
// evicted silently. A cold lookup is simply NO_CERT — callers (notably
// signature verification, 4.5) treat that as "not yet known" rather than
// fatal.
type PubKeyDirectory struct {
	cache *lru.Cache[string, *rsa.PublicKey]
	store storage.PeerKeyStore
	log   logger.Logger
}

// NewPubKeyDirectory builds a directory with the given LRU capacity.
func NewPubKeyDirectory(capacity int) *PubKeyDirectory {
	if capacity <= 0 {
		capacity = 50000
	}
	return &PubKeyDirectory{cache: lru.NewCache[string, *rsa.PublicKey](capacity)}
}

// SetLogger attaches a logger used to report best-effort persistence
// failures from Put. NewCommunicator wires its own logger in here.
func (d *PubKeyDirectory) SetLogger(log logger.Logger) {
	d.log = log
}

// SetStore attaches a durable peer-key store: subsequent Put/LearnCertificate
// calls persist through to it, so the directory's contents survive a
// process restart. Passing nil (the default) keeps the directory purely
// in-memory.
func (d *PubKeyDirectory) SetStore(store storage.PeerKeyStore) {
	d.store = store
}

// WarmFromStore repopulates the in-memory cache from every record in the
// attached store, for use at process startup before the directory serves
// any Encode/Decode calls. It is a no-op if no store is attached.
func (d *PubKeyDirectory) WarmFromStore(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	keys, err := d.store.List(ctx)
	if err != nil {
		return newError(KindDecoding, "failed to list durable peer keys", err)
	}
	for _, k := range keys {
		pub, err := x509.ParsePKIXPublicKey(k.PublicKey)
		if err != nil {
			continue
		}
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			continue
		}
		d.cache.Add(k.CommonName, rsaPub)
	}
	return nil
}

// Put registers pub under cn, evicting the least-recently-used entry if the
// directory is at capacity. If a durable store is attached, the entry is
// also persisted there; a persistence failure is logged, not returned,
// since Put's contract (matching the original pub_key_cache.Put) is
// infallible.
func (d *PubKeyDirectory) Put(cn string, pub *rsa.PublicKey) {
	d.cache.Add(cn, pub)
	if d.store == nil {
		return
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return
	}
	if err := d.store.Put(context.Background(), &storage.PeerKey{
		CommonName: cn,
		PublicKey:  der,
		LearnedAt:  time.Now(),
	}); err != nil && d.log != nil {
		d.log.Warn("failed to persist peer key", logger.String("common_name", cn), logger.Error(err))
	}
}

// Get looks up cn. A miss, or an entry stored with a nil key, returns
// ErrNoCert.
func (d *PubKeyDirectory) Get(cn string) (*rsa.PublicKey, error) {
	pub, ok := d.cache.Get(cn)
	if !ok || pub == nil {
		return nil, newError(KindClientUnknown, "no certificate known for "+cn, ErrNoCert)
	}
	return pub, nil
}

// CNOf extracts the Subject common name from cert. A certificate with no CN
// fails with ErrNoCN.
func (d *PubKeyDirectory) CNOf(cert *x509.Certificate) (string, error) {
	if cert.Subject.CommonName == "" {
		return "", newError(KindDecoding, "certificate has no subject CN", ErrNoCN)
	}
	return cert.Subject.CommonName, nil
}

// PubKeyOf returns the PEM-encoded (PKIX, "PUBLIC KEY") form of cert's RSA
// public key.
func (d *PubKeyDirectory) PubKeyOf(cert *x509.Certificate) ([]byte, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, newError(KindDecoding, "certificate does not carry an RSA public key", nil)
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// LearnCertificate parses cert (PEM or DER), extracts its CN and public key,
// and registers both with the directory in one step. It is the counterpart
// the receiving side uses when it is handed a peer's certificate out of
// band (e.g. a TLS handshake, or an operator-supplied file).
func (d *PubKeyDirectory) LearnCertificate(certBytes []byte) (string, error) {
	cert, err := parseCertificate(certBytes)
	if err != nil {
		return "", newError(KindDecoding, "failed to parse certificate", err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return "", newError(KindDecoding, "certificate does not carry an RSA public key", nil)
	}
	cn, err := d.CNOf(cert)
	if err != nil {
		return "", err
	}
	d.Put(cn, pub)
	return cn, nil
}

// parseCertificate accepts either a PEM-wrapped or raw DER certificate.
func parseCertificate(data []byte) (*x509.Certificate, error) {
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	return x509.ParseCertificate(data)
}

// Sentinel causes behind the tagged comms.Error values above.
var (
	ErrNoCert = sentinel("no certificate")
	ErrNoCN   = sentinel("no common name")
)

// sentinel is a trivial comparable error used as an Unwrap target, so
// callers can errors.Is(err, ErrNoCert) without caring about the message
// text wrapped around it.
type sentinel string

func (s sentinel) Error() string { return string(s) }
