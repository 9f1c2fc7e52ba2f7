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
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/sage-x-project/sage/internal/logger"
	"github.com/sage-x-project/sage/internal/metrics"
	"github.com/sage-x-project/sage/pkg/storage"
)

// destEntry is one destination cache slot: a SessionKey plus the instant it
// was inserted, for TTL-based expiry.
type destEntry struct {
	sessionKey *SessionKey
	insertedAt time.Time
}

// Identity is the caller's own RSA keying material and derived CN, the
// minimum a Communicator needs to sign and be signed for.
type Identity struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
	CommonName string
}

// Communicator is the orchestrator described in spec.md section 2/5: it
// owns one identity, a time-based destination cache (sender side), an
// LRU-bounded envelope cache (receiver side), and the replay-defense nonce
// (LastSentTimestamp). It is logically single-threaded per the protocol's
// single-outstanding-challenge model, but all state mutation is guarded by
// a mutex so a host MAY serialize access from multiple goroutines as long
// as it does not interleave an Encode with its matching Decode.
type Communicator struct {
	mu sync.Mutex

	identity Identity
	codec    *FrameCodec
	dir      *PubKeyDirectory
	rng      CSPRNG
	log      logger.Logger

	destCache     map[string]destEntry
	destCacheTTL  time.Duration
	envelopeCache *lru.Cache[string, *SessionKey]

	defaultVersion    APIVersion
	lastSentTimestamp uint64

	lastSentStore storage.LastSentStore
}

// NewCommunicator builds a Communicator for identity, using cfg for cache
// sizing/TTL and compression policy. The Communicator registers its own CN
// and public key into the directory at construction, mirroring the
// original's self-registration step, so a loopback Encode→Decode pair can
// validate a signature against itself without an external certificate
// exchange.
func NewCommunicator(identity Identity, cfg Config, dir *PubKeyDirectory, rng CSPRNG, log logger.Logger) *Communicator {
	if dir == nil {
		dir = NewPubKeyDirectory(cfg.DirectoryCacheCapacity)
	}
	if rng == nil {
		rng = DefaultCSPRNG
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	dir.SetLogger(log)
	dir.Put(identity.CommonName, identity.PublicKey)

	envCap := cfg.EnvelopeCacheCapacity
	if envCap <= 0 {
		envCap = 50000
	}

	return &Communicator{
		identity:       identity,
		codec:          NewFrameCodec(cfg.Compression),
		dir:            dir,
		rng:            rng,
		log:            log,
		destCache:      make(map[string]destEntry),
		destCacheTTL:   cfg.DestinationCacheTTL,
		envelopeCache:  lru.NewCache[string, *SessionKey](envCap),
		defaultVersion: cfg.DefaultAPIVersion,
	}
}

// Directory returns the Communicator's public key directory, so callers
// can register peer certificates learned out of band.
func (c *Communicator) Directory() *PubKeyDirectory { return c.dir }

// SetLastSentStore attaches a durable replay-defense nonce store. Every
// subsequent Encode persists its nonce there, and WarmLastSent can restore
// it after a restart. Passing nil (the default) keeps the nonce purely in
// process memory.
func (c *Communicator) SetLastSentStore(store storage.LastSentStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSentStore = store
}

// WarmLastSent restores LastSentTimestamp for destCN from the attached
// durable store, for use at process startup before any Encode/Decode call.
// It is a no-op if no store is attached or no record exists yet.
func (c *Communicator) WarmLastSent(ctx context.Context, destCN string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSentStore == nil {
		return nil
	}
	entry, err := c.lastSentStore.Get(ctx, destCN)
	if err != nil {
		return nil
	}
	c.lastSentTimestamp = entry.Timestamp
	return nil
}

// CommonName returns the Communicator's own identity CN.
func (c *Communicator) CommonName() string { return c.identity.CommonName }

// Encode serializes messageList (an already-serialized application batch)
// for destCN at the Communicator's default API version, stamping the
// current time as its nonce, and returns the opaque wire bytes and that
// nonce. This is the initial-request form: the first message in an
// exchange has no prior nonce to echo.
func (c *Communicator) Encode(messageList []byte, destCN string) ([]byte, uint64, error) {
	return c.encode(messageList, destCN, c.defaultVersion, 0)
}

// EncodeVersion is Encode with an explicit API version override.
func (c *Communicator) EncodeVersion(messageList []byte, destCN string, version APIVersion) ([]byte, uint64, error) {
	return c.encode(messageList, destCN, version, 0)
}

// EncodeResponse encodes messageList for destCN, stamping timestamp (an
// explicit nonce, usually the one the caller just read off a peer's
// Decode) instead of the current time. This is spec.md 4.6's "optional
// timestamp" Encode input, matching the original EncodeMessages'
// timestamp=None parameter: a responder echoes the requester's nonce back
// so the requester's own Decode can match it against its LastSentTimestamp
// and authenticate the response.
func (c *Communicator) EncodeResponse(messageList []byte, destCN string, timestamp uint64) ([]byte, uint64, error) {
	return c.encode(messageList, destCN, c.defaultVersion, timestamp)
}

// encode is the shared implementation behind Encode, EncodeVersion, and
// EncodeResponse. A timestamp of 0 means "stamp the current time"; any
// other value is used verbatim as the frame's nonce.
func (c *Communicator) encode(messageList []byte, destCN string, version APIVersion, timestamp uint64) ([]byte, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !version.Valid() {
		err := newError(KindDecoding, "unsupported api version", nil)
		recordError(c.log, err)
		return nil, 0, err
	}

	sk, err := c.sessionKeyForDestination(destCN)
	if err != nil {
		recordError(c.log, toCommsError(err))
		return nil, 0, err
	}

	if timestamp == 0 {
		timestamp = uint64(time.Now().UnixMicro())
	}

	start := time.Now()
	signer := &identitySigner{priv: c.identity.PrivateKey}
	result, err := c.codec.Encode(messageList, c.identity.CommonName, signer, sk, version, timestamp)
	metrics.CommsFrameDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())
	if err != nil {
		recordError(c.log, toCommsError(err))
		return nil, 0, err
	}

	wire, err := json.Marshal(result.frame)
	if err != nil {
		return nil, 0, err
	}

	c.lastSentTimestamp = result.timestamp
	if c.lastSentStore != nil {
		if err := c.lastSentStore.Record(context.Background(), destCN, result.timestamp); err != nil {
			c.log.Warn("failed to persist last-sent nonce", logger.String("destination", destCN), logger.Error(err))
		}
	}
	c.log.Debug("encoded frame", logger.String("destination", destCN), logger.Int("api_version", int(version)))
	return wire, result.timestamp, nil
}

// sessionKeyForDestination returns a cached, non-expired SessionKey for
// destCN, building and inserting a fresh one on miss (spec 4.6 step 2).
func (c *Communicator) sessionKeyForDestination(destCN string) (*SessionKey, error) {
	if entry, ok := c.destCache[destCN]; ok {
		if c.destCacheTTL <= 0 || time.Since(entry.insertedAt) < c.destCacheTTL {
			return entry.sessionKey, nil
		}
		delete(c.destCache, destCN)
	}

	destPub, err := c.dir.Get(destCN)
	if err != nil {
		return nil, newError(KindRekey, "unknown destination "+destCN, ErrUnknownPeer)
	}

	sk, err := NewSessionKey(c.identity.CommonName, destCN, c.identity.PrivateKey, destPub)
	if err != nil {
		return nil, err
	}
	c.destCache[destCN] = destEntry{sessionKey: sk, insertedAt: time.Now()}
	return sk, nil
}

// Decode parses wire bytes into an application message batch, a sender CN,
// a timestamp, and an authentication state, per spec.md 4.7/4.8. It never
// returns an UNAUTHENTICATED result as an error — only structural or
// cryptographic decode failures are errors.
func (c *Communicator) Decode(wire []byte) ([]byte, string, uint64, AuthState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.CommsFrameDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())
	}()

	c.rng.Feed(wire)

	var frame ClientCommunication
	if err := json.Unmarshal(wire, &frame); err != nil {
		cerr := newError(KindDecoding, "failed to parse outer frame", err)
		recordError(c.log, cerr)
		return nil, "", 0, Unauthenticated, cerr
	}
	if !frame.APIVersion.Valid() {
		cerr := newError(KindDecoding, "unsupported api version", nil)
		recordError(c.log, cerr)
		return nil, "", 0, Unauthenticated, cerr
	}
	if len(frame.EncryptedCipher) == 0 {
		cerr := newError(KindDecoding, "plaintext frame rejected", nil)
		recordError(c.log, cerr)
		return nil, "", 0, Unauthenticated, cerr
	}

	envelopeKey := string(frame.EncryptedCipher)
	sk, cached := c.envelopeCache.Get(envelopeKey)
	if !cached {
		built, err := ParseSessionKey(&frame, c.identity.PrivateKey)
		if err != nil {
			recordError(c.log, toCommsError(err))
			return nil, "", 0, Unauthenticated, err
		}
		if err := built.Verify(c.dir); err != nil {
			recordError(c.log, toCommsError(err))
			return nil, "", 0, Unauthenticated, err
		}
		sk = built
		if sk.SignatureVerified {
			c.envelopeCache.Add(envelopeKey, sk)
		}
	} else if !sk.SignatureVerified {
		// Deferred verification retry: the sender's key may have become
		// known to the directory since this SessionKey was first cached.
		if err := sk.Verify(c.dir); err == nil && sk.SignatureVerified {
			c.envelopeCache.Add(envelopeKey, sk)
		}
	}

	dr, err := c.codec.Decode(&frame, sk)
	if err != nil {
		recordError(c.log, toCommsError(err))
		return nil, "", 0, Unauthenticated, err
	}

	source, sigOK := c.authenticate(&frame, sk, dr)

	authState := Unauthenticated
	if sigOK && dr.timestamp == c.lastSentTimestamp {
		authState = Authenticated
		metrics.CommsAuthenticatedMessages.Inc()
	} else {
		metrics.CommsUnauthenticatedMessages.Inc()
	}

	c.log.Debug("decoded frame",
		logger.String("source", source),
		logger.String("auth_state", authState.String()),
		logger.Int("api_version", int(frame.APIVersion)))

	return dr.messageList, source, dr.timestamp, authState, nil
}

// authenticate implements spec.md 4.8's per-version signature check (the
// replay-defense nonce comparison is applied by the caller, Decode, since
// it overrides the result regardless of which branch below set sigOK).
func (c *Communicator) authenticate(frame *ClientCommunication, sk *SessionKey, dr *decodeResult) (source string, sigOK bool) {
	switch frame.APIVersion {
	case APIVersionLegacy:
		if dr.sml.Source == "" {
			return "", false
		}
		pub, err := c.dir.Get(dr.sml.Source)
		if err != nil {
			metrics.CommsClientUnknown.Inc()
			return dr.sml.Source, false
		}
		if err := rsaVerify(pub, dr.sml.MessageList, dr.sml.Signature); err != nil {
			return dr.sml.Source, false
		}
		metrics.CommsRSAOperations.WithLabelValues("verify").Inc()
		return dr.sml.Source, true
	case APIVersionHMAC:
		source = ""
		if sk.hasMetadata {
			source = sk.Metadata.Source
		}
		if !sk.SignatureVerified {
			_ = sk.Verify(c.dir)
		}
		return source, sk.SignatureVerified
	default:
		return "", false
	}
}

// identitySigner adapts an *rsa.PrivateKey to the codec's minimal signer
// interface for the v2 inline-signature path.
type identitySigner struct {
	priv *rsa.PrivateKey
}

func (s *identitySigner) Sign(message []byte) ([]byte, error) {
	return rsaSign(s.priv, message)
}

// toCommsError normalizes err to a *Error for recordError, wrapping any
// stray error that did not already come from this package's constructors.
func toCommsError(err error) *Error {
	if ce, ok := err.(*Error); ok {
		return ce
	}
	return newError(KindDecoding, "unexpected error", err)
}
