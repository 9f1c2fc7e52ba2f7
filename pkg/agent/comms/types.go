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

// Package comms implements a secure message-framing communicator: a
// two-layer hybrid cryptosystem (RSA key wrap + AES-128-CBC payload
// encryption, HMAC-SHA1/RSA-PKCS1 authentication) used to exchange batches
// of application messages between two RSA identities over an untrusted
// transport.
package comms

import "time"

// APIVersion selects the wire format variant used by FrameCodec.
type APIVersion int

const (
	// APIVersionLegacy (v2) carries the sender's source CN and an
	// RSA-PKCS1(SHA-256) signature of the message list inline in the
	// inner SignedMessageList, and omits the outer iv/hmac/
	// encrypted_cipher_metadata fields.
	APIVersionLegacy APIVersion = 2
	// APIVersionHMAC (v3) wraps cipher metadata (source + signature)
	// symmetrically, carries a fresh per-frame iv, and authenticates the
	// ciphertext with HMAC-SHA1.
	APIVersionHMAC APIVersion = 3
)

// Valid reports whether v is an API version this codec understands.
func (v APIVersion) Valid() bool {
	return v == APIVersionLegacy || v == APIVersionHMAC
}

// Compression identifies the compression scheme applied to a message list.
type Compression int

const (
	// CompressionNone means message_list carries the raw serialized batch.
	CompressionNone Compression = 0
	// CompressionZlib means message_list is zlib-compressed.
	CompressionZlib Compression = 1
)

// CompressionPolicy controls whether Encode attempts zlib compression.
type CompressionPolicy int

const (
	// PolicyZCompress attempts zlib compression and keeps it only if
	// strictly smaller than the uncompressed form.
	PolicyZCompress CompressionPolicy = iota
	// PolicyUncompressed never compresses.
	PolicyUncompressed
)

// AuthState is the authentication attribute assigned to a decoded batch.
// It is never an error: callers decide what to do with an UNAUTHENTICATED
// batch.
type AuthState int

const (
	// Unauthenticated means the batch's signature/HMAC could not be
	// verified, or the replay-defense nonce did not match.
	Unauthenticated AuthState = iota
	// Authenticated means the batch's signature and HMAC (v3) or
	// signature (v2) verified, and the nonce matched.
	Authenticated
)

func (s AuthState) String() string {
	if s == Authenticated {
		return "AUTHENTICATED"
	}
	return "UNAUTHENTICATED"
}

const (
	// rsaKeyBits is the fixed RSA modulus size used for identities.
	rsaKeyBits = 2048
	// symmetricKeySize is the size in bytes of each of key/iv/hmac_key.
	symmetricKeySize = 16
	// cipherName is the fixed symmetric cipher name carried on the wire.
	cipherName = "aes_128_cbc"
)

// CipherProperties is the serialized, RSA-wrapped symmetric keying bundle
// for one session. All three fields are independently random.
type CipherProperties struct {
	Name    string `json:"name"`
	Key     []byte `json:"key"`
	IV      []byte `json:"iv"`
	HMACKey []byte `json:"hmac_key"`
}

// CipherMetadata attributes a CipherProperties bundle to its signer. It is
// only meaningful on API version 3, where it is carried symmetrically
// encrypted alongside the wrapped cipher.
type CipherMetadata struct {
	Source    string `json:"source"`
	Signature []byte `json:"signature"`
}

// SignedMessageList is the inner, symmetrically-encrypted wire object
// carrying one batch of application messages.
type SignedMessageList struct {
	Timestamp   uint64      `json:"timestamp"` // microseconds since epoch
	Compression Compression `json:"compression"`
	MessageList []byte      `json:"message_list"`
	// Source and Signature are only populated on APIVersionLegacy; on
	// APIVersionHMAC the same attribution travels in CipherMetadata instead.
	Source    string `json:"source,omitempty"`
	Signature []byte `json:"signature,omitempty"`
}

// ClientCommunication is the outer wire frame. Version 2 omits
// EncryptedCipherMetadata, IV, and HMAC.
type ClientCommunication struct {
	APIVersion              APIVersion `json:"api_version"`
	EncryptedCipher         []byte     `json:"encrypted_cipher"`
	EncryptedCipherMetadata []byte     `json:"encrypted_cipher_metadata,omitempty"`
	IV                      []byte     `json:"iv,omitempty"`
	Encrypted               []byte     `json:"encrypted"`
	HMAC                    []byte     `json:"hmac,omitempty"`
}

// Config controls the non-cryptographic policy knobs the spec allows:
// compression policy and cache sizing/expiry. The cryptographic primitives
// themselves (AES-128-CBC, HMAC-SHA1, RSA-OAEP, RSA-PKCS1/SHA-256) are part
// of the fixed wire contract and are not configurable.
type Config struct {
	Compression            CompressionPolicy
	DestinationCacheTTL    time.Duration
	EnvelopeCacheCapacity  int
	DirectoryCacheCapacity int
	DefaultAPIVersion      APIVersion
}

// DefaultConfig mirrors the defaults implied by spec.md: opportunistic
// zlib compression, a 50,000-entry LRU for both the envelope and directory
// caches, and API version 3.
func DefaultConfig() Config {
	return Config{
		Compression:            PolicyZCompress,
		DestinationCacheTTL:    10 * time.Minute,
		EnvelopeCacheCapacity:  50000,
		DirectoryCacheCapacity: 50000,
		DefaultAPIVersion:      APIVersionHMAC,
	}
}
