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
	"crypto/rsa"
	"encoding/json"

	"github.com/sage-x-project/sage/internal/metrics"
)

// SessionKey is the freshly-derived symmetric keying bundle for one peer
// session, plus the RSA-wrapped envelope that carries it on the wire.
//
// A SessionKey built locally (NewSessionKey) has SignatureVerified true by
// construction. A SessionKey parsed from a received frame
// (ParseSessionKey) starts with SignatureVerified false; it becomes true
// only once Verify succeeds, and that step is idempotent — it may be
// retried on a later decode that reuses the same cached SessionKey.
type SessionKey struct {
	Props             CipherProperties
	WrappedProps      []byte
	Metadata          CipherMetadata
	WrappedMetadata   []byte
	hasMetadata       bool
	SignatureVerified bool
}

// NewSessionKey builds a SessionKey for sending to destCN, wrapping it
// under destPub and signing the CipherProperties with ourPriv as sourceCN.
func NewSessionKey(sourceCN, destCN string, ourPriv *rsa.PrivateKey, destPub *rsa.PublicKey) (*SessionKey, error) {
	key, err := randomBytes(symmetricKeySize)
	if err != nil {
		return nil, err
	}
	iv, err := randomBytes(symmetricKeySize)
	if err != nil {
		return nil, err
	}
	hmacKey, err := randomBytes(symmetricKeySize)
	if err != nil {
		return nil, err
	}

	props := CipherProperties{Name: cipherName, Key: key, IV: iv, HMACKey: hmacKey}
	serializedProps, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}

	sig, err := rsaSign(ourPriv, serializedProps)
	if err != nil {
		return nil, newError(KindRekey, "failed to sign cipher properties", err)
	}
	metrics.CommsRSAOperations.WithLabelValues("sign").Inc()

	metadata := CipherMetadata{Source: sourceCN, Signature: sig}
	serializedMetadata, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	if destPub == nil {
		return nil, newError(KindRekey, "destination public key is nil for "+destCN, ErrUnknownPeer)
	}
	wrappedProps, err := rsaOAEPWrap(destPub, serializedProps)
	if err != nil {
		return nil, newError(KindRekey, "failed to wrap cipher properties", err)
	}
	metrics.CommsRSAOperations.WithLabelValues("wrap").Inc()

	wrappedMetadata, err := aesCBCEncrypt(key, iv, serializedMetadata)
	if err != nil {
		return nil, newError(KindRekey, "failed to encrypt cipher metadata", err)
	}

	return &SessionKey{
		Props:             props,
		WrappedProps:      wrappedProps,
		Metadata:          metadata,
		WrappedMetadata:   wrappedMetadata,
		hasMetadata:       true,
		SignatureVerified: true,
	}, nil
}

// ParseSessionKey unwraps a received ClientCommunication's encrypted_cipher
// (and, on v3, encrypted_cipher_metadata) under ourPriv. SignatureVerified
// is false on return; call Verify with the directory to attempt to confirm
// attribution.
func ParseSessionKey(frame *ClientCommunication, ourPriv *rsa.PrivateKey) (*SessionKey, error) {
	serializedProps, err := rsaOAEPUnwrap(ourPriv, frame.EncryptedCipher)
	if err != nil {
		return nil, newError(KindDecryption, "failed to unwrap cipher properties", err)
	}
	metrics.CommsRSAOperations.WithLabelValues("unwrap").Inc()

	var props CipherProperties
	if err := json.Unmarshal(serializedProps, &props); err != nil {
		return nil, newError(KindDecoding, "failed to parse cipher properties", err)
	}
	if len(props.Key) != symmetricKeySize || len(props.IV) != symmetricKeySize {
		return nil, newError(KindDecryption, "invalid cipher key/iv length", nil)
	}

	sk := &SessionKey{Props: props}

	if frame.APIVersion == APIVersionHMAC {
		if len(props.HMACKey) != symmetricKeySize {
			return nil, newError(KindDecryption, "invalid hmac key length", nil)
		}
		plainMetadata, err := aesCBCDecrypt(props.Key, props.IV, frame.EncryptedCipherMetadata)
		if err != nil {
			return nil, newError(KindDecryption, "failed to decrypt cipher metadata", err)
		}
		var metadata CipherMetadata
		if err := json.Unmarshal(plainMetadata, &metadata); err != nil {
			return nil, newError(KindDecoding, "failed to parse cipher metadata", err)
		}
		sk.Metadata = metadata
		sk.hasMetadata = true
	}

	return sk, nil
}

// Verify attempts signature verification of the SessionKey's
// CipherProperties against its CipherMetadata.Source's public key, looked
// up in dir. It is a no-op if there is no signature to check, and silently
// leaves SignatureVerified false (rather than erroring) if the source is
// not yet known in dir — per 4.5, that failure surfaces later as
// UNAUTHENTICATED rather than as a decode error.
func (sk *SessionKey) Verify(dir *PubKeyDirectory) error {
	if sk.SignatureVerified {
		return nil
	}
	if !sk.hasMetadata || len(sk.Metadata.Signature) == 0 {
		return nil
	}
	pub, err := dir.Get(sk.Metadata.Source)
	if err != nil {
		return nil
	}
	serializedProps, err := json.Marshal(sk.Props)
	if err != nil {
		return err
	}
	if err := rsaVerify(pub, serializedProps, sk.Metadata.Signature); err != nil {
		return nil
	}
	sk.SignatureVerified = true
	metrics.CommsRSAOperations.WithLabelValues("verify").Inc()
	return nil
}

// ErrUnknownPeer is the cause wrapped by a comms.Error when a destination
// CN has no entry in the directory at encode time.
var ErrUnknownPeer = sentinel("unknown peer")
