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
	"bytes"
	"compress/zlib"
	"encoding/json"
	"io"
)

// FrameCodec encodes and decodes ClientCommunication frames. It holds no
// state of its own; SessionKey lookup and the replay-defense nonce live on
// the Communicator, which is the only caller.
type FrameCodec struct {
	policy CompressionPolicy
}

// NewFrameCodec builds a FrameCodec applying the given compression policy.
func NewFrameCodec(policy CompressionPolicy) *FrameCodec {
	return &FrameCodec{policy: policy}
}

// encodeResult is what Encode hands back to the Communicator so it can
// update last_sent_timestamp.
type encodeResult struct {
	frame     *ClientCommunication
	timestamp uint64
}

// Encode builds a ClientCommunication carrying raw (the serialized
// application message batch) for destCN, under session sk, at the given
// api version. timestamp is the nonce that will be required back on the
// matching decode.
func (c *FrameCodec) Encode(raw []byte, sourceCN string, ourPriv cryptoSigner, sk *SessionKey, version APIVersion, timestamp uint64) (*encodeResult, error) {
	if !version.Valid() {
		return nil, newError(KindDecoding, "unsupported api version", nil)
	}

	compression := CompressionNone
	payload := raw
	if c.policy == PolicyZCompress {
		if compressed, ok := tryZlibCompress(raw); ok {
			compression = CompressionZlib
			payload = compressed
		}
	}

	sml := SignedMessageList{
		Timestamp:   timestamp,
		Compression: compression,
		MessageList: payload,
	}

	if version == APIVersionLegacy {
		sml.Source = sourceCN
		sig, err := ourPriv.Sign(payload)
		if err != nil {
			return nil, newError(KindRekey, "failed to sign message list", err)
		}
		sml.Signature = sig
	}

	plain, err := json.Marshal(sml)
	if err != nil {
		return nil, err
	}

	frame := &ClientCommunication{APIVersion: version, EncryptedCipher: sk.WrappedProps}

	switch version {
	case APIVersionHMAC:
		iv, err := randomBytes(symmetricKeySize)
		if err != nil {
			return nil, err
		}
		encrypted, err := aesCBCEncrypt(sk.Props.Key, iv, plain)
		if err != nil {
			return nil, newError(KindDecryption, "failed to encrypt message list", err)
		}
		frame.IV = iv
		frame.Encrypted = encrypted
		frame.HMAC = hmacSHA1(sk.Props.HMACKey, encrypted)
		frame.EncryptedCipherMetadata = sk.WrappedMetadata
	case APIVersionLegacy:
		encrypted, err := aesCBCEncrypt(sk.Props.Key, sk.Props.IV, plain)
		if err != nil {
			return nil, newError(KindDecryption, "failed to encrypt message list", err)
		}
		frame.Encrypted = encrypted
	}

	return &encodeResult{frame: frame, timestamp: timestamp}, nil
}

// decodeResult is what Decode hands back to the Communicator, which then
// applies the replay-defense override before returning to its own caller.
type decodeResult struct {
	messageList []byte
	timestamp   uint64
	frame       *ClientCommunication
	sml         *SignedMessageList
}

// Decode parses frame and decrypts its inner SignedMessageList using sk
// (already unwrapped — via the envelope cache or a fresh ParseSessionKey —
// by the caller). It does not itself apply replay defense or final
// auth-state classification; see Communicator.Decode for the full pipeline
// described in 4.7/4.8.
func (c *FrameCodec) Decode(frame *ClientCommunication, sk *SessionKey) (*decodeResult, error) {
	if !frame.APIVersion.Valid() {
		return nil, newError(KindDecoding, "unsupported api version", nil)
	}
	if len(frame.EncryptedCipher) == 0 {
		return nil, newError(KindDecoding, "plaintext frame rejected: missing encrypted_cipher", nil)
	}

	iv := frame.IV
	if len(iv) == 0 {
		iv = sk.Props.IV
	}

	if frame.APIVersion == APIVersionHMAC {
		if len(frame.HMAC) == 0 || !verifyHMACSHA1(sk.Props.HMACKey, frame.Encrypted, frame.HMAC) {
			return nil, newError(KindDecoding, "hmac mismatch", ErrHMACMismatch)
		}
	}

	plain, err := aesCBCDecrypt(sk.Props.Key, iv, frame.Encrypted)
	if err != nil {
		return nil, newError(KindDecryption, "failed to decrypt message list", err)
	}

	var sml SignedMessageList
	if err := json.Unmarshal(plain, &sml); err != nil {
		return nil, newError(KindDecoding, "failed to parse signed message list", err)
	}

	messageList, err := decompress(sml.MessageList, sml.Compression)
	if err != nil {
		return nil, newError(KindDecoding, "failed to decompress message list", err)
	}

	return &decodeResult{
		messageList: messageList,
		timestamp:   sml.Timestamp,
		frame:       frame,
		sml:         &sml,
	}, nil
}

// cryptoSigner is the minimal surface FrameCodec needs from an identity to
// produce a v2 inline signature. pkg/agent/crypto.KeyPair satisfies it.
type cryptoSigner interface {
	Sign(message []byte) ([]byte, error)
}

// tryZlibCompress compresses raw with zlib and reports whether the result
// is strictly shorter, per the opportunistic-compression policy.
func tryZlibCompress(raw []byte) ([]byte, bool) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	if buf.Len() >= len(raw) {
		return nil, false
	}
	return buf.Bytes(), true
}

// decompress reverses tryZlibCompress when compression indicates the bytes
// are zlib-compressed; otherwise it returns data unchanged.
func decompress(data []byte, compression Compression) ([]byte, error) {
	if compression == CompressionNone {
		return data, nil
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ErrHMACMismatch is the cause wrapped by a comms.Error when a v3 frame's
// HMAC does not match the computed value over its ciphertext.
var ErrHMACMismatch = sentinel("hmac mismatch")
