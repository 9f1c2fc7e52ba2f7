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
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // part of the fixed v3 HMAC wire contract
	"crypto/sha256"
)

// aesCBCEncrypt pads plaintext with PKCS#7 and encrypts it with AES-128-CBC
// under key/iv. key and iv must each be symmetricKeySize bytes.
func aesCBCEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// aesCBCDecrypt reverses aesCBCEncrypt, removing PKCS#7 padding.
func aesCBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, newError(KindDecryption, "ciphertext is not a multiple of the block size", nil)
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out, bs)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, newError(KindDecryption, "empty plaintext", nil)
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, newError(KindDecryption, "invalid PKCS#7 padding", nil)
	}
	if !bytes.Equal(data[len(data)-padLen:], bytes.Repeat([]byte{byte(padLen)}, padLen)) {
		return nil, newError(KindDecryption, "invalid PKCS#7 padding", nil)
	}
	return data[:len(data)-padLen], nil
}

// hmacSHA1 computes an HMAC-SHA1 over data under key.
func hmacSHA1(key, data []byte) []byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// verifyHMACSHA1 reports whether tag is the correct HMAC-SHA1 of data
// under key, using a constant-time comparison.
func verifyHMACSHA1(key, data, tag []byte) bool {
	return hmac.Equal(hmacSHA1(key, data), tag)
}

// rsaOAEPWrap encrypts data under pub using RSA-OAEP with SHA-256.
func rsaOAEPWrap(pub *rsa.PublicKey, data []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, data, nil)
}

// rsaOAEPUnwrap decrypts data previously produced by rsaOAEPWrap.
func rsaOAEPUnwrap(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, data, nil)
}

// rsaSign signs data's SHA-256 digest with PKCS#1 v1.5 under priv.
func rsaSign(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
}

// rsaVerify verifies sig over data's SHA-256 digest under pub.
func rsaVerify(pub *rsa.PublicKey, data, sig []byte) error {
	digest := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return newError(KindRekey, "signature verification failed", err)
	}
	return nil
}

// randomBytes returns n cryptographically random bytes.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// CSPRNG is the communicator's entropy-feed collaborator. The default,
// crypto/rand-backed implementation treats Feed as a no-op: unlike the
// userspace PRNG the wire format's original implementation reseeded on every
// decode, crypto/rand.Reader draws directly from the OS CSPRNG and exposes no
// reseed hook. The method exists so callers that want to mix in
// observed-ciphertext entropy (matching the original's best-effort reseed on
// every decode) have somewhere to do it.
type CSPRNG interface {
	// Feed mixes data into the generator's entropy pool, if supported.
	Feed(data []byte)
}

// systemCSPRNG is the default CSPRNG: crypto/rand.Reader, Feed is a no-op.
type systemCSPRNG struct{}

func (systemCSPRNG) Feed([]byte) {}

// DefaultCSPRNG is the CSPRNG used when a Communicator is not given one
// explicitly.
var DefaultCSPRNG CSPRNG = systemCSPRNG{}
