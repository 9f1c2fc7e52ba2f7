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
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/sage-x-project/sage/pkg/agent/comms"
)

// identityKeyBits matches the fixed RSA modulus size the communicator
// itself uses for session key wrap (comms.rsaKeyBits is unexported, so the
// CLI pins the same value independently).
const identityKeyBits = 2048

// identityCertLifetime is generous on purpose: the CLI is meant for local
// development and demos, not production issuance with rotation.
const identityCertLifetime = 10 * 365 * 24 * time.Hour

// generateSelfSignedIdentity creates a fresh RSA private key and a
// self-signed X.509 certificate carrying cn as its subject common name.
// The certificate exists only so a peer can learn (cn, public key) via
// PubKeyDirectory.LearnCertificate; the communicator itself never
// validates a certificate chain.
func generateSelfSignedIdentity(cn string) (*rsa.PrivateKey, []byte, error) {
	priv, err := rsa.GenerateKey(rand.Reader, identityKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate RSA key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    now.Add(-5 * time.Minute),
		NotAfter:     now.Add(identityCertLifetime),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, fmt.Errorf("create self-signed certificate: %w", err)
	}

	return priv, der, nil
}

func encodeCertPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func encodeKeyPEM(priv *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
}

func writePEMFile(path string, pemBytes []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, pemBytes, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadPrivateKeyPEM(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s does not contain a PEM block", path)
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return priv, nil
}

func loadCertificatePEM(path string) (*x509.Certificate, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read certificate %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	der := data
	if block != nil {
		der = block.Bytes
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("parse certificate %s: %w", path, err)
	}
	return cert, data, nil
}

// loadIdentity reads an RSA private key and its matching self-signed
// certificate from disk and builds the comms.Identity the CLI's encode
// and decode subcommands operate as.
func loadIdentity(certPath, keyPath string) (comms.Identity, error) {
	priv, err := loadPrivateKeyPEM(keyPath)
	if err != nil {
		return comms.Identity{}, err
	}
	cert, _, err := loadCertificatePEM(certPath)
	if err != nil {
		return comms.Identity{}, err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return comms.Identity{}, fmt.Errorf("%s does not carry an RSA public key", certPath)
	}
	if pub.N.Cmp(priv.PublicKey.N) != 0 {
		return comms.Identity{}, fmt.Errorf("certificate %s does not match private key %s", certPath, keyPath)
	}
	return comms.Identity{
		PrivateKey: priv,
		PublicKey:  pub,
		CommonName: cert.Subject.CommonName,
	}, nil
}

// loadPeerDirectory builds a PubKeyDirectory from every *.pem/*.crt file in
// dir, learning each peer's (CN, public key) pair via LearnCertificate.
func loadPeerDirectory(dir string, capacity int) (*comms.PubKeyDirectory, error) {
	pubDir := comms.NewPubKeyDirectory(capacity)
	if dir == "" {
		return pubDir, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return pubDir, nil
		}
		return nil, fmt.Errorf("read peer directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !hasSuffix(name, ".pem") && !hasSuffix(name, ".crt") {
			continue
		}
		path := dir + string(os.PathSeparator) + name
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read peer certificate %s: %w", path, err)
		}
		if _, err := pubDir.LearnCertificate(data); err != nil {
			return nil, fmt.Errorf("learn peer certificate %s: %w", path, err)
		}
	}

	return pubDir, nil
}

func hasSuffix(name, suffix string) bool {
	return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
}
