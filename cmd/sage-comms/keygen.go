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
	"fmt"

	"github.com/spf13/cobra"
)

var (
	keygenCN       string
	keygenCertPath string
	keygenKeyPath  string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an RSA identity with a self-signed certificate",
	Long: `keygen creates a 2048-bit RSA key pair and a self-signed X.509
certificate carrying --cn as the subject common name, and writes both to
disk as PEM. The certificate is never validated by the communicator
itself; it exists only so a peer can learn your (common name, public key)
pair via "sage-comms encode/decode --peer-dir".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keygenCN == "" {
			return fmt.Errorf("--cn is required")
		}

		priv, certDER, err := generateSelfSignedIdentity(keygenCN)
		if err != nil {
			return err
		}

		if err := writePEMFile(keygenKeyPath, encodeKeyPEM(priv), 0600); err != nil {
			return err
		}
		if err := writePEMFile(keygenCertPath, encodeCertPEM(certDER), 0644); err != nil {
			return err
		}

		fmt.Printf("generated identity %q\n  key:  %s\n  cert: %s\n", keygenCN, keygenKeyPath, keygenCertPath)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenCN, "cn", "", "common name for the new identity (required)")
	keygenCmd.Flags().StringVar(&keygenCertPath, "cert", "identity.crt.pem", "output path for the self-signed certificate")
	keygenCmd.Flags().StringVar(&keygenKeyPath, "key", "identity.key.pem", "output path for the RSA private key")
	rootCmd.AddCommand(keygenCmd)
}
