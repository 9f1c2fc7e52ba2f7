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
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage/pkg/agent/comms"
)

var (
	encodeCertPath    string
	encodeKeyPath     string
	encodePeerDir     string
	encodeDestCN      string
	encodeMessage     string
	encodeOutPath     string
	encodePostgresDSN string
	encodeEchoNonce   uint64
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a single message batch for a destination identity",
	Long: `encode loads the caller's own identity, learns peer certificates
from --peer-dir, and encodes --message as a single-entry batch addressed
to --dest. The resulting wire frame is written to --out, or stdout if
--out is empty.

--echo-nonce, if set, encodes as a response that stamps the given nonce
instead of the current time, letting the original requester's Decode match
it against its own LastSentTimestamp and authenticate the response.

--postgres-dsn, if set, backs the peer-key directory and the replay nonce
with durable Postgres storage instead of the default in-memory store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := loadIdentity(encodeCertPath, encodeKeyPath)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ds, err := openDurableStore(ctx, encodePostgresDSN)
		if err != nil {
			return err
		}
		defer ds.close()

		cfg := comms.DefaultConfig()
		dir, err := loadPeerDirectory(encodePeerDir, cfg.DirectoryCacheCapacity)
		if err != nil {
			return err
		}
		dir.SetStore(ds.peerKeys)
		if err := dir.WarmFromStore(ctx); err != nil {
			return fmt.Errorf("warm peer directory: %w", err)
		}

		communicator := comms.NewCommunicator(identity, cfg, dir, nil, nil)
		communicator.SetLastSentStore(ds.lastSent)

		var wire []byte
		var nonce uint64
		if encodeEchoNonce != 0 {
			wire, nonce, err = communicator.EncodeResponse([]byte(encodeMessage), encodeDestCN, encodeEchoNonce)
		} else {
			wire, nonce, err = communicator.Encode([]byte(encodeMessage), encodeDestCN)
		}
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}

		if encodeOutPath == "" {
			os.Stdout.Write(wire)
			fmt.Fprintf(os.Stderr, "\n# nonce=%d\n", nonce)
			return nil
		}
		if err := os.WriteFile(encodeOutPath, wire, 0644); err != nil {
			return fmt.Errorf("write %s: %w", encodeOutPath, err)
		}
		fmt.Printf("wrote frame to %s (nonce=%d)\n", encodeOutPath, nonce)
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVar(&encodeCertPath, "cert", "identity.crt.pem", "path to own certificate")
	encodeCmd.Flags().StringVar(&encodeKeyPath, "key", "identity.key.pem", "path to own private key")
	encodeCmd.Flags().StringVar(&encodePeerDir, "peer-dir", "", "directory of peer certificates (*.pem, *.crt)")
	encodeCmd.Flags().StringVar(&encodeDestCN, "dest", "", "destination common name (required)")
	encodeCmd.Flags().StringVar(&encodeMessage, "message", "", "message text to encode (required)")
	encodeCmd.Flags().StringVar(&encodeOutPath, "out", "", "output path for the wire frame (default: stdout)")
	encodeCmd.Flags().StringVar(&encodePostgresDSN, "postgres-dsn", "", "Postgres DSN for durable peer-key/last-sent storage (default: in-memory)")
	encodeCmd.Flags().Uint64Var(&encodeEchoNonce, "echo-nonce", 0, "encode as a response echoing this nonce instead of stamping the current time")
	rootCmd.AddCommand(encodeCmd)
}
