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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage/pkg/agent/comms"
)

var (
	decodeCertPath    string
	decodeKeyPath     string
	decodePeerDir     string
	decodeInPath      string
	decodePostgresDSN string
	decodeWarmPeer    string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a single wire frame and report its auth state",
	Long: `decode loads the caller's own identity, learns peer certificates
from --peer-dir, and decodes the wire frame read from --in (or stdin if
--in is empty). It prints the recovered source common name, timestamp,
message, and the resulting AuthState.

A frame decoded in a process other than the one that encoded it normally
comes back UNAUTHENTICATED: the replay-defense nonce is tracked per
Communicator instance, so an out-of-process decode has no prior
LastSentTimestamp to compare against. Passing --postgres-dsn (or running
against the same durable store used by the earlier "sage-comms encode"
call) plus --warm-peer <cn> restores that nonce before decoding, so a
genuine response to a request this identity sent earlier can still
authenticate across separate process invocations. The loopback "demo"
subcommand shows the same AUTHENTICATED path within a single process,
without needing a durable store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := loadIdentity(decodeCertPath, decodeKeyPath)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ds, err := openDurableStore(ctx, decodePostgresDSN)
		if err != nil {
			return err
		}
		defer ds.close()

		cfg := comms.DefaultConfig()
		dir, err := loadPeerDirectory(decodePeerDir, cfg.DirectoryCacheCapacity)
		if err != nil {
			return err
		}
		dir.SetStore(ds.peerKeys)
		if err := dir.WarmFromStore(ctx); err != nil {
			return fmt.Errorf("warm peer directory: %w", err)
		}

		communicator := comms.NewCommunicator(identity, cfg, dir, nil, nil)
		communicator.SetLastSentStore(ds.lastSent)
		if decodeWarmPeer != "" {
			if err := communicator.WarmLastSent(ctx, decodeWarmPeer); err != nil {
				return fmt.Errorf("warm last-sent nonce: %w", err)
			}
		}

		var wire []byte
		if decodeInPath == "" {
			wire, err = io.ReadAll(os.Stdin)
		} else {
			wire, err = os.ReadFile(decodeInPath)
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		messageList, source, timestamp, auth, err := communicator.Decode(wire)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}

		fmt.Printf("source:    %s\n", source)
		fmt.Printf("timestamp: %d\n", timestamp)
		fmt.Printf("auth:      %s\n", auth)
		fmt.Printf("message:   %s\n", messageList)
		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeCertPath, "cert", "identity.crt.pem", "path to own certificate")
	decodeCmd.Flags().StringVar(&decodeKeyPath, "key", "identity.key.pem", "path to own private key")
	decodeCmd.Flags().StringVar(&decodePeerDir, "peer-dir", "", "directory of peer certificates (*.pem, *.crt)")
	decodeCmd.Flags().StringVar(&decodeInPath, "in", "", "input path for the wire frame (default: stdin)")
	decodeCmd.Flags().StringVar(&decodePostgresDSN, "postgres-dsn", "", "Postgres DSN for durable peer-key/last-sent storage (default: in-memory)")
	decodeCmd.Flags().StringVar(&decodeWarmPeer, "warm-peer", "", "common name to restore the last-sent nonce for before decoding")
	rootCmd.AddCommand(decodeCmd)
}
