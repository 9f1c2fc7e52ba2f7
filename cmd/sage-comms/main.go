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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sage-comms",
	Short: "SAGE Comms CLI - identity, frame encode/decode, and demo",
	Long: `SAGE Comms CLI drives the secure message-framing communicator
(RSA key wrap + AES-128-CBC payload encryption, HMAC-SHA1/RSA-PKCS1
authentication) from the command line.

This tool supports:
- RSA identity generation with a self-signed certificate (keygen)
- Single-shot frame encode against a file-based peer directory (encode)
- Single-shot frame decode, reporting the resulting auth state (decode)
- An in-memory loopback demo of an encode/decode round trip (demo)`,
}

func main() {
	// Best-effort: local developer runs may keep identity paths and peer
	// directory locations in a .env file. A missing file is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Note: commands are registered in their respective files
	// - keygen.go: keygenCmd
	// - encode.go: encodeCmd
	// - decode.go: decodeCmd
	// - demo.go:   demoCmd
}
