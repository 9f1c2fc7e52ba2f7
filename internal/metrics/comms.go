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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommsAuthenticatedMessages counts decoded batches whose signature (and
	// HMAC, on v3) verified and whose nonce matched the replay ledger.
	CommsAuthenticatedMessages = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comms",
			Name:      "grr_authenticated_messages_total",
			Help:      "Total number of message batches decoded with AUTHENTICATED state",
		},
	)

	// CommsUnauthenticatedMessages counts decoded batches that failed
	// signature/HMAC verification or replay-nonce matching.
	CommsUnauthenticatedMessages = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comms",
			Name:      "grr_unauthenticated_messages_total",
			Help:      "Total number of message batches decoded with UNAUTHENTICATED state",
		},
	)

	// CommsRSAOperations counts successful RSA wraps, unwraps, session-key
	// signatures and signature verifications.
	CommsRSAOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comms",
			Name:      "grr_rsa_operations_total",
			Help:      "Total number of RSA operations performed by the communicator",
		},
		[]string{"operation"}, // wrap, unwrap, sign, verify
	)

	// CommsDecodingErrors counts frames rejected as malformed (bad JSON,
	// unknown api_version, missing encrypted_cipher, HMAC mismatch, bad zlib
	// stream).
	CommsDecodingErrors = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comms",
			Name:      "grr_decoding_error_total",
			Help:      "Total number of frames that failed to decode structurally",
		},
	)

	// CommsDecryptionErrors counts frames whose RSA-OAEP unwrap, key sizes,
	// AES-CBC decryption or padding removal failed.
	CommsDecryptionErrors = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comms",
			Name:      "grr_decryption_error_total",
			Help:      "Total number of frames that failed symmetric decryption",
		},
	)

	// CommsRekeyErrors counts failures to build a SessionKey or signature
	// for sending (unknown destination, RSA signing or wrapping failure).
	CommsRekeyErrors = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comms",
			Name:      "grr_rekey_error_total",
			Help:      "Total number of failures building a session key or signature for sending",
		},
	)

	// CommsClientUnknown counts v2 frames whose signed_message_list.source
	// has no entry in the receiver's PubKeyDirectory.
	CommsClientUnknown = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comms",
			Name:      "grr_client_unknown_total",
			Help:      "Total number of v2 frames whose source CN was not found in the directory",
		},
	)

	// CommsFrameDuration tracks Encode/Decode wall time.
	CommsFrameDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "comms",
			Name:      "frame_duration_seconds",
			Help:      "Frame encode/decode duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 15),
		},
		[]string{"operation"}, // encode, decode
	)
)
