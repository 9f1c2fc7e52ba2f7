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
	"fmt"

	"github.com/sage-x-project/sage/internal/logger"
	"github.com/sage-x-project/sage/internal/metrics"
)

// Kind tags the class of failure an Error carries, matching the counter
// names the wire protocol's error table expects.
type Kind string

const (
	// KindDecoding covers structurally malformed frames: bad JSON, an
	// unrecognized api_version, or a corrupt zlib stream.
	KindDecoding Kind = "decoding_error"
	// KindDecryption covers RSA-OAEP unwrap failure, wrong-size key/iv/
	// hmac_key, and AES-CBC decryption or PKCS#7 unpadding failure.
	KindDecryption Kind = "decryption_error"
	// KindRekey covers failure to build a SessionKey or signature for
	// sending: unknown destination, or RSA signing or wrapping failure.
	KindRekey Kind = "rekey_error"
	// KindClientUnknown covers a v2 frame whose source CN has no directory
	// entry.
	KindClientUnknown Kind = "client_unknown"
	// KindUnauthenticated covers a structurally valid frame whose signature,
	// HMAC, or replay nonce did not verify. This is not itself an error
	// returned to callers (Decode still returns the batch), but is recorded
	// for observability.
	KindUnauthenticated Kind = "unauthenticated"
)

// Error is the tagged error type every comms operation returns on failure.
// It mirrors logger.SageError's shape (a stable code plus an optional
// wrapped cause) so callers can use errors.Is/errors.As uniformly across
// the project.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("comms: %s: %s (%v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("comms: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// newError builds a comms.Error of the given kind.
func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// recordError logs err at Error level through l (nil-safe) and
// increments the Prometheus counter matching err's Kind.
func recordError(l logger.Logger, err *Error) {
	switch err.Kind {
	case KindDecoding:
		metrics.CommsDecodingErrors.Inc()
	case KindDecryption:
		metrics.CommsDecryptionErrors.Inc()
	case KindRekey:
		metrics.CommsRekeyErrors.Inc()
	case KindClientUnknown:
		metrics.CommsClientUnknown.Inc()
	case KindUnauthenticated:
		metrics.CommsUnauthenticatedMessages.Inc()
	}
	if l == nil {
		return
	}
	l.Error(err.Message, logger.String("kind", string(err.Kind)), logger.Error(err.Cause))
}
