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
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sage-x-project/sage/internal/metrics"
)

// SetLastSentTimestampForTest pins the replay-defense nonce directly,
// standing in for "decoder already observed the matching encode" without
// needing a side channel between two Communicator instances in tests.
func (c *Communicator) SetLastSentTimestampForTest(ts uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSentTimestamp = ts
}

// RSAOperationCountForTest reads the current value of the grr_rsa_operations
// counter for the given operation label, so cache-hit tests can assert on
// "at most one RSA op" without a private counter plumbed through the API.
func RSAOperationCountForTest(operation string) float64 {
	return testutil.ToFloat64(metrics.CommsRSAOperations.WithLabelValues(operation))
}
