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

package config

import "fmt"

// ValidationIssue describes one problem found by ValidateConfiguration.
// Level is either "error" (Load fails) or "warning" (Load proceeds).
type ValidationIssue struct {
	Field   string
	Message string
	Level   string
}

// ValidateConfiguration checks cfg for internally-inconsistent or
// known-bad values. It never mutates cfg.
func ValidateConfiguration(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg == nil {
		return []ValidationIssue{{Field: "config", Message: "config is nil", Level: "error"}}
	}

	if cfg.Comms != nil {
		switch cfg.Comms.Compression {
		case "", "zcompress", "uncompressed":
		default:
			issues = append(issues, ValidationIssue{
				Field:   "comms.compression",
				Message: fmt.Sprintf("unknown compression policy %q", cfg.Comms.Compression),
				Level:   "error",
			})
		}

		switch cfg.Comms.DefaultAPIVersion {
		case 0, 2, 3:
		default:
			issues = append(issues, ValidationIssue{
				Field:   "comms.default_api_version",
				Message: fmt.Sprintf("unsupported API version %d, want 2 or 3", cfg.Comms.DefaultAPIVersion),
				Level:   "error",
			})
		}

		if cfg.Comms.CertPath != "" && cfg.Comms.KeyPath == "" {
			issues = append(issues, ValidationIssue{
				Field:   "comms.key_path",
				Message: "cert_path is set but key_path is empty",
				Level:   "error",
			})
		}
	}

	if cfg.KeyStore != nil {
		switch cfg.KeyStore.Type {
		case "", "file", "memory":
		default:
			issues = append(issues, ValidationIssue{
				Field:   "keystore.type",
				Message: fmt.Sprintf("unsupported keystore type %q", cfg.KeyStore.Type),
				Level:   "error",
			})
		}
	}

	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "", "debug", "info", "warn", "error", "fatal":
		default:
			issues = append(issues, ValidationIssue{
				Field:   "logging.level",
				Message: fmt.Sprintf("unknown log level %q", cfg.Logging.Level),
				Level:   "warning",
			})
		}
	}

	return issues
}
