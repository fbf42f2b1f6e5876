// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package utils

import "strings"

// IsEmpty reports whether s is empty or whitespace only.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// DefaultIfEmpty returns fallback when s is empty or whitespace only.
func DefaultIfEmpty(s, fallback string) string {
	if IsEmpty(s) {
		return fallback
	}
	return s
}

// FirstNonEmpty returns the first value that is not empty.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if !IsEmpty(v) {
			return v
		}
	}
	return ""
}
