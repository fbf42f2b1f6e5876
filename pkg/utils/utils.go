// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package utils

import (
	"context"
	"runtime/debug"

	"github.com/rapidaai/intake-relay/pkg/commons"
)

// Go runs fn in a goroutine, logging any panic with its stack.
func Go(ctx context.Context, logger commons.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("recovered from panic", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
