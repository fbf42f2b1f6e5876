// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_callcontext

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a context stays resolvable after insertion.
const DefaultTTL = 30 * time.Minute

var ErrNotFound = errors.New("call context not found")

// Store keeps call contexts keyed by the external call identifier.
//
// Entries expire a fixed TTL after insertion, independent of the relay session
// that uses them: the voice-AI provider can ask for the variables slightly
// before the media stream starts or after it has already ended.
type Store interface {
	// Put stores cc under callID, replacing any previous entry and restarting
	// its retention window.
	Put(ctx context.Context, callID string, cc *CallContext) error

	// Get returns the context for callID or ErrNotFound.
	Get(ctx context.Context, callID string) (*CallContext, error)

	// Remove deletes the context for callID. Removing a missing key is not an error.
	Remove(ctx context.Context, callID string) error

	// MostRecent returns the newest context inserted within the given window.
	// It guesses under concurrent calls and is only wired in development mode.
	MostRecent(ctx context.Context, within time.Duration) (*CallContext, error)

	// List returns every live context, newest first.
	List(ctx context.Context) ([]*CallContext, error)
}
