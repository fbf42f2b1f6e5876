// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import "errors"

// =============================================================================
// Relay error taxonomy
// =============================================================================

var (
	// ErrUpstreamUnavailable covers missing credentials, a failed signed URL
	// request and a failed dial. Fatal to the session, never retried.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrTransport is a socket failure on either side. Fatal to the session.
	ErrTransport = errors.New("transport error")

	// ErrMalformedFrame is an unparseable frame. The frame is dropped.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrTerminationFailed is logged; teardown continues.
	ErrTerminationFailed = errors.New("call termination failed")

	// ErrRecordStoreWrite and ErrAutomationTrigger are logged by the post-call
	// webhook, which still acknowledges the provider.
	ErrRecordStoreWrite  = errors.New("record store write failed")
	ErrAutomationTrigger = errors.New("automation trigger failed")
)
