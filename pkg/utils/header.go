// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package utils

const (
	// HEADER_API_KEY authenticates against the voice-AI provider REST and WebSocket APIs.
	HEADER_API_KEY = "xi-api-key"
	// HEADER_CALL_ID carries the external call identifier on provider callbacks.
	HEADER_CALL_ID = "x-call-id"
	// HEADER_TWILIO_SIGNATURE is set by Twilio on every webhook.
	HEADER_TWILIO_SIGNATURE = "X-Twilio-Signature"
)
