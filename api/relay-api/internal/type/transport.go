// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

// InboundTransport is the telephony side of a session. Read returns io.EOF when
// the peer closed normally and an ErrTransport-wrapped error otherwise.
type InboundTransport interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
}
