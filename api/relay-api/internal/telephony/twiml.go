// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_telephony

import (
	"sort"

	"github.com/twilio/twilio-go/twiml"
)

// ConnectStreamTwiML answers a voice webhook by connecting the call to the
// media stream at streamUrl. Each parameter reaches the relay in the start
// frame's customParameters.
func ConnectStreamTwiML(streamUrl string, parameters map[string]string) (string, error) {
	keys := make([]string, 0, len(parameters))
	for k := range parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inner := make([]twiml.Element, 0, len(keys))
	for _, k := range keys {
		inner = append(inner, &twiml.VoiceParameter{Name: k, Value: parameters[k]})
	}
	stream := &twiml.VoiceStream{Url: streamUrl, InnerElements: inner}
	connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
	return twiml.Voice([]twiml.Element{connect})
}

// SayHangupTwiML reads message to the caller and hangs up.
func SayHangupTwiML(message string) (string, error) {
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: message},
		&twiml.VoiceHangup{},
	})
}
