package utils

import "testing"

func TestHeaderConstants(t *testing.T) {
	// Just test that constants are not empty
	if HEADER_API_KEY == "" {
		t.Error("HEADER_API_KEY should not be empty")
	}
	if HEADER_CALL_ID == "" {
		t.Error("HEADER_CALL_ID should not be empty")
	}
	if HEADER_TWILIO_SIGNATURE == "" {
		t.Error("HEADER_TWILIO_SIGNATURE should not be empty")
	}
}
