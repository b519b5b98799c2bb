package enums

import (
	"fmt"
	"strings"
)

// EnvelopeStatus mirrors the signing provider's envelope lifecycle.
type EnvelopeStatus string

const (
	EnvelopeStatusSent      EnvelopeStatus = "sent"
	EnvelopeStatusCompleted EnvelopeStatus = "completed"
	EnvelopeStatusDeclined  EnvelopeStatus = "declined"
	EnvelopeStatusVoided    EnvelopeStatus = "voided"
)

var validEnvelopeStatuses = []EnvelopeStatus{
	EnvelopeStatusSent,
	EnvelopeStatusCompleted,
	EnvelopeStatusDeclined,
	EnvelopeStatusVoided,
}

// String implements fmt.Stringer.
func (s EnvelopeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EnvelopeStatus.
func (s EnvelopeStatus) IsValid() bool {
	for _, candidate := range validEnvelopeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEnvelopeStatus converts raw provider input into an EnvelopeStatus.
// Provider payloads vary in casing ("Completed" in XML, "completed" in JSON).
func ParseEnvelopeStatus(value string) (EnvelopeStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validEnvelopeStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown envelope status %q", value)
}
