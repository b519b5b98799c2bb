package signing

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
)

// CallbackPayload is the normalized form of a provider status callback.
type CallbackPayload struct {
	EnvelopeID string
	Status     enums.EnvelopeStatus
	SignedAt   *time.Time
}

// ParseCallback decodes a provider callback body. The provider sends either
// JSON ({envelope_id, status, signed_at?}) or XML (an EnvelopeStatus element
// with EnvelopeID and Status children, possibly namespaced). A parse failure
// is a validation error, distinct from an unknown envelope.
func ParseCallback(contentType string, body []byte) (CallbackPayload, error) {
	if len(body) == 0 {
		return CallbackPayload{}, apperrors.New(apperrors.CodeValidation, "empty callback body")
	}

	if strings.Contains(contentType, "xml") || looksLikeXML(body) {
		return parseXMLCallback(body)
	}
	return parseJSONCallback(body)
}

func looksLikeXML(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<")
}

func parseJSONCallback(body []byte) (CallbackPayload, error) {
	var raw struct {
		EnvelopeID string `json:"envelope_id"`
		Status     string `json:"status"`
		SignedAt   string `json:"signed_at"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return CallbackPayload{}, apperrors.Wrap(apperrors.CodeValidation, err, "malformed callback json")
	}
	return normalizeCallback(raw.EnvelopeID, raw.Status, raw.SignedAt)
}

func parseXMLCallback(body []byte) (CallbackPayload, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return CallbackPayload{}, apperrors.Wrap(apperrors.CodeValidation, err, "malformed callback xml")
	}

	status := findByLocalName(&doc.Element, "EnvelopeStatus")
	if status == nil {
		return CallbackPayload{}, apperrors.New(apperrors.CodeValidation, "callback xml missing EnvelopeStatus element")
	}

	envelopeID := childText(status, "EnvelopeID")
	statusText := childText(status, "Status")
	signedAt := childText(status, "Signed")
	return normalizeCallback(envelopeID, statusText, signedAt)
}

// findByLocalName walks the tree matching on the tag's local name, so both
// plain and namespace-prefixed provider payloads resolve.
func findByLocalName(el *etree.Element, local string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			return child
		}
		if found := findByLocalName(child, local); found != nil {
			return found
		}
	}
	return nil
}

func childText(el *etree.Element, local string) string {
	if found := findByLocalName(el, local); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}

func normalizeCallback(envelopeID, status, signedAt string) (CallbackPayload, error) {
	if strings.TrimSpace(envelopeID) == "" {
		return CallbackPayload{}, apperrors.New(apperrors.CodeValidation, "callback missing envelope id")
	}
	parsed, err := enums.ParseEnvelopeStatus(status)
	if err != nil {
		return CallbackPayload{}, apperrors.Wrap(apperrors.CodeValidation, err, "callback status not recognized")
	}

	payload := CallbackPayload{
		EnvelopeID: strings.TrimSpace(envelopeID),
		Status:     parsed,
	}
	if stamp := parseTimestamp(signedAt); stamp != nil {
		payload.SignedAt = stamp
	}
	return payload, nil
}

// parseTimestamp tolerates the formats the provider has been seen sending.
// An unparseable stamp is dropped; the sign path then uses the current time.
func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if stamp, err := time.Parse(layout, value); err == nil {
			return &stamp
		}
	}
	return nil
}
