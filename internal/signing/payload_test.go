package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	apperrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
)

func TestParseCallback_JSON(t *testing.T) {
	body := []byte(`{"envelope_id":"env-42","status":"completed","signed_at":"2025-04-01T10:30:00Z"}`)

	payload, err := ParseCallback("application/json", body)
	require.NoError(t, err)
	assert.Equal(t, "env-42", payload.EnvelopeID)
	assert.Equal(t, enums.EnvelopeStatusCompleted, payload.Status)
	require.NotNil(t, payload.SignedAt)
	assert.Equal(t, time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC), payload.SignedAt.UTC())
}

func TestParseCallback_JSONWithoutTimestamp(t *testing.T) {
	payload, err := ParseCallback("application/json", []byte(`{"envelope_id":"env-7","status":"declined"}`))
	require.NoError(t, err)
	assert.Equal(t, enums.EnvelopeStatusDeclined, payload.Status)
	assert.Nil(t, payload.SignedAt)
}

func TestParseCallback_XML(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<EnvelopeStatus>
  <EnvelopeID>env-9</EnvelopeID>
  <Status>Completed</Status>
  <Signed>2025-04-01T10:30:00</Signed>
</EnvelopeStatus>`)

	payload, err := ParseCallback("text/xml", body)
	require.NoError(t, err)
	assert.Equal(t, "env-9", payload.EnvelopeID)
	assert.Equal(t, enums.EnvelopeStatusCompleted, payload.Status)
	require.NotNil(t, payload.SignedAt)
}

func TestParseCallback_NamespacedXML(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<ds:DocuSignEnvelopeInformation xmlns:ds="http://www.docusign.net/API/3.0">
  <ds:EnvelopeStatus>
    <ds:EnvelopeID>env-ns</ds:EnvelopeID>
    <ds:Status>voided</ds:Status>
  </ds:EnvelopeStatus>
</ds:DocuSignEnvelopeInformation>`)

	payload, err := ParseCallback("application/xml", body)
	require.NoError(t, err)
	assert.Equal(t, "env-ns", payload.EnvelopeID)
	assert.Equal(t, enums.EnvelopeStatusVoided, payload.Status)
}

func TestParseCallback_SniffsXMLWithoutContentType(t *testing.T) {
	body := []byte(`<EnvelopeStatus><EnvelopeID>env-1</EnvelopeID><Status>declined</Status></EnvelopeStatus>`)

	payload, err := ParseCallback("", body)
	require.NoError(t, err)
	assert.Equal(t, enums.EnvelopeStatusDeclined, payload.Status)
}

func TestParseCallback_Malformed(t *testing.T) {
	for name, tc := range map[string]struct {
		contentType string
		body        string
	}{
		"empty body":          {"application/json", ""},
		"bad json":            {"application/json", `{"envelope_id":`},
		"bad xml":             {"text/xml", `<EnvelopeStatus><EnvelopeID>`},
		"missing envelope id": {"application/json", `{"status":"completed"}`},
		"unknown status":      {"application/json", `{"envelope_id":"e","status":"torn_up"}`},
		"xml without status":  {"text/xml", `<SomethingElse/>`},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCallback(tc.contentType, []byte(tc.body))
			require.Error(t, err)
			appErr := apperrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperrors.CodeValidation, appErr.Code())
		})
	}
}

func TestParseTimestamp_UnparseableDropped(t *testing.T) {
	assert.Nil(t, parseTimestamp("not-a-date"))
	assert.Nil(t, parseTimestamp(""))
	require.NotNil(t, parseTimestamp("2025-04-01 10:30:00"))
}
