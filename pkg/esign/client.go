package esign

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lucasmoreno-dev/devisio-backend/pkg/config"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/metrics"
)

// TokenProvider yields a valid provider access token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// EnvelopeSender is the surface the signing workflow depends on.
type EnvelopeSender interface {
	CreateEnvelope(ctx context.Context, spec EnvelopeSpec) (string, error)
}

// EnvelopeSpec describes the document and signer for one envelope.
type EnvelopeSpec struct {
	EmailSubject string
	DocumentName string
	DocumentPDF  []byte
	SignerName   string
	SignerEmail  string
	WebhookURL   string
}

// Client talks to the e-signature provider's REST API.
type Client struct {
	cfg        config.ESignConfig
	httpClient *http.Client
	tokens     TokenProvider
	metrics    *metrics.SigningMetrics
}

// NewClient builds a provider client around the given token source.
func NewClient(cfg config.ESignConfig, tokens TokenProvider, m *metrics.SigningMetrics) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		tokens:     tokens,
		metrics:    m,
	}
}

type envelopeDocument struct {
	DocumentBase64 string `json:"documentBase64"`
	Name           string `json:"name"`
	FileExtension  string `json:"fileExtension"`
	DocumentID     string `json:"documentId"`
}

type envelopeSignHereTab struct {
	AnchorString  string `json:"anchorString"`
	AnchorXOffset string `json:"anchorXOffset"`
	AnchorYOffset string `json:"anchorYOffset"`
}

type envelopeSigner struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RecipientID  string `json:"recipientId"`
	RoutingOrder string `json:"routingOrder"`
	Tabs         struct {
		SignHereTabs []envelopeSignHereTab `json:"signHereTabs"`
	} `json:"tabs"`
}

type envelopeEvent struct {
	EnvelopeEventStatusCode string `json:"envelopeEventStatusCode"`
}

type eventNotification struct {
	URL                       string          `json:"url"`
	LoggingEnabled            string          `json:"loggingEnabled"`
	RequireAcknowledgment     string          `json:"requireAcknowledgment"`
	EnvelopeEvents            []envelopeEvent `json:"envelopeEvents"`
	IncludeEnvelopeVoidReason string          `json:"includeEnvelopeVoidReason"`
}

type envelopeDefinition struct {
	EmailSubject      string             `json:"emailSubject"`
	Documents         []envelopeDocument `json:"documents"`
	Recipients        struct {
		Signers []envelopeSigner `json:"signers"`
	} `json:"recipients"`
	EventNotification *eventNotification `json:"eventNotification,omitempty"`
	Status            string             `json:"status"`
}

// CreateEnvelope submits the document for signature and returns the provider
// envelope id.
func (c *Client) CreateEnvelope(ctx context.Context, spec EnvelopeSpec) (string, error) {
	if len(spec.DocumentPDF) == 0 {
		return "", fmt.Errorf("envelope document is empty")
	}
	if spec.SignerEmail == "" || spec.SignerName == "" {
		return "", fmt.Errorf("envelope signer is required")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("obtaining esign token: %w", err)
	}

	definition := c.buildDefinition(spec)
	payload, err := json.Marshal(definition)
	if err != nil {
		return "", fmt.Errorf("encoding envelope definition: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2.1/accounts/%s/envelopes", c.cfg.ResolvedAPIBaseURL(), c.cfg.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building envelope request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveProviderLatency("create_envelope", time.Since(started))
	if err != nil {
		return "", fmt.Errorf("creating envelope: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("esign envelope endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		EnvelopeID string `json:"envelopeId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding envelope response: %w", err)
	}
	if body.EnvelopeID == "" {
		return "", fmt.Errorf("envelope response missing envelopeId")
	}
	return body.EnvelopeID, nil
}

func (c *Client) buildDefinition(spec EnvelopeSpec) envelopeDefinition {
	doc := envelopeDocument{
		DocumentBase64: base64.StdEncoding.EncodeToString(spec.DocumentPDF),
		Name:           spec.DocumentName,
		FileExtension:  "pdf",
		DocumentID:     "1",
	}

	signer := envelopeSigner{
		Email:        spec.SignerEmail,
		Name:         spec.SignerName,
		RecipientID:  "1",
		RoutingOrder: "1",
	}
	signer.Tabs.SignHereTabs = []envelopeSignHereTab{{
		AnchorString:  "/signature/",
		AnchorXOffset: "0",
		AnchorYOffset: "0",
	}}

	definition := envelopeDefinition{
		EmailSubject: spec.EmailSubject,
		Documents:    []envelopeDocument{doc},
		Status:       "sent",
	}
	definition.Recipients.Signers = []envelopeSigner{signer}

	if spec.WebhookURL != "" {
		definition.EventNotification = &eventNotification{
			URL:                   spec.WebhookURL,
			LoggingEnabled:        "true",
			RequireAcknowledgment: "true",
			EnvelopeEvents: []envelopeEvent{
				{EnvelopeEventStatusCode: "completed"},
				{EnvelopeEventStatusCode: "declined"},
				{EnvelopeEventStatusCode: "voided"},
			},
			IncludeEnvelopeVoidReason: "true",
		}
	}
	return definition
}
