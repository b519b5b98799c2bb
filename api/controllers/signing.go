package controllers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lucasmoreno-dev/devisio-backend/api/responses"
	"github.com/lucasmoreno-dev/devisio-backend/api/validators"
	"github.com/lucasmoreno-dev/devisio-backend/internal/signing"
	pkgerrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

type sendForSignatureRequest struct {
	SignerName  string  `json:"signer_name" validate:"required,min=1"`
	SignerEmail string  `json:"signer_email" validate:"required,email"`
	DocumentPDF string  `json:"document_pdf" validate:"required"`
	CallbackURL *string `json:"callback_url,omitempty" validate:"omitempty,url"`
}

// DevisSendForSignature submits the rendered devis PDF to the e-signature
// provider and moves the devis to the pending-signature state.
func DevisSendForSignature(svc *signing.Service, webhookURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "devisId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body sendForSignatureRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pdf, err := base64.StdEncoding.DecodeString(body.DocumentPDF)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "document_pdf must be base64"))
			return
		}

		tracking, err := svc.SendForSignature(r.Context(), signing.SendInput{
			DevisID:       id,
			SignerName:    body.SignerName,
			SignerEmail:   body.SignerEmail,
			DocumentPDF:   pdf,
			WebhookURL:    webhookURL,
			RequesterHost: r.Host,
			CallbackURL:   body.CallbackURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tracking)
	}
}

// DevisEnvelopes lists the tracking rows referencing one devis.
func DevisEnvelopes(svc *signing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "devisId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForDevis(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// EnvelopeStatus returns the tracking row for one provider envelope.
func EnvelopeStatus(svc *signing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envelopeID := strings.TrimSpace(chi.URLParam(r, "envelopeId"))
		if envelopeID == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "envelope id is required"))
			return
		}
		tracking, err := svc.EnvelopeStatus(r.Context(), envelopeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tracking)
	}
}
