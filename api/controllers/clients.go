package controllers

import (
	"net/http"

	"github.com/lucasmoreno-dev/devisio-backend/api/responses"
	"github.com/lucasmoreno-dev/devisio-backend/api/validators"
	"github.com/lucasmoreno-dev/devisio-backend/internal/clients"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

type clientRequest struct {
	Nom          string  `json:"nom" validate:"required,min=1,max=255"`
	Contact      *string `json:"contact,omitempty"`
	AddressLine1 *string `json:"address_line1,omitempty"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	Zip          *string `json:"zip,omitempty"`
	City         *string `json:"city,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	TVANumber    *string `json:"tva_number,omitempty"`
	SIRET        *string `json:"siret,omitempty"`
}

func (r clientRequest) toInput() clients.Input {
	return clients.Input{
		Nom:          r.Nom,
		Contact:      r.Contact,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		Zip:          r.Zip,
		City:         r.City,
		Phone:        r.Phone,
		Email:        r.Email,
		TVANumber:    r.TVANumber,
		SIRET:        r.SIRET,
	}
}

func ClientList(svc *clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ClientDetail(svc *clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func ClientCreate(svc *clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body clientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, client)
	}
}

func ClientUpdate(svc *clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body clientRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := svc.Update(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func ClientDelete(svc *clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
