package controllers

import (
	"net/http"

	"github.com/lucasmoreno-dev/devisio-backend/api/responses"
	"github.com/lucasmoreno-dev/devisio-backend/api/validators"
	"github.com/lucasmoreno-dev/devisio-backend/internal/params"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

type parametersRequest struct {
	CompanyName  *string `json:"company_name,omitempty"`
	AddressLine1 *string `json:"address_line1,omitempty"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	Zip          *string `json:"zip,omitempty"`
	City         *string `json:"city,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	IBAN         *string `json:"iban,omitempty"`
	TVANumber    *string `json:"tva_number,omitempty"`
	SIRET        *string `json:"siret,omitempty"`
	APRM         *string `json:"aprm,omitempty"`

	MarginRate               float64 `json:"margin_rate" validate:"gte=0"`
	MarginRateLocation       float64 `json:"margin_rate_location" validate:"gte=0"`
	LocationSubscriptionCost float64 `json:"location_subscription_cost" validate:"gte=0"`
	LocationInterestsCost    float64 `json:"location_interests_cost" validate:"gte=0"`
	LocationTime             int     `json:"location_time" validate:"gte=0"`
	GeneralConditionsSales   *string `json:"general_conditions_sales,omitempty"`
}

func (r parametersRequest) toInput() params.Input {
	return params.Input{
		CompanyName:  r.CompanyName,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		Zip:          r.Zip,
		City:         r.City,
		Phone:        r.Phone,
		Email:        r.Email,
		IBAN:         r.IBAN,
		TVANumber:    r.TVANumber,
		SIRET:        r.SIRET,
		APRM:         r.APRM,

		MarginRate:               r.MarginRate,
		MarginRateLocation:       r.MarginRateLocation,
		LocationSubscriptionCost: r.LocationSubscriptionCost,
		LocationInterestsCost:    r.LocationInterestsCost,
		LocationTime:             r.LocationTime,
		GeneralConditionsSales:   r.GeneralConditionsSales,
	}
}

// ParametersGet returns the company configuration singleton, creating an
// empty row on first access.
func ParametersGet(svc *params.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

func ParametersUpdate(svc *params.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body parametersRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cfg, err := svc.Update(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}
