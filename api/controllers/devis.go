package controllers

import (
	"net/http"

	"github.com/lucasmoreno-dev/devisio-backend/api/responses"
	"github.com/lucasmoreno-dev/devisio-backend/api/validators"
	"github.com/lucasmoreno-dev/devisio-backend/internal/devis"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/enums"
	pkgerrors "github.com/lucasmoreno-dev/devisio-backend/pkg/errors"
	"github.com/lucasmoreno-dev/devisio-backend/pkg/logger"
)

type devisLineRequest struct {
	ArticleID   uint     `json:"article_id" validate:"required,gt=0"`
	Quantite    float64  `json:"quantite" validate:"gt=0"`
	TauxTVAID   *uint    `json:"taux_tva_id,omitempty"`
	TauxValeur  *float64 `json:"taux_tva,omitempty" validate:"omitempty,gte=0"`
	Commentaire *string  `json:"commentaire,omitempty"`
}

type devisRequest struct {
	Numero                  string             `json:"numero,omitempty"`
	ClientID                uint               `json:"client_id" validate:"required,gt=0"`
	Objet                   *string            `json:"objet,omitempty"`
	Statut                  *string            `json:"statut,omitempty"`
	Remise                  float64            `json:"remise" validate:"gte=0"`
	IsLocation              bool               `json:"is_location"`
	FirstContributionAmount *float64           `json:"first_contribution_amount,omitempty" validate:"omitempty,gte=0"`
	Lines                   []devisLineRequest `json:"lignes" validate:"dive"`
}

func (r devisRequest) lines() []devis.LineInput {
	lines := make([]devis.LineInput, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, devis.LineInput{
			ArticleID:   line.ArticleID,
			Quantite:    line.Quantite,
			TauxTVAID:   line.TauxTVAID,
			TauxValeur:  line.TauxValeur,
			Commentaire: line.Commentaire,
		})
	}
	return lines
}

func (r devisRequest) statut() (*enums.DevisStatus, error) {
	if r.Statut == nil {
		return nil, nil
	}
	status, err := enums.ParseDevisStatus(*r.Statut)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown devis status")
	}
	return &status, nil
}

func DevisList(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.QueryID(r, "client_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var list any
		if clientID != 0 {
			list, err = svc.ListByClient(r.Context(), clientID)
		} else {
			list, err = svc.List(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func DevisDetail(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "devisId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		d, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, d)
	}
}

func DevisCreate(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body devisRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := body.statut()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		d, err := svc.Create(r.Context(), devis.CreateInput{
			Numero:                  body.Numero,
			ClientID:                body.ClientID,
			Objet:                   body.Objet,
			Statut:                  status,
			Remise:                  body.Remise,
			IsLocation:              body.IsLocation,
			FirstContributionAmount: body.FirstContributionAmount,
			Lines:                   body.lines(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, d)
	}
}

func DevisUpdate(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "devisId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body devisRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := body.statut()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		d, err := svc.Update(r.Context(), id, devis.UpdateInput{
			ClientID:                body.ClientID,
			Objet:                   body.Objet,
			Statut:                  status,
			Remise:                  body.Remise,
			IsLocation:              body.IsLocation,
			FirstContributionAmount: body.FirstContributionAmount,
			Lines:                   body.lines(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, d)
	}
}

func DevisDelete(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "devisId")
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

// DevisNextNumero hands the frontend a free devis number for a new draft.
func DevisNextNumero(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		numero, err := svc.NextNumero(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"numero": numero})
	}
}

// DevisScenarios recomputes the three payment presentations for one devis.
func DevisScenarios(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "devisId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		d, set, err := svc.Scenarios(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, devis.ScenarioViewFrom(set, d.ScenarioRetenu))
	}
}

type selectScenarioRequest struct {
	Scenario string `json:"scenario" validate:"required"`
}

// DevisSelectScenario locks the payment scenario on first selection.
func DevisSelectScenario(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "devisId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body selectScenarioRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scenario, err := enums.ParseScenario(body.Scenario)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown scenario"))
			return
		}

		d, err := svc.SelectScenario(r.Context(), id, scenario)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, d)
	}
}

// DevisDocumentPayload returns the render-ready document payload. Signed
// devis are served from the frozen snapshot.
func DevisDocumentPayload(svc *devis.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLID(r, "devisId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := svc.DocumentPayload(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
